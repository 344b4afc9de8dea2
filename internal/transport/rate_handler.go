package transport

import (
	"errors"
	"net/http"

	"github.com/yakubov45/TechStore-sub000/internal/middleware"
	"github.com/yakubov45/TechStore-sub000/internal/money"
	"github.com/yakubov45/TechStore-sub000/internal/repository"
	"github.com/yakubov45/TechStore-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SetRateRequest represents the admin exchange rate payload
type SetRateRequest struct {
	Rate string `json:"rate" validate:"required"`
}

// RateHandler handles HTTP requests for exchange rates. Reads are public,
// writes are admin-only.
type RateHandler struct {
	currencyService service.CurrencyService
	logger          *zap.Logger
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(currencyService service.CurrencyService, logger *zap.Logger) *RateHandler {
	return &RateHandler{
		currencyService: currencyService,
		logger:          logger,
	}
}

// RegisterRoutes registers all exchange rate routes
func (h *RateHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/rates", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{currency}", h.Get)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Put("/{currency}", h.Set)
		})
	})
}

// List handles listing all configured rates
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	rates, err := h.currencyService.ListRates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list exchange rates", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list exchange rates")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rates)
}

// Get handles fetching the rate for one currency
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	currency := money.Currency(chi.URLParam(r, "currency"))

	rate, err := h.currencyService.GetRate(r.Context(), currency)
	if err != nil {
		h.respondRateError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rate)
}

// Set handles an admin rate update
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	currency := money.Currency(chi.URLParam(r, "currency"))

	var req SetRateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	value, err := decimal.NewFromString(req.Rate)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid rate")
		return
	}

	rate, err := h.currencyService.SetRate(r.Context(), currency, value)
	if err != nil {
		h.respondRateError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rate)
}

func (h *RateHandler) respondRateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrExchangeRateNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "exchange rate not found")
	case errors.Is(err, money.ErrUnsupportedCurrency):
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported currency")
	case errors.Is(err, money.ErrInvalidAmount):
		middleware.RespondWithError(w, http.StatusBadRequest, "rate must be positive")
	default:
		h.logger.Error("Exchange rate operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
