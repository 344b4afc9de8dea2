package transport

import (
	"errors"
	"net/http"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/middleware"
	"github.com/yakubov45/TechStore-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyDiscountRequest represents the bulk discount payload
type ApplyDiscountRequest struct {
	Scope    string `json:"scope" validate:"required,oneof=all category brand product"`
	TargetID string `json:"target_id" validate:"omitempty,uuid"`
	Kind     string `json:"kind" validate:"required,oneof=percentage fixed"`
	Value    string `json:"value" validate:"required"`
}

// RemoveDiscountRequest represents the bulk discount removal payload
type RemoveDiscountRequest struct {
	Scope    string `json:"scope" validate:"required,oneof=all category brand product"`
	TargetID string `json:"target_id" validate:"omitempty,uuid"`
}

// DiscountResponse reports how many products a bulk operation touched
type DiscountResponse struct {
	ProductsTouched int `json:"products_touched"`
}

// DiscountHandler handles HTTP requests for bulk discount operations
type DiscountHandler struct {
	discountService service.DiscountService
	logger          *zap.Logger
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discountService service.DiscountService, logger *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		logger:          logger,
	}
}

// RegisterRoutes registers all discount routes. Both operations are
// admin-only.
func (h *DiscountHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/discounts", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Post("/apply", h.Apply)
		r.Post("/remove", h.Remove)
	})
}

func parseTarget(scope, targetID string) (domain.DiscountTarget, error) {
	target := domain.DiscountTarget{Scope: domain.DiscountScope(scope)}
	if target.Scope != domain.DiscountScopeAll {
		id, err := uuid.Parse(targetID)
		if err != nil {
			return target, errors.New("target_id is required for this scope")
		}
		target.TargetID = id
	}
	return target, nil
}

// Apply handles applying a bulk discount
func (h *DiscountHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyDiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := parseTarget(req.Scope, req.TargetID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount value")
		return
	}

	touched, err := h.discountService.Apply(r.Context(), target, domain.DiscountKind(req.Kind), value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDiscountValue) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to apply discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to apply discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DiscountResponse{ProductsTouched: touched})
}

// Remove handles removing a bulk discount
func (h *DiscountHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveDiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := parseTarget(req.Scope, req.TargetID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	touched, err := h.discountService.Remove(r.Context(), target)
	if err != nil {
		h.logger.Error("Failed to remove discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DiscountResponse{ProductsTouched: touched})
}
