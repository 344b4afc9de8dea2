package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/middleware"
	"github.com/yakubov45/TechStore-sub000/internal/repository"
	"github.com/yakubov45/TechStore-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLineRequest is one line of a create-order payload
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest represents the order creation payload
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	DeliveryOption  string             `json:"delivery_option" validate:"required,oneof=pickup standard express"`
	PaymentMethod   string             `json:"payment_method" validate:"required,oneof=cash card payme"`
	Notes           string             `json:"notes"`
}

// UpdateStatusRequest represents the admin status change payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Note   string `json:"note"`
}

// OrderListResponse wraps a paginated order listing
type OrderListResponse struct {
	Orders   []*domain.Order `json:"orders"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware, rateLimitMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware)
			r.Post("/", h.Create)
		})
		r.Get("/my", h.ListMine)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/cancel", h.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Get("/", h.List)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// Create handles order placement
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.OrderLineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
			return
		}
		lines = append(lines, service.OrderLineRequest{ProductID: productID, Quantity: item.Quantity})
	}

	order, err := h.orderService.CreateOrder(
		r.Context(),
		userID,
		role,
		lines,
		req.ShippingAddress,
		domain.DeliveryOption(req.DeliveryOption),
		domain.PaymentMethod(req.PaymentMethod),
		req.Notes,
	)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// Get handles fetching a single order
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID, role)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Cancel handles customer order cancellation
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), orderID, userID)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateStatus handles an admin status change
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status), req.Note)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListMine handles a customer listing their own orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	page, pageSize := parsePagination(r)
	filter := repository.OrderFilter{UserID: &userID}

	orders, total, err := h.orderService.ListOrders(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// List handles admin order listing with filters
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := repository.OrderFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.OrderStatus(v)
		if !status.Valid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("payment_method"); v != "" {
		method := domain.PaymentMethod(v)
		if !method.Valid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown payment method")
			return
		}
		filter.PaymentMethod = &method
	}
	if v := r.URL.Query().Get("delivery_option"); v != "" {
		option := domain.DeliveryOption(v)
		if !option.Valid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown delivery option")
			return
		}
		filter.DeliveryOption = &option
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
			return
		}
		filter.UserID = &id
	}

	orders, total, err := h.orderService.ListOrders(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// respondOrderError maps the order error taxonomy to HTTP responses with
// actionable messages.
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		middleware.RespondWithError(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrEmptyOrder):
		middleware.RespondWithError(w, http.StatusBadRequest, "order must contain at least one item")
	case errors.Is(err, service.ErrNotAuthorized):
		middleware.RespondWithError(w, http.StatusForbidden, "not authorized for this action")
	case errors.Is(err, service.ErrInvalidTransition):
		middleware.RespondWithError(w, http.StatusConflict, "order status does not allow this transition")
	default:
		h.logger.Error("Order operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireIdentity extracts the trusted (userID, role) pair placed in the
// context by the auth middleware.
func requireIdentity(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, string, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.Error("Invalid user ID format", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return uuid.Nil, "", false
	}

	role, _ := middleware.GetUserRole(r.Context())
	return userID, role, true
}

func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 20
	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}
	return page, pageSize
}
