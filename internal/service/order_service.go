package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrNotAuthorized     = errors.New("not authorized for this action")
	ErrInvalidTransition = errors.New("order status does not allow this transition")
)

// InsufficientStockError names the product whose stock ran short, so the
// customer can be told exactly which line failed.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderService defines the interface for order business logic: creation with
// its stock protocol, customer cancellation, and the status machine.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, role string, lines []OrderLineRequest,
		shippingAddr string, deliveryOption domain.DeliveryOption,
		paymentMethod domain.PaymentMethod, notes string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, role string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	notifier    OrderNotifier
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	notifier OrderNotifier,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateOrder turns a set of line requests into a durable order. Stock is
// decremented per line with an atomic conditional update; if any line fails,
// every decrement already made for this request is compensated before the
// error is returned, so the operation is all-or-nothing across lines. Each
// line carries an immutable snapshot of the product at the moment of
// purchase.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, role string, lines []OrderLineRequest,
	shippingAddr string, deliveryOption domain.DeliveryOption,
	paymentMethod domain.PaymentMethod, notes string) (*domain.Order, error) {

	// Ordering is a customer action. Operators manage orders, they do not
	// place them.
	if role == "admin" || role == "operator" {
		return nil, ErrNotAuthorized
	}

	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", line.ProductID)
		}
	}
	if !deliveryOption.Valid() {
		return nil, fmt.Errorf("unknown delivery option: %s", deliveryOption)
	}
	if !paymentMethod.Valid() {
		return nil, fmt.Errorf("unknown payment method: %s", paymentMethod)
	}

	// Decremented tracks stock taken so far, for compensation on failure.
	type decremented struct {
		productID uuid.UUID
		qty       int
	}
	taken := make([]decremented, 0, len(lines))

	rollback := func() {
		for _, d := range taken {
			if err := s.productRepo.IncrementStock(ctx, d.productID, d.qty); err != nil {
				// Best effort. Residual drift is caught by reconciliation.
				s.logger.Error("Failed to restore stock during order rollback",
					zap.String("product_id", d.productID.String()),
					zap.Int("quantity", d.qty),
					zap.Error(err),
				)
			}
		}
	}

	items := make([]domain.OrderItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			rollback()
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, repository.ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to fetch product: %w", err)
		}

		if err := s.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			rollback()
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.Stock,
				}
			}
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, repository.ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		taken = append(taken, decremented{productID: line.ProductID, qty: line.Quantity})

		// Snapshot the product as it is right now. The charged price is the
		// current catalog price, not anything cached earlier.
		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			ImageURL:  product.ImageURL,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	deliveryFee := domain.DeliveryFee(deliveryOption)
	discount := decimal.Zero // promo resolution happens upstream
	total := subtotal.Add(deliveryFee).Sub(discount)

	now := time.Now()
	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		ShippingAddr:   shippingAddr,
		DeliveryOption: deliveryOption,
		DeliveryFee:    deliveryFee,
		PaymentMethod:  paymentMethod,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		Subtotal:       subtotal,
		Discount:       discount,
		Total:          total,
		Status:         domain.OrderStatusPending,
		Notes:          notes,
		History: []domain.StatusChange{{
			ID:        uuid.New(),
			Status:    domain.OrderStatusPending,
			Note:      "order placed",
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	order.History[0].OrderID = order.ID

	if err := s.orderRepo.Create(ctx, order); err != nil {
		rollback()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// Post-commit side effect. Delivery problems are the notifier's to log;
	// the order stands regardless.
	s.notifier.NotifyOrderCreated(order)

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("lines", len(items)),
		zap.String("total", total.String()),
	)

	return order, nil
}

// CancelOrder lets a customer cancel their own pending or processing order,
// restoring each line's stock. Restoration is unconditional: a product that
// has since been deleted is logged and skipped rather than blocking the
// cancellation.
func (s *orderService) CancelOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID {
		return nil, ErrNotAuthorized
	}

	if !order.Status.Cancellable() {
		return nil, ErrInvalidTransition
	}

	for _, item := range order.Items {
		if err := s.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.Warn("Product missing during cancellation stock restore",
					zap.String("order_id", orderID.String()),
					zap.String("product_id", item.ProductID.String()),
				)
				continue
			}
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled, order.PaymentStatus, "cancelled by customer"); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info("Order cancelled by customer",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", requesterID.String()),
	)

	return s.orderRepo.FindByID(ctx, orderID)
}

// UpdateStatus applies an administrative status change. Admin transitions are
// not restricted by the customer state machine: any known status is accepted
// and appended to the history. Transitioning a cash-on-delivery order to
// delivered marks it paid, the only automatic payment-status coupling.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status: %s", status)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paymentStatus := order.PaymentStatus
	if status == domain.OrderStatusDelivered && order.PaymentMethod == domain.PaymentMethodCash {
		paymentStatus = domain.PaymentStatusPaid
	}

	if note == "" {
		note = fmt.Sprintf("status changed to %s", status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status, paymentStatus, note); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)),
	)

	return s.orderRepo.FindByID(ctx, orderID)
}

// GetOrder returns an order. Customers may only read their own orders;
// admins may read any.
func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, role string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if role != "admin" && order.UserID != requesterID {
		return nil, ErrNotAuthorized
	}

	return order, nil
}

// ListOrders returns orders matching the filter with a total count.
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.List(ctx, filter, page, pageSize)
}
