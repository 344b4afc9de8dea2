package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, userID uuid.UUID) *domain.Order {
	t.Helper()

	product := newTestProduct(t, "Phone", 1200000, 10)
	now := time.Now()

	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		ShippingAddr:   "Tashkent, Chilonzor 9",
		DeliveryOption: domain.DeliveryOptionStandard,
		DeliveryFee:    decimal.NewFromInt(25000),
		PaymentMethod:  domain.PaymentMethodCash,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		Subtotal:       decimal.NewFromInt(2400000),
		Discount:       decimal.Zero,
		Total:          decimal.NewFromInt(2425000),
		Status:         domain.OrderStatusPending,
		Notes:          "call before delivery",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	order.Items = []domain.OrderItem{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		UnitPrice: product.Price,
		Quantity:  2,
	}}
	order.History = []domain.StatusChange{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPending,
		Note:      "order placed",
		CreatedAt: now,
	}}

	require.NoError(t, NewOrderRepository(testDB).Create(context.Background(), order))
	return order
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	userID := uuid.New()
	order := newTestOrder(t, userID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, found.PaymentStatus)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(2400000)))
	assert.True(t, found.Total.Equal(found.Subtotal.Add(found.DeliveryFee).Sub(found.Discount)))

	require.Len(t, found.Items, 1)
	assert.Equal(t, "Phone", found.Items[0].Name)
	assert.True(t, found.Items[0].UnitPrice.Equal(decimal.NewFromInt(1200000)))
	assert.Equal(t, 2, found.Items[0].Quantity)

	require.Len(t, found.History, 1)
	assert.Equal(t, domain.OrderStatusPending, found.History[0].Status)
	assert.Equal(t, "order placed", found.History[0].Note)
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	repo := NewOrderRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_UpdateStatus_AppendsHistory(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := newTestOrder(t, uuid.New())

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, domain.PaymentStatusUnpaid, "picking items"))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered, domain.PaymentStatusPaid, "handed over"))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusDelivered, found.Status)
	assert.Equal(t, domain.PaymentStatusPaid, found.PaymentStatus)

	// Every transition is recorded, oldest first, and nothing is rewritten.
	require.Len(t, found.History, 3)
	assert.Equal(t, domain.OrderStatusPending, found.History[0].Status)
	assert.Equal(t, domain.OrderStatusProcessing, found.History[1].Status)
	assert.Equal(t, domain.OrderStatusDelivered, found.History[2].Status)
	assert.Equal(t, "picking items", found.History[1].Note)

	// The money fields are untouched by status updates.
	assert.True(t, found.Total.Equal(order.Total))
	assert.True(t, found.Subtotal.Equal(order.Subtotal))
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	repo := NewOrderRepository(testDB)

	err := repo.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusShipped, domain.PaymentStatusUnpaid, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_List_FiltersByUser(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	userID := uuid.New()
	first := newTestOrder(t, userID)
	second := newTestOrder(t, userID)
	newTestOrder(t, uuid.New()) // someone else's order

	orders, total, err := repo.List(ctx, OrderFilter{UserID: &userID}, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	ids := []uuid.UUID{orders[0].ID, orders[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)

	// Items and history are attached on listings too.
	assert.NotEmpty(t, orders[0].Items)
	assert.NotEmpty(t, orders[0].History)
}

func TestOrderRepository_List_FiltersByStatus(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	userID := uuid.New()
	cancelled := newTestOrder(t, userID)
	newTestOrder(t, userID)

	require.NoError(t, repo.UpdateStatus(ctx, cancelled.ID, domain.OrderStatusCancelled, domain.PaymentStatusUnpaid, "customer changed mind"))

	status := domain.OrderStatusCancelled
	orders, total, err := repo.List(ctx, OrderFilter{UserID: &userID, Status: &status}, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, cancelled.ID, orders[0].ID)
}
