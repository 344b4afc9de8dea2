package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether a customer may still cancel an order in this
// status. Orders that have shipped or later are out of the customer's hands.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// PaymentStatus tracks whether an order has been paid for.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodPayme PaymentMethod = "payme"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPayme:
		return true
	}
	return false
}

// DeliveryOption is the fixed set of delivery choices.
type DeliveryOption string

const (
	DeliveryOptionPickup   DeliveryOption = "pickup"
	DeliveryOptionStandard DeliveryOption = "standard"
	DeliveryOptionExpress  DeliveryOption = "express"
)

// Valid reports whether d is a known delivery option.
func (d DeliveryOption) Valid() bool {
	switch d {
	case DeliveryOptionPickup, DeliveryOptionStandard, DeliveryOptionExpress:
		return true
	}
	return false
}

// Delivery fees in canonical currency units, keyed by delivery option.
// Pickup is free; standard and express carry fixed fees.
var deliveryFees = map[DeliveryOption]decimal.Decimal{
	DeliveryOptionPickup:   decimal.Zero,
	DeliveryOptionStandard: decimal.NewFromInt(25000),
	DeliveryOptionExpress:  decimal.NewFromInt(50000),
}

// DeliveryFee returns the fixed fee for the delivery option. Unknown options
// return zero; callers validate the option before computing fees.
func DeliveryFee(opt DeliveryOption) decimal.Decimal {
	return deliveryFees[opt]
}

// OrderItem is a single line of an order. Name, UnitPrice, ImageURL and SKU
// are an immutable snapshot taken at order creation. Later catalog edits do
// not touch it; the order remains a faithful record of what was sold and for
// how much.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	SKU       string          `json:"sku" db:"sku"`
	ImageURL  string          `json:"image_url" db:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

// LineTotal returns unit price times quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusChange is one entry of an order's append-only status history.
type StatusChange struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	OrderID   uuid.UUID   `json:"order_id" db:"order_id"`
	Status    OrderStatus `json:"status" db:"status"`
	Note      string      `json:"note" db:"note"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Order is a placed order. Total == Subtotal + DeliveryFee - Discount is
// established at creation and never recomputed. After creation only Status
// and PaymentStatus change; everything else is frozen. Orders are never
// deleted, cancellation is a status transition.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Items          []OrderItem     `json:"items"`
	ShippingAddr   string          `json:"shipping_address" db:"shipping_address"`
	DeliveryOption DeliveryOption  `json:"delivery_option" db:"delivery_option"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status" db:"payment_status"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Status         OrderStatus     `json:"status" db:"status"`
	Notes          string          `json:"notes" db:"notes"`
	History        []StatusChange  `json:"history"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
