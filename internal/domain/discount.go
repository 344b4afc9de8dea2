package domain

import "github.com/google/uuid"

// DiscountKind distinguishes percentage and fixed-amount discounts.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "percentage"
	DiscountKindFixed      DiscountKind = "fixed"
)

// DiscountScope selects which slice of the catalog a bulk discount touches.
type DiscountScope string

const (
	DiscountScopeAll      DiscountScope = "all"
	DiscountScopeCategory DiscountScope = "category"
	DiscountScopeBrand    DiscountScope = "brand"
	DiscountScopeProduct  DiscountScope = "product"
)

// DiscountTarget resolves to a candidate set of products. TargetID is unused
// when Scope is DiscountScopeAll.
type DiscountTarget struct {
	Scope    DiscountScope `json:"scope"`
	TargetID uuid.UUID     `json:"target_id,omitempty"`
}
