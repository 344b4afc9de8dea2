package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidDiscountValue = errors.New("invalid discount value")
)

var oneHundred = decimal.NewFromInt(100)

// DiscountService applies and removes bulk price adjustments while keeping
// each product's price / compare-price pair consistent.
type DiscountService interface {
	Apply(ctx context.Context, target domain.DiscountTarget, kind domain.DiscountKind, value decimal.Decimal) (int, error)
	Remove(ctx context.Context, target domain.DiscountTarget) (int, error)
}

type discountService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(productRepo repository.ProductRepository, logger *zap.Logger) DiscountService {
	return &discountService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Apply discounts every product the target resolves to and returns how many
// were touched. The pre-discount price is captured into compare price only
// when none is recorded yet; applying a second discount on top of an active
// one compounds on the already-discounted price and does NOT re-capture.
// Callers stacking discounts should Remove first if they want the original
// price as the base.
//
// Validation happens before any product is read or written, so an invalid
// value never partially applies. Across products there is no atomicity: a
// failure mid-way leaves earlier products discounted, which is acceptable
// because each product's own price pair is written in a single update.
func (s *discountService) Apply(ctx context.Context, target domain.DiscountTarget, kind domain.DiscountKind, value decimal.Decimal) (int, error) {
	switch kind {
	case domain.DiscountKindPercentage:
		if !value.IsPositive() || value.GreaterThan(oneHundred) {
			return 0, fmt.Errorf("%w: percentage must be in (0, 100], got %s", ErrInvalidDiscountValue, value)
		}
	case domain.DiscountKindFixed:
		if !value.IsPositive() {
			return 0, fmt.Errorf("%w: fixed amount must be positive, got %s", ErrInvalidDiscountValue, value)
		}
	default:
		return 0, fmt.Errorf("%w: unknown discount kind %q", ErrInvalidDiscountValue, kind)
	}

	products, err := s.productRepo.ListByTarget(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve discount target: %w", err)
	}

	touched := 0
	for _, product := range products {
		comparePrice := product.ComparePrice
		if comparePrice == nil {
			captured := product.Price
			comparePrice = &captured
		}

		var newPrice decimal.Decimal
		switch kind {
		case domain.DiscountKindPercentage:
			newPrice = product.Price.Mul(oneHundred.Sub(value)).Div(oneHundred)
		case domain.DiscountKindFixed:
			newPrice = product.Price.Sub(value)
			if newPrice.IsNegative() {
				newPrice = decimal.Zero
			}
		}

		if err := s.productRepo.SetPrice(ctx, product.ID, newPrice, comparePrice); err != nil {
			return touched, fmt.Errorf("failed to discount product %s: %w", product.ID, err)
		}
		touched++
	}

	s.logger.Info("Bulk discount applied",
		zap.String("scope", string(target.Scope)),
		zap.String("kind", string(kind)),
		zap.String("value", value.String()),
		zap.Int("products", touched),
	)

	return touched, nil
}

// Remove restores every discounted product in the target back to its
// captured compare price and clears the capture. Products without an active
// discount are left untouched.
func (s *discountService) Remove(ctx context.Context, target domain.DiscountTarget) (int, error) {
	products, err := s.productRepo.ListByTarget(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve discount target: %w", err)
	}

	touched := 0
	for _, product := range products {
		if product.ComparePrice == nil {
			continue
		}

		if err := s.productRepo.SetPrice(ctx, product.ID, *product.ComparePrice, nil); err != nil {
			return touched, fmt.Errorf("failed to restore product %s: %w", product.ID, err)
		}
		touched++
	}

	s.logger.Info("Bulk discount removed",
		zap.String("scope", string(target.Scope)),
		zap.Int("products", touched),
	)

	return touched, nil
}
