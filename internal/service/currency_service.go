package service

import (
	"context"
	"fmt"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/money"
	"github.com/yakubov45/TechStore-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// CurrencyService resolves exchange rates and converts canonical amounts for
// display. The rate is fetched once per call and threaded into the pure
// conversion; nothing here holds a mutable "current rate".
type CurrencyService interface {
	Convert(ctx context.Context, amountBase decimal.Decimal, display money.Currency) (decimal.Decimal, error)
	GetRate(ctx context.Context, currency money.Currency) (*domain.ExchangeRate, error)
	SetRate(ctx context.Context, currency money.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error)
	ListRates(ctx context.Context) ([]*domain.ExchangeRate, error)
}

type currencyService struct {
	rateRepo repository.ExchangeRateRepository
}

// NewCurrencyService creates a new instance of CurrencyService
func NewCurrencyService(rateRepo repository.ExchangeRateRepository) CurrencyService {
	return &currencyService{rateRepo: rateRepo}
}

// Convert converts a canonical amount into the display currency. The
// canonical currency short-circuits without a rate lookup.
func (s *currencyService) Convert(ctx context.Context, amountBase decimal.Decimal, display money.Currency) (decimal.Decimal, error) {
	if money.Canonical(display) {
		return money.Convert(amountBase, display, decimal.NewFromInt(1))
	}

	rate, err := s.rateRepo.Get(ctx, string(display))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to resolve rate for %s: %w", display, err)
	}

	return money.Convert(amountBase, display, rate.Rate)
}

// GetRate returns the stored rate record for a display currency.
func (s *currencyService) GetRate(ctx context.Context, currency money.Currency) (*domain.ExchangeRate, error) {
	if !money.Supported(currency) {
		return nil, fmt.Errorf("%w: %s", money.ErrUnsupportedCurrency, currency)
	}
	return s.rateRepo.Get(ctx, string(currency))
}

// SetRate writes a new rate (admin action). The rate must be positive.
func (s *currencyService) SetRate(ctx context.Context, currency money.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error) {
	if !money.Supported(currency) || money.Canonical(currency) {
		return nil, fmt.Errorf("%w: %s", money.ErrUnsupportedCurrency, currency)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive", money.ErrInvalidAmount)
	}

	if err := s.rateRepo.Set(ctx, string(currency), rate); err != nil {
		return nil, err
	}

	return s.rateRepo.Get(ctx, string(currency))
}

// ListRates returns every configured rate.
func (s *currencyService) ListRates(ctx context.Context) ([]*domain.ExchangeRate, error) {
	return s.rateRepo.List(ctx)
}
