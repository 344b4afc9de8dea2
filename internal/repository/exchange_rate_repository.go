package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrExchangeRateNotFound = errors.New("exchange rate not found")
)

// ExchangeRateRepository defines the interface for exchange rate data access.
// One row exists per supported display currency; writes come only from the
// admin surface.
type ExchangeRateRepository interface {
	Get(ctx context.Context, currency string) (*domain.ExchangeRate, error)
	Set(ctx context.Context, currency string, rate decimal.Decimal) error
	List(ctx context.Context) ([]*domain.ExchangeRate, error)
}

type exchangeRateRepository struct {
	db *sql.DB
}

// NewExchangeRateRepository creates a new instance of ExchangeRateRepository
func NewExchangeRateRepository(db *sql.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

// Get retrieves the rate record for a currency
func (r *exchangeRateRepository) Get(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	query := `
		SELECT currency, rate, updated_at
		FROM exchange_rates
		WHERE currency = $1
	`

	rate := &domain.ExchangeRate{}
	err := r.db.QueryRowContext(ctx, query, currency).Scan(
		&rate.Currency,
		&rate.Rate,
		&rate.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrExchangeRateNotFound
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return rate, nil
}

// Set upserts the rate for a currency, stamping the update time
func (r *exchangeRateRepository) Set(ctx context.Context, currency string, rate decimal.Decimal) error {
	query := `
		INSERT INTO exchange_rates (currency, rate, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (currency) DO UPDATE
		SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, currency, rate, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set exchange rate: %w", err)
	}

	return nil
}

// List retrieves all configured rates
func (r *exchangeRateRepository) List(ctx context.Context) ([]*domain.ExchangeRate, error) {
	query := `
		SELECT currency, rate, updated_at
		FROM exchange_rates
		ORDER BY currency ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	rates := []*domain.ExchangeRate{}
	for rows.Next() {
		rate := &domain.ExchangeRate{}
		if err := rows.Scan(&rate.Currency, &rate.Rate, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates = append(rates, rate)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rates: %w", err)
	}

	return rates, nil
}
