package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate holds the admin-maintained conversion rate for one display
// currency. One row exists per supported non-canonical currency; the
// canonical currency never has a row, its rate is always 1.
type ExchangeRate struct {
	Currency  string          `json:"currency" db:"currency"`
	Rate      decimal.Decimal `json:"rate" db:"rate"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
