package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	OwnerID       string              `db:"owner_id"`
	PortfolioID   string              `db:"portfolio_id"`
	Ticker        string              `db:"ticker"`
	Shares        decimal.Decimal     `db:"shares"`
	PurchasePrice decimal.Decimal     `db:"purchase_price"`
	PurchaseDate  string              `db:"purchase_date"`
	CurrentPrice  decimal.NullDecimal `db:"current_price"`
	Notes         string              `db:"notes"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}
