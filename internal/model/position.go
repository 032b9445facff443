package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	OwnerID       string
	PortfolioID   string
	Ticker        string
	Shares        decimal.Decimal
	PurchasePrice decimal.Decimal
	PurchaseDate  string
	// CurrentPrice is nil when no quote has ever been obtained.
	CurrentPrice *decimal.Decimal
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Position) CostBasis() decimal.Decimal {
	return p.Shares.Mul(p.PurchasePrice)
}

// ValuedPosition is a position with the derived fields filled in. The derived
// pointers are nil when the position has no current price.
type ValuedPosition struct {
	Position
	CurrentValue *decimal.Decimal
	GainLoss     *decimal.Decimal
	GainLossPct  *decimal.Decimal
}

// PositionChanges holds the fields a caller may change on an existing position.
type PositionChanges struct {
	Shares        *decimal.Decimal
	PurchasePrice *decimal.Decimal
	PurchaseDate  *string
	Notes         *string
}
