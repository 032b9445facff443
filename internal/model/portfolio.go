package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPortfolioID   = "default"
	DefaultPortfolioName = "My Portfolio"
)

type Portfolio struct {
	OwnerID     string
	PortfolioID string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Portfolio) IsDefault() bool {
	return p.PortfolioID == DefaultPortfolioID
}

// PortfolioSummary aggregates priced positions only; UnpricedPositions counts the rest.
type PortfolioSummary struct {
	TotalValue        decimal.Decimal
	TotalCostBasis    decimal.Decimal
	TotalGainLoss     decimal.Decimal
	TotalGainLossPct  decimal.Decimal
	PositionsCount    int
	UnpricedPositions int
}

type PortfolioValuation struct {
	Portfolio Portfolio
	Positions []ValuedPosition
	Summary   PortfolioSummary
}
