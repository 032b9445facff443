package httpModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Portfolio struct {
	PortfolioID string    `json:"portfolioId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdatePortfolioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Position numbers are nil when the position has no current price.
type Position struct {
	Ticker        string    `json:"ticker"`
	Shares        float64   `json:"shares"`
	PurchasePrice float64   `json:"purchasePrice"`
	PurchaseDate  string    `json:"purchaseDate"`
	CurrentPrice  *float64  `json:"currentPrice"`
	Notes         string    `json:"notes"`
	PortfolioID   string    `json:"portfolioId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	CurrentValue  *float64  `json:"currentValue"`
	GainLoss      *float64  `json:"gainLoss"`
	GainLossPct   *float64  `json:"gainLossPct"`
}

type AddPositionRequest struct {
	Ticker        string          `json:"ticker"`
	Shares        decimal.Decimal `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  string          `json:"purchaseDate"`
	Notes         string          `json:"notes"`
}

type UpdatePositionRequest struct {
	Shares        *decimal.Decimal `json:"shares"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  *string          `json:"purchaseDate"`
	Notes         *string          `json:"notes"`
}

type Summary struct {
	TotalValue        float64 `json:"totalValue"`
	TotalCostBasis    float64 `json:"totalCostBasis"`
	TotalGainLoss     float64 `json:"totalGainLoss"`
	TotalGainLossPct  float64 `json:"totalGainLossPct"`
	PositionsCount    int     `json:"positionsCount"`
	UnpricedPositions int     `json:"unpricedPositions"`
}

type Valuation struct {
	Positions []Position `json:"positions"`
	Summary   Summary    `json:"summary"`
}

type ImportResults struct {
	TotalPositions   int      `json:"totalPositions"`
	ValidPositions   int      `json:"validPositions"`
	AddedPositions   int      `json:"addedPositions"`
	SkippedPositions int      `json:"skippedPositions"`
	Errors           int      `json:"errors"`
	Warnings         []string `json:"warnings"`
}

type ImportResponse struct {
	Message string        `json:"message"`
	Results ImportResults `json:"results"`
}

type PositionReturn struct {
	Ticker           string  `json:"ticker"`
	AbsoluteReturn   float64 `json:"absoluteReturn"`
	PercentageReturn float64 `json:"percentageReturn"`
}

type Performance struct {
	InitialValue      float64         `json:"initialValue"`
	CurrentValue      float64         `json:"currentValue"`
	AbsoluteReturn    float64         `json:"absoluteReturn"`
	PercentageReturn  float64         `json:"percentageReturn"`
	PricedPositions   int             `json:"pricedPositions"`
	UnpricedPositions int             `json:"unpricedPositions"`
	BestPerformer     *PositionReturn `json:"bestPerformer"`
	WorstPerformer    *PositionReturn `json:"worstPerformer"`
}

type Allocation struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type Concentration struct {
	TopHolding        float64 `json:"topHolding"`
	Top3Holdings      float64 `json:"top3Holdings"`
	Top5Holdings      float64 `json:"top5Holdings"`
	HHI               float64 `json:"herfindahlIndex"`
	NumberOfPositions int     `json:"numberOfPositions"`
}

type Diversification struct {
	SectorAllocation     []Allocation  `json:"sectorAllocation"`
	AssetClassAllocation []Allocation  `json:"assetClassAllocation"`
	Concentration        Concentration `json:"concentrationMetrics"`
}

type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"changePercent"`
	Currency      string    `json:"currency"`
	AsOfDate      time.Time `json:"asOfDate"`
}

type SearchResult struct {
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	InstrumentType string `json:"type"`
	Exchange       string `json:"exchange"`
}

type ShareLink struct {
	Link string `json:"link"`
}
