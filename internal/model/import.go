package model

import "github.com/shopspring/decimal"

// Candidate is one data row that survived normalization. Either Ticker or
// CompanyName is set and Shares is positive.
type Candidate struct {
	Row           int
	Ticker        string
	CompanyName   string
	Shares        decimal.Decimal
	PurchasePrice decimal.Decimal
	PurchaseDate  string
}

type Resolution struct {
	Ticker string
	// Quote is nil when the quote service could not price the ticker.
	Quote *Quote
	// LookedUpFrom holds the company name the ticker was searched by.
	LookedUpFrom string
}

// ImportLot is an enriched candidate ready to be written.
type ImportLot struct {
	Row      int
	Position Position
	Warnings []string
}

// ImportResult is returned once per import call and never persisted.
type ImportResult struct {
	TotalPositions   int
	ValidPositions   int
	AddedPositions   int
	SkippedPositions int
	Errors           int
	Warnings         []string
}
