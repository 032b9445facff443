package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InstrumentEquity     = "EQUITY"
	InstrumentETF        = "ETF"
	InstrumentMutualFund = "MUTUALFUND"
)

type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Currency      string          `json:"currency"`
	AsOfDate      time.Time       `json:"asOfDate"`
}

type SearchResult struct {
	Symbol         string
	Name           string
	InstrumentType string
	Exchange       string
}
