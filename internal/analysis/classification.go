package analysis

import "strings"

// Static classification for well-known tickers. Everything else is Other.
var sectors = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Technology",
	"GOOG":  "Technology",
	"META":  "Technology",
	"FB":    "Technology",
	"NVDA":  "Technology",
	"INTC":  "Technology",
	"CSCO":  "Technology",
	"AMZN":  "Consumer Cyclical",
	"HD":    "Consumer Cyclical",
	"TSLA":  "Automotive",
	"JPM":   "Financial Services",
	"V":     "Financial Services",
	"BAC":   "Financial Services",
	"JNJ":   "Healthcare",
	"PFE":   "Healthcare",
	"WMT":   "Consumer Defensive",
	"PG":    "Consumer Defensive",
	"XOM":   "Energy",
	"VZ":    "Communication Services",
	"T":     "Communication Services",
	"NFLX":  "Communication Services",
}

var assetClasses = map[string]string{
	"AGG": "Bonds",
	"BND": "Bonds",
	"LQD": "Bonds",
	"TLT": "Bonds",
	"SHY": "Bonds",
	"GLD": "Commodities",
	"SLV": "Commodities",
	"VNQ": "Real Estate",
}

func SectorOf(ticker string) string {
	if s, ok := sectors[strings.ToUpper(ticker)]; ok {
		return s
	}
	return SectorOther
}

// AssetClassOf treats every ticker with a known sector as a stock.
func AssetClassOf(ticker string) string {
	ticker = strings.ToUpper(ticker)
	if c, ok := assetClasses[ticker]; ok {
		return c
	}
	if _, ok := sectors[ticker]; ok {
		return "Stocks"
	}
	return AssetClassOther
}
