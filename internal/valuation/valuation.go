// Package valuation derives the figures shown for positions and portfolios.
// All functions are pure.
package valuation

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

const pctPlaces = 4

// Value prices the position at price. With a nil price the derived fields
// stay nil.
func Value(position model.Position, price *decimal.Decimal) model.ValuedPosition {
	valued := model.ValuedPosition{Position: position}
	if price == nil {
		valued.CurrentPrice = nil
		return valued
	}

	p := *price
	valued.CurrentPrice = &p

	currentValue := position.Shares.Mul(p)
	costBasis := position.CostBasis()
	gainLoss := currentValue.Sub(costBasis)
	gainLossPct := Pct(gainLoss, costBasis)

	valued.CurrentValue = &currentValue
	valued.GainLoss = &gainLoss
	valued.GainLossPct = &gainLossPct

	return valued
}

// Pct returns part/whole*100, or zero when whole is zero.
func Pct(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(pctPlaces)
}

// Summarize sums the priced positions; unpriced ones are only counted.
func Summarize(positions []model.ValuedPosition) model.PortfolioSummary {
	summary := model.PortfolioSummary{
		TotalValue:     decimal.Zero,
		TotalCostBasis: decimal.Zero,
		TotalGainLoss:  decimal.Zero,
		PositionsCount: len(positions),
	}

	for _, p := range positions {
		if p.CurrentValue == nil {
			summary.UnpricedPositions++
			continue
		}
		summary.TotalValue = summary.TotalValue.Add(*p.CurrentValue)
		summary.TotalCostBasis = summary.TotalCostBasis.Add(p.CostBasis())
	}

	summary.TotalGainLoss = summary.TotalValue.Sub(summary.TotalCostBasis)
	summary.TotalGainLossPct = Pct(summary.TotalGainLoss, summary.TotalCostBasis)

	return summary
}

// ValuePortfolio values every position with the price returned by priceOf.
func ValuePortfolio(portfolio model.Portfolio, positions []model.Position, priceOf func(model.Position) *decimal.Decimal) model.PortfolioValuation {
	valued := make([]model.ValuedPosition, 0, len(positions))
	for _, p := range positions {
		valued = append(valued, Value(p, priceOf(p)))
	}
	return model.PortfolioValuation{
		Portfolio: portfolio,
		Positions: valued,
		Summary:   Summarize(valued),
	}
}
