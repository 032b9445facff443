package analysis

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/valuation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValuation() model.PortfolioValuation {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	pos := func(ticker, shares, purchase string) model.Position {
		return model.Position{
			Ticker:        ticker,
			Shares:        decimal.RequireFromString(shares),
			PurchasePrice: decimal.RequireFromString(purchase),
		}
	}

	positions := []model.ValuedPosition{
		valuation.Value(pos("AAPL", "5", "100"), price("100")), // 500
		valuation.Value(pos("MSFT", "2", "150"), price("100")), // 200
		valuation.Value(pos("BND", "2", "50"), price("100")),   // 200
		valuation.Value(pos("ACME", "1", "50"), price("100")),  // 100
		valuation.Value(pos("ZZZZ", "1", "10"), nil),
	}
	return model.PortfolioValuation{Positions: positions, Summary: valuation.Summarize(positions)}
}

func TestPerformanceOf(t *testing.T) {
	perf := PerformanceOf(testValuation())

	assert.Equal(t, "950", perf.InitialValue.String())
	assert.Equal(t, "1000", perf.CurrentValue.String())
	assert.Equal(t, "50", perf.AbsoluteReturn.String())
	assert.Equal(t, "5.2632", perf.PercentageReturn.String())
	assert.Equal(t, 4, perf.PricedPositions)
	assert.Equal(t, 1, perf.UnpricedPositions)
	require.NotNil(t, perf.Best)
	require.NotNil(t, perf.Worst)
	assert.Equal(t, "BND", perf.Best.Ticker)
	assert.Equal(t, "MSFT", perf.Worst.Ticker)
}

func TestPerformanceOfEmpty(t *testing.T) {
	perf := PerformanceOf(model.PortfolioValuation{Summary: valuation.Summarize(nil)})
	assert.True(t, perf.PercentageReturn.IsZero())
	assert.Nil(t, perf.Best)
	assert.Nil(t, perf.Worst)
}

func TestDiversificationOf(t *testing.T) {
	div := DiversificationOf(testValuation())

	require.Len(t, div.SectorAllocation, 2)
	assert.Equal(t, "Technology", div.SectorAllocation[0].Name)
	assert.Equal(t, "700", div.SectorAllocation[0].Value.String())
	assert.Equal(t, "70", div.SectorAllocation[0].Percentage.String())
	assert.Equal(t, SectorOther, div.SectorAllocation[1].Name)
	assert.Equal(t, "30", div.SectorAllocation[1].Percentage.String())

	require.Len(t, div.AssetClassAllocation, 3)
	assert.Equal(t, "Stocks", div.AssetClassAllocation[0].Name)
	assert.Equal(t, "Bonds", div.AssetClassAllocation[1].Name)
	assert.Equal(t, AssetClassOther, div.AssetClassAllocation[2].Name)

	c := div.Concentration
	assert.Equal(t, 4, c.NumberOfPositions)
	assert.Equal(t, "50", c.TopHolding.String())
	assert.Equal(t, "90", c.Top3Holdings.String())
	assert.Equal(t, "100", c.Top5Holdings.String())
	// 50^2 + 20^2 + 20^2 + 10^2
	assert.Equal(t, "3400", c.HHI.String())
}

func TestClassification(t *testing.T) {
	assert.Equal(t, "Technology", SectorOf("aapl"))
	assert.Equal(t, SectorOther, SectorOf("BND"))
	assert.Equal(t, "Bonds", AssetClassOf("bnd"))
	assert.Equal(t, "Stocks", AssetClassOf("JPM"))
	assert.Equal(t, AssetClassOther, AssetClassOf("XYZ"))
}
