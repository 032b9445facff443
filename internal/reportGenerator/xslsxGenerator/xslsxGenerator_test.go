package xslsxGenerator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestGenerate(t *testing.T) {
	valuation := model.PortfolioValuation{
		Portfolio: model.Portfolio{PortfolioID: "default", Name: "My Portfolio"},
		Positions: []model.ValuedPosition{
			{
				Position: model.Position{
					Ticker:        "AAPL",
					Shares:        decimal.NewFromInt(10),
					PurchasePrice: decimal.RequireFromString("150.25"),
					PurchaseDate:  "2024-01-15",
					CurrentPrice:  dec("190"),
					Notes:         "Imported from csv on 2024-03-15",
				},
				CurrentValue: dec("1900"),
				GainLoss:     dec("397.5"),
				GainLossPct:  dec("26.4559"),
			},
			{
				Position: model.Position{
					Ticker:        "XYZ",
					Shares:        decimal.NewFromInt(2),
					PurchasePrice: decimal.NewFromInt(5),
					PurchaseDate:  "2024-02-01",
				},
			},
		},
		Summary: model.PortfolioSummary{
			TotalValue:        decimal.NewFromInt(1900),
			TotalCostBasis:    decimal.RequireFromString("1502.5"),
			TotalGainLoss:     decimal.RequireFromString("397.5"),
			TotalGainLossPct:  decimal.RequireFromString("26.4559"),
			PositionsCount:    1,
			UnpricedPositions: 1,
		},
	}

	data, ext, err := New().Generate(context.Background(), valuation)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"My Portfolio"}, f.GetSheetList())

	rows, err := f.GetRows("My Portfolio")
	require.NoError(t, err)

	assert.Equal(t, "Holdings", rows[0][0])
	assert.Equal(t, holdingsColumns, rows[1])
	assert.Equal(t, "AAPL", rows[2][0])
	assert.Equal(t, "1900", rows[2][6])
	assert.Equal(t, "XYZ", rows[3][0])
	assert.Equal(t, "10", rows[3][4])
	price, err := f.GetCellValue("My Portfolio", "F4")
	require.NoError(t, err)
	assert.Empty(t, price)

	assert.Equal(t, "Summary", rows[6][0])
	assert.Equal(t, []string{"portfolio", "My Portfolio"}, rows[7])
	assert.Equal(t, []string{"total value", "1900"}, rows[8])
	assert.Equal(t, []string{"unpriced positions", "1"}, rows[13])
}

func TestSheetNameFor(t *testing.T) {
	assert.Equal(t, "Holdings", sheetNameFor(model.Portfolio{Name: "  "}))
	assert.Equal(t, "Tech  Growth", sheetNameFor(model.Portfolio{Name: "Tech/[Growth"}))
	assert.Equal(t, strings.Repeat("a", 31), sheetNameFor(model.Portfolio{Name: strings.Repeat("a", 40)}))
}
