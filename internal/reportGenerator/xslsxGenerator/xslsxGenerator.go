package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	holdingsSheet = "Holdings"
	maxSheetName  = 31
)

var holdingsColumns = []string{
	"ticker", "shares", "purchase price", "purchase date", "cost basis",
	"current price", "current value", "gain/loss", "gain/loss %", "notes",
}

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate renders a portfolio valuation into an xlsx workbook with a single
// sheet: holdings first, summary below.
func (g *XSLSXGenerator) Generate(ctx context.Context, valuation model.PortfolioValuation) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", valuation.Portfolio.PortfolioID))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	sheetName := sheetNameFor(valuation.Portfolio)
	if err = f.SetSheetName("Sheet1", sheetName); err != nil {
		slog.Error("got error while renaming Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err = g.fillSheet(f, sheetName, valuation); err != nil {
		slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillSheet(f *excelize.File, sheetName string, valuation model.PortfolioValuation) error {
	lastCol, _ := excelize.ColumnNumberToName(len(holdingsColumns))

	// позиции
	if err := section(f, sheetName, 1, lastCol, holdingsSheet, "#cfe2f3"); err != nil {
		return err
	}
	for i, name := range holdingsColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheetName, cell, name)
	}

	for i, p := range valuation.Positions {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), p.Ticker)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.Shares.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.PurchasePrice.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), p.PurchaseDate)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.CostBasis().InexactFloat64())
		setOptional(f, sheetName, fmt.Sprintf("F%d", row), p.CurrentPrice)
		setOptional(f, sheetName, fmt.Sprintf("G%d", row), p.CurrentValue)
		setOptional(f, sheetName, fmt.Sprintf("H%d", row), p.GainLoss)
		setOptional(f, sheetName, fmt.Sprintf("I%d", row), p.GainLossPct)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("J%d", row), p.Notes)
	}

	// итоги
	rowNum := len(valuation.Positions) + 5
	if err := section(f, sheetName, rowNum, "B", "Summary", "#d9ead3"); err != nil {
		return err
	}

	summary := valuation.Summary
	lines := []struct {
		label string
		value any
	}{
		{"portfolio", valuation.Portfolio.Name},
		{"total value", summary.TotalValue.InexactFloat64()},
		{"total cost basis", summary.TotalCostBasis.InexactFloat64()},
		{"total gain/loss", summary.TotalGainLoss.InexactFloat64()},
		{"total gain/loss %", summary.TotalGainLossPct.InexactFloat64()},
		{"positions", summary.PositionsCount},
		{"unpriced positions", summary.UnpricedPositions},
	}
	for _, line := range lines {
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), line.label)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), line.value)
	}

	return f.SetColWidth(sheetName, "A", lastCol, 16)
}

// section writes a merged, filled title row spanning columns A..lastCol.
func section(f *excelize.File, sheetName string, row int, lastCol, title, color string) error {
	first := fmt.Sprintf("A%d", row)
	if err := f.MergeCell(sheetName, first, fmt.Sprintf("%s%d", lastCol, row)); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, first, title)

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, first, first, styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	return nil
}

// setOptional leaves the cell empty for unpriced positions.
func setOptional(f *excelize.File, sheetName, cell string, v *decimal.Decimal) {
	if v == nil {
		return
	}
	_ = f.SetCellValue(sheetName, cell, v.InexactFloat64())
}

func sheetNameFor(p model.Portfolio) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return ' '
		}
		return r
	}, strings.TrimSpace(p.Name))
	name = strings.Trim(name, "'")

	if name == "" {
		name = holdingsSheet
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
