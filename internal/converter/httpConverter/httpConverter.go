package httpConverter

import (
	"github.com/KotFed0t/portfolio_tracker/internal/analysis"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/httpModel"
	"github.com/shopspring/decimal"
)

const importMessage = "Import completed"

func ConvertPortfolio(p model.Portfolio) httpModel.Portfolio {
	return httpModel.Portfolio{
		PortfolioID: p.PortfolioID,
		Name:        p.Name,
		Description: p.Description,
		IsDefault:   p.IsDefault(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ConvertPortfolios(portfolios []model.Portfolio) []httpModel.Portfolio {
	res := make([]httpModel.Portfolio, 0, len(portfolios))
	for _, p := range portfolios {
		res = append(res, ConvertPortfolio(p))
	}
	return res
}

func ConvertPosition(p model.ValuedPosition) httpModel.Position {
	return httpModel.Position{
		Ticker:        p.Ticker,
		Shares:        p.Shares.InexactFloat64(),
		PurchasePrice: p.PurchasePrice.InexactFloat64(),
		PurchaseDate:  p.PurchaseDate,
		CurrentPrice:  optionalFloat(p.CurrentPrice),
		Notes:         p.Notes,
		PortfolioID:   p.PortfolioID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		CurrentValue:  optionalFloat(p.CurrentValue),
		GainLoss:      optionalFloat(p.GainLoss),
		GainLossPct:   optionalFloat(p.GainLossPct),
	}
}

func ConvertValuation(v model.PortfolioValuation) httpModel.Valuation {
	positions := make([]httpModel.Position, 0, len(v.Positions))
	for _, p := range v.Positions {
		positions = append(positions, ConvertPosition(p))
	}

	return httpModel.Valuation{
		Positions: positions,
		Summary: httpModel.Summary{
			TotalValue:        v.Summary.TotalValue.InexactFloat64(),
			TotalCostBasis:    v.Summary.TotalCostBasis.InexactFloat64(),
			TotalGainLoss:     v.Summary.TotalGainLoss.InexactFloat64(),
			TotalGainLossPct:  v.Summary.TotalGainLossPct.InexactFloat64(),
			PositionsCount:    v.Summary.PositionsCount,
			UnpricedPositions: v.Summary.UnpricedPositions,
		},
	}
}

func ConvertImportResult(r model.ImportResult) httpModel.ImportResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return httpModel.ImportResponse{
		Message: importMessage,
		Results: httpModel.ImportResults{
			TotalPositions:   r.TotalPositions,
			ValidPositions:   r.ValidPositions,
			AddedPositions:   r.AddedPositions,
			SkippedPositions: r.SkippedPositions,
			Errors:           r.Errors,
			Warnings:         warnings,
		},
	}
}

func ConvertPerformance(p analysis.Performance) httpModel.Performance {
	return httpModel.Performance{
		InitialValue:      p.InitialValue.InexactFloat64(),
		CurrentValue:      p.CurrentValue.InexactFloat64(),
		AbsoluteReturn:    p.AbsoluteReturn.InexactFloat64(),
		PercentageReturn:  p.PercentageReturn.InexactFloat64(),
		PricedPositions:   p.PricedPositions,
		UnpricedPositions: p.UnpricedPositions,
		BestPerformer:     convertPositionReturn(p.Best),
		WorstPerformer:    convertPositionReturn(p.Worst),
	}
}

func convertPositionReturn(r *analysis.PositionReturn) *httpModel.PositionReturn {
	if r == nil {
		return nil
	}
	return &httpModel.PositionReturn{
		Ticker:           r.Ticker,
		AbsoluteReturn:   r.AbsoluteReturn.InexactFloat64(),
		PercentageReturn: r.PercentageReturn.InexactFloat64(),
	}
}

func ConvertDiversification(d analysis.Diversification) httpModel.Diversification {
	return httpModel.Diversification{
		SectorAllocation:     convertAllocations(d.SectorAllocation),
		AssetClassAllocation: convertAllocations(d.AssetClassAllocation),
		Concentration: httpModel.Concentration{
			TopHolding:        d.Concentration.TopHolding.InexactFloat64(),
			Top3Holdings:      d.Concentration.Top3Holdings.InexactFloat64(),
			Top5Holdings:      d.Concentration.Top5Holdings.InexactFloat64(),
			HHI:               d.Concentration.HHI.InexactFloat64(),
			NumberOfPositions: d.Concentration.NumberOfPositions,
		},
	}
}

func convertAllocations(allocations []analysis.Allocation) []httpModel.Allocation {
	res := make([]httpModel.Allocation, 0, len(allocations))
	for _, a := range allocations {
		res = append(res, httpModel.Allocation{
			Name:       a.Name,
			Value:      a.Value.InexactFloat64(),
			Percentage: a.Percentage.InexactFloat64(),
		})
	}
	return res
}

func ConvertQuote(q model.Quote) httpModel.Quote {
	return httpModel.Quote{
		Symbol:        q.Symbol,
		Price:         q.Price.InexactFloat64(),
		ChangePercent: q.ChangePercent.InexactFloat64(),
		Currency:      q.Currency,
		AsOfDate:      q.AsOfDate,
	}
}

func ConvertSearchResults(results []model.SearchResult) []httpModel.SearchResult {
	res := make([]httpModel.SearchResult, 0, len(results))
	for _, r := range results {
		res = append(res, httpModel.SearchResult{
			Symbol:         r.Symbol,
			Name:           r.Name,
			InstrumentType: r.InstrumentType,
			Exchange:       r.Exchange,
		})
	}
	return res
}

func ConvertPositionChanges(req httpModel.UpdatePositionRequest) model.PositionChanges {
	return model.PositionChanges{
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
		Notes:         req.Notes,
	}
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
