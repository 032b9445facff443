// Package analysis computes deterministic portfolio analytics from a valuation.
// Positions without a current price are left out.
package analysis

import (
	"sort"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/valuation"
	"github.com/shopspring/decimal"
)

const (
	SectorOther     = "Other"
	AssetClassOther = "Other"
)

type Performance struct {
	InitialValue      decimal.Decimal
	CurrentValue      decimal.Decimal
	AbsoluteReturn    decimal.Decimal
	PercentageReturn  decimal.Decimal
	PricedPositions   int
	UnpricedPositions int
	Best              *PositionReturn
	Worst             *PositionReturn
}

type PositionReturn struct {
	Ticker           string
	AbsoluteReturn   decimal.Decimal
	PercentageReturn decimal.Decimal
}

type Allocation struct {
	Name       string
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

type Concentration struct {
	TopHolding        decimal.Decimal
	Top3Holdings      decimal.Decimal
	Top5Holdings      decimal.Decimal
	HHI               decimal.Decimal
	NumberOfPositions int
}

type Diversification struct {
	SectorAllocation     []Allocation
	AssetClassAllocation []Allocation
	Concentration        Concentration
}

func PerformanceOf(v model.PortfolioValuation) Performance {
	perf := Performance{
		InitialValue:      v.Summary.TotalCostBasis,
		CurrentValue:      v.Summary.TotalValue,
		AbsoluteReturn:    v.Summary.TotalGainLoss,
		PercentageReturn:  v.Summary.TotalGainLossPct,
		PricedPositions:   v.Summary.PositionsCount - v.Summary.UnpricedPositions,
		UnpricedPositions: v.Summary.UnpricedPositions,
	}

	for _, p := range v.Positions {
		if p.GainLoss == nil {
			continue
		}
		r := &PositionReturn{Ticker: p.Ticker, AbsoluteReturn: *p.GainLoss, PercentageReturn: *p.GainLossPct}
		if perf.Best == nil || r.PercentageReturn.GreaterThan(perf.Best.PercentageReturn) {
			perf.Best = r
		}
		if perf.Worst == nil || r.PercentageReturn.LessThan(perf.Worst.PercentageReturn) {
			perf.Worst = r
		}
	}

	return perf
}

func DiversificationOf(v model.PortfolioValuation) Diversification {
	total := v.Summary.TotalValue

	sectors := make(map[string]decimal.Decimal)
	classes := make(map[string]decimal.Decimal)
	weights := make([]decimal.Decimal, 0, len(v.Positions))

	for _, p := range v.Positions {
		if p.CurrentValue == nil {
			continue
		}
		value := *p.CurrentValue
		sectors[SectorOf(p.Ticker)] = sectors[SectorOf(p.Ticker)].Add(value)
		classes[AssetClassOf(p.Ticker)] = classes[AssetClassOf(p.Ticker)].Add(value)
		weights = append(weights, valuation.Pct(value, total))
	}

	return Diversification{
		SectorAllocation:     allocations(sectors, total),
		AssetClassAllocation: allocations(classes, total),
		Concentration:        concentration(weights),
	}
}

// allocations are ordered by value, largest first, then by name.
func allocations(values map[string]decimal.Decimal, total decimal.Decimal) []Allocation {
	res := make([]Allocation, 0, len(values))
	for name, value := range values {
		res = append(res, Allocation{Name: name, Value: value, Percentage: valuation.Pct(value, total)})
	}
	sort.Slice(res, func(i, j int) bool {
		if c := res[i].Value.Cmp(res[j].Value); c != 0 {
			return c > 0
		}
		return res[i].Name < res[j].Name
	})
	return res
}

func concentration(weights []decimal.Decimal) Concentration {
	sort.Slice(weights, func(i, j int) bool { return weights[i].GreaterThan(weights[j]) })

	c := Concentration{
		TopHolding:        decimal.Zero,
		Top3Holdings:      decimal.Zero,
		Top5Holdings:      decimal.Zero,
		HHI:               decimal.Zero,
		NumberOfPositions: len(weights),
	}

	for i, w := range weights {
		if i == 0 {
			c.TopHolding = w
		}
		if i < 3 {
			c.Top3Holdings = c.Top3Holdings.Add(w)
		}
		if i < 5 {
			c.Top5Holdings = c.Top5Holdings.Add(w)
		}
		// weights are percentages, so the sum of squares is already on the 0..10000 scale
		c.HHI = c.HHI.Add(w.Mul(w))
	}
	c.HHI = c.HHI.Round(2)

	return c
}
