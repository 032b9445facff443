package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
)

type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SearchByName(ctx context.Context, query string) ([]model.SearchResult, error)
}

// RejectedError means the candidate cannot become a position.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

func reject(format string, args ...any) *RejectedError {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

type Resolver struct {
	quotes QuoteService
}

func New(quotes QuoteService) *Resolver {
	return &Resolver{quotes: quotes}
}

// Resolve confirms a ticker for the candidate. A present ticker is trusted
// even when it cannot be priced; a company name is searched and must yield an
// equity or fund.
func (r *Resolver) Resolve(ctx context.Context, candidate model.Candidate) (model.Resolution, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	switch {
	case candidate.Ticker != "":
		return model.Resolution{
			Ticker: candidate.Ticker,
			Quote:  r.quote(ctx, candidate.Ticker),
		}, nil

	case candidate.CompanyName != "":
		results, err := r.quotes.SearchByName(ctx, candidate.CompanyName)
		if err != nil {
			slog.Warn(
				"company name search failed",
				slog.String("rqID", rqID),
				slog.String("companyName", candidate.CompanyName),
				slog.String("err", err.Error()),
			)
			return model.Resolution{}, reject("no ticker resolvable for company name %s", candidate.CompanyName)
		}

		symbol, ok := pickSymbol(results)
		if !ok {
			return model.Resolution{}, reject("no ticker resolvable for company name %s", candidate.CompanyName)
		}

		return model.Resolution{
			Ticker:       symbol,
			Quote:        r.quote(ctx, symbol),
			LookedUpFrom: candidate.CompanyName,
		}, nil

	default:
		return model.Resolution{}, reject("row %d has neither ticker nor company name", candidate.Row)
	}
}

func (r *Resolver) quote(ctx context.Context, symbol string) *model.Quote {
	q, err := r.quotes.GetQuote(ctx, symbol)
	if err != nil {
		slog.Debug(
			"quote unavailable, continuing without current price",
			slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
			slog.String("symbol", symbol),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return &q
}

// pickSymbol prefers the first equity, then the first ETF or mutual fund.
func pickSymbol(results []model.SearchResult) (string, bool) {
	for _, res := range results {
		if res.InstrumentType == model.InstrumentEquity && res.Symbol != "" {
			return res.Symbol, true
		}
	}
	for _, res := range results {
		if (res.InstrumentType == model.InstrumentETF || res.InstrumentType == model.InstrumentMutualFund) && res.Symbol != "" {
			return res.Symbol, true
		}
	}
	return "", false
}
