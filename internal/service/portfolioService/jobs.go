package portfolioService

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

// RefreshPrices re-quotes every held ticker and stores the prices on the
// positions, so that valuation has a recent price when the quote api is down.
func (s *PortfolioService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshPrices"

	tickers, err := s.repo.GetHeldTickers(ctx)
	if err != nil {
		slog.Error("got error from repo.GetHeldTickers", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(tickers) == 0 {
		return nil
	}

	quotes, err := s.quotes.RefreshQuotes(ctx, tickers)
	if err != nil {
		return err
	}

	prices := make(map[string]decimal.Decimal, len(quotes))
	for ticker, q := range quotes {
		prices[ticker] = q.Price
	}

	err = s.repo.UpdateCurrentPrices(ctx, prices)
	if err != nil {
		slog.Error("got error from repo.UpdateCurrentPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info(
		"prices refreshed",
		slog.String("rqID", rqID),
		slog.Int("tickers", len(tickers)),
		slog.Int("refreshed", len(prices)),
	)

	return nil
}
