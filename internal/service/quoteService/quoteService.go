package quoteService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/data/cache"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"golang.org/x/sync/errgroup"
)

const refreshWorkers = 4

type QuoteApi interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SearchByName(ctx context.Context, query string) ([]model.SearchResult, error)
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

type QuoteService struct {
	api     QuoteApi
	cache   Cache
	metrics *metrics.Metrics
}

func New(api QuoteApi, cache Cache, m *metrics.Metrics) *QuoteService {
	return &QuoteService{api: api, cache: cache, metrics: m}
}

// GetQuote reads the cache first and falls back to the quote api. Fresh
// quotes are written back to the cache without blocking the caller.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (quote model.Quote, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "QuoteService.GetQuote"
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if symbol == "" {
		return model.Quote{}, fmt.Errorf("%w: empty symbol", service.ErrInvalidInput)
	}

	slog.Debug("GetQuote start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("GetQuote finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	quote, err = s.cache.GetQuote(ctx, symbol)
	if err == nil {
		s.metrics.QuoteLookup(metrics.SourceCache, metrics.ResultHit)
		return quote, nil
	}

	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("can't get quote from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
	s.metrics.QuoteLookup(metrics.SourceCache, metrics.ResultMiss)

	quote, err = s.api.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			s.metrics.QuoteLookup(metrics.SourceAPI, metrics.ResultNotFound)
			return model.Quote{}, service.ErrNotFound
		}
		s.metrics.QuoteLookup(metrics.SourceAPI, metrics.ResultError)
		slog.Error("can't get quote from quoteApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Quote{}, err
	}
	s.metrics.QuoteLookup(metrics.SourceAPI, metrics.ResultHit)

	go s.setQuotes(context.WithoutCancel(ctx), []model.Quote{quote})

	return quote, nil
}

func (s *QuoteService) SearchByName(ctx context.Context, query string) ([]model.SearchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "QuoteService.SearchByName"
	query = strings.TrimSpace(query)

	if query == "" {
		return nil, fmt.Errorf("%w: empty query", service.ErrInvalidInput)
	}

	slog.Debug("SearchByName start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))

	results, err := s.api.SearchByName(ctx, query)
	if err != nil {
		slog.Error("can't search quoteApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return results, nil
}

// RefreshQuotes fetches every symbol from the quote api, bypassing the cache,
// and caches what it got. Symbols that fail are left out of the result.
func (s *QuoteService) RefreshQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "QuoteService.RefreshQuotes"

	slog.Debug("RefreshQuotes start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("symbols", len(symbols)))

	fetched := make([]*model.Quote, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshWorkers)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			q, err := s.api.GetQuote(gctx, symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.metrics.QuoteLookup(metrics.SourceAPI, metrics.ResultError)
				slog.Warn("refresh quote failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
				return nil
			}
			s.metrics.QuoteLookup(metrics.SourceAPI, metrics.ResultHit)
			fetched[i] = &q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	quotes := make(map[string]model.Quote, len(symbols))
	list := make([]model.Quote, 0, len(symbols))
	for i, q := range fetched {
		if q == nil {
			continue
		}
		quotes[symbols[i]] = *q
		list = append(list, *q)
	}

	s.setQuotes(ctx, list)

	slog.Debug("RefreshQuotes completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("refreshed", len(list)))

	return quotes, nil
}

func (s *QuoteService) setQuotes(ctx context.Context, quotes []model.Quote) {
	if err := s.cache.SetQuotes(ctx, quotes); err != nil {
		slog.Warn(
			"can't set quotes to cache",
			slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
			slog.String("err", err.Error()),
		)
	}
}
