package quoteService

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/cache"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiStub struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
	errs   map[string]error
	calls  int
}

func (a *apiStub) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if err, ok := a.errs[symbol]; ok {
		return model.Quote{}, err
	}
	q, ok := a.quotes[symbol]
	if !ok {
		return model.Quote{}, externalApi.ErrNotFound
	}
	return q, nil
}

func (a *apiStub) SearchByName(_ context.Context, query string) ([]model.SearchResult, error) {
	return []model.SearchResult{{Symbol: "AAPL", Name: query, InstrumentType: model.InstrumentEquity}}, nil
}

type cacheStub struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
}

func newCacheStub() *cacheStub {
	return &cacheStub{quotes: map[string]model.Quote{}}
}

func (c *cacheStub) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[symbol]
	if !ok {
		return model.Quote{}, cache.ErrMiss
	}
	return q, nil
}

func (c *cacheStub) SetQuotes(_ context.Context, quotes []model.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range quotes {
		c.quotes[q.Symbol] = q
	}
	return nil
}

func (c *cacheStub) has(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.quotes[symbol]
	return ok
}

func TestGetQuoteCacheThenApi(t *testing.T) {
	api := &apiStub{quotes: map[string]model.Quote{"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(190)}}}
	c := newCacheStub()
	m := metrics.New()
	s := New(api, c, m)

	q, err := s.GetQuote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 1, api.calls)

	assert.Eventually(t, func() bool { return c.has("AAPL") }, time.Second, 10*time.Millisecond)

	_, err = s.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuoteLookups.WithLabelValues(metrics.SourceCache, metrics.ResultHit)))
}

func TestGetQuoteErrors(t *testing.T) {
	api := &apiStub{errs: map[string]error{"DOWN": externalApi.ErrUnavailable}}
	s := New(api, newCacheStub(), metrics.New())

	_, err := s.GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = s.GetQuote(context.Background(), "DOWN")
	assert.ErrorIs(t, err, externalApi.ErrUnavailable)

	_, err = s.GetQuote(context.Background(), "  ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRefreshQuotes(t *testing.T) {
	api := &apiStub{
		quotes: map[string]model.Quote{
			"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(190)},
			"MSFT": {Symbol: "MSFT", Price: decimal.NewFromInt(410)},
		},
		errs: map[string]error{"DOWN": errors.New("boom")},
	}
	c := newCacheStub()
	c.quotes["AAPL"] = model.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(1)}
	s := New(api, c, metrics.New())

	quotes, err := s.RefreshQuotes(context.Background(), []string{"AAPL", "DOWN", "MSFT"})
	require.NoError(t, err)

	assert.Len(t, quotes, 2)
	assert.True(t, decimal.NewFromInt(190).Equal(quotes["AAPL"].Price))
	assert.True(t, decimal.NewFromInt(190).Equal(c.quotes["AAPL"].Price))
	assert.True(t, c.has("MSFT"))
	assert.False(t, c.has("DOWN"))
}

func TestSearchByName(t *testing.T) {
	s := New(&apiStub{}, newCacheStub(), metrics.New())

	res, err := s.SearchByName(context.Background(), " Apple ")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Apple", res[0].Name)

	_, err = s.SearchByName(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
