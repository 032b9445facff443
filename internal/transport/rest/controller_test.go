package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository/memory"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/normalizer"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/resolver"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/writer"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/httpModel"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/internal/service/importService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "token-1"

type quoteStub map[string]decimal.Decimal

func (q quoteStub) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	price, ok := q[symbol]
	if !ok {
		return model.Quote{}, service.ErrNotFound
	}
	return model.Quote{Symbol: symbol, Price: price, Currency: "USD"}, nil
}

func (q quoteStub) SearchByName(_ context.Context, query string) ([]model.SearchResult, error) {
	if query == "" {
		return nil, service.ErrInvalidInput
	}
	return []model.SearchResult{}, nil
}

func (q quoteStub) RefreshQuotes(_ context.Context, _ []string) (map[string]model.Quote, error) {
	return map[string]model.Quote{}, nil
}

type sessionsStub struct{}

func (sessionsStub) GetOwnerID(_ context.Context, t string) (string, error) {
	if t != token {
		return "", session.ErrUnknownToken
	}
	return "user-1", nil
}

func newHandler(t *testing.T, maxBytes int64) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.RequestTimeout = 5 * time.Second
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Import.MaxBytes = maxBytes
	cfg.Import.Workers = 2
	cfg.Import.RowTimeout = time.Second

	quotes := quoteStub{"AAPL": decimal.NewFromInt(200), "MSFT": decimal.NewFromInt(400)}
	store := memory.New()
	m := metrics.New()

	portfolios := portfolioService.New(store, quotes, xslsxGenerator.New(), nil, 2)
	imports := importService.New(cfg, normalizer.New(), resolver.New(quotes), writer.New(store, 2), portfolios, m)

	return NewRouter(cfg, NewController(cfg, portfolios, imports, quotes), sessionsStub{}, m)
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	h := newHandler(t, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[httpModel.ErrorResponse](t, rec).Error)
}

func TestPortfolioLifecycle(t *testing.T) {
	h := newHandler(t, 1<<20)

	rec := do(t, h, http.MethodGet, "/api/portfolios", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]httpModel.Portfolio](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, model.DefaultPortfolioID, list[0].PortfolioID)
	assert.True(t, list[0].IsDefault)

	rec = do(t, h, http.MethodPost, "/api/portfolios", "application/json", []byte(`{"name":"Retirement","description":"long term"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[httpModel.Portfolio](t, rec)
	assert.Equal(t, "Retirement", created.Name)
	assert.False(t, created.IsDefault)

	rec = do(t, h, http.MethodPut, "/api/portfolios/"+created.PortfolioID, "application/json", []byte(`{"name":"Pension"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[httpModel.Portfolio](t, rec)
	assert.Equal(t, "Pension", updated.Name)
	assert.Equal(t, "long term", updated.Description)

	rec = do(t, h, http.MethodPost, "/api/portfolios", "application/json", []byte(`{"name":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/portfolios", "application/json", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/portfolios/default", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/portfolios/"+created.PortfolioID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/portfolios/"+created.PortfolioID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPositionsCRUD(t *testing.T) {
	h := newHandler(t, 1<<20)

	body := []byte(`{"ticker":"aapl","shares":10,"purchasePrice":150,"purchaseDate":"2024-01-15"}`)
	rec := do(t, h, http.MethodPost, "/api/portfolios/default/positions", "application/json", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pos := decode[httpModel.Position](t, rec)
	assert.Equal(t, "AAPL", pos.Ticker)
	require.NotNil(t, pos.CurrentValue)
	assert.Equal(t, 2000.0, *pos.CurrentValue)

	rec = do(t, h, http.MethodPost, "/api/portfolios/default/positions", "application/json", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/portfolios/default/positions/AAPL", "application/json", []byte(`{"shares":12}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 12.0, decode[httpModel.Position](t, rec).Shares)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/positions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	valuation := decode[httpModel.Valuation](t, rec)
	require.Len(t, valuation.Positions, 1)
	assert.Equal(t, 2400.0, valuation.Summary.TotalValue)
	assert.Equal(t, 1800.0, valuation.Summary.TotalCostBasis)

	rec = do(t, h, http.MethodDelete, "/api/portfolios/default/positions/AAPL", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/portfolios/default/positions/AAPL", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportRawBody(t *testing.T) {
	h := newHandler(t, 1<<20)
	csv := []byte("Symbol,Shares,Purchase Price\nAAPL,10,150.25\nMSFT,5,305.75\n")

	rec := do(t, h, http.MethodPost, "/api/portfolios/default/import?format=csv", "text/plain", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[httpModel.ImportResponse](t, rec)
	assert.Equal(t, httpModel.ImportResults{
		TotalPositions: 2,
		ValidPositions: 2,
		AddedPositions: 2,
		Warnings:       []string{},
	}, res.Results)

	rec = do(t, h, http.MethodPost, "/api/portfolios/default/import", "text/csv", csv)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[httpModel.ImportResponse](t, rec)
	assert.Equal(t, 0, res.Results.AddedPositions)
	assert.Equal(t, 2, res.Results.SkippedPositions)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/positions", "", nil)
	valuation := decode[httpModel.Valuation](t, rec)
	require.Len(t, valuation.Positions, 2)
	assert.Equal(t, 2000.0, *valuation.Positions[0].CurrentValue)
	assert.Equal(t, 2000.0, *valuation.Positions[1].CurrentValue)
	assert.Equal(t, 4000.0, valuation.Summary.TotalValue)
}

func TestImportMultipart(t *testing.T) {
	h := newHandler(t, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "holdings.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Ticker,Quantity,Cost\nMSFT,3,250\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/portfolios/default/import", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[httpModel.ImportResponse](t, rec).Results.AddedPositions)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/positions", "", nil)
	valuation := decode[httpModel.Valuation](t, rec)
	require.Len(t, valuation.Positions, 1)
	assert.True(t, strings.HasPrefix(valuation.Positions[0].Notes, "Imported from holdings.csv on "))
}

func TestImportRejections(t *testing.T) {
	h := newHandler(t, 64)

	rec := do(t, h, http.MethodPost, "/api/portfolios/default/import?format=pdf", "", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/portfolios/default/import?format=csv", "", []byte("a,b\n1,2\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/portfolios/default/import?format=csv", "", bytes.Repeat([]byte("x"), 200))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/portfolios/nope/import?format=csv", "", []byte("Symbol,Shares\nAAPL,1\n"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisAndExport(t *testing.T) {
	h := newHandler(t, 1<<20)

	rec := do(t, h, http.MethodGet, "/api/portfolios/default/analysis/performance", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/portfolios/default/import?format=csv", "", []byte("Symbol,Shares,Price\nAAPL,10,100\nMSFT,5,400\n"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/analysis/performance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	perf := decode[httpModel.Performance](t, rec)
	assert.Equal(t, 3000.0, perf.InitialValue)
	assert.Equal(t, 4000.0, perf.CurrentValue)
	require.NotNil(t, perf.BestPerformer)
	assert.Equal(t, "AAPL", perf.BestPerformer.Ticker)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/analysis/diversification", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	div := decode[httpModel.Diversification](t, rec)
	assert.Equal(t, 2, div.Concentration.NumberOfPositions)
	assert.Equal(t, 5000.0, div.Concentration.HHI)

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "portfolio_default_")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = do(t, h, http.MethodGet, "/api/portfolios/default/export?share=true", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestQuotes(t *testing.T) {
	h := newHandler(t, 1<<20)

	rec := do(t, h, http.MethodGet, "/api/quotes/AAPL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200.0, decode[httpModel.Quote](t, rec).Price)

	rec = do(t, h, http.MethodGet, "/api/quotes/ZZZZ", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/quotes", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/quotes?q=apple", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
