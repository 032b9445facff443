package quoteApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/quoteModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const searchResultsLimit = 10

type QuoteApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *QuoteApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuoteApi.Url).
		SetHeader("User-Agent", cfg.API.QuoteApi.UserAgent)
	return &QuoteApi{client: client}
}

// SearchByName returns instruments matching a free-text query, best match first.
func (a *QuoteApi) SearchByName(ctx context.Context, query string) ([]model.SearchResult, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	url := "/v1/finance/search"
	params := map[string]string{
		"q":           query,
		"quotesCount": fmt.Sprint(searchResultsLimit),
		"newsCount":   "0",
	}

	slog.Debug("start QuoteApi.SearchByName request", slog.String("rqID", rqId), slog.String("query", query))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing QuoteApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, fmt.Errorf("%w: %s", externalApi.ErrUnavailable, err)
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected QuoteApi status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqId))
		return nil, fmt.Errorf("%w: status %d", externalApi.ErrUnavailable, resp.StatusCode())
	}

	raw := quoteModel.RawSearchResponse{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into quoteModel.RawSearchResponse", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, err
	}

	res := make([]model.SearchResult, 0, len(raw.Quotes))
	for _, q := range raw.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.Longname
		if name == "" {
			name = q.Shortname
		}
		res = append(res, model.SearchResult{
			Symbol:         strings.ToUpper(q.Symbol),
			Name:           name,
			InstrumentType: strings.ToUpper(q.QuoteType),
			Exchange:       q.Exchange,
		})
	}

	slog.Debug("QuoteApi.SearchByName request complete", slog.String("rqID", rqId), slog.Int("results", len(res)))

	return res, nil
}

func (a *QuoteApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	url := "/v8/finance/chart/{symbol}"
	params := map[string]string{
		"range":    "5d",
		"interval": "1d",
	}

	slog.Debug("start QuoteApi.GetQuote request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing QuoteApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrUnavailable, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return model.Quote{}, externalApi.ErrNotFound
	}

	raw := quoteModel.RawChartResponse{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into quoteModel.RawChartResponse", slog.String("err", err.Error()), slog.String("rqID", rqId))
		if resp.StatusCode() != http.StatusOK {
			return model.Quote{}, fmt.Errorf("%w: status %d", externalApi.ErrUnavailable, resp.StatusCode())
		}
		return model.Quote{}, err
	}

	res, err := parseRawChart(raw)
	if err != nil {
		slog.Warn("can't parse raw chart", slog.String("err", err.Error()), slog.String("rqID", rqId), slog.String("symbol", symbol))
		return model.Quote{}, err
	}

	slog.Debug("QuoteApi.GetQuote request complete", slog.String("rqID", rqId))

	return res, nil
}

func parseRawChart(raw quoteModel.RawChartResponse) (model.Quote, error) {
	if raw.Chart.Error != nil {
		if raw.Chart.Error.Code == "Not Found" {
			return model.Quote{}, externalApi.ErrNotFound
		}
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrUnavailable, raw.Chart.Error.Description)
	}

	if len(raw.Chart.Result) == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	price := decimal.NewFromFloat(meta.RegularMarketPrice)

	prevClose := meta.PreviousClose
	if prevClose == 0 {
		prevClose = meta.ChartPreviousClose
	}

	changePercent := decimal.Zero
	if prevClose > 0 {
		prev := decimal.NewFromFloat(prevClose)
		changePercent = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
	}

	asOf := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return model.Quote{
		Symbol:        strings.ToUpper(meta.Symbol),
		Price:         price,
		ChangePercent: changePercent,
		Currency:      meta.Currency,
		AsOfDate:      asOf,
	}, nil
}
