package portfolioService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/internal/analysis"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/internal/valuation"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GetValuation prices every position with a live quote when one is
// available and with the last stored price otherwise.
func (s *PortfolioService) GetValuation(ctx context.Context, ownerID, portfolioID string) (model.PortfolioValuation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetValuation"

	slog.Debug("GetValuation start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	defer func() {
		slog.Debug("GetValuation finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	}()

	portfolio, err := s.EnsurePortfolio(ctx, ownerID, portfolioID)
	if err != nil {
		return model.PortfolioValuation{}, err
	}

	positions, err := s.repo.GetPositions(ctx, ownerID, portfolioID)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioValuation{}, err
	}

	live := s.livePrices(ctx, positions)

	return valuation.ValuePortfolio(portfolio, positions, func(p model.Position) *decimal.Decimal {
		if price := live[p.Ticker]; price != nil {
			return price
		}
		return p.CurrentPrice
	}), nil
}

func (s *PortfolioService) livePrices(ctx context.Context, positions []model.Position) map[string]*decimal.Decimal {
	rqID := utils.GetRequestIDFromCtx(ctx)
	prices := make([]*decimal.Decimal, len(positions))

	g := errgroup.Group{}
	g.SetLimit(s.quoteWorkers)
	for i, p := range positions {
		i, p := i, p
		g.Go(func() error {
			quote, err := s.quotes.GetQuote(ctx, p.Ticker)
			if err != nil {
				slog.Debug("live quote unavailable", slog.String("rqID", rqID), slog.String("ticker", p.Ticker), slog.String("err", err.Error()))
				return nil
			}
			prices[i] = &quote.Price
			return nil
		})
	}
	_ = g.Wait()

	res := make(map[string]*decimal.Decimal, len(positions))
	for i, p := range positions {
		res[p.Ticker] = prices[i]
	}
	return res
}

func (s *PortfolioService) GetPerformance(ctx context.Context, ownerID, portfolioID string) (analysis.Performance, error) {
	v, err := s.GetValuation(ctx, ownerID, portfolioID)
	if err != nil {
		return analysis.Performance{}, err
	}
	if len(v.Positions) == 0 {
		return analysis.Performance{}, fmt.Errorf("%w: no positions found", service.ErrNotFound)
	}
	return analysis.PerformanceOf(v), nil
}

func (s *PortfolioService) GetDiversification(ctx context.Context, ownerID, portfolioID string) (analysis.Diversification, error) {
	v, err := s.GetValuation(ctx, ownerID, portfolioID)
	if err != nil {
		return analysis.Diversification{}, err
	}
	if len(v.Positions) == 0 {
		return analysis.Diversification{}, fmt.Errorf("%w: no positions found", service.ErrNotFound)
	}
	return analysis.DiversificationOf(v), nil
}

// Export renders the valuation as a spreadsheet.
func (s *PortfolioService) Export(ctx context.Context, ownerID, portfolioID string) (fileBytes []byte, filename string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.Export"

	slog.Debug("Export start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))

	v, err := s.GetValuation(ctx, ownerID, portfolioID)
	if err != nil {
		return nil, "", err
	}

	fileBytes, ext, err := s.reports.Generate(ctx, v)
	if err != nil {
		slog.Error("got error from reports.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	filename = fmt.Sprintf("portfolio_%s_%s%s", portfolioID, s.now().Format(dateLayout), ext)

	return fileBytes, filename, nil
}

// ShareExport uploads the export to cloud storage and returns its link.
func (s *PortfolioService) ShareExport(ctx context.Context, ownerID, portfolioID string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ShareExport"

	if s.cloudStorage == nil {
		return "", service.ErrExportDisabled
	}

	fileBytes, filename, err := s.Export(ctx, ownerID, portfolioID)
	if err != nil {
		return "", err
	}

	link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return link, nil
}
