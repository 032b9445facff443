package importService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/enricher"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/normalizer"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/resolver"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/writer"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"golang.org/x/sync/errgroup"
)

type Normalizer interface {
	Normalize(kind normalizer.Kind, data []byte) (normalizer.Result, error)
}

type Resolver interface {
	Resolve(ctx context.Context, candidate model.Candidate) (model.Resolution, error)
}

type Writer interface {
	Write(ctx context.Context, ownerID, portfolioID string, lots []model.ImportLot) []writer.Status
}

type PortfolioService interface {
	EnsurePortfolio(ctx context.Context, ownerID, portfolioID string) (model.Portfolio, error)
}

// Upload is one document handed in for import. Hint, Filename and
// ContentType are optional and only used to decide the document kind.
type Upload struct {
	Hint        string
	Filename    string
	ContentType string
	Data        []byte
}

type ImportService struct {
	normalizer Normalizer
	resolver   Resolver
	writer     Writer
	portfolios PortfolioService
	metrics    *metrics.Metrics
	cfg        *config.Config
	now        func() time.Time
}

func New(
	cfg *config.Config,
	normalizer Normalizer,
	resolver Resolver,
	writer Writer,
	portfolios PortfolioService,
	m *metrics.Metrics,
) *ImportService {
	return &ImportService{
		normalizer: normalizer,
		resolver:   resolver,
		writer:     writer,
		portfolios: portfolios,
		metrics:    m,
		cfg:        cfg,
		now:        time.Now,
	}
}

type rowOutcome struct {
	resolution model.Resolution
	rejection  string
}

// Import runs one batch: normalize, resolve, enrich and write. Only a
// document that can't be read fails the call; row level problems are
// reported in the result.
func (s *ImportService) Import(ctx context.Context, ownerID, portfolioID string, upload Upload) (result model.ImportResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ImportService.Import"
	started := time.Now()

	slog.Debug(
		"Import start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("portfolioID", portfolioID),
		slog.String("filename", upload.Filename),
		slog.Int("bytes", len(upload.Data)),
	)

	kind, err := normalizer.DetectKind(upload.Hint, upload.Filename, upload.ContentType, upload.Data)
	if err != nil {
		return model.ImportResult{}, err
	}

	parsed, err := s.normalizer.Normalize(kind, upload.Data)
	if err != nil {
		slog.Warn("can't normalize upload", slog.String("rqID", rqID), slog.String("op", op), slog.String("kind", string(kind)), slog.String("err", err.Error()))
		return model.ImportResult{}, err
	}

	// only a readable upload may create the default portfolio
	if _, err = s.portfolios.EnsurePortfolio(ctx, ownerID, portfolioID); err != nil {
		return model.ImportResult{}, err
	}

	outcomes, err := s.resolveAll(ctx, parsed.Candidates)
	if err != nil {
		return model.ImportResult{}, err
	}

	source := upload.Filename
	if source == "" {
		source = string(kind)
	}
	importDate := s.now().Format("2006-01-02")

	lots := make([]model.ImportLot, 0, len(parsed.Candidates))
	lotOf := make([]int, len(parsed.Candidates))
	for i, c := range parsed.Candidates {
		if outcomes[i].rejection != "" {
			lotOf[i] = -1
			continue
		}
		lotOf[i] = len(lots)
		lots = append(lots, enricher.Enrich(c, outcomes[i].resolution, source, importDate))
	}

	statuses := s.writer.Write(ctx, ownerID, portfolioID, lots)

	result = model.ImportResult{
		TotalPositions: parsed.Total,
		ValidPositions: len(lots),
		Warnings:       make([]string, 0),
	}
	for i := range parsed.Candidates {
		if lotOf[i] < 0 {
			result.Warnings = append(result.Warnings, outcomes[i].rejection)
			continue
		}

		lot, status := lots[lotOf[i]], statuses[lotOf[i]]
		result.Warnings = append(result.Warnings, lot.Warnings...)
		switch status.Outcome {
		case writer.Added:
			result.AddedPositions++
		case writer.Skipped:
			result.SkippedPositions++
		case writer.Failed:
			result.Errors++
		}
		if status.Warning != "" {
			result.Warnings = append(result.Warnings, status.Warning)
		}
	}

	s.metrics.ObserveImport(started, result.AddedPositions, result.SkippedPositions, result.TotalPositions-result.ValidPositions, result.Errors)

	slog.Info(
		"import completed",
		slog.String("rqID", rqID),
		slog.String("portfolioID", portfolioID),
		slog.String("kind", string(kind)),
		slog.Int("total", result.TotalPositions),
		slog.Int("valid", result.ValidPositions),
		slog.Int("added", result.AddedPositions),
		slog.Int("skipped", result.SkippedPositions),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", time.Since(started)),
	)

	return result, nil
}

// resolveAll resolves candidates concurrently, each under its own timeout.
// Outcomes keep the order of candidates.
func (s *ImportService) resolveAll(ctx context.Context, candidates []model.Candidate) ([]rowOutcome, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	outcomes := make([]rowOutcome, len(candidates))

	g := errgroup.Group{}
	g.SetLimit(max(s.cfg.Import.Workers, 1))

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			rowCtx, cancel := context.WithTimeout(ctx, s.cfg.Import.RowTimeout)
			defer cancel()

			resolution, err := s.resolver.Resolve(rowCtx, c)
			if err != nil {
				var rejected *resolver.RejectedError
				if errors.As(err, &rejected) {
					outcomes[i] = rowOutcome{rejection: rejected.Reason}
					return nil
				}
				return err
			}
			outcomes[i] = rowOutcome{resolution: resolution}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("resolve failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	return outcomes, nil
}
