package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNameLength = 200

type Repository interface {
	EnsurePortfolio(ctx context.Context, portfolio model.Portfolio) error
	InsertPortfolio(ctx context.Context, portfolio model.Portfolio) (model.Portfolio, error)
	GetPortfolio(ctx context.Context, ownerID, portfolioID string) (model.Portfolio, error)
	ListPortfolios(ctx context.Context, ownerID string) ([]model.Portfolio, error)
	UpdatePortfolio(ctx context.Context, ownerID, portfolioID string, name, description *string) (model.Portfolio, error)
	DeletePortfolio(ctx context.Context, ownerID, portfolioID string) error

	GetPositions(ctx context.Context, ownerID, portfolioID string) ([]model.Position, error)
	GetPosition(ctx context.Context, ownerID, portfolioID, ticker string) (model.Position, error)
	InsertPositionIfAbsent(ctx context.Context, position model.Position) error
	UpdatePosition(ctx context.Context, ownerID, portfolioID, ticker string, changes model.PositionChanges) (model.Position, error)
	DeletePosition(ctx context.Context, ownerID, portfolioID, ticker string) error
	GetHeldTickers(ctx context.Context) ([]string, error)
	UpdateCurrentPrices(ctx context.Context, prices map[string]decimal.Decimal) error
}

type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	RefreshQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, valuation model.PortfolioValuation) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type PortfolioService struct {
	repo         Repository
	quotes       QuoteService
	reports      ReportGenerator
	cloudStorage CloudStorage
	quoteWorkers int
	now          func() time.Time
}

// New builds the service. cloudStorage may be nil, then exports can only be
// downloaded.
func New(repo Repository, quotes QuoteService, reports ReportGenerator, cloudStorage CloudStorage, quoteWorkers int) *PortfolioService {
	if quoteWorkers < 1 {
		quoteWorkers = 1
	}
	return &PortfolioService{
		repo:         repo,
		quotes:       quotes,
		reports:      reports,
		cloudStorage: cloudStorage,
		quoteWorkers: quoteWorkers,
		now:          time.Now,
	}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return service.ErrNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return service.ErrAlreadyExists
	default:
		return err
	}
}

// EnsurePortfolio returns the portfolio, creating the default one on first use.
func (s *PortfolioService) EnsurePortfolio(ctx context.Context, ownerID, portfolioID string) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.EnsurePortfolio"

	if portfolioID == model.DefaultPortfolioID {
		err := s.repo.EnsurePortfolio(ctx, model.Portfolio{
			OwnerID:     ownerID,
			PortfolioID: model.DefaultPortfolioID,
			Name:        model.DefaultPortfolioName,
		})
		if err != nil {
			slog.Error("got error from repo.EnsurePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.Portfolio{}, err
		}
	}

	portfolio, err := s.repo.GetPortfolio(ctx, ownerID, portfolioID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.GetPortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return model.Portfolio{}, mapRepoError(err)
	}

	return portfolio, nil
}

func (s *PortfolioService) ListPortfolios(ctx context.Context, ownerID string) ([]model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ListPortfolios"

	slog.Debug("ListPortfolios start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ListPortfolios finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if _, err := s.EnsurePortfolio(ctx, ownerID, model.DefaultPortfolioID); err != nil {
		return nil, err
	}

	portfolios, err := s.repo.ListPortfolios(ctx, ownerID)
	if err != nil {
		slog.Error("got error from repo.ListPortfolios", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return portfolios, nil
}

func (s *PortfolioService) CreatePortfolio(ctx context.Context, ownerID, name, description string) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.CreatePortfolio"

	slog.Debug("CreatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))

	name, err := validateName(name)
	if err != nil {
		return model.Portfolio{}, err
	}

	portfolio, err := s.repo.InsertPortfolio(ctx, model.Portfolio{
		OwnerID:     ownerID,
		PortfolioID: uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		slog.Error("got error from repo.InsertPortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, mapRepoError(err)
	}

	slog.Info("portfolio created", slog.String("rqID", rqID), slog.String("portfolioID", portfolio.PortfolioID))

	return portfolio, nil
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, ownerID, portfolioID string) (model.Portfolio, error) {
	return s.EnsurePortfolio(ctx, ownerID, portfolioID)
}

func (s *PortfolioService) UpdatePortfolio(ctx context.Context, ownerID, portfolioID string, name, description *string) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UpdatePortfolio"

	slog.Debug("UpdatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))

	if name != nil {
		validated, err := validateName(*name)
		if err != nil {
			return model.Portfolio{}, err
		}
		name = &validated
	}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		description = &trimmed
	}

	if _, err := s.EnsurePortfolio(ctx, ownerID, portfolioID); err != nil {
		return model.Portfolio{}, err
	}

	portfolio, err := s.repo.UpdatePortfolio(ctx, ownerID, portfolioID, name, description)
	if err != nil {
		slog.Error("got error from repo.UpdatePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, mapRepoError(err)
	}

	return portfolio, nil
}

// DeletePortfolio removes a portfolio with all its positions. The default
// portfolio can't be deleted.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, ownerID, portfolioID string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.DeletePortfolio"

	slog.Debug("DeletePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))

	if portfolioID == model.DefaultPortfolioID {
		return service.ErrDefaultPortfolio
	}

	err := s.repo.DeletePortfolio(ctx, ownerID, portfolioID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.DeletePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return mapRepoError(err)
	}

	slog.Info("portfolio deleted", slog.String("rqID", rqID), slog.String("portfolioID", portfolioID))

	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", service.ErrInvalidInput)
	}
	if len([]rune(name)) > maxNameLength {
		return "", fmt.Errorf("%w: name is longer than %d characters", service.ErrInvalidInput, maxNameLength)
	}
	return name, nil
}
