package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/internal/valuation"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

const (
	dateLayout      = "2006-01-02"
	maxTickerLength = 20
)

type NewPosition struct {
	Ticker        string
	Shares        decimal.Decimal
	PurchasePrice decimal.Decimal
	// PurchaseDate defaults to today when empty.
	PurchaseDate string
	Notes        string
}

// AddPosition stores a new position. An already held ticker is reported as
// service.ErrAlreadyExists and never overwritten.
func (s *PortfolioService) AddPosition(ctx context.Context, ownerID, portfolioID string, input NewPosition) (model.ValuedPosition, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.AddPosition"

	slog.Debug("AddPosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", input.Ticker))
	defer func() {
		slog.Debug("AddPosition finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", input.Ticker))
	}()

	position, err := s.validateNewPosition(input)
	if err != nil {
		return model.ValuedPosition{}, err
	}
	position.OwnerID = ownerID
	position.PortfolioID = portfolioID

	if _, err := s.EnsurePortfolio(ctx, ownerID, portfolioID); err != nil {
		return model.ValuedPosition{}, err
	}

	quote, err := s.quotes.GetQuote(ctx, position.Ticker)
	if err != nil {
		slog.Warn("no quote for new position", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", position.Ticker), slog.String("err", err.Error()))
	} else {
		position.CurrentPrice = &quote.Price
	}

	err = s.repo.InsertPositionIfAbsent(ctx, position)
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error("got error from repo.InsertPositionIfAbsent", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return model.ValuedPosition{}, mapRepoError(err)
	}

	stored, err := s.repo.GetPosition(ctx, ownerID, portfolioID, position.Ticker)
	if err != nil {
		slog.Error("got error from repo.GetPosition", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ValuedPosition{}, mapRepoError(err)
	}

	return valuation.Value(stored, stored.CurrentPrice), nil
}

func (s *PortfolioService) UpdatePosition(ctx context.Context, ownerID, portfolioID, ticker string, changes model.PositionChanges) (model.ValuedPosition, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UpdatePosition"
	ticker = normalizeTicker(ticker)

	slog.Debug("UpdatePosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))

	if err := validateChanges(changes); err != nil {
		return model.ValuedPosition{}, err
	}

	position, err := s.repo.UpdatePosition(ctx, ownerID, portfolioID, ticker, changes)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.UpdatePosition", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return model.ValuedPosition{}, mapRepoError(err)
	}

	return valuation.Value(position, position.CurrentPrice), nil
}

func (s *PortfolioService) DeletePosition(ctx context.Context, ownerID, portfolioID, ticker string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.DeletePosition"
	ticker = normalizeTicker(ticker)

	slog.Debug("DeletePosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))

	err := s.repo.DeletePosition(ctx, ownerID, portfolioID, ticker)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.DeletePosition", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return mapRepoError(err)
	}

	return nil
}

func (s *PortfolioService) validateNewPosition(input NewPosition) (model.Position, error) {
	position := model.Position{
		Ticker:        normalizeTicker(input.Ticker),
		Shares:        input.Shares,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  strings.TrimSpace(input.PurchaseDate),
		Notes:         strings.TrimSpace(input.Notes),
	}

	if position.Ticker == "" {
		return model.Position{}, fmt.Errorf("%w: ticker is required", service.ErrInvalidInput)
	}
	if len(position.Ticker) > maxTickerLength {
		return model.Position{}, fmt.Errorf("%w: ticker is too long", service.ErrInvalidInput)
	}
	if !position.Shares.IsPositive() {
		return model.Position{}, fmt.Errorf("%w: shares must be positive", service.ErrInvalidInput)
	}
	if position.PurchasePrice.IsNegative() {
		return model.Position{}, fmt.Errorf("%w: purchase price can't be negative", service.ErrInvalidInput)
	}
	if position.PurchaseDate == "" {
		position.PurchaseDate = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, position.PurchaseDate); err != nil {
		return model.Position{}, fmt.Errorf("%w: purchase date must be YYYY-MM-DD", service.ErrInvalidInput)
	}

	return position, nil
}

func validateChanges(changes model.PositionChanges) error {
	if changes.Shares == nil && changes.PurchasePrice == nil && changes.PurchaseDate == nil && changes.Notes == nil {
		return fmt.Errorf("%w: nothing to update", service.ErrInvalidInput)
	}
	if changes.Shares != nil && !changes.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive", service.ErrInvalidInput)
	}
	if changes.PurchasePrice != nil && changes.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: purchase price can't be negative", service.ErrInvalidInput)
	}
	if changes.PurchaseDate != nil {
		if _, err := time.Parse(dateLayout, *changes.PurchaseDate); err != nil {
			return fmt.Errorf("%w: purchase date must be YYYY-MM-DD", service.ErrInvalidInput)
		}
	}
	return nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
