package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"golang.org/x/sync/errgroup"
)

type PositionStore interface {
	InsertPositionIfAbsent(ctx context.Context, position model.Position) error
}

type Outcome int

const (
	Added Outcome = iota
	Skipped
	Failed
)

// Status is the write outcome of one lot. Warning is empty for added lots.
type Status struct {
	Outcome Outcome
	Warning string
}

type Writer struct {
	store   PositionStore
	workers int
}

func New(store PositionStore, workers int) *Writer {
	if workers < 1 {
		workers = 1
	}
	return &Writer{store: store, workers: workers}
}

// Write inserts every lot that is not already held and returns one Status per
// lot, in the order of lots. Existing positions are never overwritten and a
// failed lot does not stop the others.
func (w *Writer) Write(ctx context.Context, ownerID, portfolioID string, lots []model.ImportLot) []Status {
	rqID := utils.GetRequestIDFromCtx(ctx)
	statuses := make([]Status, len(lots))

	// ticker -> source row of its first lot
	firstRow := make(map[string]int, len(lots))
	g := errgroup.Group{}
	g.SetLimit(w.workers)

	for i, lot := range lots {
		i, lot := i, lot
		ticker := lot.Position.Ticker
		if row, dup := firstRow[ticker]; dup {
			statuses[i] = Status{Outcome: Skipped, Warning: fmt.Sprintf("position %s duplicates row %d, skipped", ticker, row)}
			continue
		}
		firstRow[ticker] = lot.Row

		position := lot.Position
		position.OwnerID = ownerID
		position.PortfolioID = portfolioID

		g.Go(func() error {
			err := w.store.InsertPositionIfAbsent(ctx, position)
			switch {
			case err == nil:
				statuses[i] = Status{Outcome: Added}
			case errors.Is(err, repository.ErrAlreadyExists):
				statuses[i] = skipped(ticker)
			default:
				slog.Error(
					"failed to save imported position",
					slog.String("rqID", rqID),
					slog.String("portfolioID", portfolioID),
					slog.String("ticker", ticker),
					slog.Int("row", lot.Row),
					slog.String("err", err.Error()),
				)
				statuses[i] = Status{Outcome: Failed, Warning: fmt.Sprintf("failed to save position %s", ticker)}
			}
			return nil
		})
	}

	_ = g.Wait()

	return statuses
}

func skipped(ticker string) Status {
	return Status{Outcome: Skipped, Warning: fmt.Sprintf("position %s already exists in portfolio, skipped", ticker)}
}
