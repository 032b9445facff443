package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
)

const portfolioColumns = `owner_id, portfolio_id, name, description, created_at, updated_at`

func (r *Postgres) InsertPortfolio(ctx context.Context, portfolio model.Portfolio) (created model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPortfolio"
	query := `
		INSERT INTO portfolios(owner_id, portfolio_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + portfolioColumns

	slog.Debug("InsertPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() { logCompletion(rqID, op, err) }()

	var row dbModel.Portfolio
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolio.OwnerID, portfolio.PortfolioID, portfolio.Name, portfolio.Description).StructScan(&row)
	if err != nil {
		return model.Portfolio{}, mapError(err)
	}

	return dbConverter.ConvertPortfolio(row), nil
}

// EnsurePortfolio creates the portfolio unless a row with the same key exists.
func (r *Postgres) EnsurePortfolio(ctx context.Context, portfolio model.Portfolio) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.EnsurePortfolio"
	query := `
		INSERT INTO portfolios(owner_id, portfolio_id, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, portfolio_id) DO NOTHING
		`

	slog.Debug("EnsurePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() { logCompletion(rqID, op, err) }()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, portfolio.OwnerID, portfolio.PortfolioID, portfolio.Name, portfolio.Description)
	return err
}

func (r *Postgres) GetPortfolio(ctx context.Context, ownerID, portfolioID string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolio"
	params := map[string]any{
		"ownerID":     ownerID,
		"portfolioID": portfolioID,
	}
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE owner_id = $1
		AND portfolio_id = $2
		`

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() { logCompletion(rqID, op, err) }()

	var row dbModel.Portfolio
	err = r.txOrDb(ctx).GetContext(ctx, &row, query, ownerID, portfolioID)
	if err != nil {
		return model.Portfolio{}, mapError(err)
	}

	return dbConverter.ConvertPortfolio(row), nil
}

func (r *Postgres) ListPortfolios(ctx context.Context, ownerID string) (portfolios []model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListPortfolios"
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE owner_id = $1
		ORDER BY created_at, portfolio_id
		`

	slog.Debug("ListPortfolios start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("ownerID", ownerID))
	defer func() { logCompletion(rqID, op, err) }()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	portfolios = make([]model.Portfolio, 0)
	for rows.Next() {
		var row dbModel.Portfolio
		err = rows.StructScan(&row)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, dbConverter.ConvertPortfolio(row))
	}

	return portfolios, rows.Err()
}

func (r *Postgres) UpdatePortfolio(ctx context.Context, ownerID, portfolioID string, name, description *string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdatePortfolio"
	query := `
		UPDATE portfolios
		SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			updated_at = now()
		WHERE
			owner_id = $3
			AND portfolio_id = $4
		RETURNING ` + portfolioColumns

	slog.Debug("UpdatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() { logCompletion(rqID, op, err) }()

	var row dbModel.Portfolio
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, name, description, ownerID, portfolioID).StructScan(&row)
	if err != nil {
		return model.Portfolio{}, mapError(err)
	}

	return dbConverter.ConvertPortfolio(row), nil
}

// DeletePortfolio removes the portfolio and its positions in one transaction.
func (r *Postgres) DeletePortfolio(ctx context.Context, ownerID, portfolioID string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePortfolio"
	params := map[string]any{
		"ownerID":     ownerID,
		"portfolioID": portfolioID,
	}

	slog.Debug("DeletePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("params", params))
	defer func() { logCompletion(rqID, op, err) }()

	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM positions WHERE owner_id = $1 AND portfolio_id = $2`, ownerID, portfolioID)
		if err != nil {
			return err
		}

		res, err := r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM portfolios WHERE owner_id = $1 AND portfolio_id = $2`, ownerID, portfolioID)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}
