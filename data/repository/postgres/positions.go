package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

const positionColumns = `
	owner_id, portfolio_id, ticker, shares, purchase_price,
	to_char(purchase_date, 'YYYY-MM-DD') AS purchase_date,
	current_price, notes, created_at, updated_at`

func (r *Postgres) GetPositions(ctx context.Context, ownerID, portfolioID string) (positions []model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPositions"
	params := map[string]any{
		"ownerID":     ownerID,
		"portfolioID": portfolioID,
	}
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE owner_id = $1
		AND portfolio_id = $2
		ORDER BY ticker
		`

	slog.Debug("GetPositions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() { logCompletion(rqID, op, err) }()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, ownerID, portfolioID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	positions = make([]model.Position, 0)
	for rows.Next() {
		var row dbModel.Position
		err = rows.StructScan(&row)
		if err != nil {
			return nil, err
		}
		positions = append(positions, dbConverter.ConvertPosition(row))
	}

	return positions, rows.Err()
}

func (r *Postgres) GetPosition(ctx context.Context, ownerID, portfolioID, ticker string) (position model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPosition"
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE owner_id = $1
		AND portfolio_id = $2
		AND ticker = $3
		`

	slog.Debug("GetPosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("ticker", ticker))
	defer func() { logCompletion(rqID, op, err) }()

	var row dbModel.Position
	err = r.txOrDb(ctx).GetContext(ctx, &row, query, ownerID, portfolioID, ticker)
	if err != nil {
		return model.Position{}, mapError(err)
	}

	return dbConverter.ConvertPosition(row), nil
}

// InsertPositionIfAbsent is the conditional put: it returns
// repository.ErrAlreadyExists when the ticker is already held in the portfolio.
func (r *Postgres) InsertPositionIfAbsent(ctx context.Context, position model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPositionIfAbsent"
	query := `
		INSERT INTO positions(owner_id, portfolio_id, ticker, shares, purchase_price, purchase_date, current_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
		ON CONFLICT (owner_id, portfolio_id, ticker) DO NOTHING
		`

	slog.Debug(
		"InsertPositionIfAbsent start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("portfolioID", position.PortfolioID),
		slog.String("ticker", position.Ticker),
		slog.String("query", query),
	)
	defer func() { logCompletion(rqID, op, err) }()

	currentPrice := decimal.NullDecimal{}
	if position.CurrentPrice != nil {
		currentPrice = decimal.NewNullDecimal(*position.CurrentPrice)
	}

	res, err := r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		position.OwnerID,
		position.PortfolioID,
		position.Ticker,
		position.Shares,
		position.PurchasePrice,
		position.PurchaseDate,
		currentPrice,
		position.Notes,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrAlreadyExists
	}

	return nil
}

func (r *Postgres) UpdatePosition(ctx context.Context, ownerID, portfolioID, ticker string, changes model.PositionChanges) (position model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdatePosition"
	query := `
		UPDATE positions
		SET
			shares = COALESCE($1, shares),
			purchase_price = COALESCE($2, purchase_price),
			purchase_date = COALESCE($3::date, purchase_date),
			notes = COALESCE($4, notes),
			updated_at = now()
		WHERE
			owner_id = $5
			AND portfolio_id = $6
			AND ticker = $7
		RETURNING ` + positionColumns

	slog.Debug("UpdatePosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("ticker", ticker))
	defer func() { logCompletion(rqID, op, err) }()

	var shares, purchasePrice decimal.NullDecimal
	if changes.Shares != nil {
		shares = decimal.NewNullDecimal(*changes.Shares)
	}
	if changes.PurchasePrice != nil {
		purchasePrice = decimal.NewNullDecimal(*changes.PurchasePrice)
	}

	var row dbModel.Position
	err = r.txOrDb(ctx).QueryRowxContext(
		ctx,
		query,
		shares,
		purchasePrice,
		changes.PurchaseDate,
		changes.Notes,
		ownerID,
		portfolioID,
		ticker,
	).StructScan(&row)
	if err != nil {
		return model.Position{}, mapError(err)
	}

	return dbConverter.ConvertPosition(row), nil
}

func (r *Postgres) DeletePosition(ctx context.Context, ownerID, portfolioID, ticker string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePosition"
	params := map[string]any{
		"ownerID":     ownerID,
		"portfolioID": portfolioID,
		"ticker":      ticker,
	}
	query := `
		DELETE FROM positions
		WHERE
			owner_id = $1
			AND portfolio_id = $2
			AND ticker = $3
		`

	slog.Debug("DeletePosition start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() { logCompletion(rqID, op, err) }()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, ownerID, portfolioID, ticker)
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
}

func (r *Postgres) GetHeldTickers(ctx context.Context) (tickers []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHeldTickers"
	query := `SELECT DISTINCT ticker FROM positions ORDER BY ticker`

	slog.Debug("GetHeldTickers start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() { logCompletion(rqID, op, err) }()

	tickers = make([]string, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &tickers, query)
	if err != nil {
		return nil, err
	}

	return tickers, nil
}

// UpdateCurrentPrices sets current_price on every position holding one of the tickers.
func (r *Postgres) UpdateCurrentPrices(ctx context.Context, prices map[string]decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateCurrentPrices"
	query := `
		UPDATE positions AS p
		SET current_price = u.price
		FROM UNNEST($1::text[], $2::numeric[]) AS u(ticker, price)
		WHERE p.ticker = u.ticker
		`

	if len(prices) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(prices))
	values := make([]string, 0, len(prices))
	for ticker, price := range prices {
		tickers = append(tickers, ticker)
		values = append(values, price.String())
	}

	slog.Debug("UpdateCurrentPrices start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int("tickers", len(tickers)))
	defer func() { logCompletion(rqID, op, err) }()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, tickers, values)
	return err
}
