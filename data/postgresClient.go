package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
)

// NewPostgresClient connects with retries, pings and applies migrations.
// It gives up when ctx is done or the attempts run out.
func NewPostgresClient(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	dataSourceName := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.DbName,
		cfg.Postgres.Password,
	)

	db, err := connectPostgres(ctx, dataSourceName, cfg.Postgres)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Postgres.ConnTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	slog.Info("Postgres connected")

	if err = migratePostgres(db, cfg.Postgres.MigrationDir); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("postgres migrated successfully")

	return db, nil
}

func connectPostgres(ctx context.Context, dataSourceName string, cfg config.Postgres) (*sqlx.DB, error) {
	attempts := max(cfg.ConnAttempts, 1)

	var err error
	for attemptsLeft := attempts; attemptsLeft > 0; attemptsLeft-- {
		var db *sqlx.DB
		db, err = connectOnce(ctx, dataSourceName, cfg.ConnTimeout)
		if err == nil {
			return db, nil
		}

		slog.Info("Postgres is trying to connect",
			slog.Int("attempts left", attemptsLeft-1),
			slog.String("err", err.Error()),
		)
		if attemptsLeft == 1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres connect: %w", ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, fmt.Errorf("postgres connect after %d attempts: %w", attempts, err)
}

func connectOnce(ctx context.Context, dataSourceName string, timeout time.Duration) (*sqlx.DB, error) {
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlx.ConnectContext(connCtx, "pgx", dataSourceName)
}

func migratePostgres(db *sqlx.DB, migrationDir string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationDir),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("postgres migration source: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres migration up: %w", err)
	}
	return nil
}
