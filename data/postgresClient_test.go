package data

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachablePostgres(attempts int) *config.Config {
	return &config.Config{Postgres: config.Postgres{
		Host:          "127.0.0.1",
		Port:          1,
		DbName:        "portfolio",
		User:          "portfolio",
		Password:      "secret",
		MigrationDir:  "migrations",
		ConnAttempts:  attempts,
		ConnTimeout:   time.Second,
		RetryInterval: 10 * time.Millisecond,
	}}
}

func TestNewPostgresClientReturnsErrorWhenUnreachable(t *testing.T) {
	var err error
	require.NotPanics(t, func() {
		db, connErr := NewPostgresClient(context.Background(), unreachablePostgres(2))
		assert.Nil(t, db)
		err = connErr
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestNewPostgresClientStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := unreachablePostgres(5)
	cfg.Postgres.RetryInterval = time.Minute

	start := time.Now()
	_, err := NewPostgresClient(ctx, cfg)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
