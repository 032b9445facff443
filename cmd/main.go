package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data"
	"github.com/KotFed0t/portfolio_tracker/data/cache"
	pgRepository "github.com/KotFed0t/portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/quoteApi"
	"github.com/KotFed0t/portfolio_tracker/internal/httpserver"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/normalizer"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/resolver"
	"github.com/KotFed0t/portfolio_tracker/internal/importer/writer"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/scheduler"
	"github.com/KotFed0t/portfolio_tracker/internal/service/importService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/quoteService"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/rest"
)

const quoteWorkers = 8

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient, err := data.NewPostgresClient(ctx, cfg)
	if err != nil {
		slog.Error("can't init postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer pgClient.Close()

	pgRepo := pgRepository.NewPostgres(pgClient)

	redisClient, err := data.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Error("can't init redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient)

	appMetrics := metrics.New()

	quoteApiClient := quoteApi.New(cfg)
	quoteSrv := quoteService.New(quoteApiClient, redisCache, appMetrics)

	var (
		cloudStorage *googleDriveApi.GoogleDriveApi
		sharing      portfolioService.CloudStorage
	)
	if cfg.GoogleDrive.Enabled() {
		cloudStorage, err = googleDriveApi.New(ctx, cfg)
		if err != nil {
			slog.Error("can't init google drive", slog.String("err", err.Error()))
			os.Exit(1)
		}
		sharing = cloudStorage
	}

	portfolioSrv := portfolioService.New(pgRepo, quoteSrv, xslsxGenerator.New(), sharing, quoteWorkers)

	importSrv := importService.New(
		cfg,
		normalizer.New(),
		resolver.New(quoteSrv),
		writer.New(pgRepo, cfg.Import.Workers),
		portfolioSrv,
		appMetrics,
	)

	sched, err := scheduler.New(appMetrics)
	if err != nil {
		slog.Error("can't create scheduler", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if err = sched.NewIntervalJob("refresh prices", portfolioSrv.RefreshPrices, cfg.Jobs.RefreshPricesInterval, false); err != nil {
		slog.Error("can't schedule refresh prices job", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if cloudStorage != nil {
		if err = sched.NewCrontabJob("cleanup exports", cloudStorage.DeleteOldFiles, cfg.Jobs.CleanupExportsCrontab, false); err != nil {
			slog.Error("can't schedule cleanup exports job", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
	sched.Start()
	defer sched.Stop()

	ctrl := rest.NewController(cfg, portfolioSrv, importSrv, quoteSrv)

	server := httpserver.New(cfg, rest.NewRouter(cfg, ctrl, redisSession, appMetrics))
	server.Start()
	defer server.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
