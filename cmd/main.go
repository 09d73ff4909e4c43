package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/data"
	"github.com/KotFed0t/librefolio/data/cache"
	"github.com/KotFed0t/librefolio/data/repository/postgres"
	"github.com/KotFed0t/librefolio/data/session"
	"github.com/KotFed0t/librefolio/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/librefolio/internal/externalApi/portfolioApi"
	"github.com/KotFed0t/librefolio/internal/holdingStore"
	"github.com/KotFed0t/librefolio/internal/presenter"
	"github.com/KotFed0t/librefolio/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/librefolio/internal/scheduler"
	"github.com/KotFed0t/librefolio/internal/service/portfolioSyncService"
	"github.com/KotFed0t/librefolio/internal/tgbot"
	"github.com/KotFed0t/librefolio/internal/transport/telegram"
	"github.com/KotFed0t/librefolio/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(ctx, cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	store := holdingStore.New(pgRepo)
	if err := store.Load(utils.WithRequestID(ctx)); err != nil {
		// the first sync fills the view
		slog.Error("can't load stored holdings", slog.String("err", err.Error()))
	}

	redisClient := data.NewRedisClient(ctx, cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	portfolioApiClient := portfolioApi.New(cfg)

	syncSrv := portfolioSyncService.New(portfolioApiClient, store, redisCache)

	board := presenter.NewBoard(store)
	go board.Run(ctx)

	reportGenerator := xslsxGenerator.New()

	sched := scheduler.New()
	if cfg.Jobs.SyncHoldingsInterval > 0 {
		sched.NewIntervalJob("sync holdings", syncSrv.SyncHoldings, cfg.Jobs.SyncHoldingsInterval, true)
	} else {
		sched.NewOneTimeJob("sync holdings", syncSrv.SyncHoldings)
	}

	var cloudStorage telegram.CloudStorage
	if cfg.GoogleDrive.Enabled() {
		googleDrive := googleDriveApi.New(ctx, cfg)
		sched.NewCrontabJob("delete old drive exports", googleDrive.DeleteOldFiles, cfg.Jobs.DriveCleanupCrontab, false)
		cloudStorage = googleDrive
	}

	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, board, syncSrv, reportGenerator, cloudStorage, redisSession)

	tgBot := tgbot.New(cfg, tgController)
	tgBot.Start()
	defer tgBot.Stop()

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
