// Package server implements the run-server command: database, cache,
// ingest workers, expiration sweeper, and the HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shortly-io/shortly/cmd"
	"github.com/shortly-io/shortly/internal/api"
	"github.com/shortly-io/shortly/internal/cache"
	"github.com/shortly-io/shortly/internal/config"
	"github.com/shortly-io/shortly/internal/geoip"
	"github.com/shortly-io/shortly/internal/logging"
	"github.com/shortly-io/shortly/internal/metrics"
	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/monitor"
	"github.com/shortly-io/shortly/internal/repository"
	"github.com/shortly-io/shortly/internal/services"
	"github.com/shortly-io/shortly/internal/workers"
)

// RunServerCmd starts the API server and its background processes.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the URL shortener API server and background workers.",
	Long: `Initializes the database, starts the click ingest workers and the
expiration sweeper, then serves the HTTP API until interrupted.`,
	Run: func(c *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}

		logger, err := logging.New(logging.Config{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
			Console:    cfg.Log.Console,
		})
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
		defer logger.Sync()

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Link{}, &models.Click{}); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}

		linkRepo := repository.NewLinkRepository(db)
		clickRepo := repository.NewClickRepository(db)

		var linkCache *cache.LinkCache
		if cfg.Cache.Enabled {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.Addr,
				Password: cfg.Cache.Password,
				DB:       cfg.Cache.DB,
			})
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis unreachable, running without link cache",
					zap.String("addr", cfg.Cache.Addr), zap.Error(err))
			} else {
				linkCache = cache.New(client, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
				logger.Info("link cache enabled", zap.String("addr", cfg.Cache.Addr))
			}
			cancel()
		}

		pool := workers.NewPool(cfg.Analytics.BufferSize, clickRepo, linkRepo, geoip.NoopResolver{}, logger)
		pool.Start(cfg.Analytics.WorkerCount)

		sweeper := monitor.NewExpirySweeper(linkRepo,
			time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute, logger)
		go sweeper.Start()

		linkService := services.NewLinkService(linkRepo, clickRepo, linkCache, logger)
		analyticsService := services.NewAnalyticsService(linkRepo, clickRepo, logger)

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(logger), metrics.Middleware())
		api.SetupRoutes(router, api.NewHandlers(linkService, analyticsService, pool, cfg.Server.BaseURL, logger))

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}
		go func() {
			logger.Info("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutdown signal received")

		// Stop accepting requests, then drain the click buffer so
		// queued events reach the database.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
		sweeper.Stop()
		pool.Stop()
		logger.Info("server stopped")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
