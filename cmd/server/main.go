// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/replenlab/eoq-engine/internal/api"
	"github.com/replenlab/eoq-engine/internal/cache"
	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/repository/postgres"
	"github.com/replenlab/eoq-engine/internal/service"
	"github.com/replenlab/eoq-engine/internal/storage"
	"github.com/replenlab/eoq-engine/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := make([]service.Option, 0)

	// History, cache and archive are all optional collaborators; the
	// engine serves requests without any of them.
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		repo := postgres.NewRunRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			logger.Log.Fatal().Err(err).Msg("failed to ensure database schema")
		}
		cancel()
		opts = append(opts, service.WithRepository(repo))
	}

	if cfg.Cache.Enabled {
		resultCache, err := cache.NewResultCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("result cache unavailable, continuing without it")
		} else {
			opts = append(opts, service.WithCache(resultCache))
		}
	}

	if cfg.Archive.Enabled {
		archive, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("upload archive unavailable, continuing without it")
		} else {
			opts = append(opts, service.WithArchive(archive))
		}
	}

	svc := service.NewOptimizationService(cfg.Engine, cfg.App.OutputDir, opts...)
	router := api.NewRouter(svc, cfg.App.UploadDir, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
