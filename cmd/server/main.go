// Package main is the entry point of the cache manager demo service.
// @title OMI Cache Manager Demo API
// @version 1.0
// @description Demo endpoints exercising the pluggable cache manager

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "github.com/limccn/omi-cache-manager/docs"
	"github.com/limccn/omi-cache-manager/internal/api/handlers"
	"github.com/limccn/omi-cache-manager/internal/api/middleware"
	"github.com/limccn/omi-cache-manager/internal/api/routes"
	"github.com/limccn/omi-cache-manager/internal/config"
	"github.com/limccn/omi-cache-manager/internal/pkg/logging"
	"github.com/limccn/omi-cache-manager/internal/pkg/metrics"
	"github.com/limccn/omi-cache-manager/internal/services/manager"
)

// App is the demo application. The cache manager binds itself to it at startup.
type App struct {
	cache manager.State
}

// CacheState implements manager.Host.
func (a *App) CacheState() *manager.State { return &a.cache }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	metrics.Setup()

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server exited")
}

func run(cfg *config.Config) error {
	app := &App{}
	cacheManager, err := manager.New(app, cfg.Cache.Backend, cfg.Cache.Options)
	if err != nil {
		return errors.Wrap(err, "failed to initialize cache manager")
	}
	log.Info().Str("backend", cacheManager.BackendName()).Msg("cache manager ready")

	gin.SetMode(cfg.Server.GinMode)
	router := setupRouter(cacheManager)

	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "server forced to shutdown"))
		}
		if err := app.CacheState().Manager().DestroyBackendCacheContext(shutdownCtx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "failed to release cache"))
		}
		return errs
	})

	return g.Wait()
}

// setupRouter creates and configures the Gin router.
func setupRouter(cacheManager *manager.Manager) *gin.Engine {
	router := gin.New()

	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()

	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler: handlers.NewHealthHandler(cacheManager),
		CacheHandler:  handlers.NewCacheHandler(cacheManager),
	}, loggingMw, errorMw)

	return router
}
