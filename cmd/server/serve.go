package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/leaf-api/internal/config"
	"github.com/Brownie44l1/leaf-api/internal/handlers"
	"github.com/Brownie44l1/leaf-api/internal/logger"
	"github.com/Brownie44l1/leaf-api/internal/metrics"
	"github.com/Brownie44l1/leaf-api/internal/model"
	"github.com/Brownie44l1/leaf-api/internal/router"
	"github.com/Brownie44l1/leaf-api/internal/upload"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API on server.port.

The predictor (class catalog plus model) is built on the first prediction
request unless model.preload is set. A missing weight file or catalog does not
stop the server: the catalog falls back to the builtin tomato classes and the
model runs with untrained weights.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	predictors := model.NewLazy(func() *model.Predictor {
		return model.NewPredictor(modelOptions(cfg), log)
	})
	defer predictors.Close()

	if cfg.Model.Preload {
		log.Infof(ctx, "predictor ready on %q", predictors.Get().Device())
	}

	m := metrics.New()
	store := upload.NewStore(cfg.Upload.Dir, cfg.Upload.AllowedExtensions)
	h := handlers.NewHandler(predictors, store, m, log)
	engine := router.SetupRoutes(h, m, log, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof(gctx, "%s listening on %s (uploads: %s, model: %s)",
			cfg.App.Name, srv.Addr, cfg.Upload.Dir, cfg.Model.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infof(context.Background(), "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
