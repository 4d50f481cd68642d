package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/bootstrap"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/logger"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/handler"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Xenon dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.API.BaseURL),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error("Error releasing services", zap.Error(err))
		}
	}()

	if c.Relay != nil {
		go func() {
			if err := c.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Redis invalidation relay stopped", zap.Error(err))
			}
		}()
	}

	engine := router.NewEngine(&cfg.HTTP, log)
	router.Setup(engine, router.Handlers{
		Catalog:      handler.NewCatalogHandler(c.Pages, c.Sink),
		Import:       handler.NewImportHandler(c.Importer, cfg.HTTP.MaxUploadSize),
		Session:      handler.NewSessionHandler(c.Session),
		Settings:     handler.NewSettingsHandler(c.Settings),
		Notification: handler.NewNotificationHandler(c.Notifier),
		Dashboard:    handler.NewDashboardHandler(c.Dashboard),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
