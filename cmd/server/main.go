package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/loyalty/backend/internal/infrastructure/auth"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/loyalty/backend/internal/infrastructure/scheduler"
	"github.com/loyalty/backend/internal/interfaces/http/handler"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
	"github.com/loyalty/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog := bootstrap.NewLogger(cfg)
	tel, log, err := bootstrap.NewTelemetry(context.Background(), cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting loyalty backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	container, err := bootstrap.New(context.Background(), cfg, log, tel.Meter())
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			log.Error("Error closing resources", zap.Error(err))
		}
	}()

	// The same scheduler serves the in-process daily timer and the external cron
	// trigger, so the two can never run concurrently.
	schedCfg := scheduler.DefaultAutomationSchedulerConfig()
	schedCfg.Hour = cfg.Automation.Hour
	schedCfg.RunTimeout = cfg.Automation.RunTimeout
	automationScheduler, err := scheduler.NewAutomationScheduler(schedCfg, container.Orchestrator, log)
	if err != nil {
		log.Fatal("Failed to create automation scheduler", zap.Error(err))
	}
	if cfg.Automation.Enabled {
		if err := automationScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start automation scheduler", zap.Error(err))
		}
		defer func() {
			if err := automationScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping automation scheduler", zap.Error(err))
			}
		}()
		log.Info("Automation scheduler started", zap.Int("hour_utc", cfg.Automation.Hour))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	handlers := router.Handlers{
		Health: handler.NewHealthHandler(container.DB, version),
		Tier:   handler.NewTierHandler(container.Programs),
		Boost:  handler.NewBoostHandler(container.Boosts),
		Admin:  handler.NewAdminHandler(container.Programs, container.Boosts),
		Cron:   handler.NewCronHandler(automationScheduler, log),
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:             log,
		Validator:          jwtService,
		CronSecret:         cfg.Cron.Secret,
		PaymentInfoLimiter: middleware.NewRateLimiter(10, time.Minute),
		Meter:              tel.Meter(),
		ServiceName:        cfg.Telemetry.ServiceName,
		TracingEnabled:     cfg.Telemetry.Enabled,
		ProfilingEnabled:   cfg.Telemetry.ProfilingEnabled,
		HSTS:               cfg.App.Env == "production",
		CORS:               middleware.DefaultCORSConfig(),
		TrustedProxies:     cfg.HTTP.TrustedProxies,
	}, handlers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
