package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/loyalty/backend/internal/application/automation"
	"github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/application/program"
	"github.com/loyalty/backend/internal/application/tiering"
	"github.com/loyalty/backend/internal/infrastructure/cache"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/loyalty/backend/internal/infrastructure/crypto"
	"github.com/loyalty/backend/internal/infrastructure/event"
	"github.com/loyalty/backend/internal/infrastructure/logger"
	"github.com/loyalty/backend/internal/infrastructure/notification"
	"github.com/loyalty/backend/internal/infrastructure/persistence"
	"github.com/loyalty/backend/internal/infrastructure/storage"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Container holds the wired services
type Container struct {
	DB           *persistence.Database
	Store        *persistence.GormPerformanceStore
	Boosts       *boost.LifecycleService
	Programs     *program.Service
	Orchestrator *automation.Orchestrator
	Events       *event.InMemoryEventBus

	lock cache.RunLocker
}

// New connects to the database and wires repositories, services and the
// automation orchestrator. meter may be nil, in which case no run metrics are
// recorded.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, meter metric.Meter) (*Container, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected successfully")

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db tracing: %w", err)
	}

	masterKey, err := cfg.Encryption.MasterKey()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cipher, err := crypto.NewPaymentCipher(masterKey)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := persistence.NewGormPerformanceStore(db.DB)
	programRepo := persistence.NewGormProgramRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)
	ingestor := persistence.NewGormPerformanceIngestor(db.DB)
	boostStore := persistence.NewGormBoostStore(db.DB)
	redemptionRepo := persistence.NewGormRedemptionRepository(db.DB)

	mailer := notification.NewMailer(&cfg.Notification, log)
	directory := notification.NewTierStateDirectory(store)

	events := event.NewInMemoryEventBus(log)
	boostMailer := notification.NewBoostMailer(mailer, directory, cfg.Notification.From, log)
	events.Subscribe(boostMailer, boostMailer.EventTypes()...)

	boosts := boost.NewLifecycleService(boost.ServiceConfig{
		Store:          boostStore,
		Redemptions:    redemptionRepo,
		Cipher:         cipher,
		EventPublisher: events,
		Logger:         log,
		Config:         boost.Config{PendingInfoDwell: cfg.Automation.PendingInfoDwell},
	})

	programs := program.NewService(program.ServiceConfig{
		Programs:    programRepo,
		Reader:      store,
		States:      store,
		Adjustments: adjustmentRepo,
		Stager:      ingestor,
		Logger:      log,
	})

	lock, err := cache.NewRunLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create run lock: %w", err)
	}

	archive, err := storage.NewReportArchive(&cfg.Storage, log)
	if err != nil {
		_ = lock.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create report archive: %w", err)
	}

	deps := automation.Dependencies{
		Ingestor:  ingestor,
		Scanner:   tiering.NewPromotionScanner(store, log),
		Evaluator: tiering.NewCheckpointEvaluator(store, log),
		Notifier:  notification.NewTierChangeMailer(mailer, directory, store, cfg.Notification.From, log),
		Boosts:    boosts,
		Tenants:   programRepo,
		Lock:      lock,
		Archive:   archive,
		Alerts:    notification.NewAdminAlertSender(mailer, cfg.Notification.From, cfg.Notification.AdminEmail, log),
		Logger:    log,
	}
	if meter != nil {
		recorder, err := telemetry.NewAutomationMetrics(meter)
		if err != nil {
			log.Warn("Automation metrics unavailable", zap.Error(err))
		} else {
			deps.Recorder = recorder
		}
	}

	orchestrator := automation.NewOrchestrator(deps, automation.Config{
		TenantTimeout:   cfg.Automation.TenantTimeout,
		LockTTL:         cfg.Automation.LockTTL,
		AlertErrorLimit: cfg.Automation.AlertErrorLimit,
	})

	if err := events.Start(ctx); err != nil {
		_ = lock.Close()
		_ = db.Close()
		return nil, fmt.Errorf("start event bus: %w", err)
	}

	return &Container{
		DB:           db,
		Store:        store,
		Boosts:       boosts,
		Programs:     programs,
		Orchestrator: orchestrator,
		Events:       events,
		lock:         lock,
	}, nil
}

// Close stops the event bus and releases the lock backend and the database
func (c *Container) Close(ctx context.Context) error {
	return errors.Join(
		c.Events.Stop(ctx),
		c.lock.Close(),
		c.DB.Close(),
	)
}
