// Package automation runs the daily loyalty pipeline for each tenant.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Config holds orchestrator settings
type Config struct {
	// TenantTimeout bounds one tenant's run
	TenantTimeout time.Duration
	// LockTTL is how long a tenant's run lock is held if never released
	LockTTL time.Duration
	// AlertErrorLimit caps the error messages carried by an admin alert
	AlertErrorLimit int
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		TenantTimeout:   10 * time.Minute,
		LockTTL:         30 * time.Minute,
		AlertErrorLimit: 5,
	}
}

// Dependencies wires the orchestrator's collaborators. Ingestor, Notifier,
// Lock, Archive, Recorder and Alerts are optional.
type Dependencies struct {
	Ingestor  PerformanceIngestor
	Scanner   PromotionScanner
	Evaluator CheckpointEvaluator
	Notifier  TierChangeNotifier
	Boosts    BoostLifecycle
	Tenants   TenantProvider
	Lock      RunLock
	Archive   ReportArchive
	Recorder  Recorder
	Alerts    AlertSender
	Logger    *zap.Logger
}

// Orchestrator sequences the daily stages for a tenant
type Orchestrator struct {
	ingestor  PerformanceIngestor
	scanner   PromotionScanner
	evaluator CheckpointEvaluator
	notifier  TierChangeNotifier
	boosts    BoostLifecycle
	tenants   TenantProvider
	lock      RunLock
	archive   ReportArchive
	recorder  Recorder
	alerts    AlertSender
	logger    *zap.Logger
	config    Config
	now       func() time.Time
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(deps Dependencies, config Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if config.AlertErrorLimit <= 0 {
		config.AlertErrorLimit = 5
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Minute
	}
	return &Orchestrator{
		ingestor:  deps.Ingestor,
		scanner:   deps.Scanner,
		evaluator: deps.Evaluator,
		notifier:  deps.Notifier,
		boosts:    deps.Boosts,
		tenants:   deps.Tenants,
		lock:      deps.Lock,
		archive:   deps.Archive,
		recorder:  recorder,
		alerts:    deps.Alerts,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the orchestrator's time source
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes every stage for tenantID in pipeline order. A stage that fails
// is recorded and the next stage still runs, except after a configuration
// error, which skips the rest of the tenant's run.
func (o *Orchestrator) Run(ctx context.Context, tenantID uuid.UUID) (*RunReport, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "automation", "run")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	if o.config.TenantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.TenantTimeout)
		defer cancel()
	}

	log := o.logger.With(zap.String("tenant_id", tenantID.String()))
	report := &RunReport{
		RunID:     uuid.New(),
		TenantID:  tenantID,
		StartedAt: o.now(),
		Stages:    make([]StageReport, 0, len(Pipeline)),
	}

	for _, st := range o.stages() {
		if report.Aborted {
			report.Stages = append(report.Stages, StageReport{Stage: st.name, Status: StageStatusSkipped, Errors: []string{}})
			continue
		}

		sr := o.runStage(ctx, st, tenantID, report)
		report.Stages = append(report.Stages, sr)
		o.recorder.RecordStage(ctx, string(st.name), time.Duration(sr.DurationMs)*time.Millisecond, len(sr.Errors))
	}

	report.FinishedAt = o.now()
	report.Success = !report.Aborted && report.ErrorCount() == 0

	telemetry.SetAttributes(span,
		"success", report.Success,
		"aborted", report.Aborted,
		"errors", report.ErrorCount(),
	)
	log.Info("Daily automation run completed",
		zap.String("run_id", report.RunID.String()),
		zap.Bool("success", report.Success),
		zap.Bool("aborted", report.Aborted),
		zap.Int("errors", report.ErrorCount()))

	return report, nil
}

func (o *Orchestrator) runStage(ctx context.Context, st stage, tenantID uuid.UUID, report *RunReport) (sr StageReport) {
	start := time.Now()
	sr = StageReport{Stage: st.name, Status: StageStatusOK, Errors: []string{}}
	log := o.logger.With(zap.String("tenant_id", tenantID.String()), zap.String("stage", string(st.name)))

	defer func() {
		if r := recover(); r != nil {
			sr.Status = StageStatusFailed
			sr.Errors = append(sr.Errors, fmt.Sprintf("panic: %v", r))
			log.Error("Automation stage panicked", zap.Any("panic", r))
		}
		sr.DurationMs = time.Since(start).Milliseconds()
	}()

	var outcome stageOutcome
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelTenantID:  tenantID.String(),
		telemetry.ProfilingLabelOperation: string(st.name),
	}, func(ctx context.Context) {
		outcome = st.run(ctx, tenantID, report)
	})

	sr.Processed = outcome.processed
	if outcome.err != nil {
		sr.Status = StageStatusFailed
		sr.Errors = append(sr.Errors, outcome.err.Error())
		if loyalty.IsConfigurationError(outcome.err) {
			report.Aborted = true
			log.Error("Automation run aborted by configuration error", zap.Error(outcome.err))
		} else {
			log.Error("Automation stage failed", zap.Error(outcome.err))
		}
		return sr
	}
	if len(outcome.errs) > 0 {
		sr.Status = StageStatusPartial
		sr.Errors = append(sr.Errors, outcome.errs...)
		log.Warn("Automation stage completed with errors", zap.Int("errors", len(outcome.errs)))
	}
	return sr
}

// RunTenant runs one tenant under its run lock, then archives the report and
// alerts operators if anything failed
func (o *Orchestrator) RunTenant(ctx context.Context, tenantID uuid.UUID) (*RunReport, error) {
	key := o.lockKey(tenantID)
	if o.lock != nil {
		acquired, err := o.lock.Acquire(ctx, key, o.config.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			o.logger.Info("Skipping tenant, run already in progress", zap.String("tenant_id", tenantID.String()))
			o.recorder.RecordRun(ctx, "locked")
			now := o.now()
			return &RunReport{
				RunID:      uuid.New(),
				TenantID:   tenantID,
				StartedAt:  now,
				FinishedAt: now,
				Success:    true,
				Locked:     true,
				Stages:     []StageReport{},
			}, nil
		}
		defer func() {
			// release on a fresh context so a timed out run still frees its lock
			if err := o.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				o.logger.Warn("Failed to release run lock", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	report, err := o.Run(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if report.Success {
		o.recorder.RecordRun(ctx, "success")
	} else {
		o.recorder.RecordRun(ctx, "partial_failure")
	}

	if o.archive != nil {
		if err := o.archive.Archive(ctx, report); err != nil {
			o.logger.Warn("Failed to archive run report",
				zap.String("tenant_id", tenantID.String()),
				zap.String("run_id", report.RunID.String()),
				zap.Error(err))
		}
	}
	return report, nil
}

// RunAll runs every active tenant in turn and sends one admin alert if any
// tenant reported errors
func (o *Orchestrator) RunAll(ctx context.Context) (*AggregateReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "automation", "run_all")
	defer span.End()

	agg := &AggregateReport{
		StartedAt: o.now(),
		Reports:   make([]*RunReport, 0),
		Errors:    make([]string, 0),
	}

	tenantIDs, err := o.tenants.GetAllActiveTenantIDs(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		o.recorder.RecordRun(ctx, "error")
		o.sendAlert(ctx, Alert{
			Type:      AlertTypeUnexpectedError,
			Message:   "Daily automation could not list tenants",
			Details:   []string{err.Error()},
			Timestamp: o.now(),
		})
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	agg.TenantsTotal = len(tenantIDs)

	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			agg.Errors = append(agg.Errors, fmt.Sprintf("[%s] run cancelled: %v", tenantID, ctx.Err()))
			agg.TenantsFailed++
			continue
		}
		report, err := o.RunTenant(ctx, tenantID)
		if err != nil {
			agg.Errors = append(agg.Errors, fmt.Sprintf("[%s] %v", tenantID, err))
			agg.TenantsFailed++
			continue
		}
		agg.add(report)
	}

	agg.FinishedAt = o.now()
	agg.Success = agg.TenantsFailed == 0 && agg.Totals.Errors == 0 && len(agg.Errors) == 0

	if !agg.Success {
		total := agg.Totals.Errors + len(agg.Errors)
		o.sendAlert(ctx, Alert{
			Type:      AlertTypePartialFailure,
			Message:   fmt.Sprintf("Daily automation completed with %d error(s) across %d tenant(s)", total, agg.TenantsFailed),
			Details:   agg.FirstErrors(o.config.AlertErrorLimit),
			Timestamp: agg.FinishedAt,
		})
	}

	telemetry.SetAttributes(span,
		"tenants", agg.TenantsTotal,
		"tenants_failed", agg.TenantsFailed,
		"tenants_skipped", agg.TenantsSkipped,
		"success", agg.Success,
	)
	o.logger.Info("Daily automation completed for all tenants",
		zap.Int("tenants", agg.TenantsTotal),
		zap.Int("failed", agg.TenantsFailed),
		zap.Int("skipped", agg.TenantsSkipped),
		zap.Int("promoted", agg.Totals.UsersPromoted),
		zap.Int("demoted", agg.Totals.UsersDemoted),
		zap.Int("boosts_activated", agg.Totals.BoostsActivated),
		zap.Int("boosts_expired", agg.Totals.BoostsExpired),
		zap.Int("errors", agg.Totals.Errors))

	return agg, nil
}

// Stages returns the pipeline order
func (o *Orchestrator) Stages() []Stage {
	out := make([]Stage, len(Pipeline))
	copy(out, Pipeline)
	return out
}

func (o *Orchestrator) lockKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("loyalty:automation:%s:%s", tenantID, o.now().Format("2006-01-02"))
}

func (o *Orchestrator) sendAlert(ctx context.Context, alert Alert) {
	if o.alerts == nil {
		return
	}
	if len(alert.Details) > o.config.AlertErrorLimit {
		alert.Details = alert.Details[:o.config.AlertErrorLimit]
	}
	if err := o.alerts.SendAdminAlert(ctx, alert); err != nil {
		o.logger.Warn("Failed to send admin alert", zap.String("type", string(alert.Type)), zap.Error(err))
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(context.Context, string)                       {}
func (nopRecorder) RecordStage(context.Context, string, time.Duration, int) {}
func (nopRecorder) RecordTierChange(context.Context, string)                {}
func (nopRecorder) RecordBoostTransitions(context.Context, string, int)     {}
