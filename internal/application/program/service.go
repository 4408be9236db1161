// Package program administers a tenant's loyalty program: the tier ladder,
// creator enrollment, manual adjustments and the creator-facing read models.
package program

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProgramWriter stores program settings, ladders and enrollments
type ProgramWriter interface {
	SaveProgram(ctx context.Context, settings *loyalty.ProgramSettings) error
	ReplaceTiers(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric, tiers []loyalty.Tier) error
	Enroll(ctx context.Context, state *loyalty.UserTierState) error
}

// ProgramReader reads the settings and ladder the evaluators run on
type ProgramReader interface {
	GetProgramSettings(ctx context.Context, tenantID uuid.UUID) (*loyalty.ProgramSettings, error)
	GetTierThresholds(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric) ([]loyalty.Tier, error)
}

// PerformanceStager queues performance deltas for the next ingestion stage
type PerformanceStager interface {
	Stage(ctx context.Context, delta *loyalty.PerformanceDelta) error
}

// Service handles program administration and tier read models
type Service struct {
	programs    ProgramWriter
	reader      ProgramReader
	states      loyalty.TierStateReader
	adjustments loyalty.AdjustmentRepository
	stager      PerformanceStager
	logger      *zap.Logger
	now         func() time.Time
}

// ServiceConfig wires the Service collaborators
type ServiceConfig struct {
	Programs    ProgramWriter
	Reader      ProgramReader
	States      loyalty.TierStateReader
	Adjustments loyalty.AdjustmentRepository
	Stager      PerformanceStager
	Logger      *zap.Logger
}

// NewService creates a new program Service
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		programs:    cfg.Programs,
		reader:      cfg.Reader,
		states:      cfg.States,
		adjustments: cfg.Adjustments,
		stager:      cfg.Stager,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ConfigureProgram creates or replaces the tenant's settings and whole tier ladder.
// The ladder is validated before anything is written.
func (s *Service) ConfigureProgram(ctx context.Context, tenantID uuid.UUID, in ConfigureProgramInput) (*ProgramView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "program", "configure")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	settings := &loyalty.ProgramSettings{
		TenantID:         tenantID,
		Name:             strings.TrimSpace(in.Name),
		Metric:           in.Metric,
		CheckpointMonths: in.CheckpointMonths,
		Status:           in.Status,
	}
	if settings.CheckpointMonths == 0 {
		settings.CheckpointMonths = loyalty.DefaultCheckpointMonths
	}
	if settings.Status == "" {
		settings.Status = loyalty.ProgramStatusActive
	}
	if settings.Name == "" {
		return nil, shared.NewDomainError("INVALID_PROGRAM_NAME", "Program name is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	tiers := make([]loyalty.Tier, len(in.Tiers))
	for i, t := range in.Tiers {
		tiers[i] = loyalty.Tier{
			ID:               uuid.New(),
			TenantID:         tenantID,
			Code:             strings.TrimSpace(t.Code),
			Name:             strings.TrimSpace(t.Name),
			Order:            t.Order,
			SalesThreshold:   t.SalesThreshold,
			UnitsThreshold:   t.UnitsThreshold,
			CheckpointExempt: t.CheckpointExempt,
		}
	}
	table, err := loyalty.NewTierTable(settings.Metric, tiers)
	if err != nil {
		return nil, err
	}

	if err := s.programs.SaveProgram(ctx, settings); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save program: %w", err)
	}
	if err := s.programs.ReplaceTiers(ctx, tenantID, settings.Metric, tiers); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("replace tiers: %w", err)
	}

	s.logger.Info("Loyalty program configured",
		zap.String("tenant_id", tenantID.String()),
		zap.String("metric", string(settings.Metric)),
		zap.Int("checkpoint_months", settings.CheckpointMonths),
		zap.Int("tiers", len(tiers)))
	return &ProgramView{Settings: settings, Tiers: table.Tiers()}, nil
}

// GetProgram returns the tenant's settings and ladder
func (s *Service) GetProgram(ctx context.Context, tenantID uuid.UUID) (*ProgramView, error) {
	settings, table, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &ProgramView{Settings: settings, Tiers: table.Tiers()}, nil
}

// EnrollCreator places a creator on the floor tier with empty counters
func (s *Service) EnrollCreator(ctx context.Context, tenantID uuid.UUID, in EnrollCreatorInput) (*loyalty.UserTierState, error) {
	if in.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	handle := strings.TrimSpace(in.Handle)
	if handle == "" {
		return nil, shared.NewDomainError("INVALID_HANDLE", "Creator handle is required")
	}

	settings, table, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.states.GetUserTierState(ctx, tenantID, in.UserID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Creator is already enrolled")
	}

	now := s.now()
	floor := table.Lowest()
	state := &loyalty.UserTierState{
		UserID:           in.UserID,
		TenantID:         tenantID,
		Handle:           handle,
		Email:            strings.TrimSpace(in.Email),
		CurrentTier:      floor.Code,
		TierAchievedAt:   now,
		NextCheckpointAt: settings.NextCheckpoint(floor, now),
		WindowStartedAt:  now,
		CheckpointTarget: floor.Target(settings.Metric),
		Version:          1,
	}
	if err := s.programs.Enroll(ctx, state); err != nil {
		return nil, fmt.Errorf("enroll creator: %w", err)
	}

	s.logger.Info("Creator enrolled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.String("tier", floor.Code))
	return state, nil
}

// QueueAdjustment stores a manual correction for the next checkpoint pass
func (s *Service) QueueAdjustment(ctx context.Context, tenantID uuid.UUID, in QueueAdjustmentInput) (*loyalty.SalesAdjustment, error) {
	if _, err := s.states.GetUserTierState(ctx, tenantID, in.UserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Creator is not enrolled")
		}
		return nil, fmt.Errorf("load creator: %w", err)
	}

	adjustment, err := loyalty.NewSalesAdjustment(
		tenantID, in.UserID, in.Amount, in.Units, in.Reason, in.Type, in.AdjustedBy, s.now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.adjustments.Create(ctx, adjustment); err != nil {
		return nil, fmt.Errorf("queue adjustment: %w", err)
	}

	s.logger.Info("Sales adjustment queued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.String("adjustment_type", string(in.Type)),
		zap.String("amount", in.Amount.StringFixed(2)),
		zap.Int64("units", in.Units))
	return adjustment, nil
}

// ListPendingAdjustments returns the adjustments the next run will apply
func (s *Service) ListPendingAdjustments(ctx context.Context, tenantID uuid.UUID) ([]loyalty.SalesAdjustment, error) {
	return s.adjustments.ListPending(ctx, tenantID)
}

// RecordPerformance stages a sales delta for the next ingestion stage
func (s *Service) RecordPerformance(ctx context.Context, tenantID uuid.UUID, in RecordPerformanceInput) (*loyalty.PerformanceDelta, error) {
	if in.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if in.Sales.IsZero() && in.Units == 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Delta must change sales or units")
	}

	delta := &loyalty.PerformanceDelta{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     in.UserID,
		Sales:      in.Sales,
		Units:      in.Units,
		Source:     in.Source,
		RecordedAt: in.RecordedAt,
	}
	if delta.RecordedAt.IsZero() {
		delta.RecordedAt = s.now()
	}
	if err := s.stager.Stage(ctx, delta); err != nil {
		return nil, fmt.Errorf("stage performance delta: %w", err)
	}
	return delta, nil
}

// GetTierStatus returns a creator's tier, counters and distance to the next tier
func (s *Service) GetTierStatus(ctx context.Context, tenantID, userID uuid.UUID) (*TierStatus, error) {
	state, err := s.states.GetUserTierState(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	settings, table, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return buildTierStatus(state, settings, table), nil
}

// ListCheckpointHistory returns one page of the creator's checkpoint log, newest first
func (s *Service) ListCheckpointHistory(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]loyalty.CheckpointRecord, int64, error) {
	return s.states.ListCheckpointRecords(ctx, tenantID, userID, filter.Normalize())
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID) (*loyalty.ProgramSettings, *loyalty.TierTable, error) {
	settings, err := s.reader.GetProgramSettings(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("load program settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}
	tiers, err := s.reader.GetTierThresholds(ctx, tenantID, settings.Metric)
	if err != nil {
		return nil, nil, fmt.Errorf("load tier thresholds: %w", err)
	}
	table, err := loyalty.NewTierTable(settings.Metric, tiers)
	if err != nil {
		return nil, nil, err
	}
	return settings, table, nil
}
