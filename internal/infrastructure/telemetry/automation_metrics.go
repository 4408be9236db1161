package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// AutomationMetrics records daily run outcomes, tier changes and boost transitions.
type AutomationMetrics struct {
	runs             *Counter
	tierChanges      *Counter
	boostTransitions *Counter
	stageErrors      *Counter
	stageDuration    *Histogram
}

// NewAutomationMetrics registers the automation instruments on meter.
func NewAutomationMetrics(meter metric.Meter) (*AutomationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   AutomationMetrics
		err error
	)
	if m.runs, err = NewCounter(meter, "loyalty_automation_runs_total",
		"Tenant automation runs by outcome", "{runs}"); err != nil {
		return nil, err
	}
	if m.tierChanges, err = NewCounter(meter, "loyalty_tier_changes_total",
		"Tier promotions and demotions", "{changes}"); err != nil {
		return nil, err
	}
	if m.boostTransitions, err = NewCounter(meter, "loyalty_boost_transitions_total",
		"Commission boost status transitions by target status", "{transitions}"); err != nil {
		return nil, err
	}
	if m.stageErrors, err = NewCounter(meter, "loyalty_stage_errors_total",
		"Errors reported by automation stages", "{errors}"); err != nil {
		return nil, err
	}
	if m.stageDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "loyalty_stage_duration_seconds",
		Description: "Automation stage duration",
		Unit:        "s",
		Boundaries:  StageDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRun counts one tenant run
func (m *AutomationMetrics) RecordRun(ctx context.Context, outcome string) {
	m.runs.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordStage records one stage's duration and error count
func (m *AutomationMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, errorCount int) {
	m.stageDuration.RecordDuration(ctx, duration, AttrStage.String(stage))
	if errorCount > 0 {
		m.stageErrors.Add(ctx, int64(errorCount), AttrStage.String(stage))
	}
}

// RecordTierChange counts one promotion or demotion
func (m *AutomationMetrics) RecordTierChange(ctx context.Context, change string) {
	m.tierChanges.Inc(ctx, AttrChange.String(change))
}

// RecordBoostTransitions counts boosts moved into status to
func (m *AutomationMetrics) RecordBoostTransitions(ctx context.Context, to string, count int) {
	if count <= 0 {
		return
	}
	m.boostTransitions.Add(ctx, int64(count), AttrTo.String(to))
}
