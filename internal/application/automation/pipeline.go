package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/application/tiering"
	"github.com/loyalty/backend/internal/domain/loyalty"
)

// stageOutcome is what a stage hands back to the pipeline runner.
// err is a failure of the stage as a whole; errs are per-item failures.
type stageOutcome struct {
	processed int
	errs      []string
	err       error
}

type stageFunc func(ctx context.Context, tenantID uuid.UUID, report *RunReport) stageOutcome

type stage struct {
	name Stage
	run  stageFunc
}

// Pipeline is the fixed stage order of a daily run. The promotion scan
// completes before the checkpoint pass, and the boost sweeps run
// activate, expire, pending info.
var Pipeline = []Stage{
	StageIngest,
	StagePromotionScan,
	StageCheckpoint,
	StageNotify,
	StageBoostActivate,
	StageBoostExpire,
	StageBoostPendingInfo,
}

func (o *Orchestrator) stages() []stage {
	funcs := map[Stage]stageFunc{
		StageIngest:           o.ingest,
		StagePromotionScan:    o.scanPromotions,
		StageCheckpoint:       o.evaluateCheckpoints,
		StageNotify:           o.notifyTierChanges,
		StageBoostActivate:    o.boostSweep(StageBoostActivate, o.boosts.ActivateScheduled),
		StageBoostExpire:      o.boostSweep(StageBoostExpire, o.boosts.ExpireActive),
		StageBoostPendingInfo: o.boostSweep(StageBoostPendingInfo, o.boosts.TransitionExpiredToPendingInfo),
	}
	out := make([]stage, 0, len(Pipeline))
	for _, name := range Pipeline {
		out = append(out, stage{name: name, run: funcs[name]})
	}
	return out
}

func (o *Orchestrator) ingest(ctx context.Context, tenantID uuid.UUID, report *RunReport) stageOutcome {
	if o.ingestor == nil {
		return stageOutcome{}
	}
	res, err := o.ingestor.Ingest(ctx, tenantID)
	if err != nil {
		return stageOutcome{err: err}
	}
	report.Ingest = res
	return stageOutcome{processed: res.DeltasConsumed, errs: res.Errors}
}

func (o *Orchestrator) scanPromotions(ctx context.Context, tenantID uuid.UUID, report *RunReport) stageOutcome {
	res, err := o.scanner.Scan(ctx, tenantID)
	if err != nil {
		return stageOutcome{err: err}
	}
	report.Scan = res
	return stageOutcome{processed: res.Promoted, errs: userErrors(res.Errors)}
}

func (o *Orchestrator) evaluateCheckpoints(ctx context.Context, tenantID uuid.UUID, report *RunReport) stageOutcome {
	res, err := o.evaluator.Evaluate(ctx, tenantID)
	if err != nil {
		return stageOutcome{err: err}
	}
	report.Checkpoint = res
	return stageOutcome{processed: res.Evaluated, errs: userErrors(res.Errors)}
}

// notifyTierChanges sends one notice per promotion or demotion. Maintained
// users are never notified.
func (o *Orchestrator) notifyTierChanges(ctx context.Context, _ uuid.UUID, report *RunReport) stageOutcome {
	var out stageOutcome
	for _, rec := range tiering.TierChanges(report.Scan, report.Checkpoint) {
		event, ok := loyalty.NewTierChangedEvent(rec)
		if !ok {
			continue
		}
		o.recorder.RecordTierChange(ctx, string(event.ChangeType))
		if event.ChangeType == loyalty.TierChangePromotion {
			report.Notifications.Promotions++
		} else {
			report.Notifications.Demotions++
		}

		if o.notifier == nil {
			continue
		}
		if err := o.notifier.NotifyTierChange(ctx, event); err != nil {
			out.errs = append(out.errs, fmt.Sprintf("user %s: %v", event.UserID, err))
			continue
		}
		report.Notifications.Sent++
		out.processed++
	}
	return out
}

func (o *Orchestrator) boostSweep(name Stage, sweep func(context.Context, uuid.UUID) (*boost.BatchResult, error)) stageFunc {
	return func(ctx context.Context, tenantID uuid.UUID, report *RunReport) stageOutcome {
		res, err := sweep(ctx, tenantID)
		if err != nil {
			return stageOutcome{err: err}
		}
		switch name {
		case StageBoostActivate:
			report.BoostActivate = res
		case StageBoostExpire:
			report.BoostExpire = res
		case StageBoostPendingInfo:
			report.BoostPendingInfo = res
		}
		if res.Count > 0 && len(res.Rows) > 0 {
			o.recorder.RecordBoostTransitions(ctx, string(res.Rows[0].To), res.Count)
		}

		errs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, fmt.Sprintf("boost %s: %s", e.BoostID, e.Error))
		}
		return stageOutcome{processed: res.Count, errs: errs}
	}
}

func userErrors(errs []tiering.UserError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.UserID == uuid.Nil {
			out = append(out, fmt.Sprintf("%s: %s", e.Stage, e.Error))
			continue
		}
		out = append(out, fmt.Sprintf("user %s: %s", e.UserID, e.Error))
	}
	return out
}
