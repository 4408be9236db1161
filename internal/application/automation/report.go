package automation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/application/tiering"
	"github.com/loyalty/backend/internal/domain/loyalty"
)

// Stage names one step of the daily pipeline
type Stage string

const (
	StageIngest           Stage = "ingest"
	StagePromotionScan    Stage = "promotion_scan"
	StageCheckpoint       Stage = "checkpoint"
	StageNotify           Stage = "notify"
	StageBoostActivate    Stage = "boost_activate"
	StageBoostExpire      Stage = "boost_expire"
	StageBoostPendingInfo Stage = "boost_pending_info"
)

// StageStatus is the outcome of one stage
type StageStatus string

const (
	// StageStatusOK means the stage ran without any error
	StageStatusOK StageStatus = "ok"
	// StageStatusPartial means the stage ran but some items failed
	StageStatusPartial StageStatus = "partial"
	// StageStatusFailed means the stage could not run
	StageStatusFailed StageStatus = "failed"
	// StageStatusSkipped means the stage did not run
	StageStatusSkipped StageStatus = "skipped"
)

// StageReport is the outcome of one stage for one tenant
type StageReport struct {
	Stage      Stage       `json:"stage"`
	Status     StageStatus `json:"status"`
	Processed  int         `json:"processed"`
	Errors     []string    `json:"errors"`
	DurationMs int64       `json:"duration_ms"`
}

// NotifyResult is the outcome of the notification stage
type NotifyResult struct {
	Sent       int `json:"sent"`
	Promotions int `json:"promotions"`
	Demotions  int `json:"demotions"`
}

// RunReport is everything one tenant's daily run did
type RunReport struct {
	RunID      uuid.UUID `json:"run_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	// Aborted is set when a configuration error stopped the run
	Aborted bool `json:"aborted"`
	// Locked is set when another run held the tenant
	Locked bool          `json:"locked"`
	Stages []StageReport `json:"stages"`

	Ingest           *loyalty.IngestResult     `json:"ingest,omitempty"`
	Scan             *tiering.ScanResult       `json:"promotion_scan,omitempty"`
	Checkpoint       *tiering.EvaluationResult `json:"checkpoint,omitempty"`
	Notifications    NotifyResult              `json:"notifications"`
	BoostActivate    *boost.BatchResult        `json:"boost_activate,omitempty"`
	BoostExpire      *boost.BatchResult        `json:"boost_expire,omitempty"`
	BoostPendingInfo *boost.BatchResult        `json:"boost_pending_info,omitempty"`
}

// StageReport returns the report for stage, if the stage is part of the run
func (r *RunReport) StageReport(stage Stage) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageReport{}, false
}

// ErrorMessages lists every stage error prefixed with its stage
func (r *RunReport) ErrorMessages() []string {
	var out []string
	for _, s := range r.Stages {
		for _, e := range s.Errors {
			out = append(out, fmt.Sprintf("[%s] %s: %s", r.TenantID, s.Stage, e))
		}
	}
	return out
}

// ErrorCount is the number of errors across all stages
func (r *RunReport) ErrorCount() int {
	n := 0
	for _, s := range r.Stages {
		n += len(s.Errors)
	}
	return n
}

// Totals sums counts across tenants
type Totals struct {
	UsersPromoted      int `json:"users_promoted"`
	UsersMaintained    int `json:"users_maintained"`
	UsersDemoted       int `json:"users_demoted"`
	NotificationsSent  int `json:"notifications_sent"`
	BoostsActivated    int `json:"boosts_activated"`
	BoostsExpired      int `json:"boosts_expired"`
	BoostsPendingInfo  int `json:"boosts_pending_info"`
	AdjustmentsApplied int `json:"adjustments_applied"`
	Errors             int `json:"errors"`
}

func (t *Totals) add(r *RunReport) {
	if r.Scan != nil {
		t.UsersPromoted += r.Scan.Promoted
	}
	if r.Checkpoint != nil {
		t.UsersPromoted += r.Checkpoint.Promoted
		t.UsersMaintained += r.Checkpoint.Maintained
		t.UsersDemoted += r.Checkpoint.Demoted
		t.AdjustmentsApplied += r.Checkpoint.AdjustmentsApplied
	}
	t.NotificationsSent += r.Notifications.Sent
	if r.BoostActivate != nil {
		t.BoostsActivated += r.BoostActivate.Count
	}
	if r.BoostExpire != nil {
		t.BoostsExpired += r.BoostExpire.Count
	}
	if r.BoostPendingInfo != nil {
		t.BoostsPendingInfo += r.BoostPendingInfo.Count
	}
	t.Errors += r.ErrorCount()
}

// AggregateReport is the outcome of a run over every active tenant
type AggregateReport struct {
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Success        bool         `json:"success"`
	TenantsTotal   int          `json:"tenants_total"`
	TenantsSkipped int          `json:"tenants_skipped"`
	TenantsFailed  int          `json:"tenants_failed"`
	Totals         Totals       `json:"totals"`
	Reports        []*RunReport `json:"reports"`
	Errors         []string     `json:"errors"`
}

// FirstErrors returns at most n error messages across all tenants
func (a *AggregateReport) FirstErrors(n int) []string {
	out := make([]string, 0, n)
	for _, e := range a.Errors {
		if len(out) == n {
			return out
		}
		out = append(out, e)
	}
	for _, r := range a.Reports {
		for _, e := range r.ErrorMessages() {
			if len(out) == n {
				return out
			}
			out = append(out, e)
		}
	}
	return out
}

func (a *AggregateReport) add(r *RunReport) {
	a.Reports = append(a.Reports, r)
	if r.Locked {
		a.TenantsSkipped++
		return
	}
	if !r.Success {
		a.TenantsFailed++
	}
	a.Totals.add(r)
}
