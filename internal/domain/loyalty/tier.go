package loyalty

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Tier is one rank of a tenant's loyalty ladder
type Tier struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Order            int             `json:"order"`
	SalesThreshold   decimal.Decimal `json:"sales_threshold"`
	UnitsThreshold   int64           `json:"units_threshold"`
	CheckpointExempt bool            `json:"checkpoint_exempt"`
}

// Threshold returns the tier threshold for the given metric
func (t Tier) Threshold(metric VIPMetric) decimal.Decimal {
	if metric == VIPMetricUnits {
		return decimal.NewFromInt(t.UnitsThreshold)
	}
	return t.SalesThreshold
}

// Target returns the threshold as a counter pair, with only the metric's side set.
func (t Tier) Target(metric VIPMetric) Counters {
	if metric == VIPMetricUnits {
		return Counters{Sales: decimal.Zero, Units: t.UnitsThreshold}
	}
	return Counters{Sales: t.SalesThreshold}
}

// Qualifies reports whether value meets the tier threshold. Comparison is inclusive.
func (t Tier) Qualifies(value decimal.Decimal, metric VIPMetric) bool {
	return value.GreaterThanOrEqual(t.Threshold(metric))
}

// TierTable is a validated, order-sorted tier ladder for one tenant and metric.
type TierTable struct {
	metric VIPMetric
	tiers  []Tier
	byCode map[string]int
}

// NewTierTable validates tiers and builds a TierTable.
// Orders must be contiguous, thresholds non-decreasing and the floor tier must start at zero.
func NewTierTable(metric VIPMetric, tiers []Tier) (*TierTable, error) {
	if !metric.IsValid() {
		return nil, shared.NewDomainError(CodeProgramNotConfigured, fmt.Sprintf("Unknown VIP metric %q", metric))
	}
	if len(tiers) == 0 {
		return nil, shared.NewDomainError(CodeTiersNotConfigured, "No tiers configured")
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	byCode := make(map[string]int, len(sorted))
	for i, t := range sorted {
		if t.Code == "" {
			return nil, shared.NewDomainError(CodeInvalidTierTable, fmt.Sprintf("Tier at order %d has no code", t.Order))
		}
		if _, dup := byCode[t.Code]; dup {
			return nil, shared.NewDomainError(CodeInvalidTierTable, fmt.Sprintf("Duplicate tier code %s", t.Code))
		}
		byCode[t.Code] = i

		if i == 0 {
			if !t.Threshold(metric).IsZero() {
				return nil, shared.NewDomainError(CodeInvalidTierTable, "Lowest tier threshold must be zero")
			}
			continue
		}
		prev := sorted[i-1]
		if t.Order != prev.Order+1 {
			return nil, shared.NewDomainError(CodeInvalidTierTable,
				fmt.Sprintf("Tier orders must be contiguous, found %d after %d", t.Order, prev.Order))
		}
		if t.Threshold(metric).LessThan(prev.Threshold(metric)) {
			return nil, shared.NewDomainError(CodeInvalidTierTable,
				fmt.Sprintf("Tier %s threshold is below tier %s", t.Code, prev.Code))
		}
	}

	return &TierTable{metric: metric, tiers: sorted, byCode: byCode}, nil
}

// Metric returns the metric the table's thresholds are measured in
func (tt *TierTable) Metric() VIPMetric {
	return tt.metric
}

// Tiers returns the tiers in ascending order
func (tt *TierTable) Tiers() []Tier {
	out := make([]Tier, len(tt.tiers))
	copy(out, tt.tiers)
	return out
}

// Lowest returns the floor tier
func (tt *TierTable) Lowest() Tier {
	return tt.tiers[0]
}

// Highest returns the top tier
func (tt *TierTable) Highest() Tier {
	return tt.tiers[len(tt.tiers)-1]
}

// ByCode looks up a tier by its code
func (tt *TierTable) ByCode(code string) (Tier, bool) {
	i, ok := tt.byCode[code]
	if !ok {
		return Tier{}, false
	}
	return tt.tiers[i], true
}

// HighestQualifying scans from the highest order down and returns the first tier
// whose threshold is met by value. Falls back to the floor tier.
func (tt *TierTable) HighestQualifying(value decimal.Decimal) Tier {
	for i := len(tt.tiers) - 1; i >= 0; i-- {
		if tt.tiers[i].Qualifies(value, tt.metric) {
			return tt.tiers[i]
		}
	}
	return tt.tiers[0]
}

// PromotionFloor is the smallest value that could lift a floor-tier user.
// Returns false when the table has a single tier.
func (tt *TierTable) PromotionFloor() (decimal.Decimal, bool) {
	if len(tt.tiers) < 2 {
		return decimal.Zero, false
	}
	return tt.tiers[1].Threshold(tt.metric), true
}
