package reward

import (
	"time"

	"github.com/google/uuid"
)

// RewardTypeCommissionBoost is the reward type that owns a boost sub-state
const RewardTypeCommissionBoost = "commission_boost"

// Redemption is a user's claim on a reward. Boost rewards keep their own
// sub-state in CommissionBoost.
type Redemption struct {
	ID          uuid.UUID        `json:"id"`
	TenantID    uuid.UUID        `json:"tenant_id"`
	UserID      uuid.UUID        `json:"user_id"`
	RewardType  string           `json:"reward_type"`
	Status      RedemptionStatus `json:"status"`
	ClaimedAt   time.Time        `json:"claimed_at"`
	FulfilledAt *time.Time       `json:"fulfilled_at"`
	ConcludedAt *time.Time       `json:"concluded_at"`
}

// CanScheduleBoost reports whether a boost may be created under this redemption for userID
func (r *Redemption) CanScheduleBoost(userID uuid.UUID) bool {
	return r.RewardType == RewardTypeCommissionBoost &&
		r.Status == RedemptionStatusClaimed &&
		r.UserID == userID
}
