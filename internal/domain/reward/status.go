package reward

// BoostStatus is the commission boost sub-state, layered beneath the parent
// redemption's status
type BoostStatus string

const (
	BoostStatusScheduled     BoostStatus = "scheduled"
	BoostStatusActive        BoostStatus = "active"
	BoostStatusExpired       BoostStatus = "expired"
	BoostStatusPendingInfo   BoostStatus = "pending_info"
	BoostStatusPendingPayout BoostStatus = "pending_payout"
	BoostStatusFulfilled     BoostStatus = "fulfilled"
)

// boostTransitions lists the only permitted forward moves
var boostTransitions = map[BoostStatus]BoostStatus{
	BoostStatusScheduled:     BoostStatusActive,
	BoostStatusActive:        BoostStatusExpired,
	BoostStatusExpired:       BoostStatusPendingInfo,
	BoostStatusPendingInfo:   BoostStatusPendingPayout,
	BoostStatusPendingPayout: BoostStatusFulfilled,
}

// IsValid checks if the status is a valid BoostStatus
func (s BoostStatus) IsValid() bool {
	switch s {
	case BoostStatusScheduled, BoostStatusActive, BoostStatusExpired,
		BoostStatusPendingInfo, BoostStatusPendingPayout, BoostStatusFulfilled:
		return true
	}
	return false
}

// String returns the string representation of BoostStatus
func (s BoostStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the payout is settled
func (s BoostStatus) IsTerminal() bool {
	return s == BoostStatusFulfilled
}

// CanTransitionTo reports whether next directly follows s
func (s BoostStatus) CanTransitionTo(next BoostStatus) bool {
	allowed, ok := boostTransitions[s]
	return ok && allowed == next
}

// TransitionKind tells who caused a state change
type TransitionKind string

const (
	TransitionKindAPI       TransitionKind = "api"
	TransitionKindAutomated TransitionKind = "automated"
)

// RedemptionStatus is the generic status of a claimed reward
type RedemptionStatus string

const (
	RedemptionStatusClaimed   RedemptionStatus = "claimed"
	RedemptionStatusFulfilled RedemptionStatus = "fulfilled"
	RedemptionStatusConcluded RedemptionStatus = "concluded"
	RedemptionStatusRejected  RedemptionStatus = "rejected"
)

// IsValid checks if the status is a valid RedemptionStatus
func (s RedemptionStatus) IsValid() bool {
	switch s {
	case RedemptionStatusClaimed, RedemptionStatusFulfilled, RedemptionStatusConcluded, RedemptionStatusRejected:
		return true
	}
	return false
}
