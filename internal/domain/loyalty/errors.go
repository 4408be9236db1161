package loyalty

import "github.com/loyalty/backend/internal/domain/shared"

// Configuration error codes. A tenant whose program fails with one of these
// cannot be evaluated at all.
const (
	CodeProgramNotConfigured = "PROGRAM_NOT_CONFIGURED"
	CodeTiersNotConfigured   = "TIERS_NOT_CONFIGURED"
	CodeInvalidTierTable     = "INVALID_TIER_TABLE"
)

// IsConfigurationError reports whether err aborts a whole tenant run.
func IsConfigurationError(err error) bool {
	return shared.HasCode(err, CodeProgramNotConfigured) ||
		shared.HasCode(err, CodeTiersNotConfigured) ||
		shared.HasCode(err, CodeInvalidTierTable)
}
