package circulation

import (
	"fmt"
)

// Default limits. These are the canonical contract values; deployments that
// need different numbers construct their own Rules instead of editing code.
const (
	DefaultMaxActiveLoans      = 5
	DefaultMaxOpenHolds        = 3
	DefaultMaxRenewals         = 2
	DefaultReadyHoldExpiryDays = 3
	DefaultLoanPeriodDays      = 14
	DefaultHoldExpiryDays      = 7
	DefaultExtensionDays       = 7

	minLoanPeriodDays = 1
	maxLoanPeriodDays = 30
	minExtensionDays  = 1
	maxExtensionDays  = 14
	minHoldExpiryDays = 1
	maxHoldExpiryDays = 30
)

// Rules is the stateless limit rule set consulted by the loan engine and the
// hold queue before every mutation.
type Rules struct {
	MaxActiveLoans      int // concurrent ACTIVE loans per holder
	MaxOpenHolds        int // concurrent PENDING/READY holds per holder
	MaxRenewals         int // renewals per loan
	ReadyHoldExpiryDays int // pickup window after a promotion to READY
	LoanPeriodDays      int // loan period when the command does not supply one
	HoldExpiryDays      int // PENDING hold lifetime when the command does not supply one
	ExtensionDays       int // extension length when the command does not supply one
}

// DefaultRules returns the canonical limit set.
func DefaultRules() Rules {
	return Rules{
		MaxActiveLoans:      DefaultMaxActiveLoans,
		MaxOpenHolds:        DefaultMaxOpenHolds,
		MaxRenewals:         DefaultMaxRenewals,
		ReadyHoldExpiryDays: DefaultReadyHoldExpiryDays,
		LoanPeriodDays:      DefaultLoanPeriodDays,
		HoldExpiryDays:      DefaultHoldExpiryDays,
		ExtensionDays:       DefaultExtensionDays,
	}
}

// LoanPeriod validates a requested loan period in days, substituting the
// configured default for zero. Valid range: 1-30 days.
func (r Rules) LoanPeriod(requested int) (int, error) {
	if requested == 0 {
		requested = r.LoanPeriodDays
	}

	if requested < minLoanPeriodDays || requested > maxLoanPeriodDays {
		return 0, fmt.Errorf("%w: loan period must be between %d and %d days, got %d",
			ErrLimitExceeded, minLoanPeriodDays, maxLoanPeriodDays, requested)
	}

	return requested, nil
}

// ExtensionPeriod validates a requested extension in days, substituting the
// configured default for zero. Valid range: 1-14 days.
func (r Rules) ExtensionPeriod(requested int) (int, error) {
	if requested == 0 {
		requested = r.ExtensionDays
	}

	if requested < minExtensionDays || requested > maxExtensionDays {
		return 0, fmt.Errorf("%w: extension must be between %d and %d days, got %d",
			ErrLimitExceeded, minExtensionDays, maxExtensionDays, requested)
	}

	return requested, nil
}

// HoldExpiry validates a requested hold lifetime in days, substituting the
// configured default for zero.
func (r Rules) HoldExpiry(requested int) (int, error) {
	if requested == 0 {
		requested = r.HoldExpiryDays
	}

	if requested < minHoldExpiryDays || requested > maxHoldExpiryDays {
		return 0, fmt.Errorf("%w: hold expiry must be between %d and %d days, got %d",
			ErrLimitExceeded, minHoldExpiryDays, maxHoldExpiryDays, requested)
	}

	return requested, nil
}
