package circulation

// DecisionResult represents the outcome of a business decision in a Decide
// function. This enables type-safe, functional programming style decision
// modeling.
//
// IMPORTANT: DecisionResult should only be constructed using the provided
// factory methods: IdempotentDecision(), SuccessDecision(changes), or
// ErrorDecision(err). Do not construct DecisionResult directly.
type DecisionResult struct {
	Outcome string    // "idempotent", "success", or "error"
	Changes ChangeSet // empty for idempotent and error decisions
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is
// needed. Only sweeps use this: user-driven operations reject invalid repeats
// with an error instead of silently doing nothing.
func IdempotentDecision() DecisionResult {
	return DecisionResult{
		Outcome: idempotentOutcome,
	}
}

// SuccessDecision creates a DecisionResult carrying the change set to commit.
func SuccessDecision(changes ChangeSet) DecisionResult {
	return DecisionResult{
		Outcome: successOutcome,
		Changes: changes,
	}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
// No change set is produced; nothing may be written.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasChangesToCommit returns true if there is a change set to write.
func (r DecisionResult) HasChangesToCommit() bool {
	return r.Outcome == successOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
