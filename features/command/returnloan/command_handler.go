package returnloan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/shell"
)

// Store defines the interface needed by the CommandHandler for record store
// operations. FindLoan resolves the loan id to its title before the per-title
// snapshot is loaded.
type Store interface {
	FindLoan(ctx context.Context, loanID uuid.UUID) (circulation.Loan, error)
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
	CommitTitleChange(ctx context.Context, expectedVersion uint, changes circulation.ChangeSet) error
}

// CommandHandler orchestrates the complete return workflow:
// Load -> Decide -> Commit -> Notify, with conflict retry.
type CommandHandler struct {
	store        Store
	notifier     shell.HoldNotifier
	rules        circulation.Rules
	logger       circulation.Logger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithHoldNotifier sets the hook fired once per successful promotion.
func WithHoldNotifier(notifier shell.HoldNotifier) Option {
	return func(h *CommandHandler) {
		h.notifier = notifier
	}
}

// WithRules overrides the default limit rule set.
func WithRules(rules circulation.Rules) Option {
	return func(h *CommandHandler) {
		h.rules = rules
	}
}

// WithLogger sets the logger for the handler.
func WithLogger(logger circulation.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
		rules: circulation.DefaultRules(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete return workflow and returns the closed loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		returned, execErr := h.executeCommand(retryCtx, command)
		loan = returned

		return execErr
	}, h.retryOptions...)

	return loan, retryErr
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Loan, error) {
	var empty circulation.Loan

	loan, findErr := h.store.FindLoan(ctx, command.LoanID)
	if findErr != nil {
		return empty, findErr
	}

	snapshot, loadErr := h.store.LoadTitleContext(ctx, loan.TitleID, loan.HolderID, command.OccurredAt)
	if loadErr != nil {
		return empty, loadErr
	}

	result := Decide(snapshot, command, h.rules)
	if decideErr := result.HasError(); decideErr != nil {
		return empty, decideErr
	}

	if commitErr := h.store.CommitTitleChange(ctx, snapshot.Title.Version, result.Changes); commitErr != nil {
		return empty, commitErr
	}

	h.notifyPromotion(ctx, result.Changes.Promoted)

	if h.logger != nil {
		h.logger.Info("loan returned",
			"loan_id", command.LoanID,
			"title_id", loan.TitleID,
			"promoted", result.Changes.Promoted != nil)
	}

	return result.Changes.UpdatedLoans[0], nil
}

// notifyPromotion fires the hold-ready hook. Best-effort: a notification
// failure is logged and never affects the already-committed promotion.
func (h CommandHandler) notifyPromotion(ctx context.Context, promoted *circulation.Hold) {
	if promoted == nil || h.notifier == nil {
		return
	}

	if notifyErr := h.notifier.NotifyHoldReady(ctx, promoted.HolderID, promoted.TitleID); notifyErr != nil {
		if h.logger != nil {
			h.logger.Warn("hold-ready notification failed",
				"hold_id", promoted.ID,
				"holder_id", promoted.HolderID,
				"error", notifyErr.Error())
		}
	}
}
