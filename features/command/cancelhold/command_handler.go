package cancelhold

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/shell"
)

// Store defines the interface needed by the CommandHandler for record store
// operations. FindHold resolves the hold id to its title before the per-title
// snapshot is loaded.
type Store interface {
	FindHold(ctx context.Context, holdID uuid.UUID) (circulation.Hold, error)
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
	CommitTitleChange(ctx context.Context, expectedVersion uint, changes circulation.ChangeSet) error
}

// CommandHandler orchestrates the complete cancellation workflow:
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

// Handle executes the complete cancellation workflow and returns the
// cancelled hold.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Hold, error) {
	var hold circulation.Hold

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		cancelled, execErr := h.executeCommand(retryCtx, command)
		hold = cancelled

		return execErr
	}, h.retryOptions...)

	return hold, retryErr
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Hold, error) {
	var empty circulation.Hold

	hold, findErr := h.store.FindHold(ctx, command.HoldID)
	if findErr != nil {
		return empty, findErr
	}

	snapshot, loadErr := h.store.LoadTitleContext(ctx, hold.TitleID, hold.HolderID, command.OccurredAt)
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
		h.logger.Info("hold cancelled",
			"hold_id", command.HoldID,
			"title_id", hold.TitleID,
			"promoted", result.Changes.Promoted != nil)
	}

	return result.Changes.UpdatedHolds[0], nil
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
