package setmaintenance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/shell"
)

// Store defines the interface needed by the CommandHandler for record store
// operations.
type Store interface {
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
	CommitTitleChange(ctx context.Context, expectedVersion uint, changes circulation.ChangeSet) error
}

// CommandHandler orchestrates the administrative override workflow:
// Load -> Decide -> Commit -> Notify, with conflict retry. Reinstating may
// promote the front of the queue when a copy was freed during maintenance.
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

// Handle executes the override workflow and returns the updated title.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Title, error) {
	var title circulation.Title

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		updated, execErr := h.executeCommand(retryCtx, command)
		title = updated

		return execErr
	}, h.retryOptions...)

	return title, retryErr
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Title, error) {
	var empty circulation.Title

	// No driving holder: the snapshot carries zero-valued holder stats.
	snapshot, loadErr := h.store.LoadTitleContext(ctx, command.TitleID, uuid.Nil, command.OccurredAt)
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

	updated := *result.Changes.Title

	if h.logger != nil {
		h.logger.Info("title status overridden",
			"title_id", command.TitleID,
			"status", string(updated.Status))
	}

	return updated, nil
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
