package placehold

import (
	"context"
	"fmt"
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

// CommandHandler orchestrates the complete place-hold workflow:
// Load -> Decide -> Commit, with conflict retry.
type CommandHandler struct {
	store        Store
	holders      shell.HolderDirectory
	rules        circulation.Rules
	logger       circulation.Logger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithHolderDirectory enables holder existence validation against the given
// identity lookup. Without it, unknown holder ids are accepted as opaque.
func WithHolderDirectory(holders shell.HolderDirectory) Option {
	return func(h *CommandHandler) {
		h.holders = holders
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

// Handle executes the complete place-hold workflow and returns the created hold.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Hold, error) {
	var hold circulation.Hold

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		created, execErr := h.executeCommand(retryCtx, command)
		hold = created

		return execErr
	}, h.retryOptions...)

	return hold, retryErr
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Hold, error) {
	var empty circulation.Hold

	if h.holders != nil {
		exists, lookupErr := h.holders.HolderExists(ctx, command.HolderID)
		if lookupErr != nil {
			return empty, lookupErr
		}
		if !exists {
			return empty, fmt.Errorf("%w: holder %s", circulation.ErrNotFound, command.HolderID)
		}
	}

	snapshot, loadErr := h.store.LoadTitleContext(ctx, command.TitleID, command.HolderID, command.OccurredAt)
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

	created := *result.Changes.NewHold

	if h.logger != nil {
		h.logger.Info("hold placed",
			"hold_id", created.ID,
			"title_id", command.TitleID,
			"holder_id", command.HolderID,
			"status", string(created.Status),
			"queue_position", created.QueuePosition)
	}

	return created, nil
}
