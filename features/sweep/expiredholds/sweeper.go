package expiredholds

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/shell"
)

// Store defines the interface needed by the Sweeper for record store
// operations. ListExpiredHolds returns every PENDING or READY hold with an
// expiry date before asOf, across all titles.
type Store interface {
	ListExpiredHolds(ctx context.Context, asOf time.Time) ([]circulation.Hold, error)
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
	CommitTitleChange(ctx context.Context, expectedVersion uint, changes circulation.ChangeSet) error
}

// Report summarizes one sweep run.
type Report struct {
	TitlesExamined int
	HoldsExpired   int
	HoldsPromoted  int
	TitlesSkipped  int
}

// Sweeper runs the hold-expiry sweep. Each title is one atomic commit; a
// title that fails after retries is logged and skipped so the batch completes
// for all other titles.
type Sweeper struct {
	store        Store
	notifier     shell.HoldNotifier
	rules        circulation.Rules
	logger       circulation.Logger
	retryOptions []shell.RetryOption
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithRules overrides the default limit rule set.
func WithRules(rules circulation.Rules) Option {
	return func(s *Sweeper) {
		s.rules = rules
	}
}

// WithHoldNotifier sets the hook fired once per successful promotion.
func WithHoldNotifier(notifier shell.HoldNotifier) Option {
	return func(s *Sweeper) {
		s.notifier = notifier
	}
}

// WithLogger sets the logger for the sweeper.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithRetryOptions sets a custom retry configuration for per-title commits.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *Sweeper) {
		s.retryOptions = opts
	}
}

// NewSweeper creates a new Sweeper with optional configuration.
func NewSweeper(store Store, opts ...Option) Sweeper {
	sweeper := Sweeper{
		store: store,
		rules: circulation.DefaultRules(),
	}

	for _, opt := range opts {
		opt(&sweeper)
	}

	return sweeper
}

// Run executes one sweep pass as of the given time.
func (s Sweeper) Run(ctx context.Context, asOf time.Time) (Report, error) {
	var report Report

	holds, listErr := s.store.ListExpiredHolds(ctx, asOf)
	if listErr != nil {
		return report, listErr
	}

	for _, titleID := range titleIDsOf(holds) {
		report.TitlesExamined++

		changes, sweepErr := s.sweepTitle(ctx, titleID, asOf)
		if sweepErr != nil {
			report.TitlesSkipped++

			if s.logger != nil {
				s.logger.Error("hold-expiry sweep skipped title",
					"title_id", titleID,
					"error", sweepErr.Error())
			}

			continue
		}

		report.HoldsExpired += countExpired(changes.UpdatedHolds)
		if changes.Promoted != nil {
			report.HoldsPromoted++
			s.notifyPromotion(ctx, changes.Promoted)
		}
	}

	if s.logger != nil {
		s.logger.Info("hold-expiry sweep finished",
			"titles_examined", report.TitlesExamined,
			"holds_expired", report.HoldsExpired,
			"holds_promoted", report.HoldsPromoted,
			"titles_skipped", report.TitlesSkipped)
	}

	return report, nil
}

// sweepTitle expires the due holds of one title in one atomic commit and
// returns the committed change set.
func (s Sweeper) sweepTitle(ctx context.Context, titleID uuid.UUID, asOf time.Time) (circulation.ChangeSet, error) {
	var committed circulation.ChangeSet

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		committed = circulation.ChangeSet{}

		snapshot, loadErr := s.store.LoadTitleContext(retryCtx, titleID, uuid.Nil, asOf)
		if loadErr != nil {
			return loadErr
		}

		result := Decide(snapshot, asOf, s.rules)
		if !result.HasChangesToCommit() {
			return nil
		}

		if commitErr := s.store.CommitTitleChange(retryCtx, snapshot.Title.Version, result.Changes); commitErr != nil {
			return commitErr
		}

		committed = result.Changes

		return nil
	}, s.retryOptions...)

	return committed, retryErr
}

// notifyPromotion fires the hold-ready hook. Best-effort: a notification
// failure is logged and never affects the already-committed promotion.
func (s Sweeper) notifyPromotion(ctx context.Context, promoted *circulation.Hold) {
	if s.notifier == nil {
		return
	}

	if notifyErr := s.notifier.NotifyHoldReady(ctx, promoted.HolderID, promoted.TitleID); notifyErr != nil {
		if s.logger != nil {
			s.logger.Warn("hold-ready notification failed",
				"hold_id", promoted.ID,
				"holder_id", promoted.HolderID,
				"error", notifyErr.Error())
		}
	}
}

// titleIDsOf deduplicates the title ids of the listed holds, preserving order
// of first appearance so runs are deterministic.
func titleIDsOf(holds []circulation.Hold) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(holds))
	ids := make([]uuid.UUID, 0, len(holds))

	for _, hold := range holds {
		if _, ok := seen[hold.TitleID]; ok {
			continue
		}
		seen[hold.TitleID] = struct{}{}
		ids = append(ids, hold.TitleID)
	}

	return ids
}

func countExpired(holds []circulation.Hold) int {
	count := 0
	for _, hold := range holds {
		if hold.Status == circulation.HoldExpired {
			count++
		}
	}

	return count
}
