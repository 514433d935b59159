package overdueloans

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/shell"
)

// Store defines the interface needed by the Sweeper for record store
// operations. ListOverdueLoans returns every ACTIVE loan with a due date
// before asOf, across all titles.
type Store interface {
	ListOverdueLoans(ctx context.Context, asOf time.Time) ([]circulation.Loan, error)
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
	CommitTitleChange(ctx context.Context, expectedVersion uint, changes circulation.ChangeSet) error
}

// Report summarizes one sweep run.
type Report struct {
	TitlesExamined int
	LoansMarked    int
	TitlesSkipped  int
}

// Sweeper runs the overdue sweep. Each title is one atomic commit; a title
// that fails after retries is logged and skipped so the batch completes for
// all other titles.
type Sweeper struct {
	store        Store
	logger       circulation.Logger
	retryOptions []shell.RetryOption
}

// Option configures a Sweeper.
type Option func(*Sweeper)

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
	sweeper := Sweeper{store: store}

	for _, opt := range opts {
		opt(&sweeper)
	}

	return sweeper
}

// Run executes one sweep pass as of the given time.
func (s Sweeper) Run(ctx context.Context, asOf time.Time) (Report, error) {
	var report Report

	loans, listErr := s.store.ListOverdueLoans(ctx, asOf)
	if listErr != nil {
		return report, listErr
	}

	for _, titleID := range titleIDsOf(loans) {
		report.TitlesExamined++

		marked, sweepErr := s.sweepTitle(ctx, titleID, asOf)
		if sweepErr != nil {
			report.TitlesSkipped++

			if s.logger != nil {
				s.logger.Error("overdue sweep skipped title",
					"title_id", titleID,
					"error", sweepErr.Error())
			}

			continue
		}

		report.LoansMarked += marked
	}

	if s.logger != nil {
		s.logger.Info("overdue sweep finished",
			"titles_examined", report.TitlesExamined,
			"loans_marked", report.LoansMarked,
			"titles_skipped", report.TitlesSkipped)
	}

	return report, nil
}

// sweepTitle marks the due loans of one title in one atomic commit.
func (s Sweeper) sweepTitle(ctx context.Context, titleID uuid.UUID, asOf time.Time) (int, error) {
	var marked int

	retryErr := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		marked = 0

		snapshot, loadErr := s.store.LoadTitleContext(retryCtx, titleID, uuid.Nil, asOf)
		if loadErr != nil {
			return loadErr
		}

		result := Decide(snapshot, asOf)
		if !result.HasChangesToCommit() {
			return nil
		}

		if commitErr := s.store.CommitTitleChange(retryCtx, snapshot.Title.Version, result.Changes); commitErr != nil {
			return commitErr
		}

		marked = len(result.Changes.UpdatedLoans)

		return nil
	}, s.retryOptions...)

	return marked, retryErr
}

// titleIDsOf deduplicates the title ids of the listed loans, preserving order
// of first appearance so runs are deterministic.
func titleIDsOf(loans []circulation.Loan) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(loans))
	ids := make([]uuid.UUID, 0, len(loans))

	for _, loan := range loans {
		if _, ok := seen[loan.TitleID]; ok {
			continue
		}
		seen[loan.TitleID] = struct{}{}
		ids = append(ids, loan.TitleID)
	}

	return ids
}
