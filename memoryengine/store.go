package memoryengine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

// Store is an in-memory record store. All commits serialize on a store-wide
// mutex; the optimistic version check still applies so the engine surfaces the
// same ErrConflict behavior as the postgres engine under concurrent handlers.
//
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu     sync.RWMutex
	titles map[uuid.UUID]circulation.Title
	loans  map[uuid.UUID]circulation.Loan
	holds  map[uuid.UUID]circulation.Hold
	logger circulation.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	store := &Store{
		titles: make(map[uuid.UUID]circulation.Title),
		loans:  make(map[uuid.UUID]circulation.Loan),
		holds:  make(map[uuid.UUID]circulation.Hold),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// AddTitle registers a title record with the store. Titles are created by the
// catalog; this is the seam where the catalog hands them to circulation.
func (s *Store) AddTitle(title circulation.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.titles[title.ID]; exists {
		return fmt.Errorf("%w: title %s", circulation.ErrDuplicateOperation, title.ID)
	}

	s.titles[title.ID] = title

	return nil
}

// SeedLoan inserts a loan record directly, bypassing the decision layer.
// Intended for tests and migrations.
func (s *Store) SeedLoan(loan circulation.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loans[loan.ID] = loan
}

// SeedHold inserts a hold record directly, bypassing the decision layer.
// Intended for tests and migrations.
func (s *Store) SeedHold(hold circulation.Hold) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holds[hold.ID] = hold
}

// FindTitle returns the title record.
func (s *Store) FindTitle(_ context.Context, titleID uuid.UUID) (circulation.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	title, ok := s.titles[titleID]
	if !ok {
		return circulation.Title{}, fmt.Errorf("%w: title %s", circulation.ErrNotFound, titleID)
	}

	return title, nil
}

// FindLoan returns the loan record.
func (s *Store) FindLoan(_ context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return circulation.Loan{}, fmt.Errorf("%w: loan %s", circulation.ErrNotFound, loanID)
	}

	return loan, nil
}

// FindHold returns the hold record.
func (s *Store) FindHold(_ context.Context, holdID uuid.UUID) (circulation.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hold, ok := s.holds[holdID]
	if !ok {
		return circulation.Hold{}, fmt.Errorf("%w: hold %s", circulation.ErrNotFound, holdID)
	}

	return hold, nil
}

// LoadTitleContext assembles the per-title snapshot a decision runs against:
// the title record, its open loans and holds, and the cross-title counters of
// the driving holder (zero-valued for uuid.Nil).
func (s *Store) LoadTitleContext(
	_ context.Context,
	titleID uuid.UUID,
	holderID uuid.UUID,
	asOf time.Time,
) (circulation.TitleContext, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	title, ok := s.titles[titleID]
	if !ok {
		return circulation.TitleContext{}, fmt.Errorf("%w: title %s", circulation.ErrNotFound, titleID)
	}

	snapshot := circulation.TitleContext{
		Title:  title,
		Holder: circulation.HolderStats{ID: holderID},
	}

	for _, loan := range s.loans {
		if loan.TitleID == titleID && loan.IsOpen() {
			snapshot.Loans = append(snapshot.Loans, loan)
		}
	}
	sort.Slice(snapshot.Loans, func(i, j int) bool {
		return snapshot.Loans[i].LoanDate.Before(snapshot.Loans[j].LoanDate)
	})

	for _, hold := range s.holds {
		if hold.TitleID == titleID && hold.IsOpen() {
			snapshot.Holds = append(snapshot.Holds, hold)
		}
	}
	sort.Slice(snapshot.Holds, func(i, j int) bool {
		if snapshot.Holds[i].QueuePosition != snapshot.Holds[j].QueuePosition {
			return snapshot.Holds[i].QueuePosition < snapshot.Holds[j].QueuePosition
		}

		return snapshot.Holds[i].RequestedAt.Before(snapshot.Holds[j].RequestedAt)
	})

	if holderID != uuid.Nil {
		for _, loan := range s.loans {
			if loan.HolderID != holderID || !loan.IsOpen() {
				continue
			}
			if loan.Status == circulation.LoanActive {
				snapshot.Holder.ActiveLoanCount++
			}
			if loan.IsOverdueAsOf(asOf) {
				snapshot.Holder.OverdueCount++
			}
		}

		for _, hold := range s.holds {
			if hold.HolderID == holderID && hold.IsOpen() {
				snapshot.Holder.OpenHoldCount++
			}
		}
	}

	return snapshot, nil
}

// CommitTitleChange applies a change set atomically. The commit succeeds only
// if the title's stored version still equals expectedVersion; a lost race
// returns ErrConflict and writes nothing.
func (s *Store) CommitTitleChange(
	_ context.Context,
	expectedVersion uint,
	changes circulation.ChangeSet,
) error {

	if changes.Title == nil {
		return fmt.Errorf("%w: change set without title record", circulation.ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.titles[changes.Title.ID]
	if !ok {
		return fmt.Errorf("%w: title %s", circulation.ErrNotFound, changes.Title.ID)
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: title %s version %d, expected %d",
			circulation.ErrConflict, changes.Title.ID, current.Version, expectedVersion)
	}

	updated := *changes.Title
	updated.Version = expectedVersion + 1
	s.titles[updated.ID] = updated

	if changes.NewLoan != nil {
		s.loans[changes.NewLoan.ID] = *changes.NewLoan
	}
	for _, loan := range changes.UpdatedLoans {
		s.loans[loan.ID] = loan
	}

	if changes.NewHold != nil {
		s.holds[changes.NewHold.ID] = *changes.NewHold
	}
	for _, hold := range changes.UpdatedHolds {
		s.holds[hold.ID] = hold
	}

	if s.logger != nil {
		s.logger.Debug("change set committed",
			"title_id", updated.ID,
			"version", updated.Version)
	}

	return nil
}

// ListOverdueLoans returns every ACTIVE loan past due as of the given time.
func (s *Store) ListOverdueLoans(_ context.Context, asOf time.Time) ([]circulation.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []circulation.Loan
	for _, loan := range s.loans {
		if loan.Status == circulation.LoanActive && loan.DueDate.Before(asOf) {
			due = append(due, loan)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].DueDate.Before(due[j].DueDate)
	})

	return due, nil
}

// ListExpiredHolds returns every open hold past expiry as of the given time.
func (s *Store) ListExpiredHolds(_ context.Context, asOf time.Time) ([]circulation.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []circulation.Hold
	for _, hold := range s.holds {
		if hold.IsOpen() && hold.ExpiryDate.Before(asOf) {
			expired = append(expired, hold)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiryDate.Before(expired[j].ExpiryDate)
	})

	return expired, nil
}

// ListOpenLoans returns the open loans of a title.
func (s *Store) ListOpenLoans(_ context.Context, titleID uuid.UUID) ([]circulation.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []circulation.Loan
	for _, loan := range s.loans {
		if loan.TitleID == titleID && loan.IsOpen() {
			open = append(open, loan)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].LoanDate.Before(open[j].LoanDate)
	})

	return open, nil
}

// ListOpenHolds returns the open holds of a title in queue order.
func (s *Store) ListOpenHolds(_ context.Context, titleID uuid.UUID) ([]circulation.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []circulation.Hold
	for _, hold := range s.holds {
		if hold.TitleID == titleID && hold.IsOpen() {
			open = append(open, hold)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		if open[i].QueuePosition != open[j].QueuePosition {
			return open[i].QueuePosition < open[j].QueuePosition
		}

		return open[i].RequestedAt.Before(open[j].RequestedAt)
	})

	return open, nil
}
