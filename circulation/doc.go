// Package circulation provides the pure domain core of the circulation engine:
// the record types for titles, loans and holds, the availability state machine,
// the hold-queue ordering rules, and the cross-cutting limits that couple loans
// and holds together.
//
// Everything in this package is free of I/O and storage concerns. Decisions are
// made against an in-memory TitleContext snapshot and expressed as a ChangeSet,
// which a storage engine applies in one atomic, per-title unit of work. This
// keeps the business rules unit-testable without a database.
//
// Key types:
//   - Title, Loan, Hold: the stored records
//   - TitleContext: the per-title snapshot decisions are made against
//   - ChangeSet: the records an operation wants written atomically
//   - DecisionResult: the outcome of a pure Decide function
//   - Rules: the configurable limits (max loans, max holds, renewal cap, ...)
//
// Common usage pattern (inside a feature package):
//
//	snapshot, err := store.LoadTitleContext(ctx, titleID, holderID, now)
//	if err != nil {
//		// handle error
//	}
//
//	result := Decide(snapshot, command, rules)
//	if err := result.HasError(); err != nil {
//		// business rule violation, nothing was written
//	}
//
//	err = store.CommitTitleChange(ctx, snapshot.Title.Version, result.Changes)
package circulation
