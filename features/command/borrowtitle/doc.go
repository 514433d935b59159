// Package borrowtitle implements the Borrow Title use case: creating a loan
// against a free copy, or against the copy a READY hold reserves for the
// borrowing holder.
//
// It follows the Load-Decide-Commit pattern with proper separation between
// infrastructure concerns (CommandHandler) and pure business logic (Decide
// function). The commit is guarded by the title's version; conflicts are
// retried with exponential backoff, so two simultaneous borrows of the last
// copy resolve to exactly one loan.
package borrowtitle
