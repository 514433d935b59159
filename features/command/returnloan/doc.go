// Package returnloan implements the Return Loan use case: closing an ACTIVE
// or OVERDUE loan, freeing its copy and promoting the next hold in the queue.
//
// When a promotion happens, the returned copy is held back for the promoted
// holder and the title flips to RESERVED; the NotifyHoldReady hook fires once
// after the commit succeeds. Returning an already-RETURNED or LOST loan is an
// error, not a no-op.
package returnloan
