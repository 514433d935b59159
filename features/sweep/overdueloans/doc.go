// Package overdueloans implements the periodic overdue sweep: every ACTIVE
// loan whose due date has passed is flipped to OVERDUE. The sweep is
// idempotent and has no copy-count effect; it exists so overdue blocking and
// reporting see an explicit status instead of deriving it on every read.
package overdueloans
