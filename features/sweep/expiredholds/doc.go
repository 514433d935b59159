// Package expiredholds implements the periodic hold-expiry sweep: every
// PENDING or READY hold past its expiry date is flipped to EXPIRED. A title
// whose READY hold just expired gets its reserved copy back and the next
// PENDING hold is promoted. The sweep is idempotent and titles are
// independent of each other.
package expiredholds
