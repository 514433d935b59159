// Package cancelhold implements the Cancel Hold use case: withdrawing a
// PENDING or READY hold, closing the gap in the queue and, when a reserved
// copy is released, promoting the next holder in line.
package cancelhold
