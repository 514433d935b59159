// Package placehold implements the Place Hold use case: queueing a holder for
// the next free copy of a title that cannot be borrowed right now. When a copy
// happens to be free at decision time the hold skips the queue and is created
// READY with the copy held back.
package placehold
