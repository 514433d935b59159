// Package memoryengine provides an in-memory record store implementing the
// same consistency contract as the postgres engine: per-title snapshots,
// atomic change-set commits guarded by an optimistic version check, and
// ErrConflict on a lost race. It backs handler and scenario tests and serves
// as the minimal reference implementation of the contract.
package memoryengine
