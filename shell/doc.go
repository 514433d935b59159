// Package shell provides the handler plumbing shared by all feature packages:
// the exponential-backoff retry wrapper for optimistic-concurrency conflicts
// and the narrow interfaces to out-of-scope collaborators (holder directory,
// hold-ready notification hook).
//
// The feature packages keep their business logic in pure Decide functions;
// everything here is imperative-shell concern only.
package shell
