package domain

import "errors"

// Failure classes for a mirror run. Per-unit transport, timeout, and sink
// failures are recorded in the run report and never abort sibling units;
// a store failure at startup is fatal.
var (
	// ErrTimeout marks a fetch that exceeded the request timeout. Retryable
	// on the next run: the staleness store is only updated on success, so
	// the unit stays due.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport marks a connection-level fetch failure (DNS, refused
	// connection, unexpected status).
	ErrTransport = errors.New("transport failure")

	// ErrSink marks a local filesystem write failure.
	ErrSink = errors.New("sink write failure")

	// ErrStore marks a staleness-store failure.
	ErrStore = errors.New("staleness store failure")
)
