package scout

import "errors"

var (
	// ErrStoreRequired is returned when a pool or guard is built without a document store.
	ErrStoreRequired = errors.New("document store required")

	// ErrUnknownKind is reported for a planned worker kind with no registered strategy.
	ErrUnknownKind = errors.New("no strategy registered for scout kind")

	// ErrPoolClosed is returned when running a deployment on a closed pool.
	ErrPoolClosed = errors.New("scout pool is closed")

	// ErrWorkerNotStarted is reported for a worker the pool could not schedule.
	ErrWorkerNotStarted = errors.New("scout could not be started")

	// ErrNoWorkersStarted is returned when not a single planned worker could run.
	ErrNoWorkersStarted = errors.New("no scouts could be started")

	// ErrDeadline is reported for a worker that did not report back in time.
	ErrDeadline = errors.New("scout did not report before the deadline")

	// ErrStoreUnavailable is returned by GuardStore while its circuit is open.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrInvalidPoolSize is returned for a non-positive pool size.
	ErrInvalidPoolSize = errors.New("pool size must be positive")
)
