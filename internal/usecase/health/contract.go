package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// QueueChecker reports whether the task queue workers are running.
type QueueChecker interface {
	Running() bool
}
