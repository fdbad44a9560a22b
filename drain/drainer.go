// Package drain provides a health-check-aware drain marker for graceful
// shutdown.
package drain

import (
	"context"
	"io"
	"sync/atomic"
)

// HealthChecker defines an interface to report healthy status.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// HealthCheckCloser is the combination of HealthChecker and io.Closer.
type HealthCheckCloser interface {
	HealthChecker
	io.Closer
}

type drainer struct {
	closed int64
}

func (d *drainer) IsHealthy(_ context.Context) bool {
	return atomic.LoadInt64(&d.closed) == 0
}

func (d *drainer) Close() error {
	atomic.StoreInt64(&d.closed, 1)
	return nil
}

// New creates a HealthCheckCloser that can be used to drain the service
// during graceful shutdown.
//
// The returned HealthCheckCloser reports healthy once created, and starts
// to report unhealthy as soon as its Close method is called. Wire it into
// the admin health check handler and call Close when shutdown begins, so
// the process stops receiving new traffic while the worker pool finishes
// draining the save queue.
//
// Close never returns an error and is safe to call more than once.
func New() HealthCheckCloser {
	return new(drainer)
}
