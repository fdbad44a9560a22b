// Package crashstorage defines the pluggable durability backend for crash
// reports and provides a few concrete implementations.
package crashstorage

import "context"

// CrashStorage persists dump blobs and structured metadata addressed by
// crash ID. Implementations must be idempotent: saving the same crash ID
// twice with identical content is a no-op, since the worker pool may retry
// a partially-saved report.
type CrashStorage interface {
	SaveDumps(ctx context.Context, crashID string, dumps map[string][]byte) error
	SaveRawCrash(ctx context.Context, crashID string, metadata map[string]interface{}) error
}

// HealthChecker is an optional capability a CrashStorage may additionally
// implement to participate in the admin health endpoint.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
