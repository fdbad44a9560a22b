// Package breakpad implements the crash-report submission pipeline: the
// HTTP endpoint that parses and throttles incoming reports, the in-memory
// save queue, the bounded worker pool that drains it, and the periodic
// heartbeat that reports on both.
package breakpad

import (
	"sync"

	"github.com/mozilla/antenna/crashreport"
)

// SaveQueue is an unbounded FIFO of pending crash reports. The zero value is
// ready to use. Growth is not capped; backpressure comes from the bounded
// worker pool plus each report's in-memory footprint.
type SaveQueue struct {
	mu    sync.Mutex
	items []crashreport.CrashReport
}

// Add appends a report to the tail of the queue.
func (q *SaveQueue) Add(r crashreport.CrashReport) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, r)
}

// Next removes and returns the least-recently-added report. ok is false if
// the queue was empty.
func (q *SaveQueue) Next() (r crashreport.CrashReport, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return crashreport.CrashReport{}, false
	}
	r = q.items[0]
	q.items = q.items[1:]
	return r, true
}

// Len returns the current queue depth.
func (q *SaveQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
