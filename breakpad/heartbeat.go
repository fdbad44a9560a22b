package breakpad

import (
	"context"
	"time"

	"github.com/mozilla/antenna/log"
	"github.com/mozilla/antenna/metrics"
)

const heartbeatInterval = 30 * time.Second

// Heartbeat periodically emits queue-depth and pool-utilization gauges
// until ctx is done. Any panic recovered from a single tick is logged and
// swallowed; the heartbeat never exits on its own.
func Heartbeat(ctx context.Context, queue *SaveQueue, pool *WorkerPool, m metrics.Metrics) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat(queue, pool, m)
		}
	}
}

func beat(queue *SaveQueue, pool *WorkerPool, m metrics.Metrics) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("breakpad: heartbeat tick failed", "panic", r)
		}
	}()
	m.Gauge(metrics.GaugeSaveQueueSize, float64(queue.Len()))
	m.Gauge(metrics.GaugeActiveSaveWorkers, float64(pool.ActiveWorkers()))
}
