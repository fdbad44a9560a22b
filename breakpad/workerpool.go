package breakpad

import (
	"context"
	"sync"
	"time"

	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/crashstorage"
	"github.com/mozilla/antenna/log"
	"github.com/mozilla/antenna/metrics"
)

// WorkerPool is a bounded set of concurrently running save workers that
// drain a SaveQueue. Worker spawning is opportunistic: SpawnIfCapacity is
// called after every successful Add, and starts a new worker iff the pool
// has spare capacity. Workers terminate naturally when they observe an
// empty queue; there is no sleep or backoff inside a worker, since a
// re-enqueued report simply cycles through the queue behind any newer item.
type WorkerPool struct {
	Storage    crashstorage.CrashStorage
	Queue      *SaveQueue
	Metrics    metrics.Metrics
	MaxWorkers int

	mu     sync.Mutex
	active int
	wg     sync.WaitGroup
}

// NewWorkerPool returns a WorkerPool that saves through storage, draining
// queue with at most maxWorkers concurrent goroutines (minimum 1).
func NewWorkerPool(storage crashstorage.CrashStorage, queue *SaveQueue, m metrics.Metrics, maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		Storage:    storage,
		Queue:      queue,
		Metrics:    m,
		MaxWorkers: maxWorkers,
	}
}

// SpawnIfCapacity starts a new drain worker if the pool has spare capacity.
// It is meant to be called once per successful Add.
func (p *WorkerPool) SpawnIfCapacity() {
	p.mu.Lock()
	if p.active >= p.MaxWorkers {
		p.mu.Unlock()
		return
	}
	p.active++
	p.mu.Unlock()

	p.wg.Add(1)
	go p.drain()
}

// ActiveWorkers returns the number of workers currently running.
func (p *WorkerPool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// JoinPool blocks until every running worker has drained the queue and
// exited. It exists for test harnesses only and must never be reachable
// from a production request path.
func (p *WorkerPool) JoinPool() {
	p.wg.Wait()
}

func (p *WorkerPool) drain() {
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		p.wg.Done()
	}()

	for {
		report, ok := p.Queue.Next()
		if !ok {
			return
		}
		if err := p.saveToStorage(report); err != nil {
			log.Errorw("breakpad: save failed, re-enqueuing", "crash_id", report.CrashID, "err", err)
			p.Queue.Add(report)
		}
	}
}

// saveToStorage calls SaveDumps then SaveRawCrash. Either may fail; storage
// backends must be idempotent with respect to crashID since a partial
// failure re-enqueues the whole report and both calls are retried.
func (p *WorkerPool) saveToStorage(report crashreport.CrashReport) error {
	ctx := context.Background()

	if err := p.Storage.SaveDumps(ctx, report.CrashID, report.Dumps); err != nil {
		return err
	}
	if err := p.Storage.SaveRawCrash(ctx, report.CrashID, report.Metadata); err != nil {
		return err
	}

	p.Metrics.Incr(metrics.CounterSaveCrashCount)
	if ts, ok := report.Metadata[crashreport.KeyTimestamp].(float64); ok {
		elapsed := time.Since(time.Unix(0, int64(ts*float64(time.Second))))
		p.Metrics.Timing(metrics.TimerCrashHandling, elapsed)
	}
	return nil
}
