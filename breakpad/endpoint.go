package breakpad

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/idgen"
	"github.com/mozilla/antenna/log"
	"github.com/mozilla/antenna/metrics"
	"github.com/mozilla/antenna/payload"
	"github.com/mozilla/antenna/throttler"
)

// SubmissionEndpoint is the http.Handler that orchestrates parse -> throttle
// -> respond -> enqueue for a single POST.
type SubmissionEndpoint struct {
	Config    Config
	Parser    *payload.Parser
	Throttler throttler.Throttler
	Queue     *SaveQueue
	Pool      *WorkerPool
	Metrics   metrics.Metrics

	typeTag string
}

// NewSubmissionEndpoint wires the given collaborators into a ready-to-serve
// endpoint.
func NewSubmissionEndpoint(cfg Config, parser *payload.Parser, t throttler.Throttler, queue *SaveQueue, pool *WorkerPool, m metrics.Metrics) *SubmissionEndpoint {
	return &SubmissionEndpoint{
		Config:    cfg,
		Parser:    parser,
		Throttler: t,
		Queue:     queue,
		Pool:      pool,
		Metrics:   m,
		typeTag:   strings.TrimSuffix(cfg.DumpIDPrefix, "-"),
	}
}

func (e *SubmissionEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "text/plain")

	metadata, dumps := e.Parser.Parse(r)
	e.Metrics.Incr(metrics.CounterIncomingCrash)

	now := time.Now().UTC()
	metadata[crashreport.KeySubmittedTimestamp] = now.Format(time.RFC3339)
	metadata[crashreport.KeyTimestamp] = float64(now.UnixNano()) / float64(time.Second)

	decision, ruleName, _ := throttler.Decide(metadata, e.Throttler, e.Metrics)

	var crashID string
	if existing, ok := metadata[crashreport.KeyUUID].(string); ok && existing != "" {
		crashID = existing
	} else {
		crashID = idgen.New(now, int(decision))
	}
	metadata[crashreport.KeyUUID] = crashID
	metadata[crashreport.KeyTypeTag] = e.typeTag

	log.Infow("crash report decided",
		"crash_id", crashID,
		"rule_name", ruleName,
		"decision", decision.String(),
	)

	switch decision {
	case throttler.Accept:
		e.Metrics.Incr(metrics.CounterThrottleAccept)
	case throttler.Defer:
		e.Metrics.Incr(metrics.CounterThrottleDefer)
	case throttler.Reject:
		e.Metrics.Incr(metrics.CounterThrottleReject)
	}

	defer e.Metrics.Timing(metrics.TimerOnPost, time.Since(start))

	if decision == throttler.Reject {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Discarded=1")
		return
	}

	e.Queue.Add(crashreport.CrashReport{
		Metadata: metadata,
		Dumps:    dumps,
		CrashID:  crashID,
	})
	e.Pool.SpawnIfCapacity()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "CrashID=%s%s\n", e.Config.DumpIDPrefix, crashID)
}
