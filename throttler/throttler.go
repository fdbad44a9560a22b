// Package throttler decides whether a crash report should be accepted,
// deferred or rejected, and provides the adapter that reconciles that
// decision with whatever throttle hints the client already sent.
package throttler

import (
	"github.com/mozilla/antenna/crashreport"
)

// Throttler is the external decision engine. Given a metadata map, it
// returns the decision, the name of the rule that matched, and the sampling
// percentage that was applied.
type Throttler interface {
	Throttle(metadata crashreport.Metadata) (decision Decision, ruleName string, percentage int)
}
