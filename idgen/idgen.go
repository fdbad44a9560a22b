// Package idgen assigns crash IDs.
//
// The ID is a standard UUIDv4 string with its last 7 characters overwritten
// by a single throttle-marker digit followed by a 6-digit yymmdd date
// suffix. Downstream consumers of the wider collector ecosystem rely on
// those byte positions to recover the throttle decision and submission date
// without parsing the stored metadata, so the layout must not change.
package idgen

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// markerLen is the number of trailing characters of the UUID that get
// overwritten: 1 throttle-marker digit + 6 date digits (yy, mm, dd).
const markerLen = 7

// New generates a crash ID for a report received at t with the given
// throttle decision. decision is expected to be a single-digit value (the
// throttler package's Decision type satisfies this).
func New(t time.Time, decision int) string {
	id, err := uuid.NewV4()
	if err != nil {
		// crypto/rand backed generation failing is not something callers can
		// meaningfully recover from; fall back to a nil UUID so the marker
		// suffix still produces a well-shaped 36-character string.
		id = uuid.UUID{}
	}
	raw := id.String()
	suffix := fmt.Sprintf("%d%02d%02d%02d", decision, t.Year()%100, int(t.Month()), t.Day())
	return raw[:len(raw)-markerLen] + suffix
}
