package throttler

// Decision is the outcome of throttling a crash report.
type Decision int

// The three possible throttle decisions. The numeric values are part of the
// wire contract: they are written into metadata's legacy_processing field
// and encoded into the crash ID's throttle marker, so they must not change.
const (
	Accept Decision = 0
	Defer  Decision = 1
	Reject Decision = 2
)

// resultToText renders a Decision the way it appears in the per-request log
// line.
var resultToText = map[Decision]string{
	Accept: "ACCEPT",
	Defer:  "DEFER",
	Reject: "REJECT",
}

// String renders the decision the way it appears in logs.
func (d Decision) String() string {
	if s, ok := resultToText[d]; ok {
		return s
	}
	return "UNKNOWN"
}

// Valid reports whether d is one of Accept or Defer -- the two decisions
// that are acceptable as a pre-supplied legacy_processing value on replay.
func (d Decision) Valid() bool {
	return d == Accept || d == Defer
}
