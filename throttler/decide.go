package throttler

import (
	"fmt"
	"strconv"

	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/metrics"
)

// toInt coerces a metadata value (which may have arrived as a string from
// an HTTP form field, or as an int if set internally) into an int.
func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("unsupported type %T for integer metadata value", v)
	}
}

// Decide reconciles a report's metadata against any throttle hints it
// already carries, falling back to t when the report needs to be throttled
// fresh.
//
// It always writes legacy_processing and throttle_rate back into metadata
// with the final decision, overwriting whatever was there before.
func Decide(metadata crashreport.Metadata, t Throttler, m metrics.Metrics) (Decision, string, int) {
	var (
		decision   Decision
		ruleName   string
		percentage int
		decided    bool
	)

	rawDecision, hasDecision := metadata[crashreport.KeyLegacyProcessing]
	rawRate, hasRate := metadata[crashreport.KeyThrottleRate]
	if hasDecision && hasRate {
		d, derr := toInt(rawDecision)
		rate, rerr := toInt(rawRate)
		switch {
		case derr != nil || rerr != nil:
			m.Incr(metrics.CounterThrottleBadValues)
		case !Decision(d).Valid():
			m.Incr(metrics.CounterThrottleBadValues)
		case rate < 0 || rate > 100:
			m.Incr(metrics.CounterThrottleBadValues)
		default:
			decision, ruleName, percentage = Decision(d), "ALREADY_THROTTLED", rate
			decided = true
		}
	}

	if !decided {
		if throttleable, ok := metadata[crashreport.KeyThrottleable]; ok && fmt.Sprintf("%v", throttleable) == "0" {
			m.Incr(metrics.CounterThrottleableZero)
			decision, ruleName, percentage = Accept, "THROTTLEABLE_0", 100
			decided = true
		}
	}

	if !decided {
		decision, ruleName, percentage = t.Throttle(metadata)
	}

	metadata[crashreport.KeyLegacyProcessing] = int(decision)
	metadata[crashreport.KeyThrottleRate] = percentage

	return decision, ruleName, percentage
}
