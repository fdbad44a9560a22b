// Package randbp provides some random generator related features:
//
// 1. A thread-safe, properly seeded global *math/rand.Rand implementation (R).
// 2. GetSeed and NewLockedSource64, for building other seeded, thread-safe
// generators.
//
// Its init also seeds the global math/rand generator, so users who only use
// the math/rand global functions can blank import this package in their main
// package, e.g.
//
//	import (
//	  _ "github.com/mozilla/antenna/randbp"
//	)
package randbp

import (
	"math/rand"
	"time"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// R is a thread-safe, properly seeded *math/rand.Rand.
//
// It should be used instead of the math/rand global functions whenever
// concurrent access is possible, e.g. from retrybp's jittered backoff.
var R = rand.New(NewLockedSource64(rand.NewSource(GetSeed())))
