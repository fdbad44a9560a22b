package throttler

import (
	"sync"

	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/randbp"
)

// Rule is a single entry in a RuleThrottler's ordered rule list.
type Rule struct {
	// Name identifies the rule; it is surfaced as ruleName in Throttle's
	// return value and in the per-request log line.
	Name string

	// Predicate decides whether this rule applies to metadata. Predicates
	// are evaluated in order; the first one that returns true wins.
	Predicate func(metadata crashreport.Metadata) bool

	// Decision is the decision this rule applies when Predicate matches.
	Decision Decision

	// Percentage is the sampling rate in [0, 100] applied when Predicate
	// matches: the rule only takes effect on that fraction of matching
	// reports, chosen at random. 100 always applies.
	Percentage int
}

// RuleThrottler evaluates an ordered list of Rules against a report's
// metadata and returns the first matching rule's decision, falling back to
// an ACCEPT-at-100% catch-all when nothing matches or every match misses
// its sampling roll.
type RuleThrottler struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRuleThrottler returns a RuleThrottler seeded with the given rules.
func NewRuleThrottler(rules []Rule) *RuleThrottler {
	return &RuleThrottler{rules: rules}
}

// SetRules atomically replaces the rule list, for use by a hot-reload
// watcher.
func (t *RuleThrottler) SetRules(rules []Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = rules
}

// Rules returns a copy of the currently active rule list.
func (t *RuleThrottler) Rules() []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Throttle implements Throttler.
func (t *RuleThrottler) Throttle(metadata crashreport.Metadata) (Decision, string, int) {
	for _, rule := range t.Rules() {
		if !rule.Predicate(metadata) {
			continue
		}
		if rule.Percentage >= 100 || randbp.R.Intn(100) < rule.Percentage {
			return rule.Decision, rule.Name, rule.Percentage
		}
	}
	return Accept, "ACCEPT_ALL", 100
}

var _ Throttler = (*RuleThrottler)(nil)
