package throttler

import (
	"context"
	"path/filepath"

	"gopkg.in/fsnotify.v1"

	"github.com/mozilla/antenna/log"
)

// RuleLoader parses the rule file at path into a rule list.
//
// Rule predicates are Go functions, so they cannot be deserialized from the
// watched file directly; a RuleLoader is expected to map the file's
// contents (e.g. a list of field/value matchers) onto a fixed registry of
// predicate constructors known to the service.
type RuleLoader func(path string) ([]Rule, error)

// WatchRules loads rules from path with loader, applies them to t, and then
// watches path for changes, reloading and re-applying on every write. It is
// adapted from baseplate.go's dirwatcher: a single fsnotify watcher on the
// containing directory, filtered down to the one file of interest, so the
// watch survives editors that replace the file instead of writing it
// in-place.
//
// The returned context.CancelFunc stops the watch goroutine.
func WatchRules(ctx context.Context, path string, loader RuleLoader, t *RuleThrottler) (context.CancelFunc, error) {
	rules, err := loader(path)
	if err != nil {
		return nil, err
	}
	t.SetRules(rules)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	name := filepath.Base(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				rules, err := loader(path)
				if err != nil {
					log.Errorw("throttler: failed to reload rules", "path", path, "err", err)
					continue
				}
				t.SetRules(rules)
				log.Infow("throttler: reloaded rules", "path", path, "count", len(rules))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorw("throttler: watcher error", "err", err)
			}
		}
	}()

	return cancel, nil
}
