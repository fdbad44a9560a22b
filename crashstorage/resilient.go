package crashstorage

import (
	"context"
	"fmt"

	retry "github.com/avast/retry-go"

	"github.com/mozilla/antenna/breakerbp"
	"github.com/mozilla/antenna/retrybp"
)

// ResilientCrashStorage wraps an inner CrashStorage with bounded per-attempt
// retries and a circuit breaker, so a backend that is failing outright stops
// accepting new attempts for a cooldown window instead of every worker
// hammering it. The outer save loop's unbounded re-enqueue-on-any-error
// retry (see the breakpad package) remains the retry of record; this wrapper
// only smooths over transient, single-cycle failures.
type ResilientCrashStorage struct {
	Inner   CrashStorage
	Breaker breakerbp.CircuitBreaker

	retryOptions []retry.Option
}

var _ CrashStorage = (*ResilientCrashStorage)(nil)

// NewResilientCrashStorage wraps inner with breaker, retrying each call up
// to maxAttempts times before giving up and letting the outer loop re-enqueue.
func NewResilientCrashStorage(inner CrashStorage, breaker breakerbp.CircuitBreaker, maxAttempts uint) *ResilientCrashStorage {
	return &ResilientCrashStorage{
		Inner:   inner,
		Breaker: breaker,
		retryOptions: []retry.Option{
			retry.Attempts(maxAttempts),
			// Storage I/O is exactly the case these filters model: retry
			// on a broken connection, give up immediately if the caller's
			// context is already done.
			retrybp.Filters(retrybp.NetworkErrorFilter, retrybp.ContextErrorFilter),
		},
	}
}

func (s *ResilientCrashStorage) execute(ctx context.Context, fn func() error) error {
	return retrybp.Do(ctx, func() error {
		_, err := s.Breaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		return err
	}, s.retryOptions...)
}

func (s *ResilientCrashStorage) SaveDumps(ctx context.Context, crashID string, dumps map[string][]byte) error {
	if err := s.execute(ctx, func() error {
		return s.Inner.SaveDumps(ctx, crashID, dumps)
	}); err != nil {
		return fmt.Errorf("crashstorage: resilient SaveDumps: %w", err)
	}
	return nil
}

func (s *ResilientCrashStorage) SaveRawCrash(ctx context.Context, crashID string, metadata map[string]interface{}) error {
	if err := s.execute(ctx, func() error {
		return s.Inner.SaveRawCrash(ctx, crashID, metadata)
	}); err != nil {
		return fmt.Errorf("crashstorage: resilient SaveRawCrash: %w", err)
	}
	return nil
}

// CheckHealth delegates to the inner backend if it supports health checks.
func (s *ResilientCrashStorage) CheckHealth(ctx context.Context) error {
	if hc, ok := s.Inner.(HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

var _ HealthChecker = (*ResilientCrashStorage)(nil)
