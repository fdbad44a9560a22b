package config

import (
	"context"
	"fmt"
	"time"

	"github.com/mozilla/antenna/breakerbp"
	"github.com/mozilla/antenna/crashstorage"
)

// BuildStorage constructs the CrashStorage backend named by
// cfg.Breakpad.CrashStorageClass, wrapped in the resilience layer described
// by cfg.Resilience.
func BuildStorage(ctx context.Context, cfg Config) (crashstorage.CrashStorage, error) {
	inner, err := buildInnerStorage(cfg.Breakpad.CrashStorageClass, cfg.Storage)
	if err != nil {
		return nil, err
	}

	breaker := breakerbp.NewFailureRatioBreaker(ctx, breakerbp.Config{
		Name:              "crashstorage",
		MinRequestsToTrip: cfg.Resilience.MinRequestsToTrip,
		FailureThreshold:  cfg.Resilience.FailureThreshold,
		Timeout:           30 * time.Second,
	})

	return crashstorage.NewResilientCrashStorage(inner, breaker, cfg.Resilience.MaxAttempts), nil
}

func buildInnerStorage(class string, cfg StorageConfig) (crashstorage.CrashStorage, error) {
	switch class {
	case "", "noop":
		return crashstorage.NoOpCrashStorage{}, nil
	case "file":
		return crashstorage.NewFileCrashStorage(cfg.File.Dir)
	case "redis":
		return crashstorage.NewRedisCrashStorage(cfg.Redis)
	default:
		return nil, fmt.Errorf("config: unknown crashstorage_class %q", class)
	}
}
