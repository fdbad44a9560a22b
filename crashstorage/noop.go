package crashstorage

import "context"

// NoOpCrashStorage discards everything. It is the default backend, matching
// the distilled contract's "no-op backend" default for crashstorage_class.
type NoOpCrashStorage struct{}

var _ CrashStorage = NoOpCrashStorage{}
var _ HealthChecker = NoOpCrashStorage{}

func (NoOpCrashStorage) SaveDumps(ctx context.Context, crashID string, dumps map[string][]byte) error {
	return nil
}

func (NoOpCrashStorage) SaveRawCrash(ctx context.Context, crashID string, metadata map[string]interface{}) error {
	return nil
}

func (NoOpCrashStorage) CheckHealth(ctx context.Context) error {
	return nil
}
