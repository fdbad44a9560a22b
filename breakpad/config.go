package breakpad

import "github.com/mozilla/antenna/log"

// Config carries every option the distilled contract recognizes for the
// submission pipeline. It can be deserialized from YAML.
type Config struct {
	// DumpField is informational only in this core; retained for
	// compatibility with the wider collector ecosystem.
	DumpField string `yaml:"dump_field"`

	// DumpIDPrefix is prepended to a crash ID in the response body and
	// used (trailing '-' stripped) as metadata.type_tag.
	DumpIDPrefix string `yaml:"dump_id_prefix"`

	// CrashStorageClass names the storage backend to construct: "noop",
	// "file", or "redis". Consumed by config.BuildStorage, not by this
	// package directly, since the backend-specific settings (file
	// directory, Redis URL) live in config.StorageConfig alongside it.
	CrashStorageClass string `yaml:"crashstorage_class"`

	// ConcurrentSaves is the worker pool size. Must be >= 1.
	ConcurrentSaves int `yaml:"concurrent_saves"`
}

// DefaultConfig returns the contractual defaults.
func DefaultConfig() Config {
	return Config{
		DumpField:         "upload_file_minidump",
		DumpIDPrefix:      "bp-",
		CrashStorageClass: "noop",
		ConcurrentSaves:   10,
	}
}

// Validate enforces concurrent_saves >= 1, fatal on violation per the
// configuration-failure-at-startup contract: a misconfigured pool size must
// refuse to initialize rather than silently clamp.
func (c Config) Validate() {
	if c.ConcurrentSaves < 1 {
		log.Fatalw("breakpad: invalid configuration", "concurrent_saves", c.ConcurrentSaves, "reason", "must be >= 1")
	}
}
