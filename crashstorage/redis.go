package crashstorage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures a RedisCrashStorage the way redisbp.ClientConfig
// configures a baseplate redis client: a URL parsed with redis.ParseURL
// plus an optional key prefix for namespacing within a shared instance.
//
// Can be deserialized from YAML:
//
//	redis:
//	 url: redis://localhost:6379
//	 keyPrefix: antenna:
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// Options returns a redis.Options populated from cfg.
func (cfg RedisConfig) Options() (*redis.Options, error) {
	options, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("crashstorage: parsing redis url: %w", err)
	}
	return options, nil
}

// RedisCrashStorage stores dumps as binary strings and raw-crash metadata as
// a JSON-encoded string, both keyed by crash ID. A plain SET makes every
// write idempotent with respect to crashID, satisfying the retry-safety
// contract the worker pool depends on.
type RedisCrashStorage struct {
	Client    *redis.Client
	KeyPrefix string
}

var (
	_ CrashStorage  = RedisCrashStorage{}
	_ HealthChecker = RedisCrashStorage{}
)

// NewRedisCrashStorage builds a RedisCrashStorage from cfg.
func NewRedisCrashStorage(cfg RedisConfig) (RedisCrashStorage, error) {
	options, err := cfg.Options()
	if err != nil {
		return RedisCrashStorage{}, err
	}
	return RedisCrashStorage{
		Client:    redis.NewClient(options),
		KeyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s RedisCrashStorage) dumpKey(crashID, name string) string {
	return fmt.Sprintf("%sdump:%s:%s", s.KeyPrefix, crashID, name)
}

func (s RedisCrashStorage) rawCrashKey(crashID string) string {
	return fmt.Sprintf("%sraw_crash:%s", s.KeyPrefix, crashID)
}

func (s RedisCrashStorage) SaveDumps(ctx context.Context, crashID string, dumps map[string][]byte) error {
	pipe := s.Client.Pipeline()
	for name, data := range dumps {
		pipe.Set(ctx, s.dumpKey(crashID, name), data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crashstorage: saving dumps for %s: %w", crashID, err)
	}
	return nil
}

func (s RedisCrashStorage) SaveRawCrash(ctx context.Context, crashID string, metadata map[string]interface{}) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("crashstorage: marshaling raw crash for %s: %w", crashID, err)
	}
	if err := s.Client.Set(ctx, s.rawCrashKey(crashID), data, 0).Err(); err != nil {
		return fmt.Errorf("crashstorage: saving raw crash for %s: %w", crashID, err)
	}
	return nil
}

// CheckHealth issues a PING.
func (s RedisCrashStorage) CheckHealth(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
