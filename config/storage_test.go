package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/antenna/config"
	"github.com/mozilla/antenna/crashstorage"
)

func TestBuildStorageNoOp(t *testing.T) {
	cfg := config.Default()
	storage, err := config.BuildStorage(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, storage.SaveDumps(context.Background(), "x", nil))
}

func TestBuildStorageFile(t *testing.T) {
	cfg := config.Default()
	cfg.Breakpad.CrashStorageClass = "file"
	cfg.Storage = config.StorageConfig{File: config.FileStorageConfig{Dir: t.TempDir()}}
	storage, err := config.BuildStorage(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, storage.SaveDumps(context.Background(), "x", map[string][]byte{"a": {1}}))
}

func TestBuildStorageUnknownClass(t *testing.T) {
	cfg := config.Default()
	cfg.Breakpad.CrashStorageClass = "bogus"
	_, err := config.BuildStorage(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildStorageResolvesToResilientWrapper(t *testing.T) {
	cfg := config.Default()
	storage, err := config.BuildStorage(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := storage.(*crashstorage.ResilientCrashStorage)
	assert.True(t, ok)
}
