package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	logger, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("hello")
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuswatch.log")
	cfg := DefaultConfig()
	cfg.File = path

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("rotation sink works")
	require.NoError(t, logger.Sync())

	assert.FileExists(t, path)
}

func TestNewTextFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "text"

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("console encoder works")
}
