package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telvoice/bridge/internal/config"
)

func TestNewDefault(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("hello")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "extremely-loud"})
	require.Error(t, err)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	logger, err := New(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
