package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, err := InitLogger("test", WithLogDir(dir), WithConsole(zapcore.AddSync(&console)))
	require.NoError(t, err)

	logger.Debug("scoring pool", zap.Int("pool_size", 3))
	logger.Info("application created", zap.String("application_id", "app-1"))
	require.NoError(t, logger.Sync())

	// Debug stays out of the console
	assert.NotContains(t, console.String(), "scoring pool")
	assert.Contains(t, console.String(), "application created")

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "application created", entry["msg"])
	assert.Equal(t, "app-1", entry["application_id"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitLogger_ConsoleLevel(t *testing.T) {
	var console bytes.Buffer

	logger, err := InitLogger("test",
		WithLogDir(t.TempDir()),
		WithConsole(zapcore.AddSync(&console)),
		WithConsoleLevel(zapcore.DebugLevel))
	require.NoError(t, err)

	logger.Debug("scoring pool")
	require.NoError(t, logger.Sync())
	assert.Contains(t, console.String(), "scoring pool")
}
