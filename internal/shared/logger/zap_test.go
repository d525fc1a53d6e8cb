package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("verbose"))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	log, err := New(Options{Level: "warn", Env: "production", OutputPaths: []string{path}})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))
	log.Warn("written")
	_ = log.Sync()
}

func readWarn(t *testing.T, env string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.log")
	log, err := New(Options{Level: "warn", Env: env, Encoding: "console", OutputPaths: []string{path}})
	require.NoError(t, err)
	log.Warn("falha ao buscar pacientes")
	_ = log.Sync()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestConsoleEncoding(t *testing.T) {
	out := readWarn(t, "production")
	assert.False(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, "\twarn\t")
	assert.Contains(t, out, "falha ao buscar pacientes")
	assert.NotContains(t, out, "logger.readWarn", "production warnings carry no stacktrace")

	assert.Contains(t, readWarn(t, "development"), "logger.readWarn")
}
