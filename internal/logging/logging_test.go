package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_StderrRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Info("orchestrator:execute", "module", "todos")
	l.Warn("developer:execute:missing", "buckets", "ROUTES")

	out := buf.String()
	assert.NotContains(t, out, "orchestrator:execute")
	assert.Contains(t, out, "developer:execute:missing")
}

func TestNew_FileGetsDebugJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "codegen.log")
	l, err := New(Config{Level: "error", File: path, Stderr: &buf})
	require.NoError(t, err)

	l.With("component", "agent").Debug("agent:execute", "tokens", 12)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"agent:execute"`)
	assert.Contains(t, line, `"component":"agent"`)
	assert.Empty(t, buf.String())
}
