package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pnl.log")

	l, closeFn, err := New(Config{LogFile: path})
	require.NoError(t, err)

	WithComponent(l, "test").Info("hello")
	_ = l.Sync()
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"hello"`)
	assert.Contains(t, line, `"component":"test"`)
}

func TestNew_DebugLevel(t *testing.T) {
	l, closeFn, err := New(Config{Debug: true})
	require.NoError(t, err)
	defer closeFn()

	assert.NotNil(t, l.Check(zapcore.DebugLevel, "debug entry"), "debug level must be enabled")
}

func TestNew_BadFilePath(t *testing.T) {
	_, _, err := New(Config{LogFile: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
