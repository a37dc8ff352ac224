package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerComponentAndLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("allocator", &buf)
	l.Infof("dropped")
	l.Warnf("kept %d", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "allocator", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept 1", entry["message"])
}

func TestNewReturnsZerolog(t *testing.T) {
	_, ok := New("x").(*ZerologLogger)
	assert.True(t, ok)
	var n Logger = NopLogger{}
	n.Infof("noop")
}

func TestZerologLoggerDebugwFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("allocator", &buf)
	l.Debugw("site allocated", map[string]any{"site": "S1", "chargers": 2})

	out := buf.String()
	assert.Less(t, strings.Index(out, `"chargers":2`), strings.Index(out, `"site":"S1"`))
}
