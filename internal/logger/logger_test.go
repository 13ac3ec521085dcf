package logger

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuffer(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		now = time.Now
	})
	return &buf
}

func TestInfoWritesLine(t *testing.T) {
	buf := withBuffer(t, LevelInfo)

	Info("imported %d rows", 3)

	assert.Equal(t, "2024-01-01T12:00:00Z [INFO] imported 3 rows\n", buf.String())
}

func TestDebugSuppressedBelowLevel(t *testing.T) {
	buf := withBuffer(t, LevelWarn)

	Debug("hidden")
	Info("hidden")
	Warn("shown %s", "warning")

	assert.Equal(t, "2024-01-01T12:00:00Z [WARN] shown warning\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
