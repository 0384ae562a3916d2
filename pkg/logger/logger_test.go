package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("run_id", "r1"))

	l.Error("stage failed",
		String("stage", "indicators"),
		Int("rows", 3),
		Duration("duration_ms", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage failed", entry["message"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "indicators", entry["stage"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	Nop().Info("nothing", String("k", "v"))
}
