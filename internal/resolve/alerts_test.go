package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLogDedupe(t *testing.T) {
	log := NewAlertLog()
	assert.True(t, log.Add(SeverityWarning, "c-1", "missing file"))
	assert.False(t, log.Add(SeverityWarning, "c-1", "missing file"))
	assert.True(t, log.Add(SeverityWarning, "c-2", "missing file"))
	assert.True(t, log.Add(SeverityError, "c-1", "other problem"))
	assert.Equal(t, 3, log.Len())
}

func TestAlertLogForContract(t *testing.T) {
	log := NewAlertLog()
	log.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	log.Add(SeverityWarning, "c-1", "one")
	log.Add(SeverityInfo, "c-2", "two")
	log.Add(SeverityError, "c-1", "three")

	got := log.ForContract("c-1")
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got[0].Time)

	assert.Empty(t, log.ForContract("c-9"))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
}
