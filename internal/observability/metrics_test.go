package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/order", "POST", 302, 10*time.Millisecond)
	m.RecordRequest("/order", "POST", 302, 30*time.Millisecond)
	m.RecordError("/chat", "POST", "UPSTREAM_UNAVAILABLE")
	m.RecordStreamedBytes(42)
	m.RecordStreamedBytes(-1)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/order|POST|302"])
	assert.Equal(t, int64(20), snap.AvgLatencyMS["/order|POST|302"])
	assert.Equal(t, int64(1), snap.Errors["/chat|POST|UPSTREAM_UNAVAILABLE"])
	assert.Equal(t, int64(42), snap.StreamedBytes)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordStreamedBytes(1)
	assert.Empty(t, m.Snapshot().Requests)
}
