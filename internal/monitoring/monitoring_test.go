package monitoring

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEventCounts(t *testing.T) {
	s := NewService(Config{})

	s.RecordEvent("relay_update", map[string]string{"unit_id": "DWC1"})
	s.RecordEvent("relay_update", map[string]string{"unit_id": "NFT"})
	s.RecordEvent("camera_image", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.events.WithLabelValues("relay_update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("camera_image")))
}

func TestObserveTick(t *testing.T) {
	s := NewService(Config{})
	s.ObserveTick(10*time.Millisecond, nil)
	s.ObserveTick(time.Millisecond, fmt.Errorf("db locked"))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.simulatorTicks.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.simulatorTicks.WithLabelValues("error")))
}

func TestHandlerExposesGauges(t *testing.T) {
	s := NewService(Config{MetricsPath: "/internal/metrics"})
	s.RegisterGauge("realtime_connections", "Open realtime connections.", func() float64 { return 3 })
	s.RecordDropped(2)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/internal/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "hydrohub_realtime_connections 3")
	assert.Contains(t, string(body), "hydrohub_realtime_dropped_total 2")
	assert.Equal(t, "/internal/metrics", s.Path())
}
