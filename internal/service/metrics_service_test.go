package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	var m *MetricsService
	require.NotPanics(t, func() { m = NewMetricsService() })

	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(false, 3*time.Millisecond)
	m.RecordRegistration(RegistrationOutcomeSuccess)
	m.RecordRegistration(RegistrationOutcomeFull)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, 10*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "cache_latency_seconds_count 2")
	assert.Contains(t, body, `portal_course_registrations_total{outcome="course_full"} 1`)
	assert.Contains(t, body, "http_requests_total")

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(1), snap.RegistrationsTotal)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordRegistration(RegistrationOutcomeSuccess)
		m.RecordSubmission()
	})
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
