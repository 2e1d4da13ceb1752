package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceMetrics(t *testing.T) {
	server, err := New("verichain", "127.0.0.1:0")
	require.NoError(t, err)

	m := NewEvidenceMetrics(server.Registerer())
	m.Submissions.WithLabelValues(ResultSuccess).Inc()
	m.Submissions.WithLabelValues(ResultSuccess).Inc()
	m.Fetches.WithLabelValues(ResultNotFound).Inc()
	m.StoredBytes.Add(42)
	m.ObserveDuration("submit", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues(ResultNotFound)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.StoredBytes))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `verichain_evidence_submissions_total{result="success"} 2`)
	assert.Contains(t, body, "verichain_evidence_stored_bytes_total 42")
	assert.Contains(t, body, `verichain_evidence_operation_duration_seconds_count{operation="submit"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNewEvidenceMetrics_Unregistered(t *testing.T) {
	m := NewEvidenceMetrics(nil)
	m.Submissions.WithLabelValues(ResultError).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(ResultError)))
}

func TestEvidenceMetrics_LateRegistration(t *testing.T) {
	server, err := New("verichain", "")
	require.NoError(t, err)

	m := NewEvidenceMetrics(nil)
	m.Fetches.WithLabelValues(ResultSuccess).Inc()
	server.Registerer().MustRegister(m.Collectors()...)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `verichain_evidence_fetches_total{result="success"} 1`)
}
