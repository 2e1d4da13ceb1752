package evidencehandler

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/verichain/api"
	"github.com/ruteri/verichain/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RoundTrip(t *testing.T) {
	handler, _ := setupTestEnvironment(t)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	ctx := t.Context()

	uploaded, err := client.Upload(ctx, "report.txt", "text/plain", bytes.NewReader([]byte("evidence-1")))
	require.NoError(t, err)
	hash := interfaces.ComputeContentHash([]byte("evidence-1"))
	assert.Equal(t, hash, uploaded.ContentHash)
	assert.Equal(t, "text/plain", uploaded.Record.ContentType)

	data, contentType, err := client.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("evidence-1"), data)
	assert.Equal(t, "text/plain", contentType)

	record, err := client.Record(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", record.Filename)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.StatusHealthy, status.Status)
	assert.False(t, status.ClusterAvailable)
}

func TestClient_SniffedContentType(t *testing.T) {
	handler, _ := setupTestEnvironment(t)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL)
	uploaded, err := client.Upload(t.Context(), "page", "", bytes.NewReader([]byte("<html><body>hi</body></html>")))
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", uploaded.Record.ContentType)
}

func TestClient_NotFound(t *testing.T) {
	handler, _ := setupTestEnvironment(t)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL)
	missing := interfaces.ComputeContentHash([]byte("missing"))

	_, _, err := client.Fetch(t.Context(), missing)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	_, err = client.Record(t.Context(), missing)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}
