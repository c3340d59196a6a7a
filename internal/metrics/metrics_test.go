package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderlyflow/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_PushSendsMutationCounters(t *testing.T) {
	// Arrange
	var method, path, body string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)
	s := metrics.NewSync()
	s.Mutations.WithLabelValues("item.update", "confirmed").Inc()

	// Act
	err := s.Push(context.Background(), gateway.URL, "boardctl")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/boardctl", path)
	assert.NotEmpty(t, body)
}

func TestSync_PushReportsGatewayFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(gateway.Close)

	err := metrics.NewSync().Push(context.Background(), gateway.URL, "boardctl")

	assert.Error(t, err)
}

func TestServerRegistry_HasNoSyncCollectors(t *testing.T) {
	m := metrics.New()

	n, err := testutil.GatherAndCount(m.Registry(), "orderly_sync_mutations_total", "orderly_sync_mutation_duration_seconds")

	require.NoError(t, err)
	assert.Zero(t, n)
}
