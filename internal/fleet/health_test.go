package fleet

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fjacquet/ncm_client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestConnectivitySuccess(t *testing.T) {
	mock := testutil.NewMockServer().WithV2Collection(testutil.TestPathRouters, fleetRecords())
	server := mock.Build()
	defer server.Close()

	collector := NewCollector(staticClient(newTestClient(t, server.URL)))
	require.NoError(t, collector.TestConnectivity(context.Background()))

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 1)
	assert.Equal(t, testutil.TestCPAPIKey, requests[0].Header.Get("X-CP-API-KEY"))
}

func TestTestConnectivityFailure(t *testing.T) {
	server := testutil.NewMockServer().WithErrorResponse(testutil.TestPathRouters, http.StatusUnauthorized).Build()
	defer server.Close()

	collector := NewCollector(staticClient(newTestClient(t, server.URL)))
	err := collector.TestConnectivity(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NCM connectivity test failed")
}

func TestTestConnectivityTimeout(t *testing.T) {
	server := testutil.NewMockServer().WithCustomEndpoint(testutil.TestPathRouters, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}).Build()
	defer server.Close()

	collector := NewCollector(staticClient(newTestClient(t, server.URL)))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.Error(t, collector.TestConnectivity(ctx))
}

func TestIsHealthyBeforeFirstScrape(t *testing.T) {
	collector := NewCollector(staticClient(newTestClient(t, "http://127.0.0.1:1")))
	assert.False(t, collector.IsHealthy())
}
