package ncm

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjacquet/ncm_client/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyV2Page = `{"data":[],"meta":{"next":null}}`

// flakyHandler fails with status for the first failures calls.
func flakyHandler(calls *int32, failures int32, status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		if n <= failures {
			w.WriteHeader(status)
			return
		}
		w.Header().Set(testutil.ContentTypeHeader, testutil.ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		factor   float64
		attempt  int
		expected time.Duration
	}{
		{2, 1, 2 * time.Second},
		{2, 2, 4 * time.Second},
		{2, 3, 8 * time.Second},
		{0.5, 1, 500 * time.Millisecond},
		{0, 3, 0},
		{2, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoffDuration(tt.factor, tt.attempt), "factor %v attempt %d", tt.factor, tt.attempt)
	}
}

func TestRetryOnTransientStatus(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathRouters, flakyHandler(&calls, 2, http.StatusServiceUnavailable, emptyV2Page)).
		Build()
	defer server.Close()

	c := newTestV2(t, server)
	routers, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, routers)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryGivesUpAfterConfiguredCount(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathRouters, flakyHandler(&calls, 100, http.StatusGatewayTimeout, emptyV2Page)).
		Build()
	defer server.Close()

	c := newTestV2(t, server, WithRetries(2))
	_, err := c.GetRouters(context.Background(), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathRouters, flakyHandler(&calls, 100, http.StatusBadRequest, emptyV2Page)).
		Build()
	defer server.Close()

	c := newTestV2(t, server)
	_, err := c.GetRouters(context.Background(), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindBadRequest, apiErr.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNoRetryOnPost(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathAccounts, flakyHandler(&calls, 100, http.StatusServiceUnavailable, "{}")).
		Build()
	defer server.Close()

	c := newTestV2(t, server)
	_, err := c.CreateSubaccountByParentID(context.Background(), "100", "branch")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryOnCustomStatuses(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathRouters, flakyHandler(&calls, 1, http.StatusTooManyRequests, emptyV2Page)).
		Build()
	defer server.Close()

	c := newTestV2(t, server, WithRetryOn(http.StatusTooManyRequests))
	_, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTransportErrorOnConnectionFailure(t *testing.T) {
	server := testutil.NewMockServer().Build()
	url := server.URL
	server.Close()

	c := NewV2Client(testKeys, WithV2BaseURL(url), WithRetries(1), WithRetryBackoffFactor(0), WithLogEvents(false))
	defer c.Close()

	_, err := c.GetRouters(context.Background(), nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.MethodGet, te.Method)
	assert.True(t, IsTransient(err))
}

func TestBaseURLPrecedence(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvV2BaseURL, "")
		t.Setenv(EnvV3BaseURL, "")
		assert.Equal(t, DefaultV2BaseURL, NewV2Client(testKeys).BaseURL())
		assert.Equal(t, DefaultV3BaseURL, NewV3Client(testutil.TestToken).BaseURL())
	})

	t.Run("environment overrides default", func(t *testing.T) {
		t.Setenv(EnvV2BaseURL, "https://qa.example.com/api/v2/")
		t.Setenv(EnvV3BaseURL, "https://qa.example.com/api/v3")
		assert.Equal(t, "https://qa.example.com/api/v2", NewV2Client(testKeys).BaseURL())
		assert.Equal(t, "https://qa.example.com/api/v3", NewV3Client(testutil.TestToken).BaseURL())
	})

	t.Run("option overrides environment", func(t *testing.T) {
		t.Setenv(EnvV2BaseURL, "https://qa.example.com/api/v2")
		c := NewV2Client(testKeys, WithV2BaseURL("http://localhost:8080/api/v2"))
		assert.Equal(t, "http://localhost:8080/api/v2", c.BaseURL())
	})
}

func TestCredentialHeaders(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(1)).
		WithV3Collection(testutil.TestPathUsers, "users", userAttributes(1))
	server := mock.Build()
	defer server.Close()

	_, err := newTestV2(t, server).GetRouters(context.Background(), nil)
	require.NoError(t, err)
	_, err = newTestV3(t, server).GetUsers(context.Background(), nil)
	require.NoError(t, err)

	v2 := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, v2, 1)
	assert.Equal(t, testutil.TestCPAPIID, v2[0].Header.Get(HeaderCPAPIID))
	assert.Equal(t, testutil.TestCPAPIKey, v2[0].Header.Get(HeaderCPAPIKey))
	assert.Equal(t, testutil.TestECMAPIID, v2[0].Header.Get(HeaderECMAPIID))
	assert.Equal(t, testutil.TestECMAPIKey, v2[0].Header.Get(HeaderECMAPIKey))
	assert.Empty(t, v2[0].Header.Get(testutil.AuthorizationHeader))

	v3 := mock.RequestsTo(http.MethodGet, testutil.TestPathUsers)
	require.Len(t, v3, 1)
	assert.Equal(t, "Bearer "+testutil.TestToken, v3[0].Header.Get(testutil.AuthorizationHeader))
	assert.Equal(t, testutil.ContentTypeJSONAPI, v3[0].Header.Get(testutil.AcceptHeader))
	assert.Empty(t, v3[0].Header.Get(HeaderCPAPIID))
}

func TestKeyRotation(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(1))
	server := mock.Build()
	defer server.Close()

	c := newTestV2(t, server)
	rotated := testKeys
	rotated.CPAPIKey = "rotated-key"
	c.SetAPIKeys(rotated)

	_, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 1)
	assert.Equal(t, "rotated-key", requests[0].Header.Get(HeaderCPAPIKey))
}

func TestRequestMetrics(t *testing.T) {
	server := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(3)).
		WithErrorResponse(testutil.TestPathGroups, http.StatusNotFound).
		Build()
	defer server.Close()

	reg := prometheus.NewRegistry()
	c := newTestV2(t, server, WithMetricsRegisterer(reg))

	_, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	_, err = c.GetGroups(context.Background(), nil)
	require.Error(t, err)

	m := c.s.metrics
	require.NotNil(t, m)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.requests.WithLabelValues(apiV2, http.MethodGet, "200")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.requests.WithLabelValues(apiV2, http.MethodGet, "404")))

	// a second client on the same registry shares the collectors
	other := newTestV2(t, server, WithMetricsRegisterer(reg))
	_, err = other.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.requests.WithLabelValues(apiV2, http.MethodGet, "200")))
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls int32
	server := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathRouters, flakyHandler(&calls, 100, http.StatusInternalServerError, emptyV2Page)).
		Build()
	defer server.Close()

	c := newTestV2(t, server, WithRetries(0), WithCircuitBreaker(2, time.Minute))

	for i := 0; i < 2; i++ {
		_, err := c.GetRouters(context.Background(), nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindServerError, apiErr.Kind)
	}

	_, err := c.GetRouters(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(1)).
		Build()
	defer server.Close()

	c := newTestV2(t, server, WithRateLimit(0.001, 1))
	_, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetRouters(ctx, nil)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}
