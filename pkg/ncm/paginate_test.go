package ncm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/fjacquet/ncm_client/internal/testutil"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	values := make([]string, 250)
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	chunks := chunk(values, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)

	assert.Empty(t, chunk(nil, 100))
}

func TestDecodeData(t *testing.T) {
	list, err := decodeData([]byte(`[{"id":1},{"id":2}]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	one, err := decodeData([]byte(`{"id":"7"}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "7", one[0].ID())

	none, err := decodeData([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProject(t *testing.T) {
	items := []Record{
		{"id": "1", "type": "users", "attributes": map[string]any{"email": "a@x", "first_name": "A"}},
		{"id": "2", "type": "users", "attributes": map[string]any{"email": "b@x"}},
	}
	out := project(items, []string{"id", "email", "first_name"})
	require.Len(t, out, 2)
	assert.Equal(t, Record{"id": "1", "email": "a@x", "first_name": "A"}, out[0])
	assert.Equal(t, Record{"id": "2", "email": "b@x", "first_name": nil}, out[1])
}

func TestPaginateV2ChunksInFilters(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(300))
	server := mock.Build()
	defer server.Close()

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprint(i + 1)
	}

	c := newTestV2(t, server)
	routers, err := c.GetRouters(context.Background(), Params{"id__in": ids, "limit": "all"})
	require.NoError(t, err)
	assert.Len(t, routers, 250)

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 3)
	sizes := make([]int, 0, 3)
	for _, r := range requests {
		sizes = append(sizes, len(strings.Split(r.Query.Get("id__in"), ",")))
		assert.Equal(t, "500", r.Query.Get("limit"))
	}
	assert.Equal(t, []int{100, 100, 50}, sizes)

	seen := map[string]bool{}
	for _, r := range routers {
		assert.False(t, seen[r.ID()], "duplicate id %s", r.ID())
		seen[r.ID()] = true
	}
}

func TestPaginateV2DeduplicatesAcrossChunks(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(10))
	server := mock.Build()
	defer server.Close()

	// the same id twice lands in two different chunks
	ids := make([]string, 0, 101)
	for i := 0; i < 100; i++ {
		ids = append(ids, "1")
	}
	ids = append(ids, "1")

	c := newTestV2(t, server)
	routers, err := c.GetRouters(context.Background(), Params{"id__in": ids})
	require.NoError(t, err)
	assert.Len(t, routers, 1)
	assert.Len(t, mock.RequestsTo(http.MethodGet, testutil.TestPathRouters), 2)
}

func TestPaginateV2ChunksEachInFilterSeparately(t *testing.T) {
	records := make([]map[string]any, 0, 300)
	for i := 1; i <= 300; i++ {
		records = append(records, map[string]any{
			"id":   fmt.Sprint(i),
			"name": fmt.Sprintf("router-%d", i),
			"mac":  fmt.Sprintf("mac-%d", i),
		})
	}
	mock := testutil.NewMockServer().WithV2Collection(testutil.TestPathRouters, records)
	server := mock.Build()
	defer server.Close()

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprint(i + 1)
	}
	macs := []string{"mac-1", "mac-2", "mac-200"}

	logger, hook := logtest.NewNullLogger()
	c := newTestV2(t, server, WithLogger(logger))
	routers, err := c.GetRouters(context.Background(), Params{"id__in": ids, "mac__in": macs, "limit": "all"})
	require.NoError(t, err)

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 3, "two id__in chunks plus one mac__in chunk")

	joinedIDs := strings.Join(ids, ",")
	joinedMACs := strings.Join(macs, ",")
	assert.Equal(t, strings.Join(ids[:100], ","), requests[0].Query.Get("id__in"))
	assert.Equal(t, joinedMACs, requests[0].Query.Get("mac__in"), "the other filter is sent whole")
	assert.Equal(t, strings.Join(ids[100:], ","), requests[1].Query.Get("id__in"))
	assert.Equal(t, joinedMACs, requests[1].Query.Get("mac__in"))
	assert.Equal(t, joinedIDs, requests[2].Query.Get("id__in"), "the other filter is sent whole")
	assert.Equal(t, joinedMACs, requests[2].Query.Get("mac__in"))

	// both chunk passes return routers 1 and 2; the union holds each once
	got := make([]string, 0, len(routers))
	for _, r := range routers {
		got = append(got, r.ID())
	}
	assert.ElementsMatch(t, []string{"1", "2"}, got)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel && strings.Contains(entry.Message, "not cross-joined") {
			warned = true
		}
	}
	assert.True(t, warned, "multiple __in filters log a warning")
}

func TestPaginateV2FollowsNextLinks(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(1200))
	server := mock.Build()
	defer server.Close()

	c := newTestV2(t, server)
	routers, err := c.GetRouters(context.Background(), Params{"limit": "all"})
	require.NoError(t, err)
	assert.Len(t, routers, 1200)
	assert.Equal(t, "1", routers[0].ID())
	assert.Equal(t, "1200", routers[1199].ID())

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 3)
	assert.Equal(t, "", requests[0].Query.Get("offset"))
	assert.Equal(t, "500", requests[1].Query.Get("offset"))
	assert.Equal(t, "1000", requests[2].Query.Get("offset"))
}

func TestPaginateV2Limits(t *testing.T) {
	tests := []struct {
		name     string
		limit    any
		expected int
		pageSize string
	}{
		{"small limit is one page", 5, 5, "5"},
		{"default limit", nil, 500, "500"},
		{"limit above page size", 700, 700, "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockServer().
				WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(1200))
			server := mock.Build()
			defer server.Close()

			p := Params{}
			if tt.limit != nil {
				p["limit"] = tt.limit
			}
			c := newTestV2(t, server)
			routers, err := c.GetRouters(context.Background(), p)
			require.NoError(t, err)
			assert.Len(t, routers, tt.expected)

			requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
			require.NotEmpty(t, requests)
			assert.Equal(t, tt.pageSize, requests[0].Query.Get("limit"))
		})
	}
}

func TestPaginateV2EmptyResult(t *testing.T) {
	server := testutil.NewMockServer().
		WithV2Collection(testutil.TestPathRouters, nil).
		Build()
	defer server.Close()

	c := newTestV2(t, server)
	routers, err := c.GetRouters(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, routers)
	assert.Empty(t, routers)
}

func TestPaginateV2ErrorAbortsWalk(t *testing.T) {
	server := testutil.NewMockServer().
		WithErrorResponse(testutil.TestPathRouters, http.StatusUnauthorized).
		Build()
	defer server.Close()

	c := newTestV2(t, server)
	_, err := c.GetRouters(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUnauthorized, apiErr.Kind)
	assert.True(t, strings.HasPrefix(err.Error(), "ERROR: 401"))
}

func userAttributes(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{
			"email":      fmt.Sprintf("user%d@example.com", i),
			"first_name": fmt.Sprintf("First%d", i),
			"last_name":  fmt.Sprintf("Last%d", i),
			"is_active":  true,
		})
	}
	return out
}

func TestPaginateV3CapsPageSize(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV3Collection(testutil.TestPathUsers, "users", userAttributes(120))
	server := mock.Build()
	defer server.Close()

	c := newTestV3(t, server)
	users, err := c.GetUsers(context.Background(), Params{"limit": 60})
	require.NoError(t, err)
	assert.Len(t, users, 60)

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathUsers)
	require.Len(t, requests, 2)
	assert.Equal(t, "50", requests[0].Query.Get("page[size]"))
	assert.Equal(t, "50", requests[1].Query.Get("page[size]"))
}

func TestPaginateV3WalksAllPages(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV3Collection(testutil.TestPathUsers, "users", userAttributes(120))
	server := mock.Build()
	defer server.Close()

	c := newTestV3(t, server)
	users, err := c.GetUsers(context.Background(), Params{"limit": "all"})
	require.NoError(t, err)
	assert.Len(t, users, 120)
	assert.Len(t, mock.RequestsTo(http.MethodGet, testutil.TestPathUsers), 3)
}

func TestPaginateV3Projection(t *testing.T) {
	mock := testutil.NewMockServer().
		WithV3Collection(testutil.TestPathUsers, "users", userAttributes(3))
	server := mock.Build()
	defer server.Close()

	c := newTestV3(t, server)
	users, err := c.GetUsers(context.Background(), Params{"fields": "email,id"})
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.Len(t, u, 2)
		assert.Contains(t, u, "email")
		assert.Contains(t, u, "id")
	}
	assert.Equal(t, "user1@example.com", users[0]["email"])
	assert.Equal(t, "1", users[0]["id"])

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathUsers)
	require.Len(t, requests, 1)
	assert.Equal(t, "email,id", requests[0].Query.Get("fields[users]"))
}

func TestPaginateV3FiltersByAttribute(t *testing.T) {
	server := testutil.NewMockServer().
		WithV3Collection(testutil.TestPathUsers, "users", userAttributes(5)).
		Build()
	defer server.Close()

	c := newTestV3(t, server)
	users, err := c.GetUsers(context.Background(), Params{"email": "user3@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "3", users[0].ID())
}

func TestPaginateV3AbortsOnError(t *testing.T) {
	calls := 0
	mock := testutil.NewMockServer().
		WithCustomEndpoint(testutil.TestPathUsers, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.Header().Set(testutil.ContentTypeHeader, testutil.ContentTypeJSONAPI)
				next := "http://" + r.Host + testutil.TestPathUsers + "?page[after]=1"
				_, _ = fmt.Fprintf(w, `{"data":[{"type":"users","id":"1","attributes":{}}],"links":{"next":%q}}`, next)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"detail":"bad page"}]}`))
		})
	server := mock.Build()
	defer server.Close()

	c := newTestV3(t, server)
	users, err := c.GetUsers(context.Background(), nil)
	assert.Nil(t, users)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad page")
}
