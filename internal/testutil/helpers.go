// Package testutil provides shared test utilities and helper functions.
// This file contains fluent builders and common test helpers to reduce
// duplication across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// RecordedRequest is one request seen by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// MockServerBuilder provides a fluent interface for creating mock NCM servers.
// It simplifies test server setup by providing chainable methods for configuring
// paginated collections, single resources and error responses.
//
// Example usage:
//
//	mock := testutil.NewMockServer().
//	    WithV2Collection(testutil.TestPathRouters, routers)
//	server := mock.Build()
//	defer server.Close()
//	requests := mock.Requests()
type MockServerBuilder struct {
	handlers map[string]http.HandlerFunc
	useTLS   bool

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockServer creates a new MockServerBuilder.
func NewMockServer() *MockServerBuilder {
	return &MockServerBuilder{
		handlers: make(map[string]http.HandlerFunc),
		useTLS:   false,
	}
}

// WithTLS enables TLS for the mock server.
func (b *MockServerBuilder) WithTLS() *MockServerBuilder {
	b.useTLS = true
	return b
}

// WithV2Collection serves records the way v2 list endpoints do: limit/offset
// paging with an absolute meta.next link, "__in" filters and exact-match
// filters on fields present in the records.
func (b *MockServerBuilder) WithV2Collection(path string, records []map[string]any) *MockServerBuilder {
	b.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items := filterRecords(records, q, v2FilterKey)
		limit := atoiDefault(q.Get("limit"), 20)
		offset := atoiDefault(q.Get("offset"), 0)

		page, hasMore := pageOf(items, offset, limit)
		var next any
		if hasMore {
			nq := cloneQuery(q)
			nq.Set("offset", strconv.Itoa(offset+limit))
			next = absoluteURL(r, path, nq)
		}
		writeJSONResponse(w, map[string]any{
			"data": page,
			"meta": map[string]any{"next": next, "limit": limit, "offset": offset},
		})
	}
	return b
}

// WithV3Collection serves JSON:API resources of the given type with
// page[size]/page[after] paging, an absolute links.next link and
// filter[field] / filter[field][in] matching on id and attributes. GET,
// PUT and DELETE on path/<id> address single resources.
func (b *MockServerBuilder) WithV3Collection(path, resourceType string, attributes []map[string]any) *MockServerBuilder {
	resources := make([]map[string]any, 0, len(attributes))
	byID := map[string]map[string]any{}
	for i, attrs := range attributes {
		id := fmt.Sprint(i + 1)
		if v, ok := attrs["id"]; ok {
			id = fmt.Sprint(v)
		}
		res := map[string]any{"type": resourceType, "id": id, "attributes": withoutID(attrs)}
		resources = append(resources, res)
		byID[id] = res
	}

	b.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items := filterRecords(resources, q, v3FilterKey)
		size := atoiDefault(q.Get("page[size]"), 10)
		offset := atoiDefault(q.Get("page[after]"), 0)

		page, hasMore := pageOf(items, offset, size)
		var next any
		if hasMore {
			nq := cloneQuery(q)
			nq.Set("page[after]", strconv.Itoa(offset+size))
			next = absoluteURL(r, path, nq)
		}
		writeJSONResponse(w, map[string]any{
			"data":  page,
			"links": map[string]any{"next": next},
		})
	}
	b.handlers[path+"/*"] = func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, path+"/")
		res, ok := byID[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSONResponse(w, map[string]any{"errors": []map[string]string{{"detail": "Not found."}}})
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSONResponse(w, map[string]any{"data": res})
		case http.MethodPut, http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			w.Header().Set(ContentTypeHeader, ContentTypeJSONAPI)
			_, _ = w.Write(body)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
	return b
}

// WithJSONResponse answers every request on path with status and body.
func (b *MockServerBuilder) WithJSONResponse(path string, status int, body any) *MockServerBuilder {
	b.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ContentTypeHeader, ContentTypeJSON)
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
	return b
}

// WithCustomEndpoint adds a custom handler for the specified path.
func (b *MockServerBuilder) WithCustomEndpoint(path string, handler http.HandlerFunc) *MockServerBuilder {
	b.handlers[path] = handler
	return b
}

// WithErrorResponse adds a handler that returns the specified HTTP status code.
func (b *MockServerBuilder) WithErrorResponse(path string, statusCode int) *MockServerBuilder {
	b.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		if statusCode >= 400 {
			writeJSONResponse(w, map[string]string{
				"detail": http.StatusText(statusCode),
			})
		}
	}
	return b
}

// Requests returns a copy of the requests received so far.
func (b *MockServerBuilder) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns the recorded requests for one path and method.
func (b *MockServerBuilder) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, req := range b.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// Build creates and returns the configured HTTP test server.
func (b *MockServerBuilder) Build() *httptest.Server {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()

		// Find matching handler
		if handler, ok := b.handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		if handler, ok := b.handlers[parentPattern(r.URL.Path)]; ok {
			handler(w, r)
			return
		}
		// Default: 404 Not Found
		w.WriteHeader(http.StatusNotFound)
		writeJSONResponse(w, map[string]string{
			"detail": "Endpoint not found",
		})
	})

	if b.useTLS {
		return httptest.NewTLSServer(handler)
	}
	return httptest.NewServer(handler)
}

// GenerateRecords builds n v2 records with ids "1".."n" and names
// "router-1".."router-n".
func GenerateRecords(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{
			"id":   strconv.Itoa(i),
			"name": fmt.Sprintf("router-%d", i),
		})
	}
	return out
}

// LoadTestData loads test data from a file.
// It uses t.Helper() to report errors at the caller's location.
func LoadTestData(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read test data file %s: %v", filename, err)
	}
	return data
}

// parentPattern maps /a/b/<id> to /a/b/*.
func parentPattern(path string) string {
	trimmed := strings.TrimRight(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i <= 0 {
		return ""
	}
	return trimmed[:i] + "/*"
}

// v2FilterKey maps "field__in" and "field" query keys to a record field.
func v2FilterKey(key string) (field string, in bool, ok bool) {
	switch key {
	case "limit", "offset", "fields", "order_by", "expand":
		return "", false, false
	}
	if strings.HasSuffix(key, "__in") {
		return strings.TrimSuffix(key, "__in"), true, true
	}
	if strings.Contains(key, "__") {
		return "", false, false
	}
	return key, false, true
}

// v3FilterKey maps "filter[field]" and "filter[field][in]" to a field.
func v3FilterKey(key string) (field string, in bool, ok bool) {
	if !strings.HasPrefix(key, "filter[") {
		return "", false, false
	}
	parts := strings.Split(strings.TrimPrefix(key, "filter["), "][")
	field = strings.TrimSuffix(parts[0], "]")
	if len(parts) == 1 {
		return field, false, true
	}
	op := strings.TrimSuffix(parts[1], "]")
	if op == "in" {
		return field, true, true
	}
	return "", false, false
}

func filterRecords(records []map[string]any, q url.Values, mapKey func(string) (string, bool, bool)) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if matches(rec, q, mapKey) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec map[string]any, q url.Values, mapKey func(string) (string, bool, bool)) bool {
	for key, values := range q {
		field, in, ok := mapKey(key)
		if !ok {
			continue
		}
		v, present := lookupField(rec, field)
		if !present {
			continue
		}
		actual := fmt.Sprint(v)
		if in {
			found := false
			for _, want := range strings.Split(strings.Join(values, ","), ",") {
				if want == actual {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		} else if values[0] != actual {
			return false
		}
	}
	return true
}

func lookupField(rec map[string]any, field string) (any, bool) {
	if v, ok := rec[field]; ok {
		return v, true
	}
	if attrs, ok := rec["attributes"].(map[string]any); ok {
		v, ok := attrs[field]
		return v, ok
	}
	return nil, false
}

func pageOf(items []map[string]any, offset, size int) ([]map[string]any, bool) {
	if size <= 0 {
		size = len(items)
	}
	if offset >= len(items) {
		return []map[string]any{}, false
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], end < len(items)
}

func withoutID(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func absoluteURL(r *http.Request, path string, q url.Values) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path + "?" + q.Encode()
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// writeJSONResponse writes a JSON response to the ResponseWriter.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set(ContentTypeHeader, ContentTypeJSON)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AssertNoError is a helper that fails the test if err is not nil.
func AssertNoError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		if len(msgAndArgs) > 0 {
			format := msgAndArgs[0].(string)
			args := msgAndArgs[1:]
			t.Fatalf(format+": %v", append(args, err)...)
		} else {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
}

// AssertError is a helper that fails the test if err is nil.
func AssertError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		if len(msgAndArgs) > 0 {
			format := msgAndArgs[0].(string)
			t.Fatalf(format, msgAndArgs[1:]...)
		} else {
			t.Fatal("Expected error, got nil")
		}
	}
}

// AssertContains is a helper that fails the test if the string doesn't contain the substring.
func AssertContains(t *testing.T, s, substr string, msgAndArgs ...interface{}) {
	t.Helper()
	if !strings.Contains(s, substr) {
		if len(msgAndArgs) > 0 {
			format := msgAndArgs[0].(string)
			t.Fatalf(format, msgAndArgs[1:]...)
		} else {
			t.Fatalf("String %q does not contain %q", s, substr)
		}
	}
}
