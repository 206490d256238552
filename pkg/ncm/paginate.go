package ncm

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// v2Envelope is the v2 list/detail response shape.
type v2Envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Next *string `json:"next"`
	} `json:"meta"`
}

// v3Envelope is the JSON:API response shape.
type v3Envelope struct {
	Data  json.RawMessage `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

// decodeData accepts a list, a single object or null.
func decodeData(raw json.RawMessage) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []Record
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one Record
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []Record{one}, nil
}

func nextLink(next *string) string {
	if next == nil {
		return ""
	}
	return strings.TrimSpace(*next)
}

// collector accumulates pages up to a cap, optionally dropping records
// already seen by id.
type collector struct {
	limit int
	dedup bool
	seen  map[string]bool
	items []Record
}

func newCollector(limit int, dedup bool) *collector {
	return &collector{limit: limit, dedup: dedup, seen: map[string]bool{}}
}

func (c *collector) add(records []Record) {
	for _, r := range records {
		if c.full() {
			return
		}
		if c.dedup {
			if id := r.ID(); id != "" {
				if c.seen[id] {
					continue
				}
				c.seen[id] = true
			}
		}
		c.items = append(c.items, r)
	}
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.items) >= c.limit
}

// result never exceeds the cap even when the last page overshoots it.
func (c *collector) result() []Record {
	if c.items == nil {
		return []Record{}
	}
	if c.limit > 0 && len(c.items) > c.limit {
		return c.items[:c.limit]
	}
	return c.items
}

// chunk splits values into slices of at most size items.
func chunk(values []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		out = append(out, values[start:end])
	}
	return out
}

// paginateV2 walks meta.next links. Every __in filter is split into
// chunks of 100 identifiers and the union of the chunk results is
// returned without duplicates.
func (s *session) paginateV2(ctx context.Context, path, label string, q url.Values, plan pagePlan) ([]Record, error) {
	pageSize := v2MaxPageSize
	if plan.limit > 0 {
		pageSize = min(plan.limit, v2MaxPageSize)
	}
	q.Set("limit", strconv.Itoa(pageSize))

	var inKeys []string
	for k := range q {
		if strings.Contains(k, "__in") {
			inKeys = append(inKeys, k)
		}
	}
	sort.Strings(inKeys)

	if len(inKeys) == 0 {
		c := newCollector(plan.limit, false)
		if err := s.walkV2(ctx, path, label, q, c); err != nil {
			return nil, err
		}
		return c.result(), nil
	}
	if len(inKeys) > 1 {
		s.log.WithField("filters", inKeys).Warn("Multiple __in filters are chunked one at a time and not cross-joined")
	}

	c := newCollector(plan.limit, true)
	for _, key := range inKeys {
		values := splitValues(strings.Join(q[key], ","))
		for _, ids := range chunk(values, v2ChunkSize) {
			if c.full() {
				return c.result(), nil
			}
			cq := cloneValues(q)
			cq.Set(key, strings.Join(ids, ","))
			if err := s.walkV2(ctx, path, label, cq, c); err != nil {
				return nil, err
			}
		}
	}
	return c.result(), nil
}

func (s *session) walkV2(ctx context.Context, path, label string, q url.Values, c *collector) error {
	target, query := path, q
	for target != "" && !c.full() {
		resp, err := s.do(ctx, request{method: http.MethodGet, path: target, query: query})
		if err != nil {
			return err
		}
		if !isSuccess(resp.StatusCode()) {
			return s.statusError(resp.StatusCode(), resp.Body(), label)
		}
		var env v2Envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return fmt.Errorf("ncm: decode %s page: %w", label, err)
		}
		records, err := decodeData(env.Data)
		if err != nil {
			return fmt.Errorf("ncm: decode %s data: %w", label, err)
		}
		c.add(records)
		s.log.WithFields(log.Fields{"label": label, "page_items": len(records), "total": len(c.items)}).Debug("Fetched page")

		// next links already carry the query
		target, query = nextLink(env.Meta.Next), nil
	}
	return nil
}

// paginateV3 walks links.next with page[size] capped at 50. The walk
// aborts on the first error status.
func (s *session) paginateV3(ctx context.Context, path, label string, q url.Values, plan pagePlan) ([]Record, error) {
	pageSize := v3MaxPageSize
	if plan.limit > 0 {
		pageSize = min(plan.limit, v3MaxPageSize)
	}
	q.Set("page[size]", strconv.Itoa(pageSize))

	c := newCollector(plan.limit, false)
	target, query := path, q
	for target != "" && !c.full() {
		resp, err := s.do(ctx, request{method: http.MethodGet, path: target, query: query})
		if err != nil {
			return nil, err
		}
		if !isSuccess(resp.StatusCode()) {
			return nil, s.statusError(resp.StatusCode(), resp.Body(), label)
		}
		var env v3Envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("ncm: decode %s page: %w", label, err)
		}
		records, err := decodeData(env.Data)
		if err != nil {
			return nil, fmt.Errorf("ncm: decode %s data: %w", label, err)
		}
		c.add(records)
		target, query = nextLink(env.Links.Next), nil
	}

	items := c.result()
	if len(plan.fields) > 0 {
		items = project(items, plan.fields)
	}
	return items, nil
}

// project keeps exactly the requested keys, read from attributes first
// and from the resource object second. Missing keys are present as nil.
func project(items []Record, fields []string) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		attrs := item.Attributes()
		p := make(Record, len(fields))
		for _, f := range fields {
			if v, ok := attrs[f]; ok {
				p[f] = v
			} else {
				p[f] = item[f]
			}
		}
		out = append(out, p)
	}
	return out
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// getRecord fetches a single resource and returns its data member.
func (s *session) getRecord(ctx context.Context, path, label string, q url.Values) (Record, error) {
	resp, err := s.do(ctx, request{method: http.MethodGet, path: path, query: q})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode()) {
		return nil, s.statusError(resp.StatusCode(), resp.Body(), label)
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("ncm: decode %s: %w", label, err)
	}
	if env.Data == nil {
		// some v2 detail endpoints return the object without an envelope
		var rec Record
		if err := json.Unmarshal(resp.Body(), &rec); err != nil {
			return nil, fmt.Errorf("ncm: decode %s: %w", label, err)
		}
		return rec, nil
	}
	records, err := decodeData(env.Data)
	if err != nil {
		return nil, fmt.Errorf("ncm: decode %s: %w", label, err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: label, Field: "path", Value: path}
	}
	return records[0], nil
}

// send performs a write and runs the response through the interpreter.
func (s *session) send(ctx context.Context, req request, label string) (*Outcome, error) {
	resp, err := s.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.interpret(resp.StatusCode(), resp.Body(), label)
}
