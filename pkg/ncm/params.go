package ncm

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// v2DefaultLimit replaces the vendor default page size of 20.
	v2DefaultLimit = 500
	// v2MaxPageSize is the largest page the v2 API serves.
	v2MaxPageSize = 500
	// v2ChunkSize is the vendor cap on identifiers per __in filter.
	v2ChunkSize = 100
	// v3MaxPageSize is the vendor maximum for page[size].
	v3MaxPageSize = 50
	// v3DefaultLimit caps v3 list calls that do not pass a limit.
	v3DefaultLimit = 500

	limitAll = "all"
)

// v3Operators are the suffixes mapped to filter[field][op].
var v3Operators = map[string]bool{
	"in":  true,
	"ne":  true,
	"lt":  true,
	"lte": true,
	"gt":  true,
	"gte": true,
}

// checkAllowed rejects keys outside the allow-list of op.
func checkAllowed(op string, p Params, allowed []string) error {
	if len(p) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	var invalid []string
	for k := range p {
		if !set[k] {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return &ValidationError{Op: op, Invalid: invalid}
}

// withFilters extends a base allow-list with the operator suffixes NCM
// accepts on each field.
func withFilters(fields []string, suffixes ...string) []string {
	out := append([]string(nil), fields...)
	for _, f := range fields {
		for _, s := range suffixes {
			out = append(out, f+"__"+s)
		}
	}
	return out
}

// formatValue renders a parameter value in wire form: sequences are comma
// joined, times are RFC 3339.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatTimestamp(val)
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, formatValue(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// formatTimestamp renders t the way NCM expects date filters.
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// splitValues turns a list or comma separated string into its items.
func splitValues(v any) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, formatValue(rv.Index(i).Interface()))
		}
		return out
	}
	if v == nil {
		return nil
	}
	return []string{formatValue(v)}
}

// parseLimit reads a caller limit. "all" and 0 mean no cap and are
// reported as 0.
func parseLimit(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return max(val, 0), nil
	case int64:
		return max(int(val), 0), nil
	case float64:
		return max(int(val), 0), nil
	case string:
		if strings.EqualFold(val, limitAll) || val == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("limit %q is neither a number nor %q", val, limitAll)
		}
		return max(n, 0), nil
	default:
		return 0, fmt.Errorf("unsupported limit type %T", v)
	}
}

// translator turns caller parameters into the query of one API generation.
// The v2 and v3 grammars share nothing but this interface.
type translator interface {
	translate(p Params) (query url.Values, plan pagePlan, err error)
}

// pagePlan carries the paging inputs extracted from Params.
type pagePlan struct {
	// limit is the total item cap; 0 means unbounded.
	limit int
	// fields is the v3 projection, nil when none was requested.
	fields []string
}

// sortedKeys gives deterministic query order.
func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// v2Translator passes keys through verbatim; only order_by and sequences
// are joined.
type v2Translator struct{}

func (v2Translator) translate(p Params) (url.Values, pagePlan, error) {
	q := url.Values{}
	plan := pagePlan{limit: v2DefaultLimit}
	for _, k := range sortedKeys(p) {
		v := p[k]
		if k == "limit" {
			n, err := parseLimit(v)
			if err != nil {
				return nil, plan, &ValidationError{Op: "limit", Reason: err.Error()}
			}
			plan.limit = n
			continue
		}
		q.Add(k, formatValue(v))
	}
	return q, plan, nil
}

// v3Translator maps suffixed keys onto filter[field][op] and plain keys
// onto filter[field] or search[field].
type v3Translator struct {
	resourceType string
}

func (t v3Translator) translate(p Params) (url.Values, pagePlan, error) {
	q := url.Values{}
	plan := pagePlan{limit: v3DefaultLimit}

	search, _ := searchFlag(p["search"])

	for _, k := range sortedKeys(p) {
		v := p[k]
		switch {
		case k == "limit":
			n, err := parseLimit(v)
			if err != nil {
				return nil, plan, &ValidationError{Op: "limit", Reason: err.Error()}
			}
			plan.limit = n
		case k == "search":
			if _, isFlag := searchFlag(v); !isFlag {
				q.Add(k, formatValue(v))
			}
		case k == "fields":
			plan.fields = splitValues(v)
			q.Add("fields["+t.resourceType+"]", strings.Join(plan.fields, ","))
		case strings.Contains(k, "search") || strings.Contains(k, "filter") || strings.Contains(k, "sort"):
			q.Add(k, formatValue(v))
		default:
			field, op, hasOp := strings.Cut(k, "__")
			if hasOp && v3Operators[op] {
				q.Add(fmt.Sprintf("filter[%s][%s]", field, op), formatValue(v))
				continue
			}
			if search {
				q.Add("search["+k+"]", formatValue(v))
			} else {
				q.Add("filter["+k+"]", formatValue(v))
			}
		}
	}
	return q, plan, nil
}

// searchFlag reads the search switch given as a bool or as "true"/"false"
// text, which is how command line arguments arrive.
func searchFlag(v any) (on, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	}
	return false, false
}
