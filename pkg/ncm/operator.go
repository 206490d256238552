package ncm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Operator dispatches operations by name. V2Client, V3Client and Client
// all implement it, so callers can route a name without knowing which API
// generation serves it.
type Operator interface {
	Do(ctx context.Context, op string, p Params) (any, error)
	Supports(op string) bool
	Operations() []string
}

// OperationFunc is one named operation.
type OperationFunc func(ctx context.Context, p Params) (any, error)

type opTable map[string]OperationFunc

func (t opTable) do(ctx context.Context, op string, p Params) (any, error) {
	fn, ok := t[op]
	if !ok {
		return nil, &MethodNotSupportedError{Method: op}
	}
	if p == nil {
		p = Params{}
	}
	return fn(ctx, p)
}

func (t opTable) supports(op string) bool {
	_, ok := t[op]
	return ok
}

func (t opTable) names() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// listOp adapts a list function to an OperationFunc.
func listOp(fn func(context.Context, Params) ([]Record, error)) OperationFunc {
	return func(ctx context.Context, p Params) (any, error) {
		return fn(ctx, p)
	}
}

// args reads named arguments out of Params for operations dispatched by
// name. Missing or malformed arguments and keys no accessor read are
// reported together by err.
type args struct {
	op   string
	p    Params
	bad  []string
	read map[string]bool
	// open is set by rest; the remaining keys belong to the caller.
	open bool
}

func newArgs(op string, p Params) *args {
	return &args{op: op, p: p, read: map[string]bool{}}
}

func (a *args) get(key string) (any, bool) {
	a.read[key] = true
	v, ok := a.p[key]
	return v, ok
}

// str returns a required string argument.
func (a *args) str(key string) string {
	v, ok := a.get(key)
	if !ok || v == nil || formatValue(v) == "" {
		a.bad = append(a.bad, key)
		return ""
	}
	return formatValue(v)
}

// opt returns an optional string argument.
func (a *args) opt(key, fallback string) string {
	v, ok := a.get(key)
	if !ok || v == nil {
		return fallback
	}
	return formatValue(v)
}

// raw returns an optional argument as given.
func (a *args) raw(key string) any {
	v, _ := a.get(key)
	return v
}

// list returns a required list argument.
func (a *args) list(key string) []string {
	v, _ := a.get(key)
	values := splitValues(v)
	if len(values) == 0 {
		a.bad = append(a.bad, key)
	}
	return values
}

// optList returns an optional list argument.
func (a *args) optList(key string) []string {
	v, _ := a.get(key)
	return splitValues(v)
}

// date returns a required date argument given as time.Time or
// YYYY-MM-DD.
func (a *args) date(key string) time.Time {
	v, _ := a.get(key)
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.DateOnly, time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	a.bad = append(a.bad, key)
	return time.Time{}
}

// object returns a map argument, or nil.
func (a *args) object(key string) map[string]any {
	v, _ := a.get(key)
	switch v := v.(type) {
	case map[string]any:
		return v
	case Params:
		return v
	case Record:
		return v
	}
	return nil
}

// rest returns the params without the named keys. Operations that forward
// the remainder accept any key.
func (a *args) rest(keys ...string) Params {
	a.open = true
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := Params{}
	for k, v := range a.p {
		if !drop[k] {
			out[k] = v
		}
	}
	return out
}

// unread lists the keys no accessor looked at.
func (a *args) unread() []string {
	if a.open {
		return nil
	}
	var out []string
	for k := range a.p {
		if !a.read[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (a *args) err() error {
	unknown := a.unread()
	if len(a.bad) == 0 && len(unknown) == 0 {
		return nil
	}
	ve := &ValidationError{Op: a.op, Invalid: unknown}
	if len(a.bad) > 0 {
		sort.Strings(a.bad)
		ve.Reason = fmt.Sprintf("missing or invalid arguments: %s", strings.Join(a.bad, ", "))
	}
	return ve
}
