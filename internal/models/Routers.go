package models

import (
	"strings"

	"github.com/fjacquet/ncm_client/pkg/ncm"
)

// Router connection states reported by NCM. Anything else is folded into
// RouterStateUnknown by RouterFromRecord.
const (
	RouterStateOnline  = "online"
	RouterStateOffline = "offline"
	RouterStateInitial = "initialized"
	RouterStateUnknown = "unknown"
)

// KnownRouterStates lists the states the fleet exporter always publishes,
// so a state dropping to zero routers still shows up as 0.
var KnownRouterStates = []string{
	RouterStateOnline,
	RouterStateOffline,
	RouterStateInitial,
	RouterStateUnknown,
}

// Router is the typed view of a v2 routers/ record the fleet exporter needs.
type Router struct {
	ID        string
	Name      string
	State     string
	AccountID string
	GroupID   string
	ProductID string
	MAC       string
	Serial    string
}

// RouterFields are the v2 fields requested when listing routers for the
// fleet view.
var RouterFields = []string{
	"id", "name", "state", "account", "group", "product", "mac", "serial_number",
}

// RouterFromRecord maps a routers/ record. Reference fields such as
// "account" arrive as resource URLs and are reduced to their trailing id.
func RouterFromRecord(rec ncm.Record) Router {
	state := strings.ToLower(rec.String("state"))
	switch state {
	case RouterStateOnline, RouterStateOffline, RouterStateInitial:
	default:
		state = RouterStateUnknown
	}
	return Router{
		ID:        rec.ID(),
		Name:      rec.String("name"),
		State:     state,
		AccountID: trailingID(rec["account"]),
		GroupID:   trailingID(rec["group"]),
		ProductID: trailingID(rec["product"]),
		MAC:       rec.String("mac"),
		Serial:    rec.String("serial_number"),
	}
}

// RoutersFromRecords maps every record.
func RoutersFromRecords(records []ncm.Record) []Router {
	out := make([]Router, 0, len(records))
	for _, rec := range records {
		out = append(out, RouterFromRecord(rec))
	}
	return out
}

// CountByState tallies routers per state. Every KnownRouterStates entry
// is present in the result.
func CountByState(routers []Router) map[string]int {
	counts := make(map[string]int, len(KnownRouterStates))
	for _, s := range KnownRouterStates {
		counts[s] = 0
	}
	for _, r := range routers {
		counts[r.State]++
	}
	return counts
}

func trailingID(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return ""
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
