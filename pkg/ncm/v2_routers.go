package ncm

import (
	"context"
	"errors"
	"sort"
	"time"
)

// RenameRouterByID renames a router. The name lives at system.system_id
// in the configuration tree.
func (c *V2Client) RenameRouterByID(ctx context.Context, id, newName string) (*Outcome, error) {
	return c.patchConfig(ctx, id, "Rename Router", map[string]any{
		"system": map[string]any{"system_id": newName},
	})
}

// RenameRouterByName renames the first router named name.
func (c *V2Client) RenameRouterByName(ctx context.Context, name, newName string) (*Outcome, error) {
	router, err := c.GetRouterByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.RenameRouterByID(ctx, router.ID(), newName)
}

// AssignRouterToGroup moves a router into a configuration group.
func (c *V2Client) AssignRouterToGroup(ctx context.Context, routerID, groupID string) (*Outcome, error) {
	return c.put(ctx, "routers/"+routerID+"/", "Assign Router to Group",
		map[string]any{"group": resourceURL("groups", groupID)})
}

// RemoveRouterFromGroup detaches a router from its group.
func (c *V2Client) RemoveRouterFromGroup(ctx context.Context, routerID string) (*Outcome, error) {
	return c.put(ctx, "routers/"+routerID+"/", "Remove Router from Group", map[string]any{"group": nil})
}

// RemoveRouterFromGroupByName detaches the first router named name.
func (c *V2Client) RemoveRouterFromGroupByName(ctx context.Context, name string) (*Outcome, error) {
	router, err := c.GetRouterByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.RemoveRouterFromGroup(ctx, router.ID())
}

// AssignRouterToAccount moves a router to another account.
func (c *V2Client) AssignRouterToAccount(ctx context.Context, routerID, accountID string) (*Outcome, error) {
	return c.put(ctx, "routers/"+routerID+"/", "Assign Router to Account",
		map[string]any{"account": resourceURL("accounts", accountID)})
}

// DeleteRouterByID unregisters a router.
func (c *V2Client) DeleteRouterByID(ctx context.Context, id string) (*Outcome, error) {
	return c.delete(ctx, "routers/"+id+"/", "Delete Router")
}

// DeleteRouterByName unregisters the first router named name.
func (c *V2Client) DeleteRouterByName(ctx context.Context, name string) (*Outcome, error) {
	router, err := c.GetRouterByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.DeleteRouterByID(ctx, router.ID())
}

// routerFieldPaths maps router metadata fields onto their key under the
// system node of the configuration tree.
var routerFieldPaths = map[string]string{
	"name":        "system_id",
	"description": "desc",
	"asset_id":    "asset_id",
	"custom1":     "custom1",
	"custom2":     "custom2",
}

// RouterFields lists the fields SetRouterFields accepts.
func RouterFields() []string {
	out := make([]string, 0, len(routerFieldPaths))
	for k := range routerFieldPaths {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SetRouterFields writes router metadata (name, description, asset_id,
// custom1, custom2) through the router's configuration manager in one
// patch.
func (c *V2Client) SetRouterFields(ctx context.Context, routerID string, fields map[string]any) (*Outcome, error) {
	if len(fields) == 0 {
		return nil, &ValidationError{Op: "set_router_fields", Reason: "no fields to set"}
	}
	system := make(map[string]any, len(fields))
	var invalid []string
	for k, v := range fields {
		key, ok := routerFieldPaths[k]
		if !ok {
			invalid = append(invalid, k)
			continue
		}
		system[key] = formatValue(v)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &ValidationError{Op: "set_router_fields", Invalid: invalid}
	}
	return c.patchConfig(ctx, routerID, "Set Router Fields", map[string]any{"system": system})
}

// SetRouterDescription sets the router description.
func (c *V2Client) SetRouterDescription(ctx context.Context, routerID, description string) (*Outcome, error) {
	return c.patchConfig(ctx, routerID, "Set Router Description", map[string]any{
		"system": map[string]any{"desc": description},
	})
}

// SetRouterAssetID sets the router asset id.
func (c *V2Client) SetRouterAssetID(ctx context.Context, routerID, assetID string) (*Outcome, error) {
	return c.patchConfig(ctx, routerID, "Set Router Asset ID", map[string]any{
		"system": map[string]any{"asset_id": assetID},
	})
}

// SetCustom1 sets the router custom1 field.
func (c *V2Client) SetCustom1(ctx context.Context, routerID, value string) (*Outcome, error) {
	return c.patchConfig(ctx, routerID, "Set Custom1", map[string]any{
		"system": map[string]any{"custom1": value},
	})
}

// SetCustom2 sets the router custom2 field.
func (c *V2Client) SetCustom2(ctx context.Context, routerID, value string) (*Outcome, error) {
	return c.patchConfig(ctx, routerID, "Set Custom2", map[string]any{
		"system": map[string]any{"custom2": value},
	})
}

// LocationSpec is a manually set router location.
type LocationSpec struct {
	AccountID string
	RouterID  string
	Latitude  float64
	Longitude float64
	Accuracy  int
}

// CreateLocation pins a router to a fixed position.
func (c *V2Client) CreateLocation(ctx context.Context, spec LocationSpec) (*Outcome, error) {
	body := map[string]any{
		"account":   resourceURL("accounts", spec.AccountID),
		"accuracy":  spec.Accuracy,
		"latitude":  spec.Latitude,
		"longitude": spec.Longitude,
		"method":    "manual",
		"router":    resourceURL("routers", spec.RouterID),
	}
	return c.post(ctx, "locations/", "Create Location", body)
}

// DeleteLocationForRouter removes every location attached to a router.
func (c *V2Client) DeleteLocationForRouter(ctx context.Context, routerID string) (*Outcome, error) {
	locations, err := c.GetLocations(ctx, Params{"router": routerID})
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, &NotFoundError{Resource: "location", Field: "router", Value: routerID}
	}
	var (
		last *Outcome
		errs []error
	)
	for _, loc := range locations {
		out, err := c.delete(ctx, "locations/"+loc.ID()+"/", "Delete Location")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		last = out
	}
	return last, errors.Join(errs...)
}

// RebootDevice requests a reboot of one router.
func (c *V2Client) RebootDevice(ctx context.Context, routerID string) (*Outcome, error) {
	return c.post(ctx, "reboot_activity/", "Reboot Device", map[string]any{"router": resourceURL("routers", routerID)})
}

// RebootGroup requests a reboot of every router in a group.
func (c *V2Client) RebootGroup(ctx context.Context, groupID string) (*Outcome, error) {
	return c.post(ctx, "reboot_activity/", "Reboot Group", map[string]any{"group": resourceURL("groups", groupID)})
}

// GetRouterAlertsLast24 returns alerts of a router raised in the last 24
// hours.
func (c *V2Client) GetRouterAlertsLast24(ctx context.Context, routerID string) ([]Record, error) {
	now := c.now().UTC()
	return c.GetRouterAlerts(ctx, Params{
		"router":         routerID,
		"created_at__gt": now.Add(-24 * time.Hour),
		"created_at__lt": now,
		"limit":          limitAll,
	})
}

// GetRouterAlertsForDate returns alerts of a router raised on the UTC day
// of date.
func (c *V2Client) GetRouterAlertsForDate(ctx context.Context, routerID string, date time.Time) ([]Record, error) {
	start, end := dayWindow(date)
	return c.GetRouterAlerts(ctx, Params{
		"router":         routerID,
		"created_at__gt": start,
		"created_at__lt": end,
		"limit":          limitAll,
	})
}

// GetRouterLogsLast24 returns log lines of a router from the last 24 hours.
func (c *V2Client) GetRouterLogsLast24(ctx context.Context, routerID string) ([]Record, error) {
	now := c.now().UTC()
	return c.GetRouterLogs(ctx, Params{
		"router":         routerID,
		"created_at__gt": now.Add(-24 * time.Hour),
		"created_at__lt": now,
		"limit":          limitAll,
	})
}

// GetRouterLogsForDate returns log lines of a router on the UTC day of
// date.
func (c *V2Client) GetRouterLogsForDate(ctx context.Context, routerID string, date time.Time) ([]Record, error) {
	start, end := dayWindow(date)
	return c.GetRouterLogs(ctx, Params{
		"router":         routerID,
		"created_at__gt": start,
		"created_at__lt": end,
		"limit":          limitAll,
	})
}

// GetHistoricalLocationsForDate returns the GPS trail of a router on the
// UTC day of date.
func (c *V2Client) GetHistoricalLocationsForDate(ctx context.Context, routerID string, date time.Time) ([]Record, error) {
	start, end := dayWindow(date)
	return c.GetHistoricalLocations(ctx, Params{
		"router":         routerID,
		"created_at__gt": start,
		"created_at__lt": end,
		"limit":          limitAll,
	})
}

// Speed test defaults used when a SpeedTestSpec leaves a field unset.
const (
	DefaultSpeedTestHost        = "netperf-west.bufferbloat.net"
	DefaultSpeedTestPort        = 12865
	DefaultSpeedTestType        = "TCP Download"
	DefaultSpeedTestTime        = 10
	DefaultSpeedTestTimeout     = 10
	DefaultSpeedTestConcurrency = 5
)

// SpeedTestSpec configures a netperf speed test on one or more net
// devices.
type SpeedTestSpec struct {
	AccountID          string
	NetDeviceIDs       []string
	Host               string
	Port               int
	Size               *int
	TestType           string
	Time               int
	TestTimeout        int
	MaxTestConcurrency int
}

func (s SpeedTestSpec) withDefaults() SpeedTestSpec {
	if s.Host == "" {
		s.Host = DefaultSpeedTestHost
	}
	if s.Port == 0 {
		s.Port = DefaultSpeedTestPort
	}
	if s.TestType == "" {
		s.TestType = DefaultSpeedTestType
	}
	if s.Time == 0 {
		s.Time = DefaultSpeedTestTime
	}
	if s.TestTimeout == 0 {
		s.TestTimeout = DefaultSpeedTestTimeout
	}
	if s.MaxTestConcurrency == 0 {
		s.MaxTestConcurrency = DefaultSpeedTestConcurrency
	}
	return s
}

// CreateSpeedTest starts a speed test job.
func (c *V2Client) CreateSpeedTest(ctx context.Context, spec SpeedTestSpec) (*Outcome, error) {
	if len(spec.NetDeviceIDs) == 0 {
		return nil, &ValidationError{Op: "create_speed_test", Reason: "at least one net device id is required"}
	}
	spec = spec.withDefaults()
	body := map[string]any{
		"account": resourceURL("accounts", spec.AccountID),
		"config": map[string]any{
			"host":                 spec.Host,
			"max_test_concurrency": spec.MaxTestConcurrency,
			"port":                 spec.Port,
			"size":                 spec.Size,
			"test_timeout":         spec.TestTimeout,
			"test_type":            spec.TestType,
			"time":                 spec.Time,
		},
		"net_device_ids": spec.NetDeviceIDs,
	}
	return c.post(ctx, "speed_test/", "Create Speed Test", body)
}

// GetSpeedTest returns one speed test job with its results.
func (c *V2Client) GetSpeedTest(ctx context.Context, id string) (Record, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.s.getRecord(ctx, "speed_test/"+id+"/", "speed test", nil)
}
