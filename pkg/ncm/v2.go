package ncm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// V2Client is the facade over the key-authenticated v2 API.
type V2Client struct {
	s   *session
	ops opTable
	now func() time.Time

	mu   sync.RWMutex
	keys APIKeys
}

// NewV2Client creates a v2 facade. Keys may be incomplete; calls then fail
// with ErrMissingCredentials before any request is sent.
func NewV2Client(keys APIKeys, opts ...Option) *V2Client {
	return newV2Client(keys, buildOptions(opts))
}

func newV2Client(keys APIKeys, o options) *V2Client {
	c := &V2Client{
		s:   newSession(apiV2, resolveBaseURL(o.v2BaseURL, EnvV2BaseURL, DefaultV2BaseURL), o),
		now: time.Now,
	}
	c.SetAPIKeys(keys)
	c.ops = c.operationTable()
	return c
}

// SetAPIKeys replaces the key bundle sent with every request. Requests
// already in flight keep the keys they started with.
func (c *V2Client) SetAPIKeys(keys APIKeys) {
	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()

	headers := keys.headers()
	headers[headerContentType] = contentTypeJSON
	c.s.setHeaders(headers)
}

// BaseURL returns the endpoint the client talks to.
func (c *V2Client) BaseURL() string {
	return c.s.baseURL
}

// Close releases idle connections.
func (c *V2Client) Close() {
	c.s.close()
}

// ready fails fast when one of the four keys is missing.
func (c *V2Client) ready() error {
	c.mu.RLock()
	keys := c.keys
	c.mu.RUnlock()
	if keys.Complete() {
		return nil
	}
	var missing []string
	for header, value := range map[string]string{
		HeaderCPAPIID:   keys.CPAPIID,
		HeaderCPAPIKey:  keys.CPAPIKey,
		HeaderECMAPIID:  keys.ECMAPIID,
		HeaderECMAPIKey: keys.ECMAPIKey,
	} {
		if value == "" {
			missing = append(missing, header)
		}
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: v2 API keys not set (%s)", ErrMissingCredentials, strings.Join(missing, ", "))
}

// Do runs the named operation.
func (c *V2Client) Do(ctx context.Context, op string, p Params) (any, error) {
	return c.ops.do(ctx, op, p)
}

// Supports reports whether op is a v2 operation.
func (c *V2Client) Supports(op string) bool {
	return c.ops.supports(op)
}

// Operations lists the v2 operation names.
func (c *V2Client) Operations() []string {
	return c.ops.names()
}

// list validates p against the endpoint allow-list and walks every page.
func (c *V2Client) list(ctx context.Context, e endpoint, p Params) ([]Record, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if err := checkAllowed(e.op, p, e.allowed); err != nil {
		return nil, err
	}
	q, plan, err := v2Translator{}.translate(p)
	if err != nil {
		return nil, err
	}
	return c.s.paginateV2(ctx, e.path, e.label, q, plan)
}

// first lists with p and returns the first match. Names are assumed
// unique; on duplicates the first record wins.
func (c *V2Client) first(ctx context.Context, e endpoint, p Params, resource, field string) (Record, error) {
	p["limit"] = 1
	records, err := c.list(ctx, e, p)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: resource, Field: field, Value: formatValue(p[field])}
	}
	return records[0], nil
}

// write sends a JSON body and interprets the status.
func (c *V2Client) write(ctx context.Context, method, path, label string, body any) (*Outcome, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.s.send(ctx, request{method: method, path: path, body: body}, label)
}

func (c *V2Client) put(ctx context.Context, path, label string, body any) (*Outcome, error) {
	return c.write(ctx, http.MethodPut, path, label, body)
}

func (c *V2Client) post(ctx context.Context, path, label string, body any) (*Outcome, error) {
	return c.write(ctx, http.MethodPost, path, label, body)
}

func (c *V2Client) patch(ctx context.Context, path, label string, body any) (*Outcome, error) {
	return c.write(ctx, http.MethodPatch, path, label, body)
}

func (c *V2Client) delete(ctx context.Context, path, label string) (*Outcome, error) {
	return c.write(ctx, http.MethodDelete, path, label, nil)
}

// GetAccounts lists accounts.
func (c *V2Client) GetAccounts(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Accounts, p)
}

// GetActivityLogs lists activity log entries.
func (c *V2Client) GetActivityLogs(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2ActivityLogs, p)
}

// GetAlerts lists account alerts.
func (c *V2Client) GetAlerts(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Alerts, p)
}

// GetConfigurationManagers lists configuration managers.
func (c *V2Client) GetConfigurationManagers(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2ConfigurationManagers, p)
}

// GetDeviceAppBindings lists device app bindings.
func (c *V2Client) GetDeviceAppBindings(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2DeviceAppBindings, p)
}

// GetDeviceAppStates lists device app states.
func (c *V2Client) GetDeviceAppStates(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2DeviceAppStates, p)
}

// GetDeviceAppVersions lists device app versions.
func (c *V2Client) GetDeviceAppVersions(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2DeviceAppVersions, p)
}

// GetDeviceApps lists device apps.
func (c *V2Client) GetDeviceApps(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2DeviceApps, p)
}

// GetFailovers lists failover events.
func (c *V2Client) GetFailovers(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Failovers, p)
}

// GetFirmwares lists firmwares.
func (c *V2Client) GetFirmwares(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Firmwares, p)
}

// GetGroups lists groups.
func (c *V2Client) GetGroups(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Groups, p)
}

// GetHistoricalLocations lists historical locations of a router.
func (c *V2Client) GetHistoricalLocations(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2HistoricalLocations, p)
}

// GetLocations lists current router locations.
func (c *V2Client) GetLocations(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Locations, p)
}

// GetNetDeviceHealth lists net device health records.
func (c *V2Client) GetNetDeviceHealth(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2NetDeviceHealth, p)
}

// GetNetDeviceMetrics lists net device metrics.
func (c *V2Client) GetNetDeviceMetrics(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2NetDeviceMetrics, p)
}

// GetNetDeviceSignalSamples lists signal samples.
func (c *V2Client) GetNetDeviceSignalSamples(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2NetDeviceSignalSamples, p)
}

// GetNetDeviceUsageSamples lists usage samples.
func (c *V2Client) GetNetDeviceUsageSamples(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2NetDeviceUsageSamples, p)
}

// GetNetDevices lists net devices (modems and WAN interfaces).
func (c *V2Client) GetNetDevices(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2NetDevices, p)
}

// GetProducts lists products.
func (c *V2Client) GetProducts(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Products, p)
}

// GetRebootActivity lists reboot requests.
func (c *V2Client) GetRebootActivity(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2RebootActivity, p)
}

// GetRouterAlerts lists router alerts.
func (c *V2Client) GetRouterAlerts(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2RouterAlerts, p)
}

// GetRouterLogs lists router log lines.
func (c *V2Client) GetRouterLogs(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2RouterLogs, p)
}

// GetRouterStateSamples lists router state samples.
func (c *V2Client) GetRouterStateSamples(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2RouterStateSamples, p)
}

// GetRouterStreamUsageSamples lists router stream usage samples.
func (c *V2Client) GetRouterStreamUsageSamples(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2RouterStreamUsageSamples, p)
}

// GetRouters lists routers.
func (c *V2Client) GetRouters(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2Routers, p)
}

// GetSpeedTests lists speed test jobs.
func (c *V2Client) GetSpeedTests(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v2SpeedTests, p)
}

// GetAccountByID returns one account.
func (c *V2Client) GetAccountByID(ctx context.Context, id string) (Record, error) {
	return c.first(ctx, v2Accounts, Params{"id": id}, "account", "id")
}

// GetAccountByName returns the first account named name.
func (c *V2Client) GetAccountByName(ctx context.Context, name string) (Record, error) {
	return c.first(ctx, v2Accounts, Params{"name": name}, "account", "name")
}

// GetGroupByID returns one group.
func (c *V2Client) GetGroupByID(ctx context.Context, id string) (Record, error) {
	return c.first(ctx, v2Groups, Params{"id": id}, "group", "id")
}

// GetGroupByName returns the first group named name.
func (c *V2Client) GetGroupByName(ctx context.Context, name string) (Record, error) {
	return c.first(ctx, v2Groups, Params{"name": name}, "group", "name")
}

// GetRouterByID returns one router.
func (c *V2Client) GetRouterByID(ctx context.Context, id string) (Record, error) {
	return c.first(ctx, v2Routers, Params{"id": id}, "router", "id")
}

// GetRouterByName returns the first router named name.
func (c *V2Client) GetRouterByName(ctx context.Context, name string) (Record, error) {
	return c.first(ctx, v2Routers, Params{"name": name}, "router", "name")
}

// GetProductByID returns one product.
func (c *V2Client) GetProductByID(ctx context.Context, id string) (Record, error) {
	return c.first(ctx, v2Products, Params{"id": id}, "product", "id")
}

// GetProductByName returns the first product named name, e.g. "IBR900".
func (c *V2Client) GetProductByName(ctx context.Context, name string) (Record, error) {
	return c.first(ctx, v2Products, Params{"name": name}, "product", "name")
}

// GetFirmwareForProductIDByVersion returns the firmware build of a product.
func (c *V2Client) GetFirmwareForProductIDByVersion(ctx context.Context, productID, version string) (Record, error) {
	firmwares, err := c.GetFirmwares(ctx, Params{"version": version})
	if err != nil {
		return nil, err
	}
	for _, fw := range firmwares {
		if refID(fw["product"]) == productID {
			return fw, nil
		}
	}
	return nil, &NotFoundError{Resource: "firmware", Field: "version", Value: version + " for product " + productID}
}

// GetFirmwareForProductNameByVersion resolves the product by name first.
func (c *V2Client) GetFirmwareForProductNameByVersion(ctx context.Context, productName, version string) (Record, error) {
	product, err := c.GetProductByName(ctx, productName)
	if err != nil {
		return nil, err
	}
	return c.GetFirmwareForProductIDByVersion(ctx, product.ID(), version)
}

// refID extracts the id from a "/api/v1/<resource>/<id>/" reference, or
// formats a bare id.
func refID(v any) string {
	s := formatValue(v)
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// dayWindow returns the created_at bounds of the UTC day containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
