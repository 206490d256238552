package ncm

// endpoint describes one v2 list resource.
type endpoint struct {
	op      string
	path    string
	label   string
	allowed []string
}

var commonV2 = []string{"expand", "fields", "limit", "offset", "order_by"}

// allow builds an allow-list: plain fields, fields that also take __in, and
// fields that also take the __gt/__lt/__gte/__lte comparisons.
func allow(plain, in, cmp []string) []string {
	out := append([]string(nil), commonV2...)
	out = append(out, plain...)
	out = append(out, withFilters(in, "in")...)
	for _, f := range cmp {
		if !contains(out, f) {
			out = append(out, f)
		}
		out = append(out, f+"__gt", f+"__lt", f+"__gte", f+"__lte")
	}
	return dedupe(out)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, v := range list {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

var (
	v2Accounts = endpoint{"get_accounts", "accounts/", "accounts",
		allow([]string{"account", "name"}, []string{"id", "name"}, nil)}
	v2ActivityLogs = endpoint{"get_activity_logs", "activity_logs/", "activity logs",
		allow([]string{"account", "action__timestamp", "actor__id", "object__id", "action__type", "actor__type"},
			nil, []string{"created_at", "action__timestamp"})}
	v2Alerts = endpoint{"get_alerts", "alerts/", "alerts",
		allow([]string{"account", "type"}, []string{"id", "router"}, []string{"created_at", "created_at_timeuuid"})}
	v2ConfigurationManagers = endpoint{"get_configuration_managers", "configuration_managers/", "configuration managers",
		allow([]string{"account", "router", "router.id", "synched", "suspended", "version_number"}, []string{"id", "router"}, nil)}
	v2DeviceAppBindings = endpoint{"get_device_app_bindings", "device_app_bindings/", "device app bindings",
		allow([]string{"account", "app_version", "group", "state"}, []string{"group", "app_version", "state"}, nil)}
	v2DeviceAppStates = endpoint{"get_device_app_states", "device_app_states/", "device app states",
		allow([]string{"account", "app_version", "router", "state"}, []string{"router", "app_version", "state"}, nil)}
	v2DeviceAppVersions = endpoint{"get_device_app_versions", "device_app_versions/", "device app versions",
		allow([]string{"account", "app", "state"}, []string{"app", "state"}, nil)}
	v2DeviceApps = endpoint{"get_device_apps", "device_apps/", "device apps",
		allow([]string{"account", "description", "name", "uuid"}, []string{"name", "uuid"}, nil)}
	v2Failovers = endpoint{"get_failovers", "failovers/", "failovers",
		allow([]string{"account", "group", "router"}, []string{"id"}, []string{"started_at", "ended_at"})}
	v2Firmwares = endpoint{"get_firmwares", "firmwares/", "firmwares",
		allow([]string{"hash", "version", "product"}, []string{"id", "hash", "version"}, nil)}
	v2Groups = endpoint{"get_groups", "groups/", "groups",
		allow([]string{"account", "name", "product", "target_firmware"}, []string{"id", "name"}, nil)}
	v2HistoricalLocations = endpoint{"get_historical_locations", "historical_locations/", "historical locations",
		allow([]string{"router"}, nil, []string{"created_at"})}
	v2Locations = endpoint{"get_locations", "locations/", "locations",
		allow([]string{"account", "router"}, []string{"id", "router"}, nil)}
	v2NetDeviceHealth = endpoint{"get_net_device_health", "net_device_health/", "net device health",
		allow([]string{"net_device"}, nil, nil)}
	v2NetDeviceMetrics = endpoint{"get_net_device_metrics", "net_device_metrics/", "net device metrics",
		allow([]string{"net_device"}, []string{"net_device"}, []string{"update_ts"})}
	v2NetDeviceSignalSamples = endpoint{"get_net_device_signal_samples", "net_device_signal_samples/", "net device signal samples",
		allow([]string{"net_device"}, []string{"net_device"}, []string{"created_at", "created_at_timeuuid"})}
	v2NetDeviceUsageSamples = endpoint{"get_net_device_usage_samples", "net_device_usage_samples/", "net device usage samples",
		allow([]string{"net_device"}, []string{"net_device"}, []string{"created_at", "created_at_timeuuid"})}
	v2NetDevices = endpoint{"get_net_devices", "net_devices/", "net devices",
		allow([]string{"account", "connection_state", "is_asset", "ipv4_address", "mode", "router", "router.id"},
			[]string{"id", "connection_state", "ipv4_address", "mode", "router"}, nil)}
	v2Products = endpoint{"get_products", "products/", "products",
		allow([]string{"name"}, []string{"id"}, nil)}
	v2RebootActivity = endpoint{"get_reboot_activity", "reboot_activity/", "reboot activity",
		allow([]string{"router", "group"}, nil, nil)}
	v2RouterAlerts = endpoint{"get_router_alerts", "router_alerts/", "router alerts",
		allow([]string{"router"}, []string{"router"}, []string{"created_at", "created_at_timeuuid"})}
	v2RouterLogs = endpoint{"get_router_logs", "router_logs/", "router logs",
		allow([]string{"router"}, nil, []string{"created_at", "created_at_timeuuid"})}
	v2RouterStateSamples = endpoint{"get_router_state_samples", "router_state_samples/", "router state samples",
		allow([]string{"router"}, []string{"router"}, []string{"created_at", "created_at_timeuuid"})}
	v2RouterStreamUsageSamples = endpoint{"get_router_stream_usage_samples", "router_stream_usage_samples/", "router stream usage samples",
		allow([]string{"router"}, []string{"router"}, []string{"created_at", "created_at_timeuuid"})}
	v2Routers = endpoint{"get_routers", "routers/", "routers",
		allow([]string{"account", "device_type", "group", "ipv4_address", "mac", "name", "reboot_required", "state"},
			[]string{"id", "account", "group", "ipv4_address", "mac", "name", "state"},
			[]string{"state_updated_at", "updated_at"})}
	v2SpeedTests = endpoint{"get_speed_tests", "speed_test/", "speed test",
		allow([]string{"account"}, []string{"id"}, nil)}

	v2Endpoints = []endpoint{
		v2Accounts, v2ActivityLogs, v2Alerts, v2ConfigurationManagers,
		v2DeviceAppBindings, v2DeviceAppStates, v2DeviceAppVersions, v2DeviceApps,
		v2Failovers, v2Firmwares, v2Groups, v2HistoricalLocations, v2Locations,
		v2NetDeviceHealth, v2NetDeviceMetrics, v2NetDeviceSignalSamples,
		v2NetDeviceUsageSamples, v2NetDevices, v2Products, v2RebootActivity,
		v2RouterAlerts, v2RouterLogs, v2RouterStateSamples,
		v2RouterStreamUsageSamples, v2Routers, v2SpeedTests,
	}
)

// resourceURL is the v1 reference NCM stores in foreign key fields.
func resourceURL(resource, id string) string {
	return "/api/v1/" + resource + "/" + id + "/"
}
