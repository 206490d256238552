package ncm

import (
	"context"
	"strconv"
	"time"
)

// operationTable maps v2 operation names to facade methods. Every list
// endpoint is registered under its get_* name.
func (c *V2Client) operationTable() opTable {
	t := opTable{}
	for _, e := range v2Endpoints {
		t[e.op] = listOp(func(ctx context.Context, p Params) ([]Record, error) {
			return c.list(ctx, e, p)
		})
	}

	byKey := func(op, key string, fn func(context.Context, string) (Record, error)) {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			v := a.str(key)
			if err := a.err(); err != nil {
				return nil, err
			}
			return fn(ctx, v)
		}
	}
	byKey("get_account_by_id", "id", c.GetAccountByID)
	byKey("get_account_by_name", "name", c.GetAccountByName)
	byKey("get_group_by_id", "id", c.GetGroupByID)
	byKey("get_group_by_name", "name", c.GetGroupByName)
	byKey("get_router_by_id", "id", c.GetRouterByID)
	byKey("get_router_by_name", "name", c.GetRouterByName)
	byKey("get_product_by_id", "id", c.GetProductByID)
	byKey("get_product_by_name", "name", c.GetProductByName)
	byKey("get_speed_test", "id", c.GetSpeedTest)
	byKey("get_configuration_manager", "router_id", c.GetConfigurationManager)

	records := func(op, key string, fn func(context.Context, string) ([]Record, error)) {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			v := a.str(key)
			if err := a.err(); err != nil {
				return nil, err
			}
			return fn(ctx, v)
		}
	}
	records("get_router_alerts_last_24hrs", "router_id", c.GetRouterAlertsLast24)
	records("get_router_logs_last_24hrs", "router_id", c.GetRouterLogsLast24)

	forDate := func(op string, fn func(context.Context, string, time.Time) ([]Record, error)) {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			id, date := a.str("router_id"), a.date("date")
			if err := a.err(); err != nil {
				return nil, err
			}
			return fn(ctx, id, date)
		}
	}
	forDate("get_router_alerts_for_date", c.GetRouterAlertsForDate)
	forDate("get_router_logs_for_date", c.GetRouterLogsForDate)
	forDate("get_historical_locations_for_date", c.GetHistoricalLocationsForDate)

	t["get_configuration_manager_id"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("get_configuration_manager_id", p)
		id := a.str("router_id")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.GetConfigurationManagerID(ctx, id)
	}
	t["get_firmware_for_product_id_by_version"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("get_firmware_for_product_id_by_version", p)
		pid, version := a.str("product_id"), a.str("firmware_name")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.GetFirmwareForProductIDByVersion(ctx, pid, version)
	}
	t["get_firmware_for_product_name_by_version"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("get_firmware_for_product_name_by_version", p)
		name, version := a.str("product_name"), a.str("firmware_name")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.GetFirmwareForProductNameByVersion(ctx, name, version)
	}

	// single argument writes
	one := func(op, key string, fn func(context.Context, string) (*Outcome, error)) {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			v := a.str(key)
			if err := a.err(); err != nil {
				return nil, err
			}
			return fn(ctx, v)
		}
	}
	one("delete_subaccount_by_id", "id", c.DeleteSubaccountByID)
	one("delete_subaccount_by_name", "name", c.DeleteSubaccountByName)
	one("delete_group_by_id", "id", c.DeleteGroupByID)
	one("delete_group_by_name", "name", c.DeleteGroupByName)
	one("delete_router_by_id", "id", c.DeleteRouterByID)
	one("delete_router_by_name", "name", c.DeleteRouterByName)
	one("remove_router_from_group", "router_id", c.RemoveRouterFromGroup)
	one("remove_router_from_group_by_name", "router_name", c.RemoveRouterFromGroupByName)
	one("delete_location_for_router", "router_id", c.DeleteLocationForRouter)
	one("reboot_device", "router_id", c.RebootDevice)
	one("reboot_group", "group_id", c.RebootGroup)
	one("resume_updates_for_router", "router_id", c.ResumeUpdatesForRouter)

	// two argument writes
	two := func(op, k1, k2 string, fn func(context.Context, string, string) (*Outcome, error)) {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			v1, v2 := a.str(k1), a.str(k2)
			if err := a.err(); err != nil {
				return nil, err
			}
			return fn(ctx, v1, v2)
		}
	}
	two("create_subaccount_by_parent_id", "parent_account_id", "subaccount_name", c.CreateSubaccountByParentID)
	two("create_subaccount_by_parent_name", "parent_account_name", "subaccount_name", c.CreateSubaccountByParentName)
	two("rename_subaccount_by_id", "id", "new_name", c.RenameSubaccountByID)
	two("rename_subaccount_by_name", "name", "new_name", c.RenameSubaccountByName)
	two("rename_group_by_id", "id", "new_name", c.RenameGroupByID)
	two("rename_group_by_name", "name", "new_name", c.RenameGroupByName)
	two("rename_router_by_id", "id", "new_name", c.RenameRouterByID)
	two("rename_router_by_name", "name", "new_name", c.RenameRouterByName)
	two("assign_router_to_group", "router_id", "group_id", c.AssignRouterToGroup)
	two("assign_router_to_account", "router_id", "account_id", c.AssignRouterToAccount)
	two("set_router_description", "router_id", "description", c.SetRouterDescription)
	two("set_router_asset_id", "router_id", "asset_id", c.SetRouterAssetID)
	two("set_custom1", "router_id", "value", c.SetCustom1)
	two("set_custom2", "router_id", "value", c.SetCustom2)
	two("set_admin_password", "router_id", "new_password", c.SetAdminPassword)
	two("set_custom_apn", "router_id", "new_apn", c.SetCustomAPN)
	two("copy_router_configuration", "src_router_id", "dst_router_id", c.CopyRouterConfiguration)

	t["set_router_fields"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("set_router_fields", p)
		id, fields := a.str("router_id"), a.rest("router_id")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.SetRouterFields(ctx, id, fields)
	}
	t["set_lan_ip_address"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("set_lan_ip_address", p)
		id, ip := a.str("router_id"), a.str("lan_ip")
		netmask, network := a.opt("netmask", ""), a.opt("network_id", "0")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.SetLANIPAddress(ctx, id, ip, netmask, network)
	}
	t["set_ethernet_wan_ip"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("set_ethernet_wan_ip", p)
		id, ip := a.str("router_id"), a.str("new_wan_ip")
		netmask, gateway := a.opt("new_netmask", ""), a.opt("new_gateway", "")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.SetEthernetWANIP(ctx, id, ip, netmask, gateway)
	}
	t["set_ncm_api_keys"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("set_ncm_api_keys", p)
		ids := a.list("router_ids")
		creds := ParseCredentials(map[string]string{
			HeaderCPAPIID:   a.opt(HeaderCPAPIID, ""),
			HeaderCPAPIKey:  a.opt(HeaderCPAPIKey, ""),
			HeaderECMAPIID:  a.opt(HeaderECMAPIID, ""),
			HeaderECMAPIKey: a.opt(HeaderECMAPIKey, ""),
			TokenKey:        a.opt(TokenKey, ""),
		})
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.SetNCMAPIKeys(ctx, ids, creds)
	}
	t["patch_configuration_managers"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("patch_configuration_managers", p)
		id, body := a.str("router_id"), a.object("config_man_json")
		if body == nil {
			a.bad = append(a.bad, "config_man_json")
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.PatchConfigurationManager(ctx, id, body)
	}
	t["put_configuration_managers"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("put_configuration_managers", p)
		id, body := a.str("config_man_id"), a.object("config_man_json")
		if body == nil {
			a.bad = append(a.bad, "config_man_json")
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.UpdateConfigurationManager(ctx, id, body)
	}
	t["create_group_by_parent_id"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_group_by_parent_id", p)
		parent, spec := a.str("parent_account_id"), groupSpecArgs(a)
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateGroupByParentID(ctx, parent, spec)
	}
	t["create_group_by_parent_name"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_group_by_parent_name", p)
		parent, spec := a.str("parent_account_name"), groupSpecArgs(a)
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateGroupByParentName(ctx, parent, spec)
	}
	t["create_location"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_location", p)
		spec := LocationSpec{AccountID: a.str("account_id"), RouterID: a.str("router_id")}
		spec.Latitude = floatArg(a, "latitude")
		spec.Longitude = floatArg(a, "longitude")
		spec.Accuracy = intArg(a, "accuracy")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateLocation(ctx, spec)
	}
	t["create_speed_test"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_speed_test", p)
		spec := SpeedTestSpec{
			AccountID:    a.str("account_id"),
			NetDeviceIDs: a.list("net_device_ids"),
			Host:         a.opt("host", ""),
			TestType:     a.opt("test_type", ""),
		}
		spec.Port = intArg(a, "port")
		spec.Time = intArg(a, "time")
		spec.TestTimeout = intArg(a, "test_timeout")
		spec.MaxTestConcurrency = intArg(a, "max_test_concurrency")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateSpeedTest(ctx, spec)
	}
	return t
}

func groupSpecArgs(a *args) GroupSpec {
	return GroupSpec{
		Name:            a.str("group_name"),
		ProductName:     a.str("product_name"),
		FirmwareVersion: a.str("firmware_version"),
	}
}

// intArg reads an optional integer; zero means unset.
func intArg(a *args, key string) int {
	raw := a.opt(key, "")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		a.bad = append(a.bad, key)
	}
	return n
}

// floatArg reads a required float.
func floatArg(a *args, key string) float64 {
	raw := a.str(key)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		a.bad = append(a.bad, key)
	}
	return f
}
