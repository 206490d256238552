package ncm

import "strings"

// v3Endpoint describes one JSON:API collection.
type v3Endpoint struct {
	op           string
	path         string
	resourceType string
	label        string
	fields       []string
}

var commonV3 = []string{"fields", "limit", "search", "sort"}

// checkAllowedV3 accepts the common keys, known fields with or without an
// operator suffix, and keys already in wire form.
func checkAllowedV3(e v3Endpoint, p Params) error {
	allowed := append([]string(nil), commonV3...)
	allowed = append(allowed, e.fields...)
	for _, f := range e.fields {
		for op := range v3Operators {
			allowed = append(allowed, f+"__"+op)
		}
	}
	filtered := Params{}
	for k, v := range p {
		if strings.Contains(k, "[") {
			continue
		}
		filtered[k] = v
	}
	return checkAllowed(e.op, filtered, allowed)
}

var (
	v3Users = v3Endpoint{"get_users", "beta/users", "users", "users",
		[]string{"id", "email", "first_name", "last_name", "is_active", "last_login", "pending_email"}}
	v3AssetEndpoints = v3Endpoint{"get_asset_endpoints", "asset_endpoints", "asset_endpoints", "asset endpoints",
		[]string{"id", "hardware_series", "hardware_series_key", "mac_address", "serial_number"}}
	v3Subscriptions = v3Endpoint{"get_subscriptions", "subscriptions", "subscriptions", "subscriptions",
		[]string{"id", "end_time", "licenses", "name", "quantity", "start_time", "tenant", "type"}}
	v3Regrades = v3Endpoint{"get_regrades", "asset_endpoints/regrades", "regrades", "regrades",
		[]string{"id", "action", "created_at", "error_code", "mac_address", "status", "subscription_id"}}
	v3PrivateCellularNetworks = v3Endpoint{"get_private_cellular_networks", "beta/private_cellular_networks", "private_cellular_networks", "private cellular networks",
		[]string{"id", "core_ip", "created_at", "ha_enabled", "mobility_gateway_virtual_ip", "name", "segw_ip", "status", "tac", "updated_at"}}
	v3PrivateCellularCores = v3Endpoint{"get_private_cellular_cores", "beta/private_cellular_cores", "private_cellular_cores", "private cellular cores",
		[]string{"id", "created_at", "management_ip", "name", "network", "status", "updated_at", "url"}}
	v3PrivateCellularRadios = v3Endpoint{"get_private_cellular_radios", "beta/private_cellular_radios", "private_cellular_radios", "private cellular radios",
		[]string{"id", "admin_state", "bandwidth", "created_at", "fccid", "height", "latitude", "longitude", "mac", "name", "network", "serial_number", "tdd_mode", "tx_power", "type", "updated_at"}}
	v3PrivateCellularRadioGroups = v3Endpoint{"get_private_cellular_radio_groups", "beta/private_cellular_radio_groups", "private_cellular_radio_groups", "private cellular radio groups",
		[]string{"id", "created_at", "name", "network", "updated_at"}}
	v3PrivateCellularSIMs = v3Endpoint{"get_private_cellular_sims", "beta/private_cellular_sims", "private_cellular_sims", "private cellular sims",
		[]string{"id", "created_at", "iccid", "imsi", "last_contact_at", "name", "network", "state", "state_updated_at", "updated_at"}}
	v3PrivateCellularRadioStatuses = v3Endpoint{"get_private_cellular_radio_statuses", "beta/private_cellular_radio_statuses", "private_cellular_radio_statuses", "private cellular radio statuses",
		[]string{"id", "admin_state", "boot_time", "cbrs_sas_status", "cell", "ethernet_status", "ipv4_address", "mac", "online_status", "operational_status", "updated_at"}}
	v3PublicSIMMgmtAssets = v3Endpoint{"get_public_sim_mgmt_assets", "beta/public_sim_mgmt_assets", "public_sim_mgmt_assets", "public sim management assets",
		[]string{"id", "carrier", "device_status", "iccid", "imsi", "is_licensed", "last_contact_at", "name"}}
	v3PublicSIMMgmtRatePlans = v3Endpoint{"get_public_sim_mgmt_rate_plans", "beta/public_sim_mgmt_rate_plans", "public_sim_mgmt_rate_plans", "public sim management rate plans",
		[]string{"id", "carrier", "name", "status"}}
	v3AccountAuthorizations = v3Endpoint{"get_account_authorizations", "beta/account_authorizations", "account_authorizations", "account authorizations",
		[]string{"id", "account_emails", "accounts", "active", "role", "user"}}
	v3Roles = v3Endpoint{"get_roles", "beta/roles", "roles", "roles",
		[]string{"id", "name"}}
	v3ExchangeSites = v3Endpoint{"get_exchange_sites", "beta/exchange_sites", "exchange_sites", "exchange sites",
		[]string{"id", "exchange_network", "name"}}
	v3ExchangeResources = v3Endpoint{"get_exchange_resources", "beta/exchange_resources", "exchange_resources", "exchange resources",
		[]string{"id", "domain", "exchange_network", "exchange_site", "ip", "name", "protocols", "tags"}}

	v3Endpoints = []v3Endpoint{
		v3Users, v3AssetEndpoints, v3Subscriptions, v3Regrades,
		v3PrivateCellularNetworks, v3PrivateCellularCores, v3PrivateCellularRadios,
		v3PrivateCellularRadioGroups, v3PrivateCellularSIMs, v3PrivateCellularRadioStatuses,
		v3PublicSIMMgmtAssets, v3PublicSIMMgmtRatePlans, v3AccountAuthorizations, v3Roles,
		v3ExchangeSites, v3ExchangeResources,
	}
)
