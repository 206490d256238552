package ncm

import (
	"context"
	"strconv"
)

// operationTable maps v3 operation names to facade methods.
func (c *V3Client) operationTable() opTable {
	t := opTable{}
	for _, e := range v3Endpoints {
		t[e.op] = listOp(func(ctx context.Context, p Params) ([]Record, error) {
			return c.list(ctx, e, p)
		})
	}
	t[v3ExchangeSites.op] = listOp(c.GetExchangeSites)

	t["get_private_cellular_network"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("get_private_cellular_network", p)
		id := a.str("network_id")
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.GetPrivateCellularNetwork(ctx, id)
	}

	// read-modify-write updates take the id plus attribute changes
	updates := map[string]struct {
		key string
		fn  func(context.Context, string, map[string]any) (Record, error)
	}{
		"update_user":                         {"email", c.UpdateUser},
		"update_private_cellular_network":     {"network_id", c.UpdatePrivateCellularNetwork},
		"update_private_cellular_radio":       {"radio_id", c.UpdatePrivateCellularRadio},
		"update_private_cellular_sim":         {"sim_id", c.UpdatePrivateCellularSIM},
		"update_private_cellular_radio_group": {"group_id", c.UpdatePrivateCellularRadioGroup},
		"update_exchange_site":                {"site_id", c.UpdateExchangeSite},
		"update_exchange_resource":            {"resource_id", c.UpdateExchangeResource},
	}
	for op, u := range updates {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			id, changes := a.str(u.key), a.rest(u.key)
			if err := a.err(); err != nil {
				return nil, err
			}
			return u.fn(ctx, id, changes)
		}
	}

	deletes := map[string]struct {
		key string
		fn  func(context.Context, string) (*Outcome, error)
	}{
		"delete_user":                         {"email", c.DeleteUser},
		"delete_private_cellular_network":     {"network_id", c.DeletePrivateCellularNetwork},
		"delete_private_cellular_radio_group": {"group_id", c.DeletePrivateCellularRadioGroup},
		"delete_exchange_site":                {"site_id", c.DeleteExchangeSite},
		"delete_exchange_resource":            {"resource_id", c.DeleteExchangeResource},
	}
	for op, d := range deletes {
		t[op] = func(ctx context.Context, p Params) (any, error) {
			a := newArgs(op, p)
			id := a.str(d.key)
			if err := a.err(); err != nil {
				return nil, err
			}
			return d.fn(ctx, id)
		}
	}

	t["create_user"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_user", p)
		spec := UserSpec{
			Email:     a.str("email"),
			FirstName: a.opt("first_name", ""),
			LastName:  a.opt("last_name", ""),
			IsActive:  boolArg(a, "is_active", true),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateUser(ctx, spec)
	}
	t["regrade"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("regrade", p)
		spec := RegradeSpec{
			SubscriptionID: a.str("subscription_id"),
			MACs:           a.list("mac"),
			Action:         a.opt("action", RegradeUpgrade),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.Regrade(ctx, spec)
	}
	t["create_private_cellular_network"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_private_cellular_network", p)
		spec := PrivateCellularNetworkSpec{
			Name:                     a.str("name"),
			CoreIP:                   a.opt("core_ip", ""),
			HAEnabled:                boolArg(a, "ha_enabled", false),
			MobilityGatewayVirtualIP: a.opt("mobility_gateway_virtual_ip", ""),
			MobilityGatewayIDs:       a.optList("mobility_gateways"),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreatePrivateCellularNetwork(ctx, spec)
	}
	t["create_private_cellular_radio_group"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_private_cellular_radio_group", p)
		spec := RadioGroupSpec{
			Name:          a.str("name"),
			NetworkID:     a.str("network_id"),
			Configuration: a.object("configuration"),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreatePrivateCellularRadioGroup(ctx, spec)
	}
	t["create_exchange_site"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_exchange_site", p)
		spec := ExchangeSiteSpec{
			Name:              a.str("name"),
			ExchangeNetworkID: a.str("exchange_network_id"),
			RouterID:          a.str("router_id"),
			PrimaryDNS:        a.opt("primary_dns", ""),
			SecondaryDNS:      a.opt("secondary_dns", ""),
			LANAsDNS:          boolArg(a, "lan_as_dns", false),
			LocalDomain:       a.opt("local_domain", ""),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateExchangeSite(ctx, spec)
	}
	t["create_exchange_resource"] = func(ctx context.Context, p Params) (any, error) {
		a := newArgs("create_exchange_resource", p)
		spec := ExchangeResourceSpec{
			SiteID:       a.str("site_id"),
			Name:         a.str("name"),
			ResourceType: a.str("resource_type"),
			Protocols:    a.optList("protocols"),
			Tags:         a.optList("tags"),
			Domain:       a.opt("domain", ""),
			IP:           a.opt("ip", ""),
			PortRanges:   a.raw("port_ranges"),
		}
		if err := a.err(); err != nil {
			return nil, err
		}
		return c.CreateExchangeResource(ctx, spec)
	}
	return t
}

// boolArg reads an optional boolean.
func boolArg(a *args, key string, fallback bool) bool {
	raw := a.opt(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		a.bad = append(a.bad, key)
	}
	return b
}
