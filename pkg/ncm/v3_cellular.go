package ncm

import "context"

// PrivateCellularNetworkSpec describes a private cellular network.
type PrivateCellularNetworkSpec struct {
	Name                     string
	CoreIP                   string
	HAEnabled                bool
	MobilityGatewayVirtualIP string
	// MobilityGatewayIDs are endpoint ids of the routers acting as
	// mobility gateways.
	MobilityGatewayIDs []string
}

// CreatePrivateCellularNetwork creates a network with its mobility
// gateways.
func (c *V3Client) CreatePrivateCellularNetwork(ctx context.Context, spec PrivateCellularNetworkSpec) (*Outcome, error) {
	if spec.Name == "" {
		return nil, &ValidationError{Op: "create_private_cellular_network", Reason: "name is required"}
	}
	attrs := map[string]any{
		"name":       spec.Name,
		"ha_enabled": spec.HAEnabled,
	}
	if spec.CoreIP != "" {
		attrs["core_ip"] = spec.CoreIP
	}
	if spec.MobilityGatewayVirtualIP != "" {
		attrs["mobility_gateway_virtual_ip"] = spec.MobilityGatewayVirtualIP
	}
	res := Resource{Type: v3PrivateCellularNetworks.resourceType, Attributes: attrs}
	if len(spec.MobilityGatewayIDs) > 0 {
		res.Relationships = map[string]Relationship{
			"mobility_gateways": ToMany("endpoints", spec.MobilityGatewayIDs...),
		}
	}
	return c.create(ctx, v3PrivateCellularNetworks, res, "Create Private Cellular Network")
}

// UpdatePrivateCellularNetwork merges changes into the network attributes.
func (c *V3Client) UpdatePrivateCellularNetwork(ctx context.Context, id string, changes map[string]any) (Record, error) {
	return c.update(ctx, v3PrivateCellularNetworks, id, changes, "Update Private Cellular Network")
}

// DeletePrivateCellularNetwork deletes a network.
func (c *V3Client) DeletePrivateCellularNetwork(ctx context.Context, id string) (*Outcome, error) {
	return c.remove(ctx, v3PrivateCellularNetworks, id, "Delete Private Cellular Network")
}

// UpdatePrivateCellularRadio merges changes into the radio attributes.
func (c *V3Client) UpdatePrivateCellularRadio(ctx context.Context, id string, changes map[string]any) (Record, error) {
	return c.update(ctx, v3PrivateCellularRadios, id, changes, "Update Private Cellular Radio")
}

// UpdatePrivateCellularSIM merges changes into the SIM attributes.
func (c *V3Client) UpdatePrivateCellularSIM(ctx context.Context, id string, changes map[string]any) (Record, error) {
	return c.update(ctx, v3PrivateCellularSIMs, id, changes, "Update Private Cellular SIM")
}

// RadioGroupSpec describes a radio group inside a network.
type RadioGroupSpec struct {
	Name          string
	NetworkID     string
	Configuration map[string]any
}

// CreatePrivateCellularRadioGroup creates a radio group attached to a
// network.
func (c *V3Client) CreatePrivateCellularRadioGroup(ctx context.Context, spec RadioGroupSpec) (*Outcome, error) {
	if spec.Name == "" || spec.NetworkID == "" {
		return nil, &ValidationError{Op: "create_private_cellular_radio_group", Reason: "name and network id are required"}
	}
	attrs := map[string]any{"name": spec.Name}
	if spec.Configuration != nil {
		attrs["configuration"] = spec.Configuration
	}
	return c.create(ctx, v3PrivateCellularRadioGroups, Resource{
		Type:       v3PrivateCellularRadioGroups.resourceType,
		Attributes: attrs,
		Relationships: map[string]Relationship{
			"network": ToOne(v3PrivateCellularNetworks.resourceType, spec.NetworkID),
		},
	}, "Create Private Cellular Radio Group")
}

// UpdatePrivateCellularRadioGroup merges changes into the group attributes.
func (c *V3Client) UpdatePrivateCellularRadioGroup(ctx context.Context, id string, changes map[string]any) (Record, error) {
	return c.update(ctx, v3PrivateCellularRadioGroups, id, changes, "Update Private Cellular Radio Group")
}

// DeletePrivateCellularRadioGroup deletes a radio group.
func (c *V3Client) DeletePrivateCellularRadioGroup(ctx context.Context, id string) (*Outcome, error) {
	return c.remove(ctx, v3PrivateCellularRadioGroups, id, "Delete Private Cellular Radio Group")
}
