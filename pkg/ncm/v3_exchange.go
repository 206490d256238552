package ncm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Exchange resource types.
const (
	ExchangeFQDNResource         = "exchange_fqdn_resources"
	ExchangeWildcardFQDNResource = "exchange_wildcard_fqdn_resources"
	ExchangeIPSubnetResource     = "exchange_ipsubnet_resources"
	ExchangeHTTPResource         = "exchange_http_resources"
	ExchangeHTTPSResource        = "exchange_https_resources"
)

// exchangeResourceTypes maps accepted spellings to the wire type.
var exchangeResourceTypes = map[string]string{
	ExchangeFQDNResource:         ExchangeFQDNResource,
	ExchangeWildcardFQDNResource: ExchangeWildcardFQDNResource,
	ExchangeIPSubnetResource:     ExchangeIPSubnetResource,
	ExchangeHTTPResource:         ExchangeHTTPResource,
	ExchangeHTTPSResource:        ExchangeHTTPSResource,
	"fqdn":                       ExchangeFQDNResource,
	"wildcard_fqdn":              ExchangeWildcardFQDNResource,
	"ipsubnet":                   ExchangeIPSubnetResource,
	"http":                       ExchangeHTTPResource,
	"https":                      ExchangeHTTPSResource,
}

// ExchangeSiteSpec describes an NCX site: a router joining an exchange
// network.
type ExchangeSiteSpec struct {
	Name              string
	ExchangeNetworkID string
	RouterID          string
	PrimaryDNS        string
	SecondaryDNS      string
	LANAsDNS          bool
	LocalDomain       string
}

// GetExchangeSites lists NCX sites. When filtered by name or exchange
// network and nothing matches, a *NotFoundError is returned instead of an
// empty list.
func (c *V3Client) GetExchangeSites(ctx context.Context, p Params) ([]Record, error) {
	sites, err := c.list(ctx, v3ExchangeSites, p)
	if err != nil {
		return nil, err
	}
	if len(sites) > 0 {
		return sites, nil
	}
	for _, field := range []string{"name", "exchange_network"} {
		if v, ok := p[field]; ok {
			return nil, &NotFoundError{Resource: "site", Field: strings.ReplaceAll(field, "_", " "), Value: formatValue(v)}
		}
	}
	return sites, nil
}

// CreateExchangeSite creates a site linking a router to an exchange
// network.
func (c *V3Client) CreateExchangeSite(ctx context.Context, spec ExchangeSiteSpec) (*Outcome, error) {
	if spec.Name == "" || spec.ExchangeNetworkID == "" || spec.RouterID == "" {
		return nil, &ValidationError{Op: "create_exchange_site", Reason: "name, exchange network id and router id are required"}
	}
	attrs := map[string]any{
		"name":       spec.Name,
		"lan_as_dns": spec.LANAsDNS,
	}
	if spec.PrimaryDNS != "" {
		attrs["primary_dns"] = spec.PrimaryDNS
	}
	if spec.SecondaryDNS != "" {
		attrs["secondary_dns"] = spec.SecondaryDNS
	}
	if spec.LocalDomain != "" {
		attrs["local_domain"] = spec.LocalDomain
	}
	return c.create(ctx, v3ExchangeSites, Resource{
		Type:       v3ExchangeSites.resourceType,
		Attributes: attrs,
		Relationships: map[string]Relationship{
			"exchange_network": ToOne("exchange_networks", spec.ExchangeNetworkID),
			"endpoint":         ToOne("routers", spec.RouterID),
		},
	}, "Create Exchange Site")
}

// UpdateExchangeSite merges changes into the site attributes.
func (c *V3Client) UpdateExchangeSite(ctx context.Context, id string, changes map[string]any) (Record, error) {
	return c.update(ctx, v3ExchangeSites, id, changes, "Update Exchange Site")
}

// DeleteExchangeSite deletes a site.
func (c *V3Client) DeleteExchangeSite(ctx context.Context, id string) (*Outcome, error) {
	return c.remove(ctx, v3ExchangeSites, id, "Delete Exchange Site")
}

// PortRange is an inclusive port interval.
type PortRange struct {
	LowerLimit int `json:"lower_limit"`
	UpperLimit int `json:"upper_limit"`
}

// NormalizePortRanges accepts a port, a "low-high" string, a PortRange,
// a {lower_limit, upper_limit} object or a list of any of these.
func NormalizePortRanges(input any) ([]PortRange, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case []PortRange:
		for _, r := range v {
			if err := r.validate(); err != nil {
				return nil, err
			}
		}
		return v, nil
	case []any:
		return normalizeEach(v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return normalizeEach(items)
	case []int:
		items := make([]any, len(v))
		for i, n := range v {
			items[i] = n
		}
		return normalizeEach(items)
	}
	r, err := parsePortRange(input)
	if err != nil {
		return nil, err
	}
	return []PortRange{r}, nil
}

func normalizeEach(items []any) ([]PortRange, error) {
	out := make([]PortRange, 0, len(items))
	for _, item := range items {
		r, err := parsePortRange(item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parsePortRange(v any) (PortRange, error) {
	var r PortRange
	switch val := v.(type) {
	case int:
		r = PortRange{val, val}
	case float64:
		r = PortRange{int(val), int(val)}
	case PortRange:
		r = val
	case map[string]any:
		lo, err1 := parsePort(formatValue(val["lower_limit"]))
		hi, err2 := parsePort(formatValue(val["upper_limit"]))
		if err1 != nil || err2 != nil {
			return r, fmt.Errorf("invalid port range %v", val)
		}
		r = PortRange{lo, hi}
	case string:
		lo, hi, isRange := strings.Cut(strings.TrimSpace(val), "-")
		low, err := parsePort(lo)
		if err != nil {
			return r, err
		}
		high := low
		if isRange {
			if high, err = parsePort(hi); err != nil {
				return r, err
			}
		}
		r = PortRange{low, high}
	default:
		return r, fmt.Errorf("unsupported port range type %T", v)
	}
	return r, r.validate()
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

func (r PortRange) validate() error {
	if r.LowerLimit < 1 || r.UpperLimit > 65535 || r.LowerLimit > r.UpperLimit {
		return fmt.Errorf("invalid port range %d-%d", r.LowerLimit, r.UpperLimit)
	}
	return nil
}

// checkPortProtocols rejects port ranges without protocols or with ICMP.
func checkPortProtocols(op string, protocols []string, ranges []PortRange) error {
	if len(ranges) == 0 {
		return nil
	}
	if len(protocols) == 0 {
		return &ValidationError{Op: op, Reason: "port ranges require protocols"}
	}
	for _, p := range protocols {
		if strings.EqualFold(p, "ICMP") {
			return &ValidationError{Op: op, Reason: "port ranges are not valid with ICMP"}
		}
	}
	return nil
}

// ExchangeResourceSpec describes a resource reachable through an NCX site.
type ExchangeResourceSpec struct {
	SiteID string
	Name   string
	// ResourceType is one of the Exchange*Resource constants, or its
	// short form ("fqdn", "wildcard_fqdn", "ipsubnet", "http", "https").
	ResourceType string
	Protocols    []string
	Tags         []string
	Domain       string
	IP           string
	PortRanges   any
}

// validate checks the type specific mandatory fields and returns the
// wire type and normalized port ranges.
func (s ExchangeResourceSpec) validate() (string, []PortRange, error) {
	const op = "create_exchange_resource"
	resourceType, ok := exchangeResourceTypes[s.ResourceType]
	if !ok {
		return "", nil, &ValidationError{Op: op, Reason: fmt.Sprintf("unknown resource type %q", s.ResourceType)}
	}
	if s.SiteID == "" || s.Name == "" {
		return "", nil, &ValidationError{Op: op, Reason: "site id and name are required"}
	}
	switch resourceType {
	case ExchangeIPSubnetResource:
		if s.IP == "" {
			return "", nil, &ValidationError{Op: op, Reason: "ip is required for " + resourceType}
		}
	case ExchangeWildcardFQDNResource:
		if !strings.HasPrefix(s.Domain, "*.") {
			return "", nil, &ValidationError{Op: op, Reason: fmt.Sprintf("wildcard domain %q must start with \"*.\"", s.Domain)}
		}
	default:
		if s.Domain == "" {
			return "", nil, &ValidationError{Op: op, Reason: "domain is required for " + resourceType}
		}
	}
	ranges, err := NormalizePortRanges(s.PortRanges)
	if err != nil {
		return "", nil, &ValidationError{Op: op, Reason: err.Error()}
	}
	if err := checkPortProtocols(op, s.Protocols, ranges); err != nil {
		return "", nil, err
	}
	return resourceType, ranges, nil
}

// CreateExchangeResource validates the spec and creates the resource
// under its site.
func (c *V3Client) CreateExchangeResource(ctx context.Context, spec ExchangeResourceSpec) (*Outcome, error) {
	resourceType, ranges, err := spec.validate()
	if err != nil {
		return nil, err
	}
	attrs := map[string]any{"name": spec.Name}
	if len(spec.Protocols) > 0 {
		attrs["protocols"] = spec.Protocols
	}
	if len(spec.Tags) > 0 {
		attrs["tags"] = spec.Tags
	}
	if spec.Domain != "" {
		attrs["domain"] = spec.Domain
	}
	if spec.IP != "" {
		attrs["ip"] = spec.IP
	}
	if len(ranges) > 0 {
		attrs["port_ranges"] = ranges
	}
	return c.create(ctx, v3ExchangeResources, Resource{
		Type:       resourceType,
		Attributes: attrs,
		Relationships: map[string]Relationship{
			"exchange_site": ToOne(v3ExchangeSites.resourceType, spec.SiteID),
		},
	}, "Create Exchange Resource")
}

// UpdateExchangeResource merges changes into the resource attributes.
// Port ranges in changes are normalized and checked against the merged
// protocols.
func (c *V3Client) UpdateExchangeResource(ctx context.Context, id string, changes map[string]any) (Record, error) {
	const op = "update_exchange_resource"
	return c.updateWith(ctx, v3ExchangeResources, id, "Update Exchange Resource", func(attrs map[string]any) error {
		for k, v := range changes {
			attrs[k] = v
		}
		_, rangesChanged := changes["port_ranges"]
		_, protocolsChanged := changes["protocols"]
		if !rangesChanged && !protocolsChanged {
			return nil
		}
		ranges, err := NormalizePortRanges(attrs["port_ranges"])
		if err != nil {
			return &ValidationError{Op: op, Reason: err.Error()}
		}
		if err := checkPortProtocols(op, splitValues(attrs["protocols"]), ranges); err != nil {
			return err
		}
		if ranges != nil {
			attrs["port_ranges"] = ranges
		}
		return nil
	})
}

// DeleteExchangeResource deletes a resource.
func (c *V3Client) DeleteExchangeResource(ctx context.Context, id string) (*Outcome, error) {
	return c.remove(ctx, v3ExchangeResources, id, "Delete Exchange Resource")
}
