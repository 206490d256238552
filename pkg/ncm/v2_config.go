package ncm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Well-known certificate names NCM reads API keys from on the router.
var ncmKeyCertNames = []string{HeaderCPAPIID, HeaderCPAPIKey, HeaderECMAPIID, HeaderECMAPIKey}

const bearerTokenCertName = "Bearer Token"

// GetConfigurationManagerID resolves the configuration manager of a router.
// A missing router is terminal for the calling operation.
func (c *V2Client) GetConfigurationManagerID(ctx context.Context, routerID string) (string, error) {
	records, err := c.GetConfigurationManagers(ctx, Params{"router.id": routerID, "fields": "id", "limit": 1})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", &NotFoundError{Resource: "configuration manager", Field: "router id", Value: routerID}
	}
	return records[0].ID(), nil
}

// GetConfigurationManager returns the configuration manager of a router,
// including its configuration tree.
func (c *V2Client) GetConfigurationManager(ctx context.Context, routerID string) (Record, error) {
	records, err := c.GetConfigurationManagers(ctx, Params{"router.id": routerID, "limit": 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "configuration manager", Field: "router id", Value: routerID}
	}
	return records[0], nil
}

// UpdateConfigurationManager replaces fields of a configuration manager.
func (c *V2Client) UpdateConfigurationManager(ctx context.Context, configManagerID string, body map[string]any) (*Outcome, error) {
	return c.put(ctx, "configuration_managers/"+configManagerID+"/", "Update Configuration Manager", body)
}

// PatchConfigurationManager merges body into the configuration of the
// router's configuration manager.
func (c *V2Client) PatchConfigurationManager(ctx context.Context, routerID string, body map[string]any) (*Outcome, error) {
	id, err := c.GetConfigurationManagerID(ctx, routerID)
	if err != nil {
		return nil, err
	}
	return c.patch(ctx, "configuration_managers/"+id+"/", "Patch Configuration Manager", body)
}

// patchConfig sends {"configuration": [updates, []]}; the empty list is
// the removals slot of the patch envelope.
func (c *V2Client) patchConfig(ctx context.Context, routerID, label string, updates map[string]any) (*Outcome, error) {
	id, err := c.GetConfigurationManagerID(ctx, routerID)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"configuration": []any{updates, []any{}}}
	return c.patch(ctx, "configuration_managers/"+id+"/", label, body)
}

// CopyRouterConfiguration applies the pending configuration of one router
// to another.
func (c *V2Client) CopyRouterConfiguration(ctx context.Context, srcRouterID, dstRouterID string) (*Outcome, error) {
	records, err := c.GetConfigurationManagers(ctx, Params{"router.id": srcRouterID, "fields": "configuration", "limit": 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "configuration manager", Field: "router id", Value: srcRouterID}
	}
	id, err := c.GetConfigurationManagerID(ctx, dstRouterID)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"configuration": records[0]["configuration"]}
	return c.patch(ctx, "configuration_managers/"+id+"/", "Copy Configuration", body)
}

// ResumeUpdatesForRouter resumes configuration sync for a suspended router.
func (c *V2Client) ResumeUpdatesForRouter(ctx context.Context, routerID string) (*Outcome, error) {
	id, err := c.GetConfigurationManagerID(ctx, routerID)
	if err != nil {
		return nil, err
	}
	return c.UpdateConfigurationManager(ctx, id, map[string]any{"suspended": false})
}

// SetLANIPAddress sets the address of a LAN network. networkID defaults
// to "0", the primary LAN.
func (c *V2Client) SetLANIPAddress(ctx context.Context, routerID, ip, netmask, networkID string) (*Outcome, error) {
	if networkID == "" {
		networkID = "0"
	}
	lan := map[string]any{"ip_address": ip}
	if netmask != "" {
		lan["netmask"] = netmask
	}
	return c.patchConfig(ctx, routerID, "Set LAN IP Address", map[string]any{
		"lan": map[string]any{networkID: lan},
	})
}

// SetAdminPassword sets the password of the primary admin user.
func (c *V2Client) SetAdminPassword(ctx context.Context, routerID, password string) (*Outcome, error) {
	if password == "" {
		return nil, &ValidationError{Op: "set_admin_password", Reason: "password is empty"}
	}
	return c.patchConfig(ctx, routerID, "Set Admin Password", map[string]any{
		"system": map[string]any{
			"users": map[string]any{
				"0": map[string]any{"password": password},
			},
		},
	})
}

// SetEthernetWANIP overrides the address of the first Ethernet WAN rule.
func (c *V2Client) SetEthernetWANIP(ctx context.Context, routerID, ip, netmask, gateway string) (*Outcome, error) {
	override := map[string]any{"ip_address": ip}
	if netmask != "" {
		override["netmask"] = netmask
	}
	if gateway != "" {
		override["gateway"] = gateway
	}
	return c.patchConfig(ctx, routerID, "Set Ethernet WAN IP", map[string]any{
		"wan": map[string]any{
			"rules2": map[string]any{
				"0": map[string]any{"ip_override": override},
			},
		},
	})
}

// SetCustomAPN sets the first custom APN of the router.
func (c *V2Client) SetCustomAPN(ctx context.Context, routerID, apn string) (*Outcome, error) {
	return c.patchConfig(ctx, routerID, "Set Custom APN", map[string]any{
		"wan": map[string]any{
			"custom_apns": map[string]any{
				"0": map[string]any{"apn": apn},
			},
		},
	})
}

// certID derives a stable certificate key from its name so repeated
// provisioning overwrites the same entries.
func certID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("ncm-api-key/"+name)).String()
}

// apiKeyCerts builds the certmgmt.certs tree holding the credentials.
func apiKeyCerts(creds Credentials) map[string]any {
	values := map[string]string{
		HeaderCPAPIID:   creds.CPAPIID,
		HeaderCPAPIKey:  creds.CPAPIKey,
		HeaderECMAPIID:  creds.ECMAPIID,
		HeaderECMAPIKey: creds.ECMAPIKey,
	}
	certs := map[string]any{}
	for _, name := range ncmKeyCertNames {
		if values[name] == "" {
			continue
		}
		id := certID(name)
		certs[id] = map[string]any{"_id_": id, "name": name, "key": values[name]}
	}
	if creds.Token != "" {
		id := certID(bearerTokenCertName)
		certs[id] = map[string]any{"_id_": id, "name": bearerTokenCertName, "key": creds.Token}
	}
	return certs
}

// SetNCMAPIKeys provisions API credentials on routers as certificates so
// router SDK apps can call NCM. Every router is attempted; failures are
// joined.
func (c *V2Client) SetNCMAPIKeys(ctx context.Context, routerIDs []string, creds Credentials) ([]*Outcome, error) {
	if !creds.Any() && creds.Token == "" {
		return nil, &ValidationError{Op: "set_ncm_api_keys", Reason: "no credentials to provision"}
	}
	if len(routerIDs) == 0 {
		return nil, &ValidationError{Op: "set_ncm_api_keys", Reason: "no router ids"}
	}
	updates := map[string]any{
		"certmgmt": map[string]any{"certs": apiKeyCerts(creds)},
	}
	var (
		outcomes []*Outcome
		errs     []error
	)
	for _, id := range routerIDs {
		out, err := c.patchConfig(ctx, id, "Set NCM API Keys", updates)
		if err != nil {
			errs = append(errs, fmt.Errorf("router %s: %w", id, err))
			continue
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, errors.Join(errs...)
}
