package ncm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// V3Client is the facade over the token-authenticated JSON:API v3 API.
type V3Client struct {
	s   *session
	ops opTable

	mu    sync.RWMutex
	token string
}

// NewV3Client creates a v3 facade. With an empty token calls fail with
// ErrMissingCredentials before any request is sent.
func NewV3Client(token string, opts ...Option) *V3Client {
	return newV3Client(token, buildOptions(opts))
}

func newV3Client(token string, o options) *V3Client {
	c := &V3Client{
		s: newSession(apiV3, resolveBaseURL(o.v3BaseURL, EnvV3BaseURL, DefaultV3BaseURL), o),
	}
	c.SetToken(token)
	c.ops = c.operationTable()
	return c
}

// SetToken replaces the bearer token. Requests already in flight keep the
// token they started with.
func (c *V3Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.s.setHeaders(map[string]string{
		headerAuthorization: "Bearer " + token,
		headerContentType:   contentTypeJSONAPI,
		headerAccept:        contentTypeJSONAPI,
	})
}

// BaseURL returns the endpoint the client talks to.
func (c *V3Client) BaseURL() string {
	return c.s.baseURL
}

// Close releases idle connections.
func (c *V3Client) Close() {
	c.s.close()
}

func (c *V3Client) ready() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return fmt.Errorf("%w: v3 bearer token not set", ErrMissingCredentials)
	}
	return nil
}

// Do runs the named operation.
func (c *V3Client) Do(ctx context.Context, op string, p Params) (any, error) {
	return c.ops.do(ctx, op, p)
}

// Supports reports whether op is a v3 operation.
func (c *V3Client) Supports(op string) bool {
	return c.ops.supports(op)
}

// Operations lists the v3 operation names.
func (c *V3Client) Operations() []string {
	return c.ops.names()
}

func (c *V3Client) list(ctx context.Context, e v3Endpoint, p Params) ([]Record, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if err := checkAllowedV3(e, p); err != nil {
		return nil, err
	}
	q, plan, err := v3Translator{resourceType: e.resourceType}.translate(p)
	if err != nil {
		return nil, err
	}
	return c.s.paginateV3(ctx, e.path, e.label, q, plan)
}

// get returns one resource object.
func (c *V3Client) get(ctx context.Context, e v3Endpoint, id string) (Record, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.s.getRecord(ctx, e.path+"/"+id, e.label, nil)
}

func (c *V3Client) write(ctx context.Context, method, path, label string, body any) (*Outcome, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.s.send(ctx, request{method: method, path: path, body: body}, label)
}

// create posts a new resource document.
func (c *V3Client) create(ctx context.Context, e v3Endpoint, res Resource, label string) (*Outcome, error) {
	return c.write(ctx, http.MethodPost, e.path, label, Document{Data: res})
}

// update reads the resource, merges changes into its attributes and puts
// the whole resource back. It returns the document that was sent, so a
// call without changes returns the current resource in its envelope.
// Concurrent writers can overwrite each other.
func (c *V3Client) update(ctx context.Context, e v3Endpoint, id string, changes map[string]any, label string) (Record, error) {
	return c.updateWith(ctx, e, id, label, func(attrs map[string]any) error {
		for k, v := range changes {
			attrs[k] = v
		}
		return nil
	})
}

// updateWith is update with a custom merge step. A merge error aborts the
// write.
func (c *V3Client) updateWith(ctx context.Context, e v3Endpoint, id, label string, merge func(attrs map[string]any) error) (Record, error) {
	current, err := c.get(ctx, e, id)
	if err != nil {
		return nil, err
	}
	attrs := current.Attributes()
	if attrs == nil {
		attrs = map[string]any{}
	}
	if err := merge(attrs); err != nil {
		return nil, err
	}
	current["attributes"] = attrs
	doc := Record{"data": current}
	if _, err := c.write(ctx, http.MethodPut, e.path+"/"+id, label, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *V3Client) remove(ctx context.Context, e v3Endpoint, id, label string) (*Outcome, error) {
	return c.write(ctx, http.MethodDelete, e.path+"/"+id, label, nil)
}

// GetUsers lists users.
func (c *V3Client) GetUsers(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3Users, p)
}

// GetAssetEndpoints lists asset endpoints (licensable devices).
func (c *V3Client) GetAssetEndpoints(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3AssetEndpoints, p)
}

// GetSubscriptions lists subscriptions.
func (c *V3Client) GetSubscriptions(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3Subscriptions, p)
}

// GetRegrades lists regrade jobs.
func (c *V3Client) GetRegrades(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3Regrades, p)
}

// GetPrivateCellularNetworks lists private cellular networks.
func (c *V3Client) GetPrivateCellularNetworks(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularNetworks, p)
}

// GetPrivateCellularNetwork returns one private cellular network.
func (c *V3Client) GetPrivateCellularNetwork(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, v3PrivateCellularNetworks, id)
}

// GetPrivateCellularCores lists private cellular cores.
func (c *V3Client) GetPrivateCellularCores(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularCores, p)
}

// GetPrivateCellularRadios lists private cellular radios.
func (c *V3Client) GetPrivateCellularRadios(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularRadios, p)
}

// GetPrivateCellularRadioGroups lists radio groups.
func (c *V3Client) GetPrivateCellularRadioGroups(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularRadioGroups, p)
}

// GetPrivateCellularSIMs lists private cellular SIMs.
func (c *V3Client) GetPrivateCellularSIMs(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularSIMs, p)
}

// GetPrivateCellularRadioStatuses lists radio statuses.
func (c *V3Client) GetPrivateCellularRadioStatuses(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PrivateCellularRadioStatuses, p)
}

// GetPublicSIMMgmtAssets lists public SIM management assets.
func (c *V3Client) GetPublicSIMMgmtAssets(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PublicSIMMgmtAssets, p)
}

// GetPublicSIMMgmtRatePlans lists public SIM management rate plans.
func (c *V3Client) GetPublicSIMMgmtRatePlans(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3PublicSIMMgmtRatePlans, p)
}

// GetAccountAuthorizations lists account authorizations.
func (c *V3Client) GetAccountAuthorizations(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3AccountAuthorizations, p)
}

// GetRoles lists roles.
func (c *V3Client) GetRoles(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3Roles, p)
}

// GetExchangeResources lists NCX exchange resources.
func (c *V3Client) GetExchangeResources(ctx context.Context, p Params) ([]Record, error) {
	return c.list(ctx, v3ExchangeResources, p)
}
