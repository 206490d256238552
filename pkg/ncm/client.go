package ncm

import (
	"context"
	"sort"
	"sync"
)

// Client is the single entry point over both API generations. It exposes
// v2 when any v2 key is supplied and v3 when a token is supplied; with
// neither it holds an uncredentialed v2 facade whose calls fail with
// ErrMissingCredentials.
type Client struct {
	opts options

	mu sync.RWMutex
	v2 *V2Client
	v3 *V3Client
}

// New builds the facades the credentials allow.
func New(creds Credentials, opts ...Option) *Client {
	o := buildOptions(opts)
	c := &Client{opts: o}
	if creds.APIKeys.Any() {
		c.v2 = newV2Client(creds.APIKeys, o)
	}
	if creds.Token != "" {
		c.v3 = newV3Client(creds.Token, o)
	}
	if c.v2 == nil && c.v3 == nil {
		c.v2 = newV2Client(APIKeys{}, o)
	}
	return c
}

// NewFromMap builds a client from a combined credential payload keyed by
// the v2 header names and the reserved "token" key.
func NewFromMap(payload map[string]string, opts ...Option) *Client {
	return New(ParseCredentials(payload), opts...)
}

// V2 returns the v2 facade.
func (c *Client) V2() (*V2Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.v2 == nil {
		return nil, ErrVersionUnavailable
	}
	return c.v2, nil
}

// V3 returns the v3 facade.
func (c *Client) V3() (*V3Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.v3 == nil {
		return nil, ErrVersionUnavailable
	}
	return c.v3, nil
}

// operators returns the configured facades, v3 first.
func (c *Client) operators() []Operator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ops []Operator
	if c.v3 != nil {
		ops = append(ops, c.v3)
	}
	if c.v2 != nil {
		ops = append(ops, c.v2)
	}
	return ops
}

// Do resolves op on v3 first and v2 second. An operation neither facade
// knows yields the same *MethodNotSupportedError a bare facade returns.
func (c *Client) Do(ctx context.Context, op string, p Params) (any, error) {
	for _, o := range c.operators() {
		if o.Supports(op) {
			return o.Do(ctx, op, p)
		}
	}
	return nil, &MethodNotSupportedError{Method: op}
}

// Supports reports whether a configured facade implements op.
func (c *Client) Supports(op string) bool {
	for _, o := range c.operators() {
		if o.Supports(op) {
			return true
		}
	}
	return false
}

// Operations lists every operation reachable through the client.
func (c *Client) Operations() []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range c.operators() {
		for _, name := range o.Operations() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SetAPIKeys rotates the v2 keys, creating the v2 facade if needed.
func (c *Client) SetAPIKeys(keys APIKeys) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v2 != nil {
		c.v2.SetAPIKeys(keys)
		return
	}
	c.v2 = newV2Client(keys, c.opts)
}

// SetToken rotates the v3 token, creating the v3 facade if needed.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v3 != nil {
		c.v3.SetToken(token)
		return
	}
	c.v3 = newV3Client(token, c.opts)
}

// Close releases idle connections of both facades.
func (c *Client) Close() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.v2 != nil {
		c.v2.Close()
	}
	if c.v3 != nil {
		c.v3.Close()
	}
}
