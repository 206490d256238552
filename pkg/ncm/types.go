package ncm

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Params carries the keyword arguments of an operation: filters, paging
// and field selection. Values may be scalars, slices or time.Time.
type Params map[string]any

// Record is one resource representation as returned by NCM.
type Record map[string]any

// ID returns the "id" member formatted as a string, or "" when absent.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

// String returns the string member key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Attributes returns the JSON:API attributes map of a v3 resource.
func (r Record) Attributes() map[string]any {
	attrs, _ := r["attributes"].(map[string]any)
	return attrs
}

// Credentials combines both credential generations. Any subset may be set.
type Credentials struct {
	APIKeys `yaml:",inline"`
	Token   string `yaml:"token" json:"token,omitempty"`
}

// APIKeys is the v2 key bundle.
type APIKeys struct {
	CPAPIID   string `yaml:"cpApiId" json:"X-CP-API-ID,omitempty"`
	CPAPIKey  string `yaml:"cpApiKey" json:"X-CP-API-KEY,omitempty"`
	ECMAPIID  string `yaml:"ecmApiId" json:"X-ECM-API-ID,omitempty"`
	ECMAPIKey string `yaml:"ecmApiKey" json:"X-ECM-API-KEY,omitempty"`
}

// v2 API key header names.
const (
	HeaderCPAPIID   = "X-CP-API-ID"
	HeaderCPAPIKey  = "X-CP-API-KEY"
	HeaderECMAPIID  = "X-ECM-API-ID"
	HeaderECMAPIKey = "X-ECM-API-KEY"

	// TokenKey is the reserved key holding the v3 bearer token in a
	// combined credential payload.
	TokenKey = "token"
)

// Any reports whether at least one v2 key is set.
func (k APIKeys) Any() bool {
	return k.CPAPIID != "" || k.CPAPIKey != "" || k.ECMAPIID != "" || k.ECMAPIKey != ""
}

// Complete reports whether all four v2 keys are set.
func (k APIKeys) Complete() bool {
	return k.CPAPIID != "" && k.CPAPIKey != "" && k.ECMAPIID != "" && k.ECMAPIKey != ""
}

// headers maps the bundle to the request headers NCM expects.
func (k APIKeys) headers() map[string]string {
	return map[string]string{
		HeaderCPAPIID:   k.CPAPIID,
		HeaderCPAPIKey:  k.CPAPIKey,
		HeaderECMAPIID:  k.ECMAPIID,
		HeaderECMAPIKey: k.ECMAPIKey,
	}
}

// ParseCredentials reads a combined credential payload keyed by the v2
// header names plus the reserved "token" key. Unknown keys are ignored.
func ParseCredentials(payload map[string]string) Credentials {
	return Credentials{
		APIKeys: APIKeys{
			CPAPIID:   payload[HeaderCPAPIID],
			CPAPIKey:  payload[HeaderCPAPIKey],
			ECMAPIID:  payload[HeaderECMAPIID],
			ECMAPIKey: payload[HeaderECMAPIKey],
		},
		Token: payload[TokenKey],
	}
}

// ResourceIdentifier is a JSON:API {type, id} pair.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship is a JSON:API relationship object. Data holds either a
// single ResourceIdentifier or a slice of them.
type Relationship struct {
	Data any `json:"data"`
}

// ToOne builds a single-valued relationship.
func ToOne(resourceType, id string) Relationship {
	return Relationship{Data: ResourceIdentifier{Type: resourceType, ID: id}}
}

// ToMany builds a list-valued relationship.
func ToMany(resourceType string, ids ...string) Relationship {
	data := make([]ResourceIdentifier, 0, len(ids))
	for _, id := range ids {
		data = append(data, ResourceIdentifier{Type: resourceType, ID: id})
	}
	return Relationship{Data: data}
}

// Resource is an outgoing JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// Document is the JSON:API top-level envelope for writes.
type Document struct {
	Data Resource `json:"data"`
}

// AtomicOperation is one entry of an atomic operations batch.
type AtomicOperation struct {
	Op   string   `json:"op"`
	Data Resource `json:"data"`
}

// AtomicBatch is submitted as one request; the server applies all
// operations or none.
type AtomicBatch struct {
	Operations []AtomicOperation `json:"atomic:operations"`
}

// decodeParams maps Params onto a typed spec through its json tags.
func decodeParams(p Params, target any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
