package ncm

import (
	"context"
	"net/http"
	"strings"
)

// UserSpec describes a user to invite.
type UserSpec struct {
	Email     string
	FirstName string
	LastName  string
	IsActive  bool
}

// CreateUser invites a user into the tenant.
func (c *V3Client) CreateUser(ctx context.Context, spec UserSpec) (*Outcome, error) {
	if spec.Email == "" {
		return nil, &ValidationError{Op: "create_user", Reason: "email is required"}
	}
	return c.create(ctx, v3Users, Resource{
		Type: v3Users.resourceType,
		Attributes: map[string]any{
			"email":      spec.Email,
			"first_name": spec.FirstName,
			"last_name":  spec.LastName,
			"is_active":  spec.IsActive,
		},
	}, "Create User")
}

// userIDByEmail resolves a user id.
func (c *V3Client) userIDByEmail(ctx context.Context, email string) (string, error) {
	users, err := c.GetUsers(ctx, Params{"email": email, "limit": 1})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", &NotFoundError{Resource: "user", Field: "email", Value: email}
	}
	return users[0].ID(), nil
}

// UpdateUser changes the attributes of the user with the given email.
func (c *V3Client) UpdateUser(ctx context.Context, email string, changes map[string]any) (Record, error) {
	id, err := c.userIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return c.update(ctx, v3Users, id, changes, "Update User")
}

// DeleteUser removes the user with the given email.
func (c *V3Client) DeleteUser(ctx context.Context, email string) (*Outcome, error) {
	id, err := c.userIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return c.remove(ctx, v3Users, id, "Delete User")
}

// Regrade actions.
const (
	RegradeUpgrade   = "UPGRADE"
	RegradeDowngrade = "DOWNGRADE"
)

// RegradeSpec applies or removes a subscription on devices identified by
// MAC address.
type RegradeSpec struct {
	SubscriptionID string
	MACs           []string
	// Action defaults to RegradeUpgrade.
	Action string
}

// NormalizeMAC strips colons from a colon formatted MAC address. Any other
// identifier is returned unchanged.
func NormalizeMAC(mac string) string {
	if len(mac) == 17 {
		return strings.ReplaceAll(mac, ":", "")
	}
	return mac
}

// regradeBatch builds one atomic operation per MAC address.
func regradeBatch(spec RegradeSpec) AtomicBatch {
	action := spec.Action
	if action == "" {
		action = RegradeUpgrade
	}
	batch := AtomicBatch{Operations: make([]AtomicOperation, 0, len(spec.MACs))}
	for _, mac := range spec.MACs {
		batch.Operations = append(batch.Operations, AtomicOperation{
			Op: "add",
			Data: Resource{
				Type: v3Regrades.resourceType,
				Attributes: map[string]any{
					"action":          action,
					"subscription_id": spec.SubscriptionID,
					"mac_address":     NormalizeMAC(mac),
				},
			},
		})
	}
	return batch
}

// Regrade submits the regrade of every MAC as one atomic batch.
func (c *V3Client) Regrade(ctx context.Context, spec RegradeSpec) (*Outcome, error) {
	if spec.SubscriptionID == "" || len(spec.MACs) == 0 {
		return nil, &ValidationError{Op: "regrade", Reason: "subscription id and at least one MAC address are required"}
	}
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.s.send(ctx, request{
		method:      http.MethodPost,
		path:        v3Regrades.path,
		body:        regradeBatch(spec),
		contentType: contentTypeAtomic,
	}, "Regrade")
}
