package ncm

import "context"

// CreateSubaccountByParentID creates a subaccount under the parent account.
func (c *V2Client) CreateSubaccountByParentID(ctx context.Context, parentID, name string) (*Outcome, error) {
	body := map[string]any{
		"account": resourceURL("accounts", parentID),
		"name":    name,
	}
	return c.post(ctx, "accounts/", "Create Subaccount", body)
}

// CreateSubaccountByParentName resolves the parent account by name first.
func (c *V2Client) CreateSubaccountByParentName(ctx context.Context, parentName, name string) (*Outcome, error) {
	parent, err := c.GetAccountByName(ctx, parentName)
	if err != nil {
		return nil, err
	}
	return c.CreateSubaccountByParentID(ctx, parent.ID(), name)
}

// RenameSubaccountByID renames an account.
func (c *V2Client) RenameSubaccountByID(ctx context.Context, id, newName string) (*Outcome, error) {
	return c.put(ctx, "accounts/"+id+"/", "Rename Subaccount", map[string]any{"name": newName})
}

// RenameSubaccountByName renames the first account named name.
func (c *V2Client) RenameSubaccountByName(ctx context.Context, name, newName string) (*Outcome, error) {
	account, err := c.GetAccountByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.RenameSubaccountByID(ctx, account.ID(), newName)
}

// DeleteSubaccountByID deletes an account.
func (c *V2Client) DeleteSubaccountByID(ctx context.Context, id string) (*Outcome, error) {
	return c.delete(ctx, "accounts/"+id+"/", "Delete Subaccount")
}

// DeleteSubaccountByName deletes the first account named name.
func (c *V2Client) DeleteSubaccountByName(ctx context.Context, name string) (*Outcome, error) {
	account, err := c.GetAccountByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.DeleteSubaccountByID(ctx, account.ID())
}

// GroupSpec describes a configuration group to create.
type GroupSpec struct {
	Name            string
	ProductName     string
	FirmwareVersion string
}

// CreateGroupByParentID creates a group in the parent account, resolving
// the product and its firmware build.
func (c *V2Client) CreateGroupByParentID(ctx context.Context, parentID string, spec GroupSpec) (*Outcome, error) {
	product, err := c.GetProductByName(ctx, spec.ProductName)
	if err != nil {
		return nil, err
	}
	firmware, err := c.GetFirmwareForProductIDByVersion(ctx, product.ID(), spec.FirmwareVersion)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"account":         resourceURL("accounts", parentID),
		"name":            spec.Name,
		"product":         resourceURL("products", product.ID()),
		"target_firmware": resourceURL("firmwares", firmware.ID()),
	}
	return c.post(ctx, "groups/", "Create Group", body)
}

// CreateGroupByParentName resolves the parent account by name first.
func (c *V2Client) CreateGroupByParentName(ctx context.Context, parentName string, spec GroupSpec) (*Outcome, error) {
	parent, err := c.GetAccountByName(ctx, parentName)
	if err != nil {
		return nil, err
	}
	return c.CreateGroupByParentID(ctx, parent.ID(), spec)
}

// RenameGroupByID renames a group.
func (c *V2Client) RenameGroupByID(ctx context.Context, id, newName string) (*Outcome, error) {
	return c.put(ctx, "groups/"+id+"/", "Rename Group", map[string]any{"name": newName})
}

// RenameGroupByName renames the first group named name.
func (c *V2Client) RenameGroupByName(ctx context.Context, name, newName string) (*Outcome, error) {
	group, err := c.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.RenameGroupByID(ctx, group.ID(), newName)
}

// DeleteGroupByID deletes a group.
func (c *V2Client) DeleteGroupByID(ctx context.Context, id string) (*Outcome, error) {
	return c.delete(ctx, "groups/"+id+"/", "Delete Group")
}

// DeleteGroupByName deletes the first group named name.
func (c *V2Client) DeleteGroupByName(ctx context.Context, name string) (*Outcome, error) {
	group, err := c.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.DeleteGroupByID(ctx, group.ID())
}
