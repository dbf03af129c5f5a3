package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Role struct {
	RoleName    string    `json:"role_name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreateTime  time.Time `json:"create_time"`
}

type roleRequest struct {
	RoleName    string   `json:"role_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Permission  string   `json:"permission,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
}

func (c *Client) rbac(ctx context.Context, endpoint string, req roleRequest, out any) error {
	raw, err := c.RPC(ctx, endpoint, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", endpoint, err)
	}
	return nil
}

func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out struct {
		Roles []Role `json:"roles"`
	}
	if err := c.rbac(ctx, "rbac_list_roles", roleRequest{}, &out); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

func (c *Client) CreateRole(ctx context.Context, name, description string, permissions []string) (*Role, error) {
	var out struct {
		Role Role `json:"role"`
	}
	req := roleRequest{RoleName: name, Description: description, Permissions: permissions}
	if err := c.rbac(ctx, "rbac_create_role", req, &out); err != nil {
		return nil, err
	}
	return &out.Role, nil
}

func (c *Client) DeleteRole(ctx context.Context, name string) error {
	return c.rbac(ctx, "rbac_delete_role", roleRequest{RoleName: name}, nil)
}

// SetPermission adds or removes one permission of a role.
func (c *Client) SetPermission(ctx context.Context, role, permission string, grant bool) error {
	endpoint := "rbac_remove_permission"
	if grant {
		endpoint = "rbac_assign_permission"
	}
	return c.rbac(ctx, endpoint, roleRequest{RoleName: role, Permission: permission}, nil)
}

// SetRole assigns role to or removes it from a user.
func (c *Client) SetRole(ctx context.Context, userID, role string, grant bool) error {
	endpoint := "rbac_remove_role"
	if grant {
		endpoint = "rbac_assign_role"
	}
	return c.rbac(ctx, endpoint, roleRequest{RoleName: role, UserID: userID}, nil)
}
