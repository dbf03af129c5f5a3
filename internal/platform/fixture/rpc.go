package fixture

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// RPCFunc is a server-side function callable by name. userID is the caller.
type RPCFunc func(ctx context.Context, userID string, payload json.RawMessage) (any, error)

// Role is an RBAC role managed by the rbac_* functions.
type Role struct {
	RoleName    string    `json:"role_name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreateTime  time.Time `json:"create_time"`
}

// RegisterRPC adds or replaces a named function.
func (b *Backend) RegisterRPC(id string, fn RPCFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rpcs[id] = fn
}

func (b *Backend) callRPC(ctx context.Context, uid, id string, payload json.RawMessage) (json.RawMessage, error) {
	b.mu.Lock()
	fn, ok := b.rpcs[id]
	b.mu.Unlock()
	if !ok {
		return nil, notFound("RPC function not found")
	}

	out, err := fn(ctx, uid, payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, &httpx.APIError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	return data, nil
}

func (b *Backend) registerBuiltins() {
	b.rpcs["create_todo"] = b.rpcWriteTodo("objects")
	b.rpcs["update_todo"] = b.rpcWriteTodo("todoItem")
	b.rpcs["delete_todo"] = b.rpcDeleteTodo
	b.rpcs["rbac_list_roles"] = b.rpcListRoles
	b.rpcs["rbac_create_role"] = b.rpcCreateRole
	b.rpcs["rbac_delete_role"] = b.rpcDeleteRole
	b.rpcs["rbac_assign_permission"] = b.rpcEditPermission(true)
	b.rpcs["rbac_remove_permission"] = b.rpcEditPermission(false)
	b.rpcs["rbac_assign_role"] = b.rpcEditGrant(true)
	b.rpcs["rbac_remove_role"] = b.rpcEditGrant(false)
}

type todoObject struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Version    string `json:"version"`
}

func decodePayload(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return badRequest("invalid payload: " + err.Error())
	}
	return nil
}

func (b *Backend) rpcWriteTodo(field string) RPCFunc {
	return func(_ context.Context, uid string, payload json.RawMessage) (any, error) {
		var in map[string]todoObject
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		obj, ok := in[field]
		if !ok {
			return nil, badRequest(field + " is required")
		}
		acks, err := b.writeObjects(uid, []platform.WriteObject{{
			Collection:      obj.Collection,
			Key:             obj.Key,
			Value:           obj.Value,
			Version:         obj.Version,
			PermissionRead:  common.PermissionPublicRead,
			PermissionWrite: common.PermissionOwnerWrite,
		}})
		if err != nil {
			return nil, err
		}
		return acks[0], nil
	}
}

func (b *Backend) rpcDeleteTodo(_ context.Context, uid string, payload json.RawMessage) (any, error) {
	var in struct {
		DeleteObject *platform.ObjectID `json:"deleteObject"`
	}
	if err := decodePayload(payload, &in); err != nil {
		return nil, err
	}
	if in.DeleteObject == nil {
		return nil, badRequest("deleteObject is required")
	}
	if err := b.deleteObjects(uid, []platform.ObjectID{*in.DeleteObject}); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

type roleRequest struct {
	RoleName    string   `json:"role_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Permission  string   `json:"permission"`
	UserID      string   `json:"user_id"`
}

func (b *Backend) rpcListRoles(context.Context, string, json.RawMessage) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	roles := make([]Role, 0, len(b.roles))
	for _, r := range b.roles {
		roles = append(roles, *r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].RoleName < roles[j].RoleName })
	return map[string]any{"roles": roles}, nil
}

func (b *Backend) rpcCreateRole(_ context.Context, _ string, payload json.RawMessage) (any, error) {
	var in roleRequest
	if err := decodePayload(payload, &in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.RoleName)
	if name == "" {
		return nil, badRequest("role_name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.roles[name]; exists {
		return nil, &httpx.APIError{Status: http.StatusConflict, Message: "role already exists"}
	}
	perms := in.Permissions
	if perms == nil {
		perms = []string{}
	}
	r := &Role{RoleName: name, Description: in.Description, Permissions: perms, CreateTime: b.now().UTC()}
	b.roles[name] = r
	return map[string]any{"success": true, "role": *r}, nil
}

func (b *Backend) rpcDeleteRole(_ context.Context, _ string, payload json.RawMessage) (any, error) {
	var in roleRequest
	if err := decodePayload(payload, &in); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.roles[in.RoleName]; !ok {
		return nil, notFound("role not found")
	}
	delete(b.roles, in.RoleName)
	for _, roles := range b.grants {
		delete(roles, in.RoleName)
	}
	return map[string]bool{"success": true}, nil
}

func (b *Backend) rpcEditPermission(add bool) RPCFunc {
	return func(_ context.Context, _ string, payload json.RawMessage) (any, error) {
		var in roleRequest
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		if in.Permission == "" {
			return nil, badRequest("permission is required")
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		r, ok := b.roles[in.RoleName]
		if !ok {
			return nil, notFound("role not found")
		}
		kept := make([]string, 0, len(r.Permissions)+1)
		for _, p := range r.Permissions {
			if p != in.Permission {
				kept = append(kept, p)
			}
		}
		if add {
			kept = append(kept, in.Permission)
		}
		r.Permissions = kept
		return map[string]any{"success": true, "role": *r}, nil
	}
}

func (b *Backend) rpcEditGrant(add bool) RPCFunc {
	return func(_ context.Context, _ string, payload json.RawMessage) (any, error) {
		var in roleRequest
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		if in.UserID == "" {
			return nil, badRequest("user_id is required")
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.roles[in.RoleName]; !ok {
			return nil, notFound("role not found")
		}
		if add {
			if b.grants[in.UserID] == nil {
				b.grants[in.UserID] = make(map[string]struct{})
			}
			b.grants[in.UserID][in.RoleName] = struct{}{}
		} else {
			delete(b.grants[in.UserID], in.RoleName)
		}
		return map[string]bool{"success": true}, nil
	}
}
