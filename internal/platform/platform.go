// Package platform describes the external gameserver-style backend the
// application delegates to: versioned key-value storage, groups, accounts and
// a named RPC namespace. Two implementations exist: nakama (live REST client)
// and fixture (in-memory stand-in), chosen when the process is wired up.
package platform

import (
	"context"
	"encoding/json"
)

// Storage is the versioned object store addressed by (collection, key).
type Storage interface {
	ListObjects(ctx context.Context, collection string, limit int, cursor string) (*ObjectList, error)
	WriteObjects(ctx context.Context, objects []WriteObject) ([]Ack, error)
	DeleteObjects(ctx context.Context, ids []ObjectID) error
}

// Groups covers group discovery and membership.
type Groups interface {
	ListGroups(ctx context.Context, name string, limit int, cursor string) (*GroupList, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (*Group, error)
	JoinGroup(ctx context.Context, groupID string) error
	UserGroups(ctx context.Context, userID string) (*UserGroupList, error)
	GroupUsers(ctx context.Context, groupID string, limit int, state *int, cursor string) (*GroupUserList, error)
	// GetGroup reads a single group through the console API.
	GetGroup(ctx context.Context, groupID string) (*Group, error)
}

// Accounts covers session issuance and the caller's own profile.
type Accounts interface {
	Account(ctx context.Context) (*Account, error)
	AuthenticateCustom(ctx context.Context, id, username string, create bool) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, token, refreshToken string) error
}

// RPC invokes a server-side function by name. The result is the function's
// JSON output regardless of whether the call was made unwrapped.
type RPC interface {
	RPC(ctx context.Context, id string, payload json.RawMessage, unwrap bool) (json.RawMessage, error)
}

// Platform is everything the application needs from the backend.
type Platform interface {
	Storage
	Groups
	Accounts
	RPC
}
