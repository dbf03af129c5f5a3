package platform

import "time"

// Group membership states.
const (
	StateSuperAdmin = 0
	StateMember     = 1
	StateAdmin      = 2
	StateInvited    = 3
)

// Object is the store's envelope around one stored value.
type Object struct {
	Collection      string    `json:"collection"`
	Key             string    `json:"key"`
	UserID          string    `json:"user_id,omitempty"`
	Value           string    `json:"value"`
	Version         string    `json:"version"`
	PermissionRead  int       `json:"permission_read"`
	PermissionWrite int       `json:"permission_write"`
	CreateTime      time.Time `json:"create_time,omitzero"`
	UpdateTime      time.Time `json:"update_time,omitzero"`
}

type ObjectList struct {
	Objects []Object `json:"objects"`
	Cursor  string   `json:"cursor,omitempty"`
}

// WriteObject is one element of a batch upsert.
type WriteObject struct {
	Collection      string `json:"collection"`
	Key             string `json:"key"`
	Value           string `json:"value"`
	Version         string `json:"version,omitempty"`
	PermissionRead  int    `json:"permission_read"`
	PermissionWrite int    `json:"permission_write"`
}

// Ack confirms one written object and carries its new version.
type Ack struct {
	Collection string    `json:"collection"`
	Key        string    `json:"key"`
	Version    string    `json:"version"`
	UserID     string    `json:"user_id,omitempty"`
	CreateTime time.Time `json:"create_time,omitzero"`
	UpdateTime time.Time `json:"update_time,omitzero"`
}

type ObjectID struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Version    string `json:"version,omitempty"`
}

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreateTime  time.Time `json:"create_time,omitzero"`
	UpdateTime  time.Time `json:"update_time,omitzero"`
}

type Account struct {
	User     User   `json:"user"`
	Email    string `json:"email,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
}

// Session is a platform token pair.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	Created      bool   `json:"created,omitempty"`
}

type Group struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LangTag     string    `json:"lang_tag,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Open        bool      `json:"open"`
	EdgeCount   int       `json:"edge_count"`
	MaxCount    int       `json:"max_count"`
	CreateTime  time.Time `json:"create_time,omitzero"`
	UpdateTime  time.Time `json:"update_time,omitzero"`
}

type GroupList struct {
	Groups []Group `json:"groups"`
	Cursor string  `json:"cursor,omitempty"`
}

type UserGroup struct {
	Group Group `json:"group"`
	State int   `json:"state"`
}

type UserGroupList struct {
	UserGroups []UserGroup `json:"user_groups"`
	Cursor     string      `json:"cursor,omitempty"`
}

type GroupUser struct {
	User  User `json:"user"`
	State int  `json:"state"`
}

type GroupUserList struct {
	GroupUsers []GroupUser `json:"group_users"`
	Cursor     string      `json:"cursor,omitempty"`
}

// CreateGroupRequest carries the fields of a new group. Zero values are
// replaced by NormalizeCreateGroup.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LangTag     string `json:"lang_tag"`
	Open        *bool  `json:"open,omitempty"`
	MaxCount    int    `json:"max_count"`
}

// NormalizeCreateGroup fills the defaults used when creating a group:
// lang_tag "ko", open, room for 100 members.
func NormalizeCreateGroup(req CreateGroupRequest) CreateGroupRequest {
	if req.LangTag == "" {
		req.LangTag = "ko"
	}
	if req.Open == nil {
		open := true
		req.Open = &open
	}
	if req.MaxCount <= 0 {
		req.MaxCount = 100
	}
	return req
}

// IsMember reports whether userGroups contains groupID in a joined state.
func IsMember(userGroups []UserGroup, groupID string) bool {
	for _, ug := range userGroups {
		if ug.Group.ID == groupID && ug.State != StateInvited {
			return true
		}
	}
	return false
}
