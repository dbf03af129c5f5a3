package fixture

import (
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/google/uuid"
)

// sortedGroups must be called with b.mu held.
func (b *Backend) sortedGroups() []*group {
	out := make([]*group, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime.Equal(out[j].CreateTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreateTime.Before(out[j].CreateTime)
	})
	return out
}

func (b *Backend) listGroups(name string, limit int, cursor string) (*platform.GroupList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prefix := strings.ToLower(strings.TrimSuffix(name, "%"))
	matched := make([]platform.Group, 0)
	for _, g := range b.sortedGroups() {
		if prefix == "" || strings.HasPrefix(strings.ToLower(g.Name), prefix) {
			matched = append(matched, g.Group)
		}
	}
	page, next, err := offsetPage(len(matched), limit, cursor)
	if err != nil {
		return nil, err
	}
	return &platform.GroupList{Groups: matched[page.start:page.end], Cursor: next}, nil
}

func (b *Backend) createGroup(uid string, req platform.CreateGroupRequest) (*platform.Group, error) {
	req = platform.NormalizeCreateGroup(req)
	if strings.TrimSpace(req.Name) == "" {
		return nil, badRequest("Group name must be set.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, g := range b.groups {
		if strings.EqualFold(g.Name, req.Name) {
			return nil, &httpx.APIError{Status: http.StatusConflict, Message: "Group name is in use."}
		}
	}

	now := b.now().UTC()
	g := &group{
		Group: platform.Group{
			ID:          uuid.NewString(),
			CreatorID:   uid,
			Name:        req.Name,
			Description: req.Description,
			LangTag:     req.LangTag,
			Open:        *req.Open,
			EdgeCount:   1,
			MaxCount:    req.MaxCount,
			CreateTime:  now,
			UpdateTime:  now,
		},
		members: map[string]int{uid: platform.StateSuperAdmin},
	}
	b.groups[g.ID] = g
	out := g.Group
	return &out, nil
}

func (b *Backend) joinGroup(uid, groupID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, ok := b.groups[groupID]
	if !ok {
		return notFound("Group not found.")
	}
	if _, member := g.members[uid]; member {
		return nil
	}
	if !g.Open {
		g.members[uid] = platform.StateInvited
		return nil
	}
	if g.EdgeCount >= g.MaxCount {
		return badRequest("Group is full.")
	}
	g.members[uid] = platform.StateMember
	g.EdgeCount++
	g.UpdateTime = b.now().UTC()
	return nil
}

func (b *Backend) userGroups(uid string) (*platform.UserGroupList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[uid]; !ok {
		return nil, notFound("User not found.")
	}
	out := &platform.UserGroupList{UserGroups: make([]platform.UserGroup, 0)}
	for _, g := range b.sortedGroups() {
		if state, ok := g.members[uid]; ok {
			out.UserGroups = append(out.UserGroups, platform.UserGroup{Group: g.Group, State: state})
		}
	}
	return out, nil
}

func (b *Backend) groupUsers(groupID string, limit int, state *int, cursor string) (*platform.GroupUserList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, ok := b.groups[groupID]
	if !ok {
		return nil, notFound("Group not found.")
	}
	users := make([]platform.GroupUser, 0, len(g.members))
	for uid, s := range g.members {
		if state != nil && *state != s {
			continue
		}
		acc, ok := b.accounts[uid]
		if !ok {
			continue
		}
		users = append(users, platform.GroupUser{User: acc.User, State: s})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].State != users[j].State {
			return users[i].State < users[j].State
		}
		return users[i].User.Username < users[j].User.Username
	})

	page, next, err := offsetPage(len(users), limit, cursor)
	if err != nil {
		return nil, err
	}
	return &platform.GroupUserList{GroupUsers: users[page.start:page.end], Cursor: next}, nil
}

func (b *Backend) getGroup(groupID string) (*platform.Group, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[groupID]
	if !ok {
		return nil, notFound("Group not found.")
	}
	out := g.Group
	return &out, nil
}
