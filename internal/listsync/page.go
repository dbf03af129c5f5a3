package listsync

import "github.com/dmitrijs2005/todoboard/internal/platform"

// Page is one slice of a cursor-paged list. Cursor is the id of the last item
// when the page was full and empty when the list ended.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
}

// Paginate returns up to limit items following the item whose id is cursor.
// An unknown or empty cursor starts from the beginning.
func Paginate[T any](items []T, cursor string, limit int, idOf func(T) string) Page[T] {
	start := 0
	if cursor != "" {
		for i, it := range items {
			if idOf(it) == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = len(items)
	}
	end := min(start+limit, len(items))

	page := Page[T]{Items: append(make([]T, 0, end-start), items[start:end]...)}
	if len(page.Items) == limit && len(page.Items) > 0 {
		page.Cursor = idOf(page.Items[len(page.Items)-1])
	}
	return page
}

// GroupMembership is a group annotated with whether the caller belongs to it.
type GroupMembership struct {
	platform.Group
	IsMember bool `json:"is_member"`
}

// GroupsWithMembership overlays the caller's memberships onto the full group
// list. It is always rebuilt from both reads rather than patched.
func GroupsWithMembership(all []platform.Group, mine []platform.UserGroup) []GroupMembership {
	out := make([]GroupMembership, 0, len(all))
	for _, g := range all {
		out = append(out, GroupMembership{Group: g, IsMember: platform.IsMember(mine, g.ID)})
	}
	return out
}
