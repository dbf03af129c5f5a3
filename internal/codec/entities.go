package codec

import (
	"strconv"
	"time"
)

// TodoItem is one entry of a todo list. Its key in storage is the decimal id.
type TodoItem struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Meta      *Meta  `json:"-"`
}

func (t *TodoItem) SetMeta(m Meta) { t.Meta = &m }

// Key is the storage key of the item.
func (t TodoItem) Key() string { return strconv.FormatInt(t.ID, 10) }

// NewTodoID derives an item id from the creation time in milliseconds.
func NewTodoID(now time.Time) int64 {
	return now.UnixMilli()
}

// TodoStats summarizes a list.
type TodoStats struct {
	Total     int
	Completed int
	Remaining int
}

func StatsOf(items []TodoItem) TodoStats {
	s := TodoStats{Total: len(items)}
	for _, it := range items {
		if it.Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	return s
}

// TodoTitle names one todo list; the list's items live in a collection of
// the same name.
type TodoTitle struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreateTime time.Time `json:"createTime,omitzero"`
	Meta       *Meta     `json:"-"`
}

func (t *TodoTitle) SetMeta(m Meta) { t.Meta = &m }

// GroupPost is a board post inside a group.
type GroupPost struct {
	ID            string    `json:"id"`
	GroupID       string    `json:"group_id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AttachmentKey string    `json:"attachment_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
	CommentCount  int       `json:"comment_count"`
	LikeCount     int       `json:"like_count"`
	Meta          *Meta     `json:"-"`
}

func (p *GroupPost) SetMeta(m Meta) { p.Meta = &m }

// PostComment is a comment on a GroupPost.
type PostComment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
	Meta       *Meta     `json:"-"`
}

func (c *PostComment) SetMeta(m Meta) { c.Meta = &m }
