package board

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
)

// MemoryRepository keeps the board in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	posts    map[string]codec.GroupPost
	comments map[string]codec.PostComment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		posts:    make(map[string]codec.GroupPost),
		comments: make(map[string]codec.PostComment),
	}
}

func postNotFound(id string) error {
	return fmt.Errorf("%w: post %s", common.ErrorNotFound, id)
}

func (r *MemoryRepository) CreatePost(_ context.Context, post *codec.GroupPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; ok {
		return fmt.Errorf("%w: post %s already exists", common.ErrorValidation, post.ID)
	}
	r.posts[post.ID] = *post
	return nil
}

func (r *MemoryRepository) GetPost(_ context.Context, id string) (*codec.GroupPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, postNotFound(id)
	}
	return &p, nil
}

func (r *MemoryRepository) ListPosts(_ context.Context, groupID, cursor string, limit int) (listsync.Page[codec.GroupPost], error) {
	r.mu.RLock()
	list := make([]codec.GroupPost, 0)
	for _, p := range r.posts {
		if p.GroupID == groupID {
			list = append(list, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return listsync.Paginate(list, cursor, limit, func(p codec.GroupPost) string { return p.ID }), nil
}

func (r *MemoryRepository) UpdatePost(_ context.Context, post *codec.GroupPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok {
		return postNotFound(post.ID)
	}
	// Counters belong to the stored row; only the editable fields change.
	stored.Title = post.Title
	stored.Content = post.Content
	stored.AttachmentKey = post.AttachmentKey
	stored.UpdatedAt = post.UpdatedAt
	r.posts[post.ID] = stored
	*post = stored
	return nil
}

func (r *MemoryRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return postNotFound(id)
	}
	delete(r.posts, id)
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

func (r *MemoryRepository) CreateComment(_ context.Context, comment *codec.PostComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[comment.PostID]
	if !ok {
		return postNotFound(comment.PostID)
	}
	p.CommentCount++
	r.posts[p.ID] = p
	r.comments[comment.ID] = *comment
	return nil
}

func (r *MemoryRepository) ListComments(_ context.Context, postID, cursor string, limit int) (listsync.Page[codec.PostComment], error) {
	r.mu.RLock()
	list := make([]codec.PostComment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			list = append(list, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return listsync.Paginate(list, cursor, limit, func(c codec.PostComment) string { return c.ID }), nil
}
