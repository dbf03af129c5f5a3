// Package board stores group posts and their comments and enforces who may
// read and change them.
package board

import (
	"context"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
)

// Repository persists posts and comments. Posts are listed newest first and
// comments oldest first; both page with the id of the last item as cursor.
type Repository interface {
	CreatePost(ctx context.Context, post *codec.GroupPost) error
	GetPost(ctx context.Context, id string) (*codec.GroupPost, error)
	ListPosts(ctx context.Context, groupID, cursor string, limit int) (listsync.Page[codec.GroupPost], error)
	UpdatePost(ctx context.Context, post *codec.GroupPost) error
	DeletePost(ctx context.Context, id string) error

	// CreateComment stores the comment and increments the parent post's
	// comment_count in the same step.
	CreateComment(ctx context.Context, comment *codec.PostComment) error
	ListComments(ctx context.Context, postID, cursor string, limit int) (listsync.Page[codec.PostComment], error)
}
