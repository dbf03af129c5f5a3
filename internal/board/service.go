package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/google/uuid"
)

const (
	DefaultPostLimit    = 10
	DefaultCommentLimit = 20

	// AnonymousName is shown for authors with neither a username nor a
	// display name.
	AnonymousName = "익명"
)

// Directory is what the board needs from the platform: who the caller is and
// which groups they belong to. Calls are made with the caller's credential.
type Directory interface {
	platform.Accounts
	platform.Groups
}

// PostInput carries the fields of a new post.
type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

// PostPatch carries the fields of a post update; empty fields keep their
// current value.
type PostPatch struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

type Service struct {
	repo Repository
	dir  Directory
	log  logging.Logger
	now  func() time.Time
}

func NewService(repo Repository, dir Directory, log logging.Logger) *Service {
	return &Service{repo: repo, dir: dir, log: log, now: time.Now}
}

type actor struct {
	id   string
	name string
}

// AuthorName picks the name shown on the caller's posts and comments.
func AuthorName(u platform.User) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.DisplayName != "":
		return u.DisplayName
	default:
		return AnonymousName
	}
}

func (s *Service) whoami(ctx context.Context) (actor, error) {
	acc, err := s.dir.Account(ctx)
	if err != nil {
		return actor{}, fmt.Errorf("resolve caller: %w", err)
	}
	return actor{id: acc.User.ID, name: AuthorName(acc.User)}, nil
}

func (s *Service) requireMember(ctx context.Context, a actor, groupID string) error {
	groups, err := s.dir.UserGroups(ctx, a.id)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !platform.IsMember(groups.UserGroups, groupID) {
		return fmt.Errorf("%w: not a member of group %s", common.ErrorForbidden, groupID)
	}
	return nil
}

// Authorize fails with common.ErrorForbidden unless the caller belongs to
// groupID.
func (s *Service) Authorize(ctx context.Context, groupID string) error {
	a, err := s.whoami(ctx)
	if err != nil {
		return err
	}
	return s.requireMember(ctx, a, groupID)
}

// accessPost loads a post and checks the caller may read it.
func (s *Service) accessPost(ctx context.Context, postID string) (actor, *codec.GroupPost, error) {
	a, err := s.whoami(ctx)
	if err != nil {
		return a, nil, err
	}
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return a, nil, err
	}
	if err := s.requireMember(ctx, a, post.GroupID); err != nil {
		return a, nil, err
	}
	return a, post, nil
}

func (s *Service) ListPosts(ctx context.Context, groupID, cursor string, limit int) (listsync.Page[codec.GroupPost], error) {
	a, err := s.whoami(ctx)
	if err != nil {
		return listsync.Page[codec.GroupPost]{}, err
	}
	if err := s.requireMember(ctx, a, groupID); err != nil {
		return listsync.Page[codec.GroupPost]{}, err
	}
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	return s.repo.ListPosts(ctx, groupID, cursor, limit)
}

func (s *Service) CreatePost(ctx context.Context, groupID string, in PostInput) (*codec.GroupPost, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", common.ErrorValidation)
	}
	a, err := s.whoami(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, a, groupID); err != nil {
		return nil, err
	}

	post := &codec.GroupPost{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		AuthorID:      a.id,
		AuthorName:    a.name,
		Title:         title,
		Content:       content,
		AttachmentKey: in.AttachmentKey,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "post created", "post_id", post.ID, "group_id", groupID)
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (*codec.GroupPost, error) {
	_, post, err := s.accessPost(ctx, postID)
	return post, err
}

func (s *Service) ownPost(ctx context.Context, postID string) (*codec.GroupPost, error) {
	a, err := s.whoami(ctx)
	if err != nil {
		return nil, err
	}
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != a.id {
		return nil, fmt.Errorf("%w: only the author may change post %s", common.ErrorForbidden, postID)
	}
	return post, nil
}

// UpdatePost lets the author change the title and/or content.
func (s *Service) UpdatePost(ctx context.Context, postID string, patch PostPatch) (*codec.GroupPost, error) {
	post, err := s.ownPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	title, content := strings.TrimSpace(patch.Title), strings.TrimSpace(patch.Content)
	if title == "" && content == "" {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}
	if title != "" {
		post.Title = title
	}
	if content != "" {
		post.Content = content
	}
	if patch.AttachmentKey != "" {
		post.AttachmentKey = patch.AttachmentKey
	}
	post.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, postID string) error {
	if _, err := s.ownPost(ctx, postID); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.log.Info(ctx, "post deleted", "post_id", postID)
	return nil
}

func (s *Service) ListComments(ctx context.Context, postID, cursor string, limit int) (listsync.Page[codec.PostComment], error) {
	if _, _, err := s.accessPost(ctx, postID); err != nil {
		return listsync.Page[codec.PostComment]{}, err
	}
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	return s.repo.ListComments(ctx, postID, cursor, limit)
}

func (s *Service) CreateComment(ctx context.Context, postID, content string) (*codec.PostComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}
	a, _, err := s.accessPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &codec.PostComment{
		ID:         uuid.NewString(),
		PostID:     postID,
		AuthorID:   a.id,
		AuthorName: a.name,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
