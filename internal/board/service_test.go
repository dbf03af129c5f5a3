package board

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/dmitrijs2005/todoboard/internal/platform/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boardEnv struct {
	svc     *Service
	backend *fixture.Backend
	alice   context.Context
	bob     context.Context
	groupID string
}

func login(t *testing.T, p *fixture.Platform, email, name string) context.Context {
	t.Helper()
	s, err := p.AuthenticateCustom(context.Background(), email, name, true)
	require.NoError(t, err)
	return httpx.WithCredential(context.Background(), s.Token)
}

func newBoardEnv(t *testing.T) *boardEnv {
	t.Helper()
	b := fixture.NewBackend()
	p := b.Platform(httpx.ContextCredential{})

	env := &boardEnv{backend: b}
	env.alice = login(t, p, "alice@example.com", "alice")
	env.bob = login(t, p, "bob@example.com", "bob")

	g, err := p.CreateGroup(env.alice, platform.CreateGroupRequest{Name: "team"})
	require.NoError(t, err)
	env.groupID = g.ID

	env.svc = NewService(NewMemoryRepository(), p, logging.Discard())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return env
}

func TestService_CommentCount(t *testing.T) {
	env := newBoardEnv(t)

	post, err := env.svc.CreatePost(env.alice, env.groupID, PostInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorName)
	assert.Equal(t, 0, post.CommentCount)

	_, err = env.svc.CreateComment(env.alice, post.ID, "first")
	require.NoError(t, err)
	_, err = env.svc.CreateComment(env.alice, post.ID, "second")
	require.NoError(t, err)

	got, err := env.svc.GetPost(env.alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)

	comments, err := env.svc.ListComments(env.alice, post.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, comments.Items, 2)
	assert.Equal(t, "first", comments.Items[0].Content)
}

func TestService_MembershipGate(t *testing.T) {
	env := newBoardEnv(t)
	post, err := env.svc.CreatePost(env.alice, env.groupID, PostInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)

	_, err = env.svc.ListPosts(env.bob, env.groupID, "", 0)
	require.ErrorIs(t, err, common.ErrorForbidden)
	_, err = env.svc.GetPost(env.bob, post.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)
	_, err = env.svc.CreatePost(env.bob, env.groupID, PostInput{Title: "x", Content: "y"})
	require.ErrorIs(t, err, common.ErrorForbidden)
	_, err = env.svc.CreateComment(env.bob, post.ID, "hi")
	require.ErrorIs(t, err, common.ErrorForbidden)

	_, err = env.svc.GetPost(env.alice, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestService_AuthorOnlyChanges(t *testing.T) {
	env := newBoardEnv(t)
	p := env.backend.Platform(httpx.ContextCredential{})
	require.NoError(t, p.JoinGroup(env.bob, env.groupID))

	post, err := env.svc.CreatePost(env.alice, env.groupID, PostInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)

	_, err = env.svc.GetPost(env.bob, post.ID)
	require.NoError(t, err)

	_, err = env.svc.UpdatePost(env.bob, post.ID, PostPatch{Title: "hijack"})
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.ErrorIs(t, env.svc.DeletePost(env.bob, post.ID), common.ErrorForbidden)

	_, err = env.svc.UpdatePost(env.alice, post.ID, PostPatch{})
	require.ErrorIs(t, err, common.ErrorValidation)

	updated, err := env.svc.UpdatePost(env.alice, post.ID, PostPatch{Content: "Everyone"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", updated.Title)
	assert.Equal(t, "Everyone", updated.Content)
	assert.False(t, updated.UpdatedAt.IsZero())

	require.NoError(t, env.svc.DeletePost(env.alice, post.ID))
	_, err = env.svc.GetPost(env.alice, post.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestService_ListPostsPaging(t *testing.T) {
	env := newBoardEnv(t)
	for _, title := range []string{"one", "two", "three"} {
		_, err := env.svc.CreatePost(env.alice, env.groupID, PostInput{Title: title, Content: "c"})
		require.NoError(t, err)
	}

	page, err := env.svc.ListPosts(env.alice, env.groupID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "three", page.Items[0].Title)
	assert.NotEmpty(t, page.Cursor)

	page, err = env.svc.ListPosts(env.alice, env.groupID, page.Cursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "one", page.Items[0].Title)
	assert.Empty(t, page.Cursor)
}

func TestService_Validation(t *testing.T) {
	env := newBoardEnv(t)
	_, err := env.svc.CreatePost(env.alice, env.groupID, PostInput{Title: "only title"})
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = env.svc.CreateComment(env.alice, "any", "  ")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestService_Unauthenticated(t *testing.T) {
	env := newBoardEnv(t)
	_, err := env.svc.ListPosts(context.Background(), env.groupID, "", 0)
	require.Error(t, err)
}

func TestAuthorName(t *testing.T) {
	assert.Equal(t, "neo", AuthorName(platform.User{Username: "neo", DisplayName: "Thomas"}))
	assert.Equal(t, "Thomas", AuthorName(platform.User{DisplayName: "Thomas"}))
	assert.Equal(t, AnonymousName, AuthorName(platform.User{}))
}
