package store

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/dmitrijs2005/todoboard/internal/platform/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlatform(t *testing.T) (context.Context, *fixture.Platform, *fixture.Backend, string) {
	t.Helper()
	b := fixture.NewBackend()
	p := b.Platform(httpx.ContextCredential{})
	s, err := p.AuthenticateCustom(context.Background(), "alice@example.com", "alice", true)
	require.NoError(t, err)
	uid, err := b.Authenticate(s.Token)
	require.NoError(t, err)
	return httpx.WithCredential(context.Background(), s.Token), p, b, uid
}

type noAckStorage struct {
	platform.Storage
}

func (noAckStorage) WriteObjects(context.Context, []platform.WriteObject) ([]platform.Ack, error) {
	return nil, nil
}

func TestWriter_WildcardThenRead(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	w := NewWriter(p)

	meta, err := w.Write(ctx, "Groceries", "k", map[string]string{"a": "b"}, "", DefaultPermissions)
	require.NoError(t, err)
	assert.NotEqual(t, "*", meta.Version)
	assert.Equal(t, "Groceries", meta.Collection)
	assert.Equal(t, 2, meta.PermissionRead)
	assert.Equal(t, 1, meta.PermissionWrite)

	objs, err := ListAll(ctx, p, "Groceries", 10)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.JSONEq(t, `{"a":"b"}`, objs[0].Value)
	assert.Equal(t, meta.Version, objs[0].Version)
}

func TestWriter_MissingAckIsFatal(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	w := NewWriter(noAckStorage{Storage: p})

	_, err := w.Write(ctx, "c", "k", map[string]int{}, "*", DefaultPermissions)
	require.ErrorIs(t, err, common.ErrMissingAck)
}

// Two writes to the titles record where the second reuses the version the
// first one started from: the second must be rejected.
func TestWriter_StaleVersionRejected(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	w := NewWriter(p)

	initial, err := w.Write(ctx, codec.TitlesCollection, "1", rawJSON(`{"titles":[]}`), "*", DefaultPermissions)
	require.NoError(t, err)

	_, err = w.Write(ctx, codec.TitlesCollection, "1", rawJSON(`{"titles":[{"id":"1","name":"A"}]}`), initial.Version, DefaultPermissions)
	require.NoError(t, err)

	_, err = w.Write(ctx, codec.TitlesCollection, "1", rawJSON(`{"titles":[{"id":"2","name":"B"}]}`), initial.Version, DefaultPermissions)
	require.ErrorIs(t, err, common.ErrVersionConflict)
	assert.True(t, IsConflict(err))

	objs, err := ListAll(ctx, p, codec.TitlesCollection, 10)
	require.NoError(t, err)
	assert.JSONEq(t, `{"titles":[{"id":"1","name":"A"}]}`, objs[0].Value)
}

func TestListAll_FollowsCursor(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	w := NewWriter(p)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		_, err := w.Write(ctx, "c", k, map[string]string{}, "*", DefaultPermissions)
		require.NoError(t, err)
	}

	objs, err := ListAll(ctx, p, "c", 2)
	require.NoError(t, err)
	assert.Len(t, objs, 5)
}

func TestTodoStore_CreateToggleReadBack(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	created, err := s.Create(ctx, "Groceries", "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), created.ID)
	assert.False(t, created.Completed)
	require.NotNil(t, created.Meta)
	createdVersion := created.Meta.Version

	created.Completed = true
	updated, err := s.Update(ctx, created)
	require.NoError(t, err)
	assert.NotEqual(t, createdVersion, updated.Meta.Version)

	items, err := s.List(ctx, "Groceries")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)
	assert.Equal(t, "Buy milk", items[0].Text)
	assert.Equal(t, updated.Meta.Version, items[0].Meta.Version)
	assert.NotEqual(t, createdVersion, items[0].Meta.Version)
}

func TestTodoStore_UpdateWithStaleVersionFails(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())

	item, err := s.Create(ctx, "Groceries", "Buy milk")
	require.NoError(t, err)

	stale := item
	item.Text = "Buy oat milk"
	_, err = s.Update(ctx, item)
	require.NoError(t, err)

	stale.Completed = true
	_, err = s.Update(ctx, stale)
	require.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestTodoStore_DeleteTwiceFails(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())

	item, err := s.Create(ctx, "Groceries", "Buy milk")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, item))
	require.Error(t, s.Delete(ctx, item))

	items, err := s.List(ctx, "Groceries")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTodoStore_Validation(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())

	_, err := s.Create(ctx, "Groceries", "   ")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, codec.TodoItem{ID: 1, Text: "x"})
	require.ErrorIs(t, err, common.ErrorValidation)

	require.ErrorIs(t, s.Delete(ctx, codec.TodoItem{ID: 1}), common.ErrorValidation)
}

func TestTodoStore_ListDropsMalformed(t *testing.T) {
	ctx, p, b, uid := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())

	_, err := s.Create(ctx, "Groceries", "Buy milk")
	require.NoError(t, err)
	b.Seed(uid, platform.Object{Collection: "Groceries", Key: "1", Value: `{"id":`})

	items, err := s.List(ctx, "Groceries")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Buy milk", items[0].Text)
}

func TestTodoStore_RPCVariants(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := NewTodoStore(p, logging.Discard())

	item, err := s.CreateViaRPC(ctx, "Groceries", "Buy bread")
	require.NoError(t, err)
	require.NotNil(t, item.Meta)
	assert.Equal(t, "Groceries", item.Meta.Collection)
	first := item.Meta.Version

	item.Completed = true
	item, err = s.UpdateViaRPC(ctx, "Groceries", item)
	require.NoError(t, err)
	assert.NotEqual(t, first, item.Meta.Version)

	items, err := s.List(ctx, "Groceries")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)

	require.NoError(t, s.DeleteViaRPC(ctx, item))
	require.Error(t, s.DeleteViaRPC(ctx, item))
}
