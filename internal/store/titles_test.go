package store

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func newTitleStore(t *testing.T, storage platform.Storage, opts ...TitleOption) *TitleStore {
	t.Helper()
	opts = append([]TitleOption{WithClock(clock(time.UnixMilli(1700000000000)))}, opts...)
	return NewTitleStore(storage, logging.Discard(), opts...)
}

func TestTitleStore_CreateAndList(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := newTitleStore(t, p)

	created, err := s.Create(ctx, "Groceries")
	require.NoError(t, err)
	require.NotNil(t, created.Meta)
	assert.NotEqual(t, "*", created.Meta.Version)

	titles, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Groceries", titles[0].Name)
	assert.NotEqual(t, "*", titles[0].Meta.Version)
	assert.Equal(t, created.ID, titles[0].Meta.Key)
}

func TestTitleStore_SingleEnvelopeAndDuplicates(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := newTitleStore(t, p)

	_, err := s.Create(ctx, "Groceries")
	require.NoError(t, err)
	_, err = s.Create(ctx, "Chores")
	require.NoError(t, err)
	_, err = s.Create(ctx, "Groceries")
	require.ErrorIs(t, err, ErrTitleExists)
	require.ErrorIs(t, err, common.ErrorValidation)

	objs, err := ListAll(ctx, p, codec.TitlesCollection, 100)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	titles, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, titles, 2)
	assert.Equal(t, "Chores", titles[1].Name)
}

func TestTitleStore_RenameAndDelete(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := newTitleStore(t, p)

	a, err := s.Create(ctx, "Groceries")
	require.NoError(t, err)
	b, err := s.Create(ctx, "Chores")
	require.NoError(t, err)

	renamed, err := s.Rename(ctx, a.ID, "Shopping")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", renamed.Name)

	_, err = s.Rename(ctx, a.ID, "Chores")
	require.ErrorIs(t, err, ErrTitleExists)
	_, err = s.Rename(ctx, "missing", "X")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Delete(ctx, b.ID))
	require.ErrorIs(t, s.Delete(ctx, b.ID), common.ErrorNotFound)

	titles, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Shopping", titles[0].Name)
}

func TestTitleStore_MutationsNeedCollection(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	s := newTitleStore(t, p)

	_, err := s.Rename(ctx, "1", "x")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, s.Delete(ctx, "1"), common.ErrorNotFound)
}

func TestTitleStore_UpgradesLegacyShapes(t *testing.T) {
	for name, legacy := range map[string]string{
		"bare array":  `[{"id":"1","name":"Groceries"}]`,
		"bare object": `{"id":"1","name":"Groceries"}`,
	} {
		t.Run(name, func(t *testing.T) {
			ctx, p, b, uid := newPlatform(t)
			b.Seed(uid, platform.Object{Collection: codec.TitlesCollection, Key: "legacy", Value: legacy, PermissionRead: 2, PermissionWrite: 1})
			s := newTitleStore(t, p)

			titles, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, titles, 1)

			_, err = s.Create(ctx, "Chores")
			require.NoError(t, err)

			objs, err := ListAll(ctx, p, codec.TitlesCollection, 100)
			require.NoError(t, err)
			require.Len(t, objs, 1)
			assert.Equal(t, "legacy", objs[0].Key)

			got, shape, err := codec.DecodeTitles(objs[0].Value)
			require.NoError(t, err)
			assert.Equal(t, codec.ShapeWrapped, shape)
			require.Len(t, got, 2)
			assert.Equal(t, "Groceries", got[0].Name)
			assert.Equal(t, "Chores", got[1].Name)
		})
	}
}

func TestTitleStore_CorruptEnvelope(t *testing.T) {
	ctx, p, b, uid := newPlatform(t)
	b.Seed(uid, platform.Object{Collection: codec.TitlesCollection, Key: "k", Value: `"oops"`})
	s := newTitleStore(t, p)

	titles, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, titles)

	_, err = s.Create(ctx, "Groceries")
	require.Error(t, err)
}

// racingStorage lets another writer modify the titles envelope right before
// the store's first write, the way a second session would.
type racingStorage struct {
	platform.Storage
	races int
	other func()
}

func (r *racingStorage) WriteObjects(ctx context.Context, objs []platform.WriteObject) ([]platform.Ack, error) {
	if r.races > 0 {
		r.races--
		r.other()
	}
	return r.Storage.WriteObjects(ctx, objs)
}

func TestTitleStore_RetriesOnConflict(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	other := newTitleStore(t, p)
	_, err := other.Create(ctx, "Groceries")
	require.NoError(t, err)

	racer := &racingStorage{Storage: p, races: 1}
	racer.other = func() {
		_, err := other.Create(ctx, "Chores")
		require.NoError(t, err)
	}
	s := NewTitleStore(racer, logging.Discard(), WithClock(clock(time.UnixMilli(1800000000000))))

	_, err = s.Create(ctx, "Work")
	require.NoError(t, err)

	titles, err := s.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(titles))
	for _, tt := range titles {
		names = append(names, tt.Name)
	}
	assert.ElementsMatch(t, []string{"Groceries", "Chores", "Work"}, names)
}

func TestTitleStore_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx, p, _, _ := newPlatform(t)
	other := newTitleStore(t, p)
	_, err := other.Create(ctx, "Groceries")
	require.NoError(t, err)

	n := 0
	racer := &racingStorage{Storage: p, races: 10}
	racer.other = func() {
		n++
		_, err := other.Rename(ctx, mustFirstID(t, ctx, other), "Groceries "+string(rune('A'+n)))
		require.NoError(t, err)
	}
	s := NewTitleStore(racer, logging.Discard(), WithMaxAttempts(2), WithClock(clock(time.UnixMilli(1800000000000))))

	_, err = s.Create(ctx, "Work")
	require.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, 2, n)
}

func mustFirstID(t *testing.T, ctx context.Context, s *TitleStore) string {
	t.Helper()
	titles, err := s.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, titles)
	return titles[0].ID
}
