package listsync

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func todoID(t codec.TodoItem) int64 { return t.ID }

func TestList_Splice(t *testing.T) {
	l := New(todoID)
	l.Upsert(codec.TodoItem{ID: 1, Text: "a"})
	l.Upsert(codec.TodoItem{ID: 2, Text: "b"})
	l.Upsert(codec.TodoItem{ID: 1, Text: "a2", Completed: true})

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a2", items[0].Text)
	assert.True(t, items[0].Completed)
	assert.Equal(t, int64(2), items[1].ID)

	assert.True(t, l.Remove(1))
	assert.False(t, l.Remove(1))
	assert.Equal(t, 1, l.Len())

	got, ok := l.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", got.Text)
	_, ok = l.Get(7)
	assert.False(t, ok)
}

func TestList_ItemsIsACopy(t *testing.T) {
	l := New(todoID)
	l.Upsert(codec.TodoItem{ID: 1, Text: "a"})
	items := l.Items()
	items[0].Text = "changed"
	got, _ := l.Get(1)
	assert.Equal(t, "a", got.Text)
}

func TestList_ReloadKeepsStateOnError(t *testing.T) {
	l := New(todoID)
	l.Replace([]codec.TodoItem{{ID: 1}, {ID: 2}})

	err := l.Reload(context.Background(), func(context.Context) ([]codec.TodoItem, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 2, l.Len())

	err = l.Reload(context.Background(), func(context.Context) ([]codec.TodoItem, error) {
		return []codec.TodoItem{{ID: 3}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, int64(3), l.Items()[0].ID)
}
