// Package listsync keeps locally held lists in step with their remote source.
package listsync

import (
	"context"
	"sync"
)

// List is an ordered collection of items keyed by id. It supports both local
// splicing after a single-item mutation and wholesale replacement after a
// full reload.
type List[T any, K comparable] struct {
	mu    sync.RWMutex
	idOf  func(T) K
	items []T
}

func New[T any, K comparable](idOf func(T) K) *List[T, K] {
	return &List[T, K]{idOf: idOf, items: make([]T, 0)}
}

func (l *List[T, K]) index(id K) int {
	for i, it := range l.items {
		if l.idOf(it) == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the item with the same id in place or appends it.
func (l *List[T, K]) Upsert(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(l.idOf(item)); i >= 0 {
		l.items[i] = item
		return
	}
	l.items = append(l.items, item)
}

// Remove drops the item with the given id and reports whether it was there.
func (l *List[T, K]) Remove(id K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

func (l *List[T, K]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(make([]T, 0, len(items)), items...)
}

// Get returns the item with the given id.
func (l *List[T, K]) Get(id K) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the current items.
func (l *List[T, K]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append(make([]T, 0, len(l.items)), l.items...)
}

func (l *List[T, K]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Reload replaces the list with whatever fetch returns. On error the current
// items are kept.
func (l *List[T, K]) Reload(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	l.Replace(items)
	return nil
}
