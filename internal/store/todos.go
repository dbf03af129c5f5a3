package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

const pageSize = 100

// TodoBackend is what TodoStore needs from the platform.
type TodoBackend interface {
	platform.Storage
	platform.RPC
}

// TodoStore keeps the items of each todo list in a collection named after
// the list's title, one object per item.
type TodoStore struct {
	backend TodoBackend
	writer  *Writer
	log     logging.Logger
	now     func() time.Time
}

func NewTodoStore(backend TodoBackend, log logging.Logger) *TodoStore {
	return &TodoStore{backend: backend, writer: NewWriter(backend), log: log, now: time.Now}
}

// List returns the items of a list in creation order.
func (s *TodoStore) List(ctx context.Context, title string) ([]codec.TodoItem, error) {
	objs, err := ListAll(ctx, s.backend, title, pageSize)
	if err != nil {
		return nil, err
	}
	items := codec.DecodeMany[codec.TodoItem](ctx, s.log, objs)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *TodoStore) newItem(text string) (codec.TodoItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return codec.TodoItem{}, fmt.Errorf("%w: todo text is required", common.ErrorValidation)
	}
	return codec.TodoItem{ID: codec.NewTodoID(s.now()), Text: text}, nil
}

// Create stores a new, not yet completed item in the list named title.
func (s *TodoStore) Create(ctx context.Context, title, text string) (codec.TodoItem, error) {
	item, err := s.newItem(text)
	if err != nil {
		return item, err
	}
	meta, err := s.writer.Write(ctx, title, item.Key(), item, common.WildcardVersion, DefaultPermissions)
	if err != nil {
		return item, err
	}
	item.Meta = meta
	return item, nil
}

func stored(item codec.TodoItem) error {
	if item.Meta == nil || item.Meta.Collection == "" {
		return fmt.Errorf("%w: todo %d was never stored", common.ErrorValidation, item.ID)
	}
	return nil
}

// Update writes item back using the version it was last read or written with.
func (s *TodoStore) Update(ctx context.Context, item codec.TodoItem) (codec.TodoItem, error) {
	if err := stored(item); err != nil {
		return item, err
	}
	meta, err := s.writer.Write(ctx, item.Meta.Collection, item.Key(), item, item.Meta.Version, DefaultPermissions)
	if err != nil {
		return item, err
	}
	item.Meta = meta
	return item, nil
}

// Delete removes item, failing if it changed or is already gone.
func (s *TodoStore) Delete(ctx context.Context, item codec.TodoItem) error {
	if err := stored(item); err != nil {
		return err
	}
	return s.writer.Delete(ctx, item.Meta.Collection, item.Key(), item.Meta.Version)
}

type rpcObject struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Value      string `json:"value,omitempty"`
	Version    string `json:"version"`
}

func (s *TodoStore) callTodoRPC(ctx context.Context, id string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out, err := s.backend.RPC(ctx, id, body, true)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", id, err)
	}
	var failure struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(out, &failure) == nil && failure.Error != "" {
		return nil, fmt.Errorf("rpc %s: %s", id, failure.Error)
	}
	return out, nil
}

func (s *TodoStore) writeViaRPC(ctx context.Context, rpcID, field, collection string, item codec.TodoItem, version string) (codec.TodoItem, error) {
	value, err := codec.Encode(item)
	if err != nil {
		return item, err
	}
	out, err := s.callTodoRPC(ctx, rpcID, map[string]rpcObject{field: {
		Collection: collection,
		Key:        item.Key(),
		Value:      value,
		Version:    version,
	}})
	if err != nil {
		return item, err
	}

	var ack platform.Ack
	if err := json.Unmarshal(out, &ack); err != nil || ack.Version == "" {
		return item, fmt.Errorf("rpc %s: %w", rpcID, common.ErrMissingAck)
	}
	if ack.Collection == "" {
		ack.Collection, ack.Key = collection, item.Key()
	}
	meta := codec.Meta{PermissionRead: DefaultPermissions.Read, PermissionWrite: DefaultPermissions.Write}
	if item.Meta != nil {
		meta = *item.Meta
	}
	meta.Apply(ack)
	item.Meta = &meta
	return item, nil
}

// CreateViaRPC creates an item through the create_todo server function.
func (s *TodoStore) CreateViaRPC(ctx context.Context, title, text string) (codec.TodoItem, error) {
	item, err := s.newItem(text)
	if err != nil {
		return item, err
	}
	return s.writeViaRPC(ctx, "create_todo", "objects", title, item, common.WildcardVersion)
}

// UpdateViaRPC writes an item through the update_todo server function.
func (s *TodoStore) UpdateViaRPC(ctx context.Context, title string, item codec.TodoItem) (codec.TodoItem, error) {
	return s.writeViaRPC(ctx, "update_todo", "todoItem", title, item, codec.VersionOf(item.Meta))
}

// DeleteViaRPC removes an item through the delete_todo server function.
func (s *TodoStore) DeleteViaRPC(ctx context.Context, item codec.TodoItem) error {
	if err := stored(item); err != nil {
		return err
	}
	_, err := s.callTodoRPC(ctx, "delete_todo", map[string]rpcObject{"deleteObject": {
		Collection: item.Meta.Collection,
		Key:        item.Key(),
		Version:    item.Meta.Version,
	}})
	return err
}

// IsConflict reports whether err is an optimistic-concurrency rejection.
func IsConflict(err error) bool {
	return errors.Is(err, common.ErrVersionConflict)
}
