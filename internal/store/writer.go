// Package store performs version-gated writes against the platform's object
// store and builds the todo and title stores on top of them.
package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// Permissions are the read/write levels stored with an object.
type Permissions struct {
	Read  int
	Write int
}

// DefaultPermissions lets any authenticated user read and only the owner write.
var DefaultPermissions = Permissions{Read: common.PermissionPublicRead, Write: common.PermissionOwnerWrite}

// Writer submits single-object batches carrying an optimistic version token.
type Writer struct {
	storage platform.Storage
}

func NewWriter(storage platform.Storage) *Writer {
	return &Writer{storage: storage}
}

// Write stores body under (collection, key). version must be the token from
// the most recent read or write of that key, or "*" (or "") for an
// unconditional write. A stale token comes back as common.ErrVersionConflict;
// Write never retries. The returned Meta carries the newly assigned version.
func (w *Writer) Write(ctx context.Context, collection, key string, body any, version string, perms Permissions) (*codec.Meta, error) {
	value, err := codec.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	if version == "" {
		version = common.WildcardVersion
	}

	acks, err := w.storage.WriteObjects(ctx, []platform.WriteObject{{
		Collection:      collection,
		Key:             key,
		Value:           value,
		Version:         version,
		PermissionRead:  perms.Read,
		PermissionWrite: perms.Write,
	}})
	if err != nil {
		return nil, fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	if len(acks) == 0 {
		return nil, fmt.Errorf("write %s/%s: %w", collection, key, common.ErrMissingAck)
	}

	ack := acks[0]
	for _, a := range acks {
		if a.Collection == collection && a.Key == key {
			ack = a
			break
		}
	}
	if ack.Version == "" {
		return nil, fmt.Errorf("write %s/%s: %w", collection, key, common.ErrMissingAck)
	}

	meta := &codec.Meta{PermissionRead: perms.Read, PermissionWrite: perms.Write}
	meta.Apply(ack)
	return meta, nil
}

// Delete removes (collection, key) if its current version still is version.
func (w *Writer) Delete(ctx context.Context, collection, key, version string) error {
	err := w.storage.DeleteObjects(ctx, []platform.ObjectID{{Collection: collection, Key: key, Version: version}})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// ListAll reads every object of a collection, following cursors.
func ListAll(ctx context.Context, storage platform.Storage, collection string, pageSize int) ([]platform.Object, error) {
	out := make([]platform.Object, 0)
	cursor := ""
	for {
		page, err := storage.ListObjects(ctx, collection, pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		out = append(out, page.Objects...)
		if page.Cursor == "" || page.Cursor == cursor || len(page.Objects) == 0 {
			return out, nil
		}
		cursor = page.Cursor
	}
}
