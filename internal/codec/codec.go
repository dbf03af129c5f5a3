// Package codec converts between the platform's storage envelope and the
// application's typed entities. Entity bodies travel as JSON inside the
// envelope's value field; envelope metadata is kept beside the entity in Meta
// and never written back into the value.
package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// Meta is the envelope metadata a decoded entity carries so the next write
// can present the right version token.
type Meta struct {
	Collection      string    `json:"collection"`
	Key             string    `json:"key"`
	UserID          string    `json:"user_id,omitempty"`
	Version         string    `json:"version"`
	PermissionRead  int       `json:"permission_read"`
	PermissionWrite int       `json:"permission_write"`
	CreateTime      time.Time `json:"create_time,omitzero"`
	UpdateTime      time.Time `json:"update_time,omitzero"`
}

// MetaOf copies the metadata out of an envelope.
func MetaOf(obj platform.Object) Meta {
	return Meta{
		Collection:      obj.Collection,
		Key:             obj.Key,
		UserID:          obj.UserID,
		Version:         obj.Version,
		PermissionRead:  obj.PermissionRead,
		PermissionWrite: obj.PermissionWrite,
		CreateTime:      obj.CreateTime,
		UpdateTime:      obj.UpdateTime,
	}
}

// Apply folds a write acknowledgement into m.
func (m *Meta) Apply(ack platform.Ack) {
	m.Collection = ack.Collection
	m.Key = ack.Key
	m.Version = ack.Version
	if ack.UserID != "" {
		m.UserID = ack.UserID
	}
	if !ack.CreateTime.IsZero() {
		m.CreateTime = ack.CreateTime
	}
	if !ack.UpdateTime.IsZero() {
		m.UpdateTime = ack.UpdateTime
	}
}

// VersionOf returns the version to present on the next write: the known one,
// or the wildcard for an entity that was never stored.
func VersionOf(m *Meta) string {
	if m == nil || m.Version == "" {
		return common.WildcardVersion
	}
	return m.Version
}

// Entity is implemented by the pointer types of every stored entity.
type Entity interface {
	SetMeta(Meta)
}

// Decode parses obj.Value into a T and attaches the envelope metadata.
func Decode[T any, PT interface {
	*T
	Entity
}](obj platform.Object) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(obj.Value), &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", obj.Collection, obj.Key, err)
	}
	PT(&v).SetMeta(MetaOf(obj))
	return v, nil
}

// DecodeMany decodes every envelope and drops the ones that fail, logging
// each failure. It never fails as a whole and returns an empty slice for an
// empty input.
func DecodeMany[T any, PT interface {
	*T
	Entity
}](ctx context.Context, log logging.Logger, objs []platform.Object) []T {
	out := make([]T, 0, len(objs))
	for _, obj := range objs {
		v, err := Decode[T, PT](obj)
		if err != nil {
			if log != nil {
				log.Warn(ctx, "dropping undecodable object", "collection", obj.Collection, "key", obj.Key, "error", err)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}

// Encode serializes an entity's own fields. Meta is tagged out of every
// entity, so it never reaches the stored value.
func Encode(entity any) (string, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
