package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// DefaultMaxAttempts bounds the read-merge-write cycles of one title mutation.
const DefaultMaxAttempts = 3

// ErrTitleExists is returned when a title with the same id or name exists.
var ErrTitleExists = fmt.Errorf("%w: title already exists", common.ErrorValidation)

// TitleStore keeps every todo title in one envelope of the todo_titles
// collection. Mutations read the envelope, merge in memory and write the
// whole array back; a version conflict triggers a fresh read and a retry.
type TitleStore struct {
	storage     platform.Storage
	writer      *Writer
	log         logging.Logger
	now         func() time.Time
	maxAttempts int
}

type TitleOption func(*TitleStore)

// WithMaxAttempts sets how many read-merge-write cycles a mutation may use.
func WithMaxAttempts(n int) TitleOption {
	return func(s *TitleStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock replaces time.Now for id and timestamp generation.
func WithClock(now func() time.Time) TitleOption {
	return func(s *TitleStore) { s.now = now }
}

func NewTitleStore(storage platform.Storage, log logging.Logger, opts ...TitleOption) *TitleStore {
	s := &TitleStore{
		storage:     storage,
		writer:      NewWriter(storage),
		log:         log,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type titleRecord struct {
	obj    *platform.Object
	titles []codec.TodoTitle
	shape  codec.TitleShape
}

func (s *TitleStore) load(ctx context.Context) (*titleRecord, error) {
	page, err := s.storage.ListObjects(ctx, codec.TitlesCollection, pageSize, "")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", codec.TitlesCollection, err)
	}
	if len(page.Objects) == 0 {
		return &titleRecord{titles: []codec.TodoTitle{}}, nil
	}

	obj := page.Objects[0]
	titles, shape, err := codec.DecodeTitles(obj.Value)
	if err != nil {
		return &titleRecord{obj: &obj}, fmt.Errorf("decode %s/%s: %w", obj.Collection, obj.Key, err)
	}
	meta := codec.MetaOf(obj)
	for i := range titles {
		m := meta
		titles[i].Meta = &m
	}
	return &titleRecord{obj: &obj, titles: titles, shape: shape}, nil
}

// List returns all titles. An unreadable envelope is logged and yields an
// empty list.
func (s *TitleStore) List(ctx context.Context) ([]codec.TodoTitle, error) {
	rec, err := s.load(ctx)
	if err != nil {
		if rec == nil {
			return nil, err
		}
		if s.log != nil {
			s.log.Warn(ctx, "titles envelope is unreadable", "error", err)
		}
		return []codec.TodoTitle{}, nil
	}
	return rec.titles, nil
}

// mutate runs one read-merge-write cycle per attempt. apply edits rec.titles
// and returns the key to use when no envelope exists yet.
func (s *TitleStore) mutate(ctx context.Context, apply func(rec *titleRecord) (string, error)) ([]codec.TodoTitle, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		rec, err := s.load(ctx)
		if err != nil {
			return nil, err
		}

		newKey, err := apply(rec)
		if err != nil {
			return nil, err
		}

		key, version := newKey, common.WildcardVersion
		if rec.obj != nil {
			key, version = rec.obj.Key, rec.obj.Version
			if rec.shape != codec.ShapeWrapped && s.log != nil {
				s.log.Info(ctx, "upgrading legacy titles layout", "key", key, "shape", rec.shape.String())
			}
		}

		for i := range rec.titles {
			rec.titles[i].Meta = nil
		}
		value, err := codec.EncodeTitles(rec.titles)
		if err != nil {
			return nil, err
		}

		meta, err := s.writer.Write(ctx, codec.TitlesCollection, key, rawJSON(value), version, DefaultPermissions)
		if err == nil {
			for i := range rec.titles {
				m := *meta
				rec.titles[i].Meta = &m
			}
			return rec.titles, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		if s.log != nil {
			s.log.Debug(ctx, "titles write conflicted, retrying", "attempt", attempt, "key", key)
		}
	}
	return nil, lastErr
}

func (s *TitleStore) find(titles []codec.TodoTitle, id string) int {
	for i, t := range titles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Create appends a title unless one with the same id or name exists.
func (s *TitleStore) Create(ctx context.Context, name string) (codec.TodoTitle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return codec.TodoTitle{}, fmt.Errorf("%w: title name is required", common.ErrorValidation)
	}
	now := s.now().UTC()
	created := codec.TodoTitle{ID: strconv.FormatInt(now.UnixMilli(), 10), Name: name, CreateTime: now}

	titles, err := s.mutate(ctx, func(rec *titleRecord) (string, error) {
		for _, t := range rec.titles {
			if t.ID == created.ID || t.Name == created.Name {
				return "", ErrTitleExists
			}
		}
		rec.titles = append(rec.titles, created)
		return created.ID, nil
	})
	if err != nil {
		return created, err
	}
	return titles[s.find(titles, created.ID)], nil
}

func requireEnvelope(rec *titleRecord) error {
	if rec.obj == nil {
		return fmt.Errorf("%w: %s collection does not exist", common.ErrorNotFound, codec.TitlesCollection)
	}
	return nil
}

// Rename changes the name of the title with the given id.
func (s *TitleStore) Rename(ctx context.Context, id, name string) (codec.TodoTitle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return codec.TodoTitle{}, fmt.Errorf("%w: title name is required", common.ErrorValidation)
	}

	titles, err := s.mutate(ctx, func(rec *titleRecord) (string, error) {
		if err := requireEnvelope(rec); err != nil {
			return "", err
		}
		idx := s.find(rec.titles, id)
		if idx < 0 {
			return "", fmt.Errorf("%w: title %s", common.ErrorNotFound, id)
		}
		for i, t := range rec.titles {
			if i != idx && t.Name == name {
				return "", ErrTitleExists
			}
		}
		rec.titles[idx].Name = name
		return "", nil
	})
	if err != nil {
		return codec.TodoTitle{}, err
	}
	return titles[s.find(titles, id)], nil
}

// Delete removes the title with the given id. The items of its list are left
// in place.
func (s *TitleStore) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(rec *titleRecord) (string, error) {
		if err := requireEnvelope(rec); err != nil {
			return "", err
		}
		idx := s.find(rec.titles, id)
		if idx < 0 {
			return "", fmt.Errorf("%w: title %s", common.ErrorNotFound, id)
		}
		rec.titles = append(rec.titles[:idx], rec.titles[idx+1:]...)
		return "", nil
	})
	return err
}

// rawJSON is an already encoded value that codec.Encode passes through.
type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) { return []byte(r), nil }
