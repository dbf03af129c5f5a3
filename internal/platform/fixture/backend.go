// Package fixture is an in-memory platform.Platform. It reproduces the
// backend's storage versioning, accounts, groups and RPC semantics closely
// enough for tests and local development, and serves the same REST surface
// through Handler.
package fixture

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

const maxPage = 100

var (
	errVersionCheck    = &httpx.APIError{Status: http.StatusBadRequest, Message: "Storage write rejected - version check failed."}
	errDeleteMissing   = &httpx.APIError{Status: http.StatusNotFound, Message: "Storage delete rejected - object not found."}
	errUnauthenticated = &httpx.APIError{Status: http.StatusUnauthorized, Message: "Auth token invalid"}
)

func badRequest(msg string) *httpx.APIError {
	return &httpx.APIError{Status: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) *httpx.APIError {
	return &httpx.APIError{Status: http.StatusNotFound, Message: msg}
}

type objectKey struct {
	collection string
	key        string
	owner      string
}

type group struct {
	platform.Group
	members map[string]int
}

// Backend holds all fixture state behind one mutex.
type Backend struct {
	mu sync.Mutex

	now             func() time.Time
	secret          []byte
	refreshSecret   []byte
	tokenTTL        time.Duration
	refreshTTL      time.Duration
	serverKey       string
	consoleUser     string
	consolePassword string

	seq      int64
	objects  map[objectKey]*platform.Object
	accounts map[string]*platform.Account
	byCustom map[string]string
	groups   map[string]*group
	revoked  map[string]struct{}
	rpcs     map[string]RPCFunc
	roles    map[string]*Role
	grants   map[string]map[string]struct{}
}

type Option func(*Backend)

// WithServerKey sets the key expected on authenticate and refresh calls.
func WithServerKey(key string) Option {
	return func(b *Backend) { b.serverKey = key }
}

// WithConsole sets the console credentials expected by the console API.
func WithConsole(user, password string) Option {
	return func(b *Backend) { b.consoleUser, b.consolePassword = user, password }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithTokenTTL sets the lifetime of issued session tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(b *Backend) { b.tokenTTL = d }
}

// WithSecret sets the token signing secret.
func WithSecret(secret string) Option {
	return func(b *Backend) {
		b.secret = []byte(secret)
		b.refreshSecret = []byte(secret + ".refresh")
	}
}

func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		now:             time.Now,
		tokenTTL:        time.Hour,
		refreshTTL:      24 * time.Hour,
		serverKey:       "defaultkey",
		consoleUser:     "admin",
		consolePassword: "password",
		objects:         make(map[objectKey]*platform.Object),
		accounts:        make(map[string]*platform.Account),
		byCustom:        make(map[string]string),
		groups:          make(map[string]*group),
		revoked:         make(map[string]struct{}),
		rpcs:            make(map[string]RPCFunc),
		roles:           make(map[string]*Role),
		grants:          make(map[string]map[string]struct{}),
	}
	WithSecret(common.MustRandHex(32))(b)
	for _, o := range opts {
		o(b)
	}
	b.registerBuiltins()
	return b
}

// nextVersion must be called with b.mu held.
func (b *Backend) nextVersion(value string) string {
	b.seq++
	sum := md5.Sum([]byte(value + "#" + strconv.FormatInt(b.seq, 10)))
	return hex.EncodeToString(sum[:])
}

func wildcard(version string) bool {
	return version == "" || version == common.WildcardVersion
}

// Seed stores obj for owner as-is, skipping validation. Tests use it to plant
// legacy or malformed values.
func (b *Backend) Seed(owner string, obj platform.Object) platform.Object {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now().UTC()
	obj.UserID = owner
	if obj.Version == "" {
		obj.Version = b.nextVersion(obj.Value)
	}
	if obj.CreateTime.IsZero() {
		obj.CreateTime = now
	}
	obj.UpdateTime = now
	stored := obj
	b.objects[objectKey{obj.Collection, obj.Key, owner}] = &stored
	return stored
}

func (b *Backend) listObjects(owner, collection string, limit int, cursor string) (*platform.ObjectList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	matched := make([]platform.Object, 0)
	for k, obj := range b.objects {
		if k.owner == owner && k.collection == collection {
			matched = append(matched, *obj)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })

	page, next, err := offsetPage(len(matched), limit, cursor)
	if err != nil {
		return nil, err
	}
	return &platform.ObjectList{Objects: matched[page.start:page.end], Cursor: next}, nil
}

func (b *Backend) writeObjects(owner string, writes []platform.WriteObject) ([]platform.Ack, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if w.Collection == "" || w.Key == "" {
			return nil, badRequest("Invalid collection or key value supplied.")
		}
		if !json.Valid([]byte(w.Value)) {
			return nil, badRequest("Value must be a JSON object.")
		}
		if w.PermissionRead < 0 || w.PermissionRead > 2 || w.PermissionWrite < 0 || w.PermissionWrite > 1 {
			return nil, badRequest("Invalid permission value.")
		}
		if wildcard(w.Version) {
			continue
		}
		existing, ok := b.objects[objectKey{w.Collection, w.Key, owner}]
		if !ok || existing.Version != w.Version {
			return nil, errVersionCheck
		}
	}

	now := b.now().UTC()
	acks := make([]platform.Ack, 0, len(writes))
	for _, w := range writes {
		k := objectKey{w.Collection, w.Key, owner}
		created := now
		if existing, ok := b.objects[k]; ok {
			created = existing.CreateTime
		}
		obj := &platform.Object{
			Collection:      w.Collection,
			Key:             w.Key,
			UserID:          owner,
			Value:           w.Value,
			Version:         b.nextVersion(w.Value),
			PermissionRead:  w.PermissionRead,
			PermissionWrite: w.PermissionWrite,
			CreateTime:      created,
			UpdateTime:      now,
		}
		b.objects[k] = obj
		acks = append(acks, platform.Ack{
			Collection: obj.Collection,
			Key:        obj.Key,
			Version:    obj.Version,
			UserID:     owner,
			CreateTime: obj.CreateTime,
			UpdateTime: obj.UpdateTime,
		})
	}
	return acks, nil
}

func (b *Backend) deleteObjects(owner string, ids []platform.ObjectID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range ids {
		existing, ok := b.objects[objectKey{id.Collection, id.Key, owner}]
		if !ok {
			return errDeleteMissing
		}
		if !wildcard(id.Version) && existing.Version != id.Version {
			return errVersionCheck
		}
	}
	for _, id := range ids {
		delete(b.objects, objectKey{id.Collection, id.Key, owner})
	}
	return nil
}

type span struct{ start, end int }

// offsetPage pages n items with a decimal offset cursor.
func offsetPage(n, limit int, cursor string) (span, string, error) {
	if limit <= 0 || limit > maxPage {
		limit = maxPage
	}
	start := 0
	if cursor != "" {
		v, err := strconv.Atoi(cursor)
		if err != nil || v < 0 {
			return span{}, "", badRequest("Invalid cursor.")
		}
		start = v
	}
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	next := ""
	if end < n {
		next = strconv.Itoa(end)
	}
	return span{start, end}, next, nil
}
