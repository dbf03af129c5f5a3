// Package nakama is the live platform.Platform implementation, speaking the
// backend's REST surface over httpx.Transport.
package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// Config locates the backend and holds the shared keys it expects.
type Config struct {
	BaseURL         string
	ServerKey       string
	ConsoleUser     string
	ConsolePassword string
	Timeout         time.Duration
}

// Client calls the backend on behalf of whoever creds resolves to.
type Client struct {
	tr        *httpx.Transport
	serverKey httpx.BasicAuth
	console   httpx.BasicAuth
}

var _ platform.Platform = (*Client)(nil)

func New(cfg Config, creds httpx.CredentialProvider, opts ...httpx.Option) *Client {
	if cfg.Timeout > 0 {
		opts = append([]httpx.Option{httpx.WithTimeout(cfg.Timeout)}, opts...)
	}
	return &Client{
		tr:        httpx.NewTransport(cfg.BaseURL, creds, opts...),
		serverKey: httpx.BasicAuth{Username: cfg.ServerKey},
		console:   httpx.BasicAuth{Username: cfg.ConsoleUser, Password: cfg.ConsolePassword},
	}
}

func pageQuery(limit int, cursor string) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return q
}

func (c *Client) ListObjects(ctx context.Context, collection string, limit int, cursor string) (*platform.ObjectList, error) {
	out := &platform.ObjectList{}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodGet,
		Path:   "/v2/storage/" + url.PathEscape(collection),
		Query:  pageQuery(limit, cursor),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WriteObjects(ctx context.Context, objects []platform.WriteObject) ([]platform.Ack, error) {
	var out struct {
		Acks []platform.Ack `json:"acks"`
	}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPut,
		Path:   "/v2/storage",
		Body:   map[string]any{"objects": objects},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Acks, nil
}

func (c *Client) DeleteObjects(ctx context.Context, ids []platform.ObjectID) error {
	return c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPut,
		Path:   "/v2/storage/delete",
		Body:   map[string]any{"object_ids": ids},
	}, nil)
}

func (c *Client) ListGroups(ctx context.Context, name string, limit int, cursor string) (*platform.GroupList, error) {
	q := pageQuery(limit, cursor)
	if name != "" {
		q.Set("name", name)
	}
	out := &platform.GroupList{}
	if err := c.tr.Do(ctx, httpx.Request{Path: "/v2/group", Query: q}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGroup(ctx context.Context, req platform.CreateGroupRequest) (*platform.Group, error) {
	out := &platform.Group{}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/group",
		Body:   platform.NormalizeCreateGroup(req),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) JoinGroup(ctx context.Context, groupID string) error {
	return c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/group/" + url.PathEscape(groupID) + "/join",
	}, nil)
}

func (c *Client) UserGroups(ctx context.Context, userID string) (*platform.UserGroupList, error) {
	out := &platform.UserGroupList{}
	err := c.tr.Do(ctx, httpx.Request{Path: "/v2/user/" + url.PathEscape(userID) + "/group"}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GroupUsers(ctx context.Context, groupID string, limit int, state *int, cursor string) (*platform.GroupUserList, error) {
	q := pageQuery(limit, cursor)
	if state != nil {
		q.Set("state", strconv.Itoa(*state))
	}
	out := &platform.GroupUserList{}
	err := c.tr.Do(ctx, httpx.Request{Path: "/v2/group/" + url.PathEscape(groupID) + "/user", Query: q}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (*platform.Group, error) {
	out := &platform.Group{}
	err := c.tr.Do(ctx, httpx.Request{
		Path:  "/v2/console/group/" + url.PathEscape(groupID),
		Basic: &c.console,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Account(ctx context.Context) (*platform.Account, error) {
	out := &platform.Account{}
	if err := c.tr.Do(ctx, httpx.Request{Path: "/v2/account"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AuthenticateCustom(ctx context.Context, id, username string, create bool) (*platform.Session, error) {
	q := url.Values{"create": {strconv.FormatBool(create)}}
	if username != "" {
		q.Set("username", username)
	}
	out := &platform.Session{}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/account/authenticate/custom",
		Query:  q,
		Body:   map[string]string{"id": id},
		Basic:  &c.serverKey,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*platform.Session, error) {
	out := &platform.Session{}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/account/session/refresh",
		Body:   map[string]string{"token": refreshToken},
		Basic:  &c.serverKey,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context, token, refreshToken string) error {
	return c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/session/logout",
		Body:   map[string]string{"token": token, "refresh_token": refreshToken},
	}, nil)
}

// RPC calls a named server function. Without unwrap the backend expects the
// payload as a JSON string and answers {"id", "payload": "<json>"}; both forms
// are normalized to the function's JSON output.
func (c *Client) RPC(ctx context.Context, id string, payload json.RawMessage, unwrap bool) (json.RawMessage, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	path := "/v2/rpc/" + url.PathEscape(id)

	if unwrap {
		var out json.RawMessage
		err := c.tr.Do(ctx, httpx.Request{
			Method: http.MethodPost,
			Path:   path,
			Query:  url.Values{"unwrap": {""}},
			Body:   payload,
		}, &out)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	var out struct {
		ID      string `json:"id"`
		Payload string `json:"payload"`
	}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   string(payload),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Payload == "" {
		return json.RawMessage("null"), nil
	}
	if !json.Valid([]byte(out.Payload)) {
		return nil, fmt.Errorf("rpc %s: payload is not json", id)
	}
	return json.RawMessage(out.Payload), nil
}
