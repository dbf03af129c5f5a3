// Package api is the CLI's typed client for the todoboard server routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/blob"
	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

type Client struct {
	tr *httpx.Transport
}

func New(baseURL string, creds httpx.CredentialProvider, opts ...httpx.Option) *Client {
	return &Client{tr: httpx.NewTransport(baseURL, creds, opts...)}
}

// Identity is who "login" claims to be. The headers stand in for the ones an
// auth proxy would set.
type Identity struct {
	Email       string
	Name        string
	EmailHeader string
	NameHeader  string
}

type Session struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
}

type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreateTime  time.Time `json:"create_time,omitzero"`
}

func (c *Client) Login(ctx context.Context, id Identity) (*Session, error) {
	h := http.Header{}
	h.Set(id.EmailHeader, id.Email)
	if id.Name != "" {
		h.Set(id.NameHeader, id.Name)
	}
	var out Session
	err := c.tr.Do(ctx, httpx.Request{Method: http.MethodPost, Path: "/api/nakama-login", Header: h, Anonymous: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out Session
	err := c.tr.Do(ctx, httpx.Request{
		Method:    http.MethodPost,
		Path:      "/api/nakama-refresh",
		Body:      map[string]string{"refresh_token": refreshToken},
		Anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/nakama-user"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
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

func (c *Client) Groups(ctx context.Context, name string, limit int, cursor string) (*platform.GroupList, error) {
	q := pageQuery(limit, cursor)
	if name != "" {
		q.Set("name", name)
	}
	var out platform.GroupList
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/nakama-groups", Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateGroup(ctx context.Context, req platform.CreateGroupRequest) (*platform.Group, error) {
	var out platform.Group
	if err := c.tr.Do(ctx, httpx.Request{Method: http.MethodPost, Path: "/api/nakama-groups", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyGroups(ctx context.Context) ([]platform.UserGroup, error) {
	var out struct {
		Groups []platform.UserGroup `json:"groups"`
	}
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/nakama-groups/user"}, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

func (c *Client) GroupsOverview(ctx context.Context) ([]listsync.GroupMembership, error) {
	var out struct {
		Groups []listsync.GroupMembership `json:"groups"`
	}
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/nakama-groups/overview"}, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

func (c *Client) JoinGroup(ctx context.Context, groupID string) error {
	return c.tr.Do(ctx, httpx.Request{Method: http.MethodPost, Path: "/api/nakama-groups/" + url.PathEscape(groupID) + "/join"}, nil)
}

func (c *Client) GroupInfo(ctx context.Context, groupID string) (*platform.Group, error) {
	var out struct {
		Group platform.Group `json:"group"`
	}
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/groups/" + url.PathEscape(groupID) + "/info"}, &out); err != nil {
		return nil, err
	}
	return &out.Group, nil
}

func (c *Client) Members(ctx context.Context, groupID string, limit int, state *int, cursor string) (*platform.GroupUserList, error) {
	q := pageQuery(limit, cursor)
	if state != nil {
		q.Set("state", strconv.Itoa(*state))
	}
	var out platform.GroupUserList
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/groups/" + url.PathEscape(groupID) + "/members", Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Posts(ctx context.Context, groupID, cursor string, limit int) (listsync.Page[codec.GroupPost], error) {
	var out struct {
		Posts  []codec.GroupPost `json:"posts"`
		Cursor string            `json:"cursor"`
	}
	err := c.tr.Do(ctx, httpx.Request{Path: "/api/groups/" + url.PathEscape(groupID) + "/posts", Query: pageQuery(limit, cursor)}, &out)
	if err != nil {
		return listsync.Page[codec.GroupPost]{}, err
	}
	return listsync.Page[codec.GroupPost]{Items: out.Posts, Cursor: out.Cursor}, nil
}

func (c *Client) CreatePost(ctx context.Context, groupID string, in board.PostInput) (*codec.GroupPost, error) {
	var out codec.GroupPost
	if err := c.tr.Do(ctx, httpx.Request{Method: http.MethodPost, Path: "/api/groups/" + url.PathEscape(groupID) + "/posts", Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Post(ctx context.Context, postID string) (*codec.GroupPost, error) {
	var out codec.GroupPost
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/posts/" + url.PathEscape(postID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID string, patch board.PostPatch) (*codec.GroupPost, error) {
	var out codec.GroupPost
	if err := c.tr.Do(ctx, httpx.Request{Method: http.MethodPut, Path: "/api/posts/" + url.PathEscape(postID), Body: patch}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.tr.Do(ctx, httpx.Request{Method: http.MethodDelete, Path: "/api/posts/" + url.PathEscape(postID)}, nil)
}

func (c *Client) Comments(ctx context.Context, postID, cursor string, limit int) (listsync.Page[codec.PostComment], error) {
	var out struct {
		Comments []codec.PostComment `json:"comments"`
		Cursor   string              `json:"cursor"`
	}
	err := c.tr.Do(ctx, httpx.Request{Path: "/api/posts/" + url.PathEscape(postID) + "/comments", Query: pageQuery(limit, cursor)}, &out)
	if err != nil {
		return listsync.Page[codec.PostComment]{}, err
	}
	return listsync.Page[codec.PostComment]{Items: out.Comments, Cursor: out.Cursor}, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (*codec.PostComment, error) {
	var out codec.PostComment
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/api/posts/" + url.PathEscape(postID) + "/comments",
		Body:   map[string]string{"content": content},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PresignUpload asks for a URL to PUT an attachment to.
func (c *Client) PresignUpload(ctx context.Context, groupID, filename string) (*blob.Presigned, error) {
	var out blob.Presigned
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/api/groups/" + url.PathEscape(groupID) + "/attachments",
		Body:   map[string]string{"filename": filename},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PresignDownload(ctx context.Context, postID string) (*blob.Presigned, error) {
	var out blob.Presigned
	if err := c.tr.Do(ctx, httpx.Request{Path: "/api/posts/" + url.PathEscape(postID) + "/attachment"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RPC calls a server function through the gateway and returns its raw result.
func (c *Client) RPC(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/api/rpc-proxy",
		Query:  url.Values{"endpoint": {endpoint}},
		Body:   payload,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTodo writes item through the server's update_todo route and returns
// it with its new version.
func (c *Client) UpdateTodo(ctx context.Context, item codec.TodoItem) (codec.TodoItem, error) {
	type meta struct {
		Version string `json:"version,omitempty"`
	}
	type todo struct {
		ID        int64  `json:"id"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
		Meta      *meta  `json:"meta,omitempty"`
	}
	collection := ""
	in := todo{ID: item.ID, Text: item.Text, Completed: item.Completed}
	if item.Meta != nil {
		collection = item.Meta.Collection
		in.Meta = &meta{Version: item.Meta.Version}
	}

	var out struct {
		Data struct {
			ID        int64      `json:"id"`
			Text      string     `json:"text"`
			Completed bool       `json:"completed"`
			Meta      codec.Meta `json:"meta"`
		} `json:"data"`
	}
	err := c.tr.Do(ctx, httpx.Request{
		Method: http.MethodPut,
		Path:   "/api/nakama-todo",
		Body:   map[string]any{"collection": collection, "todoItem": in},
	}, &out)
	if err != nil {
		return item, err
	}
	saved := codec.TodoItem{ID: out.Data.ID, Text: out.Data.Text, Completed: out.Data.Completed}
	saved.SetMeta(out.Data.Meta)
	return saved, nil
}
