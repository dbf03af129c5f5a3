package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Do_AttachesBearerAndContentType(t *testing.T) {
	var gotAuth, gotType, gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		WriteJSON(w, http.StatusOK, map[string]string{"id": "42"})
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL+"/", StaticCredential("tok"))

	var out struct {
		ID string `json:"id"`
	}
	err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v2/thing",
		Query:  url.Values{"limit": {"10"}},
		Body:   map[string]int{"n": 1},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "limit=10", gotQuery)
	assert.JSONEq(t, `{"n":1}`, gotBody)
	assert.Equal(t, "42", out.ID)
}

func TestTransport_Do_KeepsCallerContentType(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, StaticCredential("tok"))
	err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v2/thing",
		Header: http.Header{"Content-Type": {"application/merge-patch+json"}},
		Body:   map[string]int{"n": 1},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/merge-patch+json", gotType)
}

func TestTransport_Do_FailsClosedWithoutCredential(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for name, creds := range map[string]CredentialProvider{
		"nil provider":  nil,
		"empty static":  StaticCredential(""),
		"empty context": ContextCredential{},
	} {
		t.Run(name, func(t *testing.T) {
			tr := NewTransport(srv.URL, creds)
			err := tr.Do(context.Background(), Request{Path: "/v2/account"}, nil)
			require.ErrorIs(t, err, common.ErrNoCredential)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTransport_Do_ContextCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer from-ctx", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, ContextCredential{})
	ctx := WithCredential(context.Background(), "from-ctx")
	require.NoError(t, tr.Do(ctx, Request{Path: "/"}, nil))
}

func TestTransport_Do_BasicAuthSkipsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "defaultkey", user)
		assert.Equal(t, "", pass)
		WriteJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, nil)
	err := tr.Do(context.Background(), Request{Path: "/", Basic: &BasicAuth{Username: "defaultkey"}}, nil)
	require.NoError(t, err)
}

func TestTransport_Do_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "message field", status: 400, body: `{"error":"x","message":"Storage write rejected - version check failed.","code":3}`, want: "Storage write rejected - version check failed."},
		{name: "error field", status: 403, body: `{"error":"not a member"}`, want: "not a member"},
		{name: "no json", status: 502, body: `bad gateway`, want: "request failed: 502"},
		{name: "empty fields", status: 500, body: `{"message":""}`, want: "request failed: 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewTransport(srv.URL, StaticCredential("t")).Do(context.Background(), Request{Path: "/"}, nil)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	assert.ErrorIs(t, &APIError{Status: 400, Message: "Storage write rejected - version check failed."}, common.ErrVersionConflict)
	assert.ErrorIs(t, &APIError{Status: 401, Message: "expired"}, common.ErrorUnauthorized)
	assert.ErrorIs(t, &APIError{Status: 403, Message: "no"}, common.ErrorForbidden)
	assert.ErrorIs(t, &APIError{Status: 404, Message: "gone"}, common.ErrorNotFound)
	assert.NotErrorIs(t, &APIError{Status: 400, Message: "bad input"}, common.ErrVersionConflict)
}

func TestTransport_Do_UnauthorizedHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusUnauthorized, "Auth token invalid")
	}))
	defer srv.Close()

	fired := false
	tr := NewTransport(srv.URL, StaticCredential("t"), WithUnauthorizedHook(func(context.Context) { fired = true }))
	err := tr.Do(context.Background(), Request{Path: "/"}, nil)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.True(t, fired)
}

func TestTransport_Do_RawPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"roles":"[]"}`))
	}))
	defer srv.Close()

	var raw json.RawMessage
	err := NewTransport(srv.URL, StaticCredential("t")).Do(context.Background(), Request{
		Method: http.MethodPost, Path: "/", Body: json.RawMessage(`{"a":1}`),
	}, &raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roles":"[]"}`, string(raw))
}

func TestTransport_Do_AnonymousSendsHeadersOnly(t *testing.T) {
	var gotAuth, gotEmail string
	var hooked atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotEmail = r.Header.Get("X-Email")
		WriteError(w, http.StatusUnauthorized, "who are you")
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, nil, WithUnauthorizedHook(func(context.Context) { hooked.Store(true) }))
	err := tr.Do(context.Background(), Request{
		Method:    http.MethodPost,
		Path:      "/api/login",
		Header:    http.Header{"X-Email": {"a@example.com"}},
		Anonymous: true,
	}, nil)

	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a@example.com", gotEmail)
	assert.False(t, hooked.Load())
}
