// Package httpapi is the server's JSON API: identity-session exchange, group
// and board routes, and the RPC gateway. Every platform call is made with the
// caller's own credential.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/blob"
	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/dmitrijs2005/todoboard/internal/server/auth"
	"github.com/dmitrijs2005/todoboard/internal/store"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
)

// Identity describes the upstream login flow and the trusted headers it sets.
type Identity struct {
	LoginURL    string
	LogoutURL   string
	EmailHeader string
	NameHeader  string
}

type Deps struct {
	// Platform must resolve credentials with httpx.ContextCredential.
	Platform       platform.Platform
	Board          *board.Service
	Attachments    *blob.Presigner
	Sessions       *auth.Manager
	Identity       Identity
	ProfileTimeout time.Duration
	Log            logging.Logger

	// PlatformHandler, when set, is mounted under /v2.
	PlatformHandler http.Handler
	Gzip            bool
}

type Server struct {
	Deps
	todos *store.TodoStore
}

// New builds the API handler.
func New(d Deps) http.Handler {
	if d.ProfileTimeout <= 0 {
		d.ProfileTimeout = 5 * time.Second
	}
	s := &Server{Deps: d, todos: store.NewTodoStore(d.Platform, d.Log)}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.Methods(http.MethodGet).Path("/auth/login").HandlerFunc(s.handleLoginRedirect)
	api.Methods(http.MethodGet).Path("/auth/logout").HandlerFunc(s.handleLogout)
	api.Methods(http.MethodGet).Path("/auth/callback").HandlerFunc(s.handleCallback)
	api.Methods(http.MethodPost).Path("/nakama-login").HandlerFunc(s.handleExchange)
	api.Methods(http.MethodPost).Path("/nakama-refresh").HandlerFunc(s.handleRefresh)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireCaller)

	authed.Methods(http.MethodGet).Path("/nakama-user").HandlerFunc(s.handleProfile)

	authed.Methods(http.MethodGet).Path("/nakama-groups").HandlerFunc(s.handleListGroups)
	authed.Methods(http.MethodPost).Path("/nakama-groups").HandlerFunc(s.handleCreateGroup)
	authed.Methods(http.MethodGet).Path("/nakama-groups/user").HandlerFunc(s.handleMyGroups)
	authed.Methods(http.MethodGet).Path("/nakama-groups/overview").HandlerFunc(s.handleGroupsOverview)
	authed.Methods(http.MethodPost).Path("/nakama-groups/{groupId}/join").HandlerFunc(s.handleJoinGroup)
	authed.Methods(http.MethodGet).Path("/groups/{groupId}/info").HandlerFunc(s.handleGroupInfo)
	authed.Methods(http.MethodGet).Path("/groups/{groupId}/members").HandlerFunc(s.handleGroupMembers)

	authed.Methods(http.MethodGet).Path("/groups/{groupId}/posts").HandlerFunc(s.handleListPosts)
	authed.Methods(http.MethodPost).Path("/groups/{groupId}/posts").HandlerFunc(s.handleCreatePost)
	authed.Methods(http.MethodPost).Path("/groups/{groupId}/attachments").HandlerFunc(s.handlePresignUpload)
	authed.Methods(http.MethodGet).Path("/posts/{postId}").HandlerFunc(s.handleGetPost)
	authed.Methods(http.MethodPut).Path("/posts/{postId}").HandlerFunc(s.handleUpdatePost)
	authed.Methods(http.MethodDelete).Path("/posts/{postId}").HandlerFunc(s.handleDeletePost)
	authed.Methods(http.MethodGet).Path("/posts/{postId}/attachment").HandlerFunc(s.handlePresignDownload)
	authed.Methods(http.MethodGet).Path("/posts/{postId}/comments").HandlerFunc(s.handleListComments)
	authed.Methods(http.MethodPost).Path("/posts/{postId}/comments").HandlerFunc(s.handleCreateComment)

	authed.Methods(http.MethodPost).Path("/rpc-proxy").HandlerFunc(s.handleRPCProxy)
	authed.Methods(http.MethodPost).Path("/rbac-proxy").HandlerFunc(s.handleRPCProxy)
	authed.Methods(http.MethodPut).Path("/nakama-todo").HandlerFunc(s.handleUpdateTodo)

	if d.PlatformHandler != nil {
		r.PathPrefix("/v2/").Handler(d.PlatformHandler)
	}

	var h http.Handler = r
	if d.Gzip {
		h = gzhttp.GzipHandler(h)
	}
	return accessLog(d.Log, h)
}

// statusOf maps an error to the HTTP status returned to the caller.
func statusOf(err error) int {
	var apiErr *httpx.APIError
	switch {
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNoCredential),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, blob.ErrDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	httpx.WriteError(w, status, err.Error())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
