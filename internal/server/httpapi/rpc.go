package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/store"
)

const maxRPCBody = 1 << 20

// handleRPCProxy forwards the request body to the server function named by
// the endpoint query parameter and relays its unwrapped result.
func (s *Server) handleRPCProxy(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimSpace(r.URL.Query().Get("endpoint"))
	if endpoint == "" {
		httpx.WriteError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "cannot read body")
		return
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && !json.Valid(payload) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.Platform.RPC(r.Context(), endpoint, payload, true)
	if err != nil {
		// Upstream failures keep their own status.
		var apiErr *httpx.APIError
		if errors.As(err, &apiErr) {
			httpx.WriteError(w, apiErr.Status, apiErr.Message)
			return
		}
		s.fail(w, r, err)
		return
	}
	out = bytes.TrimSpace(out)
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		httpx.WriteError(w, http.StatusInternalServerError, "empty RPC result")
		return
	}
	var failure struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(out, &failure) == nil && failure.Error != "" {
		httpx.WriteError(w, http.StatusInternalServerError, failure.Error)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// wireMeta is the storage metadata as the browser client sends and
// receives it alongside a todo item.
type wireMeta struct {
	Collection      string `json:"collection,omitempty"`
	Key             string `json:"key,omitempty"`
	Version         string `json:"version,omitempty"`
	PermissionRead  int    `json:"permission_read"`
	PermissionWrite int    `json:"permission_write"`
}

type wireTodo struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Meta      *wireMeta `json:"meta,omitempty"`
}

type updateTodoRequest struct {
	Collection string    `json:"collection"`
	TodoItem   *wireTodo `json:"todoItem"`
}

// handleUpdateTodo writes one todo item through the update_todo server
// function. A missing version writes unconditionally.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var req updateTodoRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Collection == "" || req.TodoItem == nil || req.TodoItem.ID == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "collection and todoItem.id are required")
		return
	}

	item := codec.TodoItem{ID: req.TodoItem.ID, Text: req.TodoItem.Text, Completed: req.TodoItem.Completed}
	version := common.WildcardVersion
	if m := req.TodoItem.Meta; m != nil && m.Version != "" {
		version = m.Version
	}
	item.Meta = &codec.Meta{
		Collection:      req.Collection,
		Key:             item.Key(),
		Version:         version,
		PermissionRead:  store.DefaultPermissions.Read,
		PermissionWrite: store.DefaultPermissions.Write,
	}

	saved, err := s.todos.UpdateViaRPC(r.Context(), req.Collection, item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": wireTodo{
			ID:        saved.ID,
			Text:      saved.Text,
			Completed: saved.Completed,
			Meta: &wireMeta{
				Collection:      saved.Meta.Collection,
				Key:             saved.Meta.Key,
				Version:         saved.Meta.Version,
				PermissionRead:  saved.Meta.PermissionRead,
				PermissionWrite: saved.Meta.PermissionWrite,
			},
		},
	})
}
