package fixture

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/gorilla/mux"
)

type callerKey struct{}

// Handler serves the backend's REST surface under /v2.
func (b *Backend) Handler() http.Handler {
	r := mux.NewRouter()
	v2 := r.PathPrefix("/v2").Subrouter()

	v2.Methods(http.MethodPost).Path("/account/authenticate/custom").HandlerFunc(b.serverKeyOnly(b.handleAuthenticate))
	v2.Methods(http.MethodPost).Path("/account/session/refresh").HandlerFunc(b.serverKeyOnly(b.handleRefresh))
	v2.Methods(http.MethodGet).Path("/console/group/{groupId}").HandlerFunc(b.consoleOnly(b.handleConsoleGroup))

	user := v2.NewRoute().Subrouter()
	user.Use(b.bearer)
	user.Methods(http.MethodGet).Path("/account").HandlerFunc(b.handleAccount)
	user.Methods(http.MethodPost).Path("/session/logout").HandlerFunc(b.handleLogout)
	user.Methods(http.MethodPut).Path("/storage").HandlerFunc(b.handleWrite)
	user.Methods(http.MethodPut).Path("/storage/delete").HandlerFunc(b.handleDelete)
	user.Methods(http.MethodGet).Path("/storage/{collection}").HandlerFunc(b.handleList)
	user.Methods(http.MethodGet).Path("/group").HandlerFunc(b.handleListGroups)
	user.Methods(http.MethodPost).Path("/group").HandlerFunc(b.handleCreateGroup)
	user.Methods(http.MethodPost).Path("/group/{groupId}/join").HandlerFunc(b.handleJoin)
	user.Methods(http.MethodGet).Path("/group/{groupId}/user").HandlerFunc(b.handleGroupUsers)
	user.Methods(http.MethodGet).Path("/user/{userId}/group").HandlerFunc(b.handleUserGroups)
	user.Methods(http.MethodPost).Path("/rpc/{id}").HandlerFunc(b.handleRPC)

	return r
}

func writeErr(w http.ResponseWriter, err error) {
	var apiErr *httpx.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &httpx.APIError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	httpx.WriteJSON(w, apiErr.Status, map[string]any{
		"error":   apiErr.Message,
		"message": apiErr.Message,
		"code":    apiErr.Status,
	})
}

func callerID(r *http.Request) string {
	uid, _ := r.Context().Value(callerKey{}).(string)
	return uid
}

func (b *Backend) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := common.BearerToken(r.Header.Get(common.AuthorizationHeader))
		if token == "" {
			writeErr(w, errUnauthenticated)
			return
		}
		uid, err := b.Authenticate(token)
		if err != nil {
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, uid)))
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (b *Backend) serverKeyOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || !equal(user, b.serverKey) {
			writeErr(w, &httpx.APIError{Status: http.StatusUnauthorized, Message: "Server key invalid"})
			return
		}
		h(w, r)
	}
}

func (b *Backend) consoleOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !equal(user, b.consoleUser) || !equal(pass, b.consolePassword) {
			writeErr(w, &httpx.APIError{Status: http.StatusUnauthorized, Message: "Console credentials invalid"})
			return
		}
		h(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		writeErr(w, badRequest("Invalid request body."))
		return false
	}
	return true
}

func intQuery(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func (b *Backend) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &body) {
		return
	}
	q := r.URL.Query()
	create := q.Get("create") != "false"
	s, err := b.authenticateCustom(body.ID, q.Get("username"), create)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}
	s, err := b.refresh(body.Token)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (b *Backend) handleConsoleGroup(w http.ResponseWriter, r *http.Request) {
	g, err := b.getGroup(mux.Vars(r)["groupId"])
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, g)
}

func (b *Backend) handleAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := b.account(callerID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, acc)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &body) {
		return
	}
	b.logout(body.Token, body.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := b.listObjects(callerID(r), mux.Vars(r)["collection"], intQuery(r, "limit"), r.URL.Query().Get("cursor"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (b *Backend) handleWrite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Objects []platform.WriteObject `json:"objects"`
	}
	if !decode(w, r, &body) {
		return
	}
	acks, err := b.writeObjects(callerID(r), body.Objects)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"acks": acks})
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ObjectIDs []platform.ObjectID `json:"object_ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := b.deleteObjects(callerID(r), body.ObjectIDs); err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func (b *Backend) handleListGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := b.listGroups(q.Get("name"), intQuery(r, "limit"), q.Get("cursor"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (b *Backend) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req platform.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := b.createGroup(callerID(r), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, g)
}

func (b *Backend) handleJoin(w http.ResponseWriter, r *http.Request) {
	if err := b.joinGroup(callerID(r), mux.Vars(r)["groupId"]); err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func (b *Backend) handleGroupUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var state *int
	if s := q.Get("state"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeErr(w, badRequest("Invalid state."))
			return
		}
		state = &v
	}
	out, err := b.groupUsers(mux.Vars(r)["groupId"], intQuery(r, "limit"), state, q.Get("cursor"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (b *Backend) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	out, err := b.userGroups(mux.Vars(r)["userId"])
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// handleRPC accepts a raw JSON body when ?unwrap is present and a JSON string
// otherwise, answering in the matching form.
func (b *Backend) handleRPC(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, unwrap := r.URL.Query()["unwrap"]

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, badRequest("Invalid request body."))
		return
	}
	payload := json.RawMessage(data)
	if !unwrap && len(data) > 0 {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			writeErr(w, badRequest("Payload must be a JSON string unless unwrap is set."))
			return
		}
		payload = json.RawMessage(s)
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	out, err := b.callRPC(r.Context(), callerID(r), id, payload)
	if err != nil {
		writeErr(w, err)
		return
	}
	if unwrap {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "payload": string(out)})
}
