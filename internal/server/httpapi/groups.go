package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/gorilla/mux"
)

const (
	defaultGroupLimit  = 10
	defaultMemberLimit = 20
	overviewGroupLimit = 100
)

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", common.ErrorValidation, name)
	}
	return n, nil
}

// callerID reads the user id from the caller's platform token.
func callerID(ctx context.Context) (string, error) {
	claims, err := platform.ParseSessionToken(httpx.CredentialFrom(ctx))
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultGroupLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := s.Platform.ListGroups(r.Context(), q.Get("name"), limit, q.Get("cursor"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list.Groups == nil {
		list.Groups = []platform.Group{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req platform.CreateGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "group name is required")
		return
	}
	g, err := s.Platform.CreateGroup(r.Context(), platform.NormalizeCreateGroup(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, g)
}

// MyGroups is the normalized form of the platform's user-groups reply.
type MyGroups struct {
	Groups []platform.UserGroup `json:"groups"`
	Cursor string               `json:"cursor,omitempty"`
}

func (s *Server) myGroups(ctx context.Context) (*platform.UserGroupList, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Platform.UserGroups(ctx, uid)
}

func (s *Server) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	list, err := s.myGroups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := MyGroups{Groups: list.UserGroups, Cursor: list.Cursor}
	if out.Groups == nil {
		out.Groups = []platform.UserGroup{}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleGroupsOverview(w http.ResponseWriter, r *http.Request) {
	all, err := s.Platform.ListGroups(r.Context(), "", overviewGroupLimit, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	mine, err := s.myGroups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"groups": listsync.GroupsWithMembership(all.Groups, mine.UserGroups),
	})
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.Platform.JoinGroup(r.Context(), mux.Vars(r)["groupId"]); err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGroupInfo(w http.ResponseWriter, r *http.Request) {
	g, err := s.Platform.GetGroup(r.Context(), mux.Vars(r)["groupId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"group": g})
}

func (s *Server) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultMemberLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var state *int
	if r.URL.Query().Has("state") {
		st, err := intQuery(r, "state", 0)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		state = &st
	}

	list, err := s.Platform.GroupUsers(r.Context(), mux.Vars(r)["groupId"], limit, state, r.URL.Query().Get("cursor"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list.GroupUsers == nil {
		list.GroupUsers = []platform.GroupUser{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
