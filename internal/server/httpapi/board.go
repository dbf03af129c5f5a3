package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/blob"
	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/gorilla/mux"
)

// PostList is the body of the post listing route.
type PostList struct {
	Posts  []codec.GroupPost `json:"posts"`
	Cursor string            `json:"cursor,omitempty"`
}

type CommentList struct {
	Comments []codec.PostComment `json:"comments"`
	Cursor   string              `json:"cursor,omitempty"`
}

// AttachmentRequest names the file a client is about to upload.
type AttachmentRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", board.DefaultPostLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Board.ListPosts(r.Context(), mux.Vars(r)["groupId"], r.URL.Query().Get("cursor"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, PostList{Posts: page.Items, Cursor: page.Cursor})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in board.PostInput
	if !s.decode(w, r, &in) {
		return
	}
	post, err := s.Board.CreatePost(r.Context(), mux.Vars(r)["groupId"], in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, post)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Board.GetPost(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var patch board.PostPatch
	if !s.decode(w, r, &patch) {
		return
	}
	post, err := s.Board.UpdatePost(r.Context(), mux.Vars(r)["postId"], patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Board.DeletePost(r.Context(), mux.Vars(r)["postId"]); err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", board.DefaultCommentLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Board.ListComments(r.Context(), mux.Vars(r)["postId"], r.URL.Query().Get("cursor"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, CommentList{Comments: page.Items, Cursor: page.Cursor})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content string `json:"content"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	comment, err := s.Board.CreateComment(r.Context(), mux.Vars(r)["postId"], in.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, comment)
}

func (s *Server) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	if !s.Attachments.Enabled() {
		s.fail(w, r, blob.ErrDisabled)
		return
	}
	var in AttachmentRequest
	if !s.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Filename) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "filename is required")
		return
	}
	groupID := mux.Vars(r)["groupId"]
	if err := s.Board.Authorize(r.Context(), groupID); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.Attachments.PresignUpload(r.Context(), blob.NewObjectKey(groupID, in.Filename))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handlePresignDownload(w http.ResponseWriter, r *http.Request) {
	post, err := s.Board.GetPost(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if post.AttachmentKey == "" {
		s.fail(w, r, common.ErrorNotFound)
		return
	}
	p, err := s.Attachments.PresignDownload(r.Context(), post.AttachmentKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
