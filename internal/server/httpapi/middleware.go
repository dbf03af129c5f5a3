package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// accessLog tags the request with an id, echoed in the response and added to
// every record logged under the request context, and logs one line per
// request.
func accessLog(log logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(logging.ContextWith(r.Context(), "request_id", id))

		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written,
		)
	})
}

// callerToken finds the caller's platform token: the Authorization header
// first, then the session cookie.
func (s *Server) callerToken(r *http.Request) (string, error) {
	if token := common.BearerToken(r.Header.Get(common.AuthorizationHeader)); token != "" {
		return token, nil
	}
	if s.Sessions == nil {
		return "", common.ErrNoCredential
	}
	sess, err := s.Sessions.FromRequest(r)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// requireCaller rejects requests without a credential and attaches the
// credential to the request context for downstream platform calls.
func (s *Server) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := s.callerToken(r)
		if err != nil || token == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(httpx.WithCredential(r.Context(), token)))
	})
}
