package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/common"
)

// APIError is a non-2xx reply from an upstream JSON API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets callers match upstream failures against the common sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrorUnauthorized:
		return e.Status == http.StatusUnauthorized
	case common.ErrorForbidden:
		return e.Status == http.StatusForbidden
	case common.ErrorNotFound:
		return e.Status == http.StatusNotFound
	case common.ErrVersionConflict:
		return strings.Contains(strings.ToLower(e.Message), "version check failed")
	}
	return false
}

// ParseError builds an APIError from a response body. The message is taken
// from "message", then "error", and falls back to "request failed: <status>".
func ParseError(status int, body []byte) *APIError {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, field := range []string{"message", "error"} {
			if msg, ok := payload[field].(string); ok && msg != "" {
				return &APIError{Status: status, Message: msg}
			}
		}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("request failed: %d", status)}
}
