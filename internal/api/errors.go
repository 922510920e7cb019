package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/chat"
	"github.com/dgallion1/profilex/internal/llm"
)

const (
	msgUnavailable = "The language model is not available. Please try again later."
	msgConnection  = "Service temporarily unavailable. Please try again later."
	msgRateLimit   = "Rate limit exceeded. Please try again later."
	msgInternal    = "An unexpected error occurred"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to a status code and a message safe to show a
// caller. Only input errors and tool errors carry their own text; both are
// built from redacted messages.
func statusFor(err error) (int, string) {
	var toolErr *chat.ToolError
	switch {
	case llm.IsUnavailable(err):
		return http.StatusServiceUnavailable, msgUnavailable
	case llm.IsConnection(err):
		return http.StatusServiceUnavailable, msgConnection
	case llm.IsRateLimit(err):
		return http.StatusTooManyRequests, msgRateLimit
	case isInputError(err):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &toolErr):
		return http.StatusInternalServerError, toolErr.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func isInputError(err error) bool {
	for _, target := range []error{
		errBadRequest,
		chat.ErrEmptyConversation,
		chat.ErrInvalidMessage,
		chat.ErrInvalidArgs,
		browser.ErrInvalidProfileURL,
		browser.ErrMissingCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	jsonError(w, msg, code)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
