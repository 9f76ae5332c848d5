package web

// errors.go turns handler errors into JSON responses. The technical error is
// logged with the request ID; the client sees the mapped user message.

import (
	"net/http"

	"github.com/JonMunkholm/bizdir/internal/core"
	"github.com/JonMunkholm/bizdir/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Action      string            `json:"action,omitempty"`
	Code        string            `json:"code,omitempty"`
	ParseErrors []core.ParseError `json:"parseErrors,omitempty"`
}

// respondError logs err and writes its user-facing form with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	s.respondErrorWith(w, r, err, statusCode, nil)
}

// respondErrorWith is respondError with row errors attached.
func (s *Server) respondErrorWith(w http.ResponseWriter, r *http.Request, err error, statusCode int, parseErrors []core.ParseError) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:       msg.Message,
		Action:      msg.Action,
		Code:        msg.Code,
		ParseErrors: parseErrors,
	})
}
