package httputil

import (
	"log/slog"
	"net/http"
)

// InternalServerError logs err and hides it from the client.
func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, msg, err)
}

func clientError(w http.ResponseWriter, status int, msg string, err error) {
	attrs := []any{"status", status, "message", msg}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	slog.Warn("request rejected", attrs...)
	http.Error(w, msg, status)
}
