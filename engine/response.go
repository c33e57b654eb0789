package engine

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/tokopintar/gatehouse/internal/templates"
)

//go:embed templates/*
var templateFS embed.FS

var errorTemplate = template.Must(template.ParseFS(templateFS, "templates/error.html"))

// Response renders an http response. Handlers build one and the router writes it.
type Response func(http.ResponseWriter, *http.Request)

// Component renders an html component as the response body.
func Component(c templates.Component) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := c.Render(r.Context(), w); err != nil {
			slog.Error("error while rendering component", "error", err)
		}
	}
}

func JSON(v any) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("error while encoding response", "error", err)
		}
	}
}

func Redirect(url string, status int) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, url, status)
	}
}

// WithCookie sets a cookie before writing the wrapped response.
func WithCookie(cook *http.Cookie, next Response) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, cook)
		next(w, r)
	}
}

func Empty() Response {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// Error logs the given error while returning a generic 500 page.
func Error(err error) Response {
	return Errorf("%s", err)
}

// Errorf logs the given message+args while returning a generic 500 page.
func Errorf(format string, args ...any) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Error(fmt.Sprintf(format, args...))
		renderErrorPage(w, 500, "Internal error - please try again later")
	}
}

// ClientErrorf renders the given message to the user with the given status.
// Unlike Errorf the message is shown to the client, so it must not contain
// anything sensitive.
func ClientErrorf(status int, format string, args ...any) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		renderErrorPage(w, status, fmt.Sprintf(format, args...))
	}
}

func Unauthorized(err error) Response {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("unauthorized request", "url", r.URL.Path, "error", err)
		renderErrorPage(w, http.StatusUnauthorized, "Unauthorized")
	}
}

func renderErrorPage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorTemplate.Execute(w, map[string]any{"Status": status, "Message": msg}); err != nil {
		slog.Error("error while rendering error page", "error", err)
	}
}
