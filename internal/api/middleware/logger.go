package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// redactedParams are query parameters that carry credentials. The websocket
// handshake passes the access token this way.
var redactedParams = []string{"token", "access_token"}

const redacted = "REDACTED"

// RequestLogger logs one record per request through logger, at warn for 4xx
// and error for 5xx. Panics caught by chi's Recoverer land here too.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chiMiddleware.RequestLogger(&slogFormatter{logger: logger.With("component", "http")})
}

// RedactURL renders the request URI of u with credential parameters masked.
func RedactURL(u *url.URL) string {
	q := u.Query()
	hit := false
	for _, name := range redactedParams {
		if q.Has(name) {
			q.Set(name, redacted)
			hit = true
		}
	}
	if !hit {
		return u.RequestURI()
	}

	clean := *u
	clean.RawQuery = q.Encode()
	return clean.RequestURI()
}

type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) chiMiddleware.LogEntry {
	return &slogEntry{
		ctx: r.Context(),
		logger: f.logger.With(
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("uri", RedactURL(r.URL)),
			slog.String("remote", r.RemoteAddr),
		),
	}
}

type slogEntry struct {
	ctx    context.Context
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	e.logger.LogAttrs(e.ctx, level, "request",
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("duration", elapsed),
	)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.ErrorContext(e.ctx, "request panicked", "panic", fmt.Sprint(v), "stack", string(stack))
}
