package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one structured line per request. Only the path is logged;
// the query string can carry session tokens (see /ws).
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&slogFormatter{logger: logger})
}

type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &slogEntry{logger: f.logger.With(
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.Info("request completed",
		"status", status,
		"bytes", bytes,
		"duration", elapsed,
	)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panicked", "panic", v, "stack", string(stack))
}
