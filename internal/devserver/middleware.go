package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/x-ordo/the-landlord-web-client/internal/logging"
)

type ctxKey int

const identityKey ctxKey = iota

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("user", req.Header.Get("X-User-Hash")),
				}
			},
		},
	)
}

// requireIdentity rejects requests without X-User-Hash and stashes the
// hash in the request context for handlers.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := r.Header.Get("X-User-Hash")
		if hash == "" {
			writeError(w, errBadRequest("missing_identity", "X-User-Hash header is required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, hash)))
	})
}

func identityFrom(r *http.Request) string {
	hash, _ := r.Context().Value(identityKey).(string)
	return hash
}

type savedResponse struct {
	status int
	body   []byte
}

type replayWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *replayWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *replayWriter) Write(p []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	_, _ = rw.body.Write(p)
	return rw.ResponseWriter.Write(p)
}

// idempotency replays the stored response for a previously seen
// Idempotency-Key instead of re-executing the handler. Only successful
// responses are stored so a retry after a failure can still land.
func (s *Server) idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		s.mu.Lock()
		saved, seen := s.idem[key]
		s.mu.Unlock()
		if seen {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(saved.status)
			_, _ = w.Write(saved.body)
			return
		}

		rw := &replayWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		if rw.status >= 200 && rw.status < 300 {
			s.mu.Lock()
			s.idem[key] = savedResponse{status: rw.status, body: rw.body.Bytes()}
			s.mu.Unlock()
		}
	})
}

type httpError struct {
	Status  int
	Code    string
	Message string
}

func (e *httpError) Error() string { return e.Code + ": " + e.Message }

func errBadRequest(code, message string) *httpError {
	return &httpError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func errNotFound(message string) *httpError {
	return &httpError{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

// writeError emits the {"code","message"} error body the client parses.
func writeError(w http.ResponseWriter, err error) {
	he, ok := err.(*httpError)
	if !ok {
		he = &httpError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": he.Code, "message": he.Message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest("invalid_request", "malformed JSON body")
	}
	return nil
}
