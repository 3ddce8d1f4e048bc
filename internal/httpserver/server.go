// internal/httpserver/server.go
//
// HTTP server wiring for the image match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Generation endpoint (optional auth): POST /api/generate, GET /api/usage.
//   - Preset catalogue: GET /api/presets, GET /api/presets/{id}.
//   - Anonymous client tokens: POST /auth/anon.
//
// Notes:
//   - The server holds no game sessions. Each player's session lives in their client.
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the client id when a valid token is present;
//     guests are counted against the quota by hashed remote address instead.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imagematch/internal/generate"
	"github.com/robalobadob/imagematch/internal/presets"
	"github.com/robalobadob/imagematch/internal/quota"
)

// Options configures a Server. Provider and Presets are required.
type Options struct {
	Provider        generate.Provider
	ProviderName    string
	Presets         *presets.Catalog
	Quota           *quota.Store // nil disables usage tracking
	GenerateTimeout time.Duration
	ClientOrigin    string
	TrustProxy      bool // take the client address from X-Forwarded-For / X-Real-IP
	Auth            AuthConfig
}

// Server bundles router, generation provider, catalogue and usage store.
type Server struct {
	r        *chi.Mux
	gen      generate.Provider
	provider string
	presets  *presets.Catalog
	quota    *quota.Store
	timeout  time.Duration
	auth     AuthConfig
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 60 * time.Second
	}
	if opts.ProviderName == "" {
		opts.ProviderName = "custom"
	}
	s := &Server{
		r:        chi.NewRouter(),
		gen:      opts.Provider,
		provider: opts.ProviderName,
		presets:  opts.Presets,
		quota:    opts.Quota,
		timeout:  opts.GenerateTimeout,
		auth:     opts.Auth.withDefaults(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	if opts.TrustProxy {
		s.r.Use(chimw.RealIP) // set RemoteAddr from X-Forwarded-For etc.; only behind a proxy that overwrites them
	}
	s.r.Use(accessLog)                                // one zerolog line per request
	s.r.Use(chimw.Recoverer)                          // recover from panics
	s.r.Use(chimw.Timeout(s.timeout + 5*time.Second)) // bound handler time; generation has its own deadline
	s.r.Use(jsonContentType)                          // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))                  // credentials-friendly CORS
	s.r.Use(s.withOptionalAuth())                     // client id from bearer or cookie

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":  "imagematch",
			"provider": s.provider,
			"endpoints": []string{
				"/health", "POST /auth/anon", "POST /api/generate", "GET /api/usage",
				"GET /api/presets", "GET /api/presets/{id}",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/auth/anon", s.handleAnon)

	s.r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/usage", s.handleUsage)
		r.Get("/presets", s.handlePresets)
		r.Get("/presets/{id}", s.handlePreset)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin (default http://localhost:5173).
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := log.Info()
		if status >= 500 {
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------- small util --------------------------------

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
