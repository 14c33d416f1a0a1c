package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/auth"
	"github.com/Simplici0/quickestimate/internal/photos"
	"github.com/Simplici0/quickestimate/internal/store"
)

type server struct {
	store    store.Store
	sessions *auth.Manager
	creds    auth.Credentials
	cookie   cookieConfig

	photos       photos.Storage
	limits       photos.Limits
	uploadDir    string // served under uploadPrefix when photos live on disk
	uploadPrefix string

	exportPrefix string
	corsOrigins  []string
	limiter      *ipLimiter
	now          func() time.Time

	// trustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only set it behind a proxy that overwrites those headers.
	trustProxy bool
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	if s.uploadDir != "" {
		prefix := s.uploadPrefix
		r.Handle(prefix+"/*", uploadHeaders(http.StripPrefix(prefix+"/", http.FileServer(http.Dir(s.uploadDir)))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Get("/project-types", s.handleProjectTypes)
		r.With(s.limiter.middleware).Post("/estimate", s.handleEstimate)
		r.With(s.limiter.middleware).Post("/leads", s.handleCreateLead)

		r.Route("/admin", func(r chi.Router) {
			r.With(s.limiter.middleware).Post("/login", s.handleLogin)
			r.Get("/logout", s.handleLogout)
			r.Post("/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/settings", s.handleGetSettings)
				r.Post("/settings", s.handleUpdateSettings)
				r.Post("/settings/reset", s.handleResetSettings)
				r.Get("/leads", s.handleListLeads)
				r.Get("/leads/export", s.handleExportCSV)
				r.Get("/leads/export.xlsx", s.handleExportXLSX)
				r.Get("/leads/{id}", s.handleGetLead)
			})
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorBody is the JSON error envelope. Details holds validation
// diagnostics or the underlying error text.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// uploadHeaders stops browsers from sniffing stored photos into active
// content and forces a download for anything that is not an image.
func uploadHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if !photos.IsImageExt(r.URL.Path) {
			w.Header().Set("Content-Disposition", "attachment")
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v before writing the status so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
		buf.Reset()
		buf.WriteString(`{"error":"Failed to encode response"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// writeFailure reports an unexpected error as a 500 and logs it.
func writeFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	zap.L().Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msg, err.Error())
}
