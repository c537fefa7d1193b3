package reconciler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prompterly/pkg/telemetry"
)

// Router builds the HTTP router with health, readiness, metrics and the
// read-only report routes.
func (s *Service) Router(serviceName string) http.Handler {
	r := chi.NewRouter()

	allowed := s.cfg.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))
	r.Use(httprate.Limit(100, time.Minute))
	r.Use(telemetry.Middleware(serviceName, s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := withTimeout(req.Context())
		defer cancel()
		if err := s.Ready(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/consistency", s.handleConsistency)
		r.Get("/schema/version", s.handleSchemaVersion)
	})

	return r
}

func (s *Service) handleConsistency(w http.ResponseWriter, req *http.Request) {
	fresh := false
	if v := req.URL.Query().Get("fresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		fresh = parsed
	}

	ctx, cancel := withTimeout(req.Context())
	defer cancel()
	report, err := s.Report(ctx, fresh)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type versionResponse struct {
	Version   int64     `json:"version"`
	Migration string    `json:"migration"`
	Dirty     bool      `json:"dirty"`
	AppliedAt time.Time `json:"applied_at"`
}

func (s *Service) handleSchemaVersion(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := withTimeout(req.Context())
	defer cancel()
	marker, err := s.versioner.Version(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, versionResponse{
		Version:   marker.Version,
		Migration: marker.ID(),
		Dirty:     marker.Dirty,
		AppliedAt: marker.AppliedAt,
	})
}
