// Package api provides the local HTTP control surface for the forge daemon.
// The CLI is its primary client; the routes are plain JSON over loopback.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/infra/sqlite"
)

// Service is the daemon surface the API exposes. Implemented by
// *daemon.Daemon; tests substitute a fake.
type Service interface {
	View() (phase string, snap domain.HardwareSnapshot, caps domain.CapabilitySet, activeProfile string)
	Redetect(ctx context.Context) (domain.CapabilitySet, error)

	SetPerformanceMode(ctx context.Context, mode domain.PerformanceMode) error
	SetGpuMode(ctx context.Context, mode domain.GpuMode) error
	SetFan(ctx context.Context, settings domain.FanSettings) error
	SetRgb(ctx context.Context, settings domain.RgbSettings) error
	SetBatteryLimit(ctx context.Context, limit int) error

	ListProfiles() []domain.Profile
	GetProfile(name string) (domain.Profile, error)
	CreateProfile(p domain.Profile) error
	UpdateProfile(p domain.Profile) error
	DeleteProfile(name string) error
	ApplyProfile(ctx context.Context, name string) ([]domain.StepResult, error)

	SensorHistory(limit int) ([]sqlite.Sample, error)
	SettingsJournal(limit int) ([]sqlite.JournalEntry, error)
}

// Server is the forge HTTP API server.
type Server struct {
	svc            Service
	metricsEnabled bool
}

// NewServer creates a new API server over svc.
func NewServer(svc Service) *Server {
	return &Server{svc: svc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health stays reachable in every phase.
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.readiness)

		r.Get("/state", s.handleState)
		r.Get("/capabilities", s.handleCapabilities)
		r.Post("/capabilities/detect", s.handleRedetect)

		r.Get("/performance-mode", s.handleGetPerformanceMode)
		r.Post("/performance-mode", s.handleSetPerformanceMode)
		r.Get("/gpu-mode", s.handleGetGpuMode)
		r.Post("/gpu-mode", s.handleSetGpuMode)
		r.Get("/fan", s.handleGetFan)
		r.Post("/fan", s.handleSetFan)
		r.Post("/rgb", s.handleSetRgb)
		r.Get("/battery-limit", s.handleGetBatteryLimit)
		r.Post("/battery-limit", s.handleSetBatteryLimit)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.handleListProfiles)
			r.Post("/", s.handleCreateProfile)
			r.Get("/{name}", s.handleGetProfile)
			r.Put("/{name}", s.handleUpdateProfile)
			r.Delete("/{name}", s.handleDeleteProfile)
			r.Post("/{name}/apply", s.handleApplyProfile)
		})

		r.Get("/history", s.handleHistory)
		r.Get("/journal", s.handleJournal)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// readiness rejects requests while the daemon is initializing or
// shutting down. GET /health bypasses this middleware.
func (s *Server) readiness(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phase, _, _, _ := s.svc.View()
		if phase != "ready" {
			writeError(w, http.StatusServiceUnavailable, domain.KindNotReady,
				"daemon is "+phase)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with a machine-readable kind.
func writeError(w http.ResponseWriter, status int, kind domain.ErrorKind, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"kind":    string(kind),
		},
	})
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.Kind(err)
	writeError(w, statusFor(kind), kind, err.Error())
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnsupported:
		return http.StatusNotImplemented
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindBusy, domain.KindNotReady:
		return http.StatusServiceUnavailable
	case domain.KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
