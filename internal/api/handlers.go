package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forgectl/forge/internal/domain"
)

const defaultHistoryLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	phase, _, _, _ := s.svc.View()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"phase":  phase,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	phase, snap, _, active := s.svc.View()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"phase":          phase,
		"active_profile": active,
		"snapshot":       snap,
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	_, _, caps, _ := s.svc.View()
	writeJSON(w, http.StatusOK, caps)
}

func (s *Server) handleRedetect(w http.ResponseWriter, r *http.Request) {
	caps, err := s.svc.Redetect(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// ─── Feature Endpoints ──────────────────────────────────────────────────────

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleGetPerformanceMode(w http.ResponseWriter, r *http.Request) {
	_, snap, _, _ := s.svc.View()
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(snap.PerformanceMode)})
}

func (s *Server) handleSetPerformanceMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	mode, err := domain.ParsePerformanceMode(req.Mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.svc.SetPerformanceMode(r.Context(), mode); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (s *Server) handleGetGpuMode(w http.ResponseWriter, r *http.Request) {
	_, snap, _, _ := s.svc.View()
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(snap.GpuMode)})
}

func (s *Server) handleSetGpuMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	mode, err := domain.ParseGpuMode(req.Mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.svc.SetGpuMode(r.Context(), mode); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"mode": string(mode),
		"note": "GPU mode changes take effect after reboot",
	})
}

func (s *Server) handleGetFan(w http.ResponseWriter, r *http.Request) {
	_, snap, _, _ := s.svc.View()
	writeJSON(w, http.StatusOK, snap.Fan)
}

func (s *Server) handleSetFan(w http.ResponseWriter, r *http.Request) {
	var settings domain.FanSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	if err := s.svc.SetFan(r.Context(), settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// rgbRequest carries RGB settings with the color as a "#RRGGBB" string,
// which is what the CLI and scripts naturally produce.
type rgbRequest struct {
	Effect     string `json:"effect"`
	Color      string `json:"color"`
	Brightness int    `json:"brightness"`
	Speed      int    `json:"speed"`
}

func (s *Server) handleSetRgb(w http.ResponseWriter, r *http.Request) {
	var req rgbRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	effect, err := domain.ParseRgbEffect(req.Effect)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	settings := domain.RgbSettings{
		Effect:     effect,
		Brightness: req.Brightness,
		Speed:      req.Speed,
	}
	if req.Color != "" {
		color, err := domain.ParseRgbColor(req.Color)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		settings.Color = color
	}
	if err := s.svc.SetRgb(r.Context(), settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type batteryRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleGetBatteryLimit(w http.ResponseWriter, r *http.Request) {
	_, snap, _, _ := s.svc.View()
	writeJSON(w, http.StatusOK, map[string]int{"limit": snap.BatteryLimit})
}

func (s *Server) handleSetBatteryLimit(w http.ResponseWriter, r *http.Request) {
	var req batteryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	if err := s.svc.SetBatteryLimit(r.Context(), req.Limit); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"limit": req.Limit})
}

// ─── Profile Endpoints ──────────────────────────────────────────────────────

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": s.svc.ListProfiles(),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetProfile(chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	if err := s.svc.CreateProfile(p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body")
		return
	}
	p.Name = chi.URLParam(r, "name")
	if err := s.svc.UpdateProfile(p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteProfile(chi.URLParam(r, "name")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	steps, err := s.svc.ApplyProfile(r.Context(), name)

	var pf *domain.PartialFailure
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"profile": name,
			"steps":   stepsJSON(steps),
		})
	case errors.As(err, &pf):
		// Some steps landed; report per-step outcomes.
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"profile": name,
			"steps":   stepsJSON(steps),
			"error": map[string]interface{}{
				"message": err.Error(),
				"kind":    string(domain.KindPartialFailure),
			},
		})
	default:
		writeDomainError(w, err)
	}
}

type stepJSON struct {
	Feature string `json:"feature"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

func stepsJSON(steps []domain.StepResult) []stepJSON {
	out := make([]stepJSON, len(steps))
	for i, s := range steps {
		out[i] = stepJSON{Feature: string(s.Feature), OK: s.OK()}
		if s.Err != nil {
			out[i].Error = s.Err.Error()
		}
	}
	return out
}

// ─── Telemetry Endpoints ────────────────────────────────────────────────────

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	samples, err := s.svc.SensorHistory(queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"samples": samples})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.SettingsJournal(queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultHistoryLimit
}
