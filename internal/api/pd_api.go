package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cpupd-dev/cpupd/internal/app/power"
	"github.com/cpupd-dev/cpupd/internal/domain"
)

// Durations cross the wire as integer microseconds, matching the
// topology file format.

// ─── Status and hierarchy ───────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "cpupd is running",
		"domains":      s.svc.Registry().Len(),
		"tolerance_us": s.svc.Tolerance().Microseconds(),
	})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"domains": s.svc.Domains(),
	})
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Domain(chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ─── Admission ──────────────────────────────────────────────────────────────

type admitRequest struct {
	ToleranceUs int64 `json:"tolerance_us"`
	Wakeups     []struct {
		Cpu  int   `json:"cpu"`
		InUs int64 `json:"in_us"`
	} `json:"wakeups"`
	Offline []int `json:"offline"`
}

// handleAdmit evaluates power-down admission for a domain. An empty
// body evaluates against the live latency and CPU state sources; a
// body supplies a one-shot tolerance plus wakeup offsets.
func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req admitRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		dec, err := s.svc.Evaluate(name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeDecision(w, dec)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wakeups := make(map[int]time.Duration, len(req.Wakeups))
	for _, wk := range req.Wakeups {
		wakeups[wk.Cpu] = time.Duration(wk.InUs) * time.Microsecond
	}
	tolerance := time.Duration(req.ToleranceUs) * time.Microsecond
	dec, err := s.svc.EvaluateWith(name, tolerance, wakeups, req.Offline)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeDecision(w, dec)
}

func writeDecision(w http.ResponseWriter, dec power.Decision) {
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":         dec.Domain,
		"admit":          dec.Admit,
		"selected_state": dec.SelectedState,
		"tolerance_us":   dec.Tolerance.Microseconds(),
	})
}

// ─── Transitions ────────────────────────────────────────────────────────────

func (s *Server) handlePowerOff(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := s.svc.PowerOff(name)
	if errors.Is(err, power.ErrVetoed) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"domain": name,
			"admit":  false,
		})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain": name,
		"admit":  true,
		"status": status,
	})
}

func (s *Server) handlePowerOn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := s.svc.PowerOn(name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain": name,
		"status": status,
	})
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	hist, err := s.svc.History(r.URL.Query().Get("domain"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hist == nil {
		hist = []domain.Transition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transitions": hist,
	})
}

// ─── Latency tolerance ──────────────────────────────────────────────────────

func (s *Server) handleGetTolerance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tolerance_us": s.svc.Tolerance().Microseconds(),
	})
}

func (s *Server) handleSetTolerance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToleranceUs int64 `json:"tolerance_us"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ToleranceUs < 0 {
		writeError(w, http.StatusBadRequest, "tolerance_us must be >= 0")
		return
	}
	s.svc.SetTolerance(time.Duration(req.ToleranceUs) * time.Microsecond)
	writeJSON(w, http.StatusOK, map[string]any{
		"tolerance_us": s.svc.Tolerance().Microseconds(),
	})
}

// ─── Per-CPU state ──────────────────────────────────────────────────────────

func cpuParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "cpu"))
}

func (s *Server) handleCpuOnline(w http.ResponseWriter, r *http.Request) {
	cpu, err := cpuParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cpu must be an integer")
		return
	}
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.svc.CpuStates().SetOnline(cpu, req.Online)
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu":    cpu,
		"online": req.Online,
	})
}

func (s *Server) handleCpuWakeup(w http.ResponseWriter, r *http.Request) {
	cpu, err := cpuParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cpu must be an integer")
		return
	}
	var req struct {
		InUs int64 `json:"in_us"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at := time.Now().Add(time.Duration(req.InUs) * time.Microsecond)
	s.svc.CpuStates().SetWakeup(cpu, at)
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu":   cpu,
		"in_us": req.InUs,
	})
}

func (s *Server) handleCpuClearWakeup(w http.ResponseWriter, r *http.Request) {
	cpu, err := cpuParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cpu must be an integer")
		return
	}
	s.svc.CpuStates().ClearWakeup(cpu)
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu": cpu,
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
