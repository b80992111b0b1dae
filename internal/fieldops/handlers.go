package fieldops

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldline/ops-backend/internal/assignment"
	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/geo"
	"github.com/fieldline/ops-backend/internal/utils"
)

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrUnknownJob):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, assignment.ErrNotPending), errors.Is(err, assignment.ErrNotACandidate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[fieldops] request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type decisionOut struct {
	Status     assignment.Status     `json:"status"`
	Provenance assignment.Provenance `json:"provenance"`
	JobID      string                `json:"job_id,omitempty"`
	Candidates []geo.CandidateMatch  `json:"candidates,omitempty"`
	Options    []string              `json:"options,omitempty"`
}

func newDecisionOut(d assignment.Decision) decisionOut {
	out := decisionOut{Status: d.Status(), Provenance: d.Provenance()}
	switch d := d.(type) {
	case assignment.Assigned:
		out.JobID = d.EntityID
	case assignment.NeedsChoice:
		out.Candidates = d.Display()
		out.Options = d.Options
	}
	return out
}

type photoOut struct {
	*Photo
	CandidateJobs []geo.CandidateMatch `json:"candidate_jobs,omitempty"`
}

func newPhotoOut(p *Photo) photoOut {
	out := photoOut{Photo: p}
	if pending, ok := photoDecision(p).(assignment.NeedsChoice); ok {
		out.CandidateJobs = pending.Candidates
	}
	return out
}

// ListJobs returns every job.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetCandidates returns the full uncapped ranking for ?lat=&lng=.
func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng query parameters are required", http.StatusBadRequest)
		return
	}

	candidates, err := h.svc.Candidates(r.Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		writeError(w, err)
		return
	}
	if candidates == nil {
		candidates = []geo.CandidateMatch{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

type captureRequest struct {
	URL         string     `json:"url"`
	ManualJobID string     `json:"manual_job_id"`
	Location    *geo.Point `json:"location"`
}

// CapturePhoto stores an uploaded photo and resolves its job.
func (h *Handler) CapturePhoto(w http.ResponseWriter, r *http.Request) {
	crewMemberID, _ := utils.GetCrewMemberIDFromContext(r.Context())

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	p, err := h.svc.CapturePhoto(r.Context(), CaptureInput{
		URL:         req.URL,
		CapturedBy:  crewMemberID,
		ManualJobID: req.ManualJobID,
		Point:       req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPhotoOut(p))
}

// GetPhoto returns one photo with its pending candidates.
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "photo_id"))
	if err != nil {
		http.Error(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.GetPhoto(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPhotoOut(p))
}

type resolveRequest struct {
	JobID    string `json:"job_id"`
	Unassign bool   `json:"unassign"`
}

// ResolvePhoto commits a person's pick for a pending photo.
func (h *Handler) ResolvePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "photo_id"))
	if err != nil {
		http.Error(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.JobID == "" && !req.Unassign {
		http.Error(w, "job_id or unassign is required", http.StatusBadRequest)
		return
	}
	if req.Unassign {
		req.JobID = ""
	}

	p, err := h.svc.ResolvePhoto(r.Context(), id, req.JobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPhotoOut(p))
}

// TodayContext resolves the session crew member's job from today's schedule.
func (h *Handler) TodayContext(w http.ResponseWriter, r *http.Request) {
	crewMemberID, ok := utils.GetCrewMemberIDFromContext(r.Context())
	if !ok || crewMemberID == "" {
		http.Error(w, "Unauthorized: missing crew member", http.StatusUnauthorized)
		return
	}

	res, err := h.svc.TodayContext(r.Context(), crewMemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Decision   decisionOut         `json:"decision"`
		PromptPool []assignment.Entity `json:"prompt_pool"`
	}{
		Decision:   newDecisionOut(res.Decision),
		PromptPool: res.PromptPool,
	})
}

// ScanAlerts runs the compliance scan and records its alerts.
func (h *Handler) ScanAlerts(w http.ResponseWriter, r *http.Request) {
	all, fresh, err := h.svc.ScanAndRecord(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if all == nil {
		all = []compliance.Alert{}
	}
	if fresh == nil {
		fresh = []compliance.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string][]compliance.Alert{
		"alerts": all,
		"new":    fresh,
	})
}

// ListAlerts returns stored alerts; ?all=true includes dismissed ones.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	includeDismissed, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	alerts, err := h.svc.ListAlerts(r.Context(), includeDismissed)
	if err != nil {
		writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// DismissAlert sets the dismissed flag that outlives later scans.
func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DismissAlert(r.Context(), chi.URLParam(r, "alert_id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
