package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/learning"
)

// Loop is the part of the learning loop the API exposes
type Loop interface {
	RecordOutcome(ctx context.Context, cycleID string, approved bool, impact float64, now time.Time) (learning.Cycle, learning.Record, error)
	Cycle(id string) (learning.Cycle, error)
	Cycles(limit int) []learning.Cycle
	Records(ctx context.Context) ([]learning.Record, error)
}

const (
	defaultCycleLimit = 20
	maxCycleLimit     = 100
)

// StatsFunc reports pipeline counters for /v1/stats
type StatsFunc func() interface{}

type Handler struct {
	loop  Loop
	now   func() time.Time
	stats StatsFunc
}

func NewHandler(loop Loop, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{loop: loop, now: now}
}

// WithStats serves fn under /v1/stats
func (h *Handler) WithStats(fn StatsFunc) *Handler {
	h.stats = fn
	return h
}

// Router returns the HTTP routes
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(CORSMiddleware)

	r.Get("/health", HealthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cycles", h.HandleListCycles)
		r.Get("/cycles/{id}", h.HandleGetCycle)
		r.Post("/cycles/{id}/outcome", h.HandleOutcome)
		r.Get("/learning", h.HandleLearning)
		r.Get("/stats", h.HandleStats)
	})
	return r
}

type OutcomeRequest struct {
	Approved *bool   `json:"approved"`
	Impact   float64 `json:"impact"`
}

type OutcomeResponse struct {
	Success bool            `json:"success"`
	Cycle   learning.Cycle  `json:"cycle"`
	Record  learning.Record `json:"record"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) HandleOutcome(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Approved == nil {
		writeError(w, http.StatusBadRequest, "approved is required")
		return
	}

	id := chi.URLParam(r, "id")
	c, rec, err := h.loop.RecordOutcome(r.Context(), id, *req.Approved, req.Impact, h.now())
	switch {
	case errors.Is(err, learning.ErrCycleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, learning.ErrOutcomeRecorded):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("cycle_id", id).Msg("Failed to record outcome")
		writeError(w, http.StatusInternalServerError, "Failed to record outcome")
		return
	}

	writeJSON(w, http.StatusOK, OutcomeResponse{Success: true, Cycle: c, Record: rec})
}

func (h *Handler) HandleListCycles(w http.ResponseWriter, r *http.Request) {
	limit := defaultCycleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCycleLimit)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cycles": h.loop.Cycles(limit),
	})
}

func (h *Handler) HandleGetCycle(w http.ResponseWriter, r *http.Request) {
	c, err := h.loop.Cycle(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleLearning(w http.ResponseWriter, r *http.Request) {
	records, err := h.loop.Records(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load learning records")
		writeError(w, http.StatusInternalServerError, "Failed to load learning records")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
	})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusNotFound, "stats not available")
		return
	}
	writeJSON(w, http.StatusOK, h.stats())
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: msg})
}
