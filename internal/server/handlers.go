package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/ports"
	"DealEventScraper/internal/usecase"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var (
	allKinds   = usecase.AllKinds
	dealsOnly  = usecase.BatchRequest{Deals: true}
	eventsOnly = usecase.BatchRequest{Events: true}
)

type triggerResponse struct {
	Status   string   `json:"status"`
	Trigger  string   `json:"trigger"`
	Scrapers []string `json:"scrapers"`
}

type statusResponse struct {
	Running   bool                 `json:"running"`
	LastBatch *usecase.BatchReport `json:"lastBatch"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("DealEventScraper is running\n"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC(),
	})
}

// handleTrigger accepts the request immediately; the batch runs detached from
// the request so a closed connection never cancels it. A batch already in
// flight makes the new one a logged no-op.
func (s *Server) handleTrigger(req usecase.BatchRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())
		s.async(func() {
			s.deps.Scheduler.RunBatch(ctx, usecase.TriggerHTTP, req)
		})

		writeJSON(w, http.StatusAccepted, triggerResponse{
			Status:   "accepted",
			Trigger:  usecase.TriggerHTTP,
			Scrapers: req.Kinds(),
		})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Running: s.deps.Scheduler.Running()}
	if last, ok := s.deps.Scheduler.LastBatch(); ok {
		resp.LastBatch = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Deals.ListDeals(r.Context(), dealQuery(r))
	if err != nil {
		s.storeError(w, "list deals", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Events.ListEvents(r.Context(), s.eventQuery(r))
	if err != nil {
		s.storeError(w, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// dealQuery ignores unknown retailers and unparsable timestamps rather than rejecting the request.
func dealQuery(r *http.Request) ports.DealQuery {
	params := r.URL.Query()
	q := ports.DealQuery{
		Limit: parseLimit(params.Get("limit")),
		Since: parseSince(params.Get("since")),
	}
	if retailer, ok := domain.ParseRetailer(params.Get("retailer")); ok {
		q.Retailer = string(retailer)
	}
	return q
}

func (s *Server) eventQuery(r *http.Request) ports.EventQuery {
	params := r.URL.Query()
	q := ports.EventQuery{
		Limit:    parseLimit(params.Get("limit")),
		Category: strings.TrimSpace(params.Get("category")),
		Since:    s.now().UTC(),
	}
	if since := parseSince(params.Get("since")); since != nil {
		q.Since = *since
	}
	return q
}

// parseLimit floors numeric input and clamps it to 1..100; anything else gets the default.
func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultLimit
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultLimit
	}
	value = math.Floor(value)
	switch {
	case value < 1:
		return 1
	case value > maxLimit:
		return maxLimit
	default:
		return int(value)
	}
}

func parseSince(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := cast.ToTimeInDefaultLocationE(raw, time.UTC)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ports.ErrSchemaMissing) {
		s.logger.Warn(op+": storage schema missing", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage schema is not provisioned")
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}
