package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Admin routes
	mux.HandleFunc("POST /admin/scrape/all", s.requireAPIKey(s.handleTrigger(allKinds)))
	mux.HandleFunc("POST /admin/scrape/deals", s.requireAPIKey(s.handleTrigger(dealsOnly)))
	mux.HandleFunc("POST /admin/scrape/events", s.requireAPIKey(s.handleTrigger(eventsOnly)))
	mux.HandleFunc("GET /admin/scrape/status", s.requireAPIKey(s.handleStatus))

	// Listings
	mux.HandleFunc("GET /deals", s.requireAPIKey(s.handleDeals))
	mux.HandleFunc("GET /events", s.handleEvents)

	return mux
}
