package server

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/ports"
)

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"iso": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"isoPtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	},
	"str": func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	},
	"num": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <title>Deals &amp; Events Dashboard</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 2rem; background: #f7f7f7; color: #333; }
      table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; background: #fff; }
      th, td { border: 1px solid #ddd; padding: 0.75rem; text-align: left; }
      th { background: #f0f0f0; }
      a { color: #0070f3; text-decoration: none; }
    </style>
  </head>
  <body>
    <h1>Deals &amp; Events Dashboard</h1>
    <section>
      <h2>Latest Deals</h2>
      <table>
        <thead>
          <tr><th>Title</th><th>Retailer</th><th>Sale Price</th><th>Discount %</th><th>Scraped At</th><th>Product</th></tr>
        </thead>
        <tbody>
        {{- range .Deals}}
          <tr>
            <td>{{.Title}}</td>
            <td>{{.Retailer}}</td>
            <td>{{num .SalePrice}}</td>
            <td>{{num .DiscountPercentage}}</td>
            <td>{{iso .ScrapedAt}}</td>
            <td>{{if .ProductURL}}<a href="{{.ProductURL}}">Link</a>{{end}}</td>
          </tr>
        {{- else}}
          <tr><td colspan="6">No deals found</td></tr>
        {{- end}}
        </tbody>
      </table>
    </section>
    <section>
      <h2>Upcoming Events</h2>
      <table>
        <thead>
          <tr><th>Title</th><th>Location</th><th>Start</th><th>End</th><th>Category</th><th>Source</th></tr>
        </thead>
        <tbody>
        {{- range .Events}}
          <tr>
            <td>{{.Title}}</td>
            <td>{{str .Location}}</td>
            <td>{{iso .StartDate}}</td>
            <td>{{isoPtr .EndDate}}</td>
            <td>{{str .Category}}</td>
            <td>{{if .SourceURL}}<a href="{{.SourceURL}}">Link</a>{{end}}</td>
          </tr>
        {{- else}}
          <tr><td colspan="6">No events found</td></tr>
        {{- end}}
        </tbody>
      </table>
    </section>
  </body>
</html>
`))

type dashboardData struct {
	Deals  []domain.DealRow
	Events []domain.EventRow
}

// handleDashboard renders the latest deals and upcoming events as one HTML page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	deals, err := s.deps.Deals.ListDeals(r.Context(), ports.DealQuery{Limit: limit})
	if err != nil {
		s.storeError(w, "dashboard deals", err)
		return
	}
	events, err := s.deps.Events.ListEvents(r.Context(), ports.EventQuery{Limit: limit, Since: s.now().UTC()})
	if err != nil {
		s.storeError(w, "dashboard events", err)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, dashboardData{Deals: deals, Events: events}); err != nil {
		s.logger.Error("render dashboard failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
