package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"DealEventScraper/internal/domain"
)

const (
	allOfGreeceName = "AllOfGreeceOneCulture"
	allOfGreeceURL  = "https://allofgreeceone.culture.gov.gr/wp-json/wp/v2/event?per_page=50&_embed=true"
)

var errUnexpectedShape = errors.New("unexpected response shape")

// NewAllOfGreeceOne reads the WordPress REST event feed of All of Greece One Culture.
func NewAllOfGreeceOne(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](allOfGreeceName, allOfGreeceURL, getter, logger, func(body []byte, runAt time.Time) ([]domain.Event, error) {
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("decode event feed: %w", errUnexpectedShape)
		}
		return ExtractAllOfGreeceEvents(gjson.ParseBytes(body), runAt)
	})
}

// ExtractAllOfGreeceEvents maps WordPress event posts to events. The root must be an array.
func ExtractAllOfGreeceEvents(root gjson.Result, runAt time.Time) ([]domain.Event, error) {
	if root.Type == gjson.Null {
		return []domain.Event{}, nil
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("event feed: %w", errUnexpectedShape)
	}

	events := make([]domain.Event, 0)
	root.ForEach(func(_, item gjson.Result) bool {
		embedded := item.Get("_embedded")
		meta := item.Get("meta")

		event := domain.Event{
			Source:      allOfGreeceName,
			Title:       htmlToText(item.Get("title.rendered").String()),
			SourceURL:   strings.TrimSpace(item.Get("link").String()),
			Description: truncateRunes(htmlToText(item.Get("excerpt.rendered").String()), maxDescriptionRunes),
			ImageURL:    strings.TrimSpace(embedded.Get("wp:featuredmedia").Get("0.source_url").String()),
			Location:    strings.TrimSpace(embedded.Get("region.0.name").String()),
			Category:    strings.TrimSpace(embedded.Get("wp:term").Get("0.0.name").String()),
			StartDate:   parseDate(firstString(meta.Get("_EventStartDate"), meta.Get("start_date"), item.Get("date")), runAt),
			Tags:        tagNames(item.Get("eventTags")),
			ScrapedAt:   runAt,
		}
		if end := firstString(meta.Get("_EventEndDate"), meta.Get("end_date")); end != "" {
			endDate := parseDate(end, time.Time{})
			if !endDate.IsZero() {
				event.EndDate = &endDate
			}
		}

		if event.Valid() {
			events = append(events, event)
		}
		return true
	})
	return events, nil
}

// firstString returns the first non-blank value; WordPress meta values may be single-item arrays.
func firstString(values ...gjson.Result) string {
	for _, v := range values {
		if v.IsArray() {
			v = v.Get("0")
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func tagNames(tags gjson.Result) []string {
	if !tags.IsArray() {
		return nil
	}
	names := make([]string, 0)
	for _, tag := range tags.Array() {
		if name := strings.TrimSpace(tag.Get("name").String()); name != "" {
			names = append(names, name)
		}
	}
	return names
}
