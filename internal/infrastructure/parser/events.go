package parser

import (
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DealEventScraper/internal/domain"
)

const (
	visitGreeceName = "VisitGreece"
	visitGreeceURL  = "https://www.visitgreece.gr/events/"

	pigolampidesName = "Pigolampides"
	pigolampidesURL  = "https://pigolampides.gr/events/"

	moreComName    = "MoreCom"
	moreComBaseURL = "https://www.more.com"
	moreComURL     = "https://www.more.com/events/?category=family"

	olakalaName = "Olakala"
	olakalaURL  = "https://www.olakala.gr/events/"

	kalamataName = "Kalamata"
	kalamataURL  = "https://events.kalamata.gr/"
)

// cardSelectors describes event listings that share the card layout
// (title, link, excerpt, date and location children).
type cardSelectors struct {
	item        string
	title       string
	description string
	date        string
	location    string
	// titleFromLink takes the title from the first anchor instead of the title selector.
	titleFromLink bool
	baseURL       string
}

var (
	pigolampidesCards = cardSelectors{
		item:        ".event-card",
		title:       ".event-title",
		description: ".event-excerpt",
		date:        ".event-date",
		location:    ".event-location",
	}
	moreComCards = cardSelectors{
		item:          ".event-card",
		description:   ".event-description",
		date:          ".event-date",
		location:      ".event-location",
		titleFromLink: true,
		baseURL:       moreComBaseURL,
	}
	kalamataCards = cardSelectors{
		item:        ".event-item",
		title:       ".event-title",
		description: ".event-excerpt",
		date:        ".event-date",
		location:    ".event-location",
	}
)

// NewVisitGreece reads the Visit Greece events listing.
func NewVisitGreece(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](visitGreeceName, visitGreeceURL, getter, logger, htmlExtractor(ExtractVisitGreeceEvents))
}

// NewPigolampides reads the Pigolampides events page.
func NewPigolampides(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](pigolampidesName, pigolampidesURL, getter, logger, htmlExtractor(ExtractPigolampidesEvents))
}

// NewMoreCom reads the more.com family events listing.
func NewMoreCom(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](moreComName, moreComURL, getter, logger, htmlExtractor(ExtractMoreComEvents))
}

// NewOlakala reads the Olakala events calendar.
func NewOlakala(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](olakalaName, olakalaURL, getter, logger, htmlExtractor(ExtractOlakalaEvents))
}

// NewKalamata reads the municipality of Kalamata events page.
func NewKalamata(getter Getter, logger *slog.Logger) *SiteSource[domain.Event] {
	return newSiteSource[domain.Event](kalamataName, kalamataURL, getter, logger, htmlExtractor(ExtractKalamataEvents))
}

// ExtractVisitGreeceEvents walks the elementor loop items of visitgreece.gr.
func ExtractVisitGreeceEvents(doc *goquery.Document, runAt time.Time) []domain.Event {
	events := make([]domain.Event, 0)
	doc.Find(`[data-elementor-type="loop-item"]`).Each(func(_ int, item *goquery.Selection) {
		anchor := item.Find("a").First()
		event := domain.Event{
			Source:      visitGreeceName,
			Title:       text(anchor),
			SourceURL:   attr(anchor, "href"),
			ImageURL:    attr(item.Find("img"), "src"),
			Description: text(item.Find(".eael-post-excerpt p").First()),
			Location:    text(item.Find(".eael-entry-meta .eael-entry-author").First()),
			StartDate:   parseDate(text(item.Find(".eael-entry-meta .eael-entry-date").First()), runAt),
			ScrapedAt:   runAt,
		}
		if !event.Valid() {
			return
		}
		events = append(events, event)
	})
	return events
}

// ExtractPigolampidesEvents walks pigolampides.gr event cards.
func ExtractPigolampidesEvents(doc *goquery.Document, runAt time.Time) []domain.Event {
	return extractCards(doc, pigolampidesName, pigolampidesCards, runAt)
}

// ExtractMoreComEvents walks more.com event cards; relative links are absolutized.
func ExtractMoreComEvents(doc *goquery.Document, runAt time.Time) []domain.Event {
	return extractCards(doc, moreComName, moreComCards, runAt)
}

// ExtractKalamataEvents walks events.kalamata.gr items.
func ExtractKalamataEvents(doc *goquery.Document, runAt time.Time) []domain.Event {
	return extractCards(doc, kalamataName, kalamataCards, runAt)
}

// ExtractOlakalaEvents walks The Events Calendar list view used by olakala.gr.
func ExtractOlakalaEvents(doc *goquery.Document, runAt time.Time) []domain.Event {
	events := make([]domain.Event, 0)
	doc.Find(".tribe-events-calendar-list__event").Each(func(_ int, item *goquery.Selection) {
		link := item.Find(".tribe-events-calendar-list__event-title-link")
		event := domain.Event{
			Source:      olakalaName,
			Title:       text(link),
			SourceURL:   attr(link, "href"),
			ImageURL:    attr(item.Find("img"), "src"),
			Description: text(item.Find(".tribe-events-calendar-list__event-description p")),
			Location:    text(item.Find(".tribe-events-calendar-list__event-venue")),
			StartDate:   parseDate(attr(item.Find("time"), "datetime"), runAt),
			ScrapedAt:   runAt,
		}
		if !event.Valid() {
			return
		}
		events = append(events, event)
	})
	return events
}

func extractCards(doc *goquery.Document, source string, sel cardSelectors, runAt time.Time) []domain.Event {
	events := make([]domain.Event, 0)
	doc.Find(sel.item).Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a").First()

		title := text(anchor)
		if !sel.titleFromLink {
			title = text(card.Find(sel.title))
		}
		href := attr(anchor, "href")
		if sel.baseURL != "" {
			href = absoluteURL(sel.baseURL, href)
		}

		event := domain.Event{
			Source:      source,
			Title:       title,
			SourceURL:   href,
			ImageURL:    attr(card.Find("img"), "src"),
			Description: text(card.Find(sel.description)),
			Location:    text(card.Find(sel.location)),
			StartDate:   parseDate(text(card.Find(sel.date)), runAt),
			ScrapedAt:   runAt,
		}
		if !event.Valid() {
			return
		}
		events = append(events, event)
	})
	return events
}
