package domain

import (
	"strings"
	"time"
)

// Kind names one of the two record families produced by the scrapers.
type Kind string

const (
	KindDeals  Kind = "deals"
	KindEvents Kind = "events"
)

// Record is the common contract of every normalized scrape result.
type Record interface {
	Identifier() string
	Valid() bool
}

// Deal is a retail promotion as extracted from a retailer page.
// Price and percentage fields keep the raw page text; numeric parsing happens on persist.
type Deal struct {
	Retailer           string    `json:"retailer"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	ProductURL         string    `json:"productUrl"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	SalePrice          string    `json:"salePrice,omitempty"`
	SaleCurrency       string    `json:"saleCurrency,omitempty"`
	DiscountedPrice    string    `json:"discountedPrice,omitempty"`
	DiscountedCurrency string    `json:"discountedCurrency,omitempty"`
	DiscountPercentage string    `json:"discountPercentage,omitempty"`
	ScrapedAt          time.Time `json:"scrapedAt"`
}

// Identifier returns the stable external key of the deal.
func (d Deal) Identifier() string { return d.ProductURL }

// Valid reports whether the deal carries both a title and a product URL.
func (d Deal) Valid() bool {
	return strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.ProductURL) != ""
}

// Event is a public event listing.
type Event struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	SourceURL   string     `json:"sourceUrl"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ScrapedAt   time.Time  `json:"scrapedAt"`
}

// Identifier returns the stable external key of the event.
func (e Event) Identifier() string { return e.SourceURL }

// Valid reports whether the event carries both a title and a source URL.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.SourceURL) != ""
}
