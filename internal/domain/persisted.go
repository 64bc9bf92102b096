package domain

import "time"

// DealRow is the durable form of a deal, keyed by ExternalID (the product URL).
type DealRow struct {
	ID                 int64     `json:"id"`
	ExternalID         string    `json:"externalId"`
	Retailer           string    `json:"retailer"`
	Title              string    `json:"title"`
	Description        *string   `json:"description,omitempty"`
	ProductURL         string    `json:"productUrl"`
	ImageURL           *string   `json:"imageUrl,omitempty"`
	SalePrice          *float64  `json:"salePrice,omitempty"`
	SaleCurrency       *string   `json:"saleCurrency,omitempty"`
	DiscountedPrice    *float64  `json:"discountedPrice,omitempty"`
	DiscountedCurrency *string   `json:"discountedCurrency,omitempty"`
	DiscountPercentage *float64  `json:"discountPercentage,omitempty"`
	ScrapedAt          time.Time `json:"scrapedAt"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// EventMetadata records where and when an event row was last scraped.
type EventMetadata struct {
	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

// EventRow is the durable form of an event, keyed by SourceURL.
type EventRow struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Location    *string       `json:"location,omitempty"`
	ImageURL    *string       `json:"imageUrl,omitempty"`
	SourceURL   string        `json:"sourceUrl"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
	Category    *string       `json:"category,omitempty"`
	Tags        []string      `json:"tags"`
	Metadata    EventMetadata `json:"metadata"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// OptionalString returns nil for blank values so they persist as NULL.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
