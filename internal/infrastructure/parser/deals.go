package parser

import (
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DealEventScraper/internal/domain"
)

const (
	abBaseURL       = "https://www.ab.gr"
	abPromotionsURL = "https://www.ab.gr/search/promotions?page=1"

	lidlBaseURL   = "https://www.lidl-hellas.gr"
	lidlWeeklyURL = "https://www.lidl-hellas.gr/c/evdomadiaies-epiloges-25kw52/a10086079"

	currencyEUR = "EUR"
)

// NewABVassilopoulos reads the AB Vassilopoulos promotions listing.
func NewABVassilopoulos(getter Getter, logger *slog.Logger) *SiteSource[domain.Deal] {
	return newSiteSource[domain.Deal](string(domain.RetailerABVassilopoulos), abPromotionsURL, getter, logger, htmlExtractor(ExtractABDeals))
}

// NewLidl reads the Lidl Hellas weekly offers page.
func NewLidl(getter Getter, logger *slog.Logger) *SiteSource[domain.Deal] {
	return newSiteSource[domain.Deal](string(domain.RetailerLidl), lidlWeeklyURL, getter, logger, htmlExtractor(ExtractLidlDeals))
}

// ExtractABDeals walks product cards of the AB promotions page.
func ExtractABDeals(doc *goquery.Document, runAt time.Time) []domain.Deal {
	deals := make([]domain.Deal, 0)
	doc.Find(".ProductProductCard").Each(func(_ int, card *goquery.Selection) {
		deal := domain.Deal{
			Retailer:           string(domain.RetailerABVassilopoulos),
			Title:              text(card.Find(".ProductCard__ProductName")),
			ProductURL:         absoluteURL(abBaseURL, attr(card.Find("a"), "href")),
			ImageURL:           attr(card.Find("img"), "src"),
			DiscountPercentage: text(card.Find(".ProductCard__BadgePromo")),
			SalePrice:          text(card.Find(".ProductCard__Price .Price__PriceValue").First()),
			SaleCurrency:       currencyEUR,
			ScrapedAt:          runAt,
		}
		if !deal.Valid() {
			return
		}
		deals = append(deals, deal)
	})
	return deals
}

// ExtractLidlDeals walks article variant cards of the Lidl weekly page.
func ExtractLidlDeals(doc *goquery.Document, runAt time.Time) []domain.Deal {
	deals := make([]domain.Deal, 0)
	doc.Find(`[data-testid="mms-article-variant-card"]`).Each(func(_ int, card *goquery.Selection) {
		price := card.Find(`[data-testid="mms-price"]`)
		deal := domain.Deal{
			Retailer:           string(domain.RetailerLidl),
			Title:              text(card.Find("h3, h4, h5").First()),
			ProductURL:         absoluteURL(lidlBaseURL, attr(card.Find(`a[data-testid="mms-article-card-link"]`), "href")),
			ImageURL:           attr(card.Find("img"), "src"),
			SalePrice:          text(price.Find(`[data-testid="mms-price-primary"]`)),
			SaleCurrency:       currencyEUR,
			DiscountedPrice:    text(price.Find(`[data-testid="mms-price-secondary"]`)),
			DiscountedCurrency: currencyEUR,
			DiscountPercentage: text(card.Find(`[data-testid="mms-badge-text"]`)),
			ScrapedAt:          runAt,
		}
		if !deal.Valid() {
			return
		}
		deals = append(deals, deal)
	})
	return deals
}
