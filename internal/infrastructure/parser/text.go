package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cast"
)

const maxDescriptionRunes = 800

// extra layouts seen on Greek event listings that cast does not cover.
var extraDateLayouts = []string{
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2006-01-02 15:04",
}

func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func htmlExtractor[T any](walk func(doc *goquery.Document, runAt time.Time) []T) func([]byte, time.Time) ([]T, error) {
	return func(body []byte, runAt time.Time) ([]T, error) {
		doc, err := parseDocument(body)
		if err != nil {
			return nil, err
		}
		return walk(doc, runAt), nil
	}
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func attr(sel *goquery.Selection, name string) string {
	value, _ := sel.Attr(name)
	return strings.TrimSpace(value)
}

// absoluteURL prefixes site-relative hrefs with base. Empty input stays empty.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}

// parseDate reads loosely formatted date text; blank or unparseable input falls back.
func parseDate(raw string, fallback time.Time) time.Time {
	value := strings.Join(strings.Fields(raw), " ")
	if value == "" {
		return fallback
	}
	if t, err := cast.ToTimeInDefaultLocationE(value, time.UTC); err == nil {
		return t.UTC()
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return fallback
}

// htmlToText strips markup from a rendered HTML fragment and decodes entities.
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
