// Package extract turns a parsed listing page into records.
//
// Everything here is a pure transformation: no I/O, no logging, no shared
// state. A missing or malformed field never aborts a container; it falls back
// to the documented default instead.
package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/law-makers/harvest/internal/engine/selectors"
	"github.com/law-makers/harvest/pkg/models"
)

const thousandsSeparator = ","

// ParseDocument parses raw markup into a queryable document
func ParseDocument(body string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Extract returns one record per container in document order. A document
// with no containers yields an empty, non-nil slice.
func Extract(doc *goquery.Document, set *selectors.Set) []models.Record {
	if doc == nil {
		return []models.Record{}
	}
	return ExtractSelection(doc.Selection, set)
}

// ExtractSelection is Extract scoped to an arbitrary selection
func ExtractSelection(root *goquery.Selection, set *selectors.Set) []models.Record {
	containers := root.FindMatcher(set.Container())
	records := make([]models.Record, 0, containers.Length())

	containers.Each(func(_ int, c *goquery.Selection) {
		records = append(records, extractRecord(c, set))
	})

	return records
}

func extractRecord(c *goquery.Selection, set *selectors.Set) models.Record {
	rec := models.NewRecord()

	if text, ok := firstText(c, set.Title()); ok {
		rec.Title = strings.TrimSpace(text)
	}
	if text, ok := firstText(c, set.Price()); ok {
		if v, ok := ParsePrice(text); ok {
			rec.Price = v
		}
	}
	if text, ok := firstText(c, set.Rating()); ok {
		if v, ok := ParseRating(text); ok {
			rec.Rating = v
		}
	}
	if text, ok := firstText(c, set.ReviewCount()); ok {
		if v, ok := ParseReviewCount(text); ok {
			rec.ReviewCount = v
		}
	}

	return rec
}

// firstText returns the concatenated text of the first element under c that
// matches m, and whether such an element exists.
func firstText(c *goquery.Selection, m goquery.Matcher) (string, bool) {
	sel := c.FindMatcher(m).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// ParsePrice strips thousands separators and parses a non-negative decimal.
// "1,299." parses to 1299.
func ParsePrice(text string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(text, thousandsSeparator, ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) || v < 0 {
		return models.DefaultPrice, false
	}
	return v, true
}

// ParseRating parses the leading numeric token of a free-text rating such as
// "4.3 out of 5 stars".
func ParseRating(text string) (float64, bool) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return models.DefaultRating, false
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil || !finite(v) {
		return models.DefaultRating, false
	}
	return v, true
}

// ParseReviewCount strips thousands separators and parses a non-negative integer
func ParseReviewCount(text string) (int, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(text, thousandsSeparator, ""))
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return models.DefaultReviewCount, false
	}
	return int(v), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
