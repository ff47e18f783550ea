// Package selectors compiles the fixed set of CSS queries that locate listing
// containers and their fields.
package selectors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Default queries for a search-results listing page
const (
	DefaultContainer   = "div[data-component-type='s-search-result']"
	DefaultTitle       = "h2 span.a-text-normal"
	DefaultPrice       = "span.a-price-whole"
	DefaultRating      = "span.a-icon-alt"
	DefaultReviewCount = "span.a-size-base"
)

// ErrEmptyQuery is returned when a selector string is blank
var ErrEmptyQuery = errors.New("empty selector")

// Spec holds the raw query strings, one per structural target
type Spec struct {
	Container   string `mapstructure:"container"    yaml:"container"`
	Title       string `mapstructure:"title"        yaml:"title"`
	Price       string `mapstructure:"price"        yaml:"price"`
	Rating      string `mapstructure:"rating"       yaml:"rating"`
	ReviewCount string `mapstructure:"review_count" yaml:"review_count"`
}

// DefaultSpec returns the built-in listing selectors
func DefaultSpec() Spec {
	return Spec{
		Container:   DefaultContainer,
		Title:       DefaultTitle,
		Price:       DefaultPrice,
		Rating:      DefaultRating,
		ReviewCount: DefaultReviewCount,
	}
}

// Fields returns the spec as ordered (name, query) pairs
func (s Spec) Fields() [][2]string {
	return [][2]string{
		{"container", s.Container},
		{"title", s.Title},
		{"price", s.Price},
		{"rating", s.Rating},
		{"review_count", s.ReviewCount},
	}
}

// CompileError reports a selector that could not be compiled. It is fatal and
// is raised before any page is requested.
type CompileError struct {
	Field string
	Query string
	Err   error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid %s selector %q: %v", e.Field, e.Query, e.Err)
}

// Unwrap returns the underlying parser error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Set is the compiled, immutable selector collection shared by all workers.
// It has no setters, so concurrent reads need no locking.
type Set struct {
	spec        Spec
	container   cascadia.Selector
	title       cascadia.Selector
	price       cascadia.Selector
	rating      cascadia.Selector
	reviewCount cascadia.Selector
}

// Compile parses every query in spec exactly once
func Compile(spec Spec) (*Set, error) {
	compiled := make([]cascadia.Selector, 0, 5)
	for _, f := range spec.Fields() {
		name, query := f[0], strings.TrimSpace(f[1])
		if query == "" {
			return nil, &CompileError{Field: name, Query: f[1], Err: ErrEmptyQuery}
		}
		sel, err := cascadia.Compile(query)
		if err != nil {
			return nil, &CompileError{Field: name, Query: query, Err: err}
		}
		compiled = append(compiled, sel)
	}

	return &Set{
		spec:        spec,
		container:   compiled[0],
		title:       compiled[1],
		price:       compiled[2],
		rating:      compiled[3],
		reviewCount: compiled[4],
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level defaults.
func MustCompile(spec Spec) *Set {
	set, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return set
}

// Spec returns the raw queries the set was compiled from
func (s *Set) Spec() Spec { return s.spec }

// Container matches one listing element
func (s *Set) Container() goquery.Matcher { return s.container }

// Title matches the listing title inside a container
func (s *Set) Title() goquery.Matcher { return s.title }

// Price matches the whole-number price inside a container
func (s *Set) Price() goquery.Matcher { return s.price }

// Rating matches the free-text rating inside a container
func (s *Set) Rating() goquery.Matcher { return s.rating }

// ReviewCount matches the review counter inside a container
func (s *Set) ReviewCount() goquery.Matcher { return s.reviewCount }
