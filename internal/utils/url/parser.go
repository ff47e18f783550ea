package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query parameter names understood by the listing endpoint
const (
	QueryParam = "k"
	PageParam  = "page"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ListingURL builds the URL of one results page: base?k=<query>&page=<page>.
// The query is escaped; parameters already present on base are preserved.
func ListingURL(base, query string, page int) (string, error) {
	if err := ValidateURL(base); err != nil {
		return "", err
	}
	if page < 1 {
		return "", fmt.Errorf("invalid page index %d: pages are 1-based", page)
	}

	u, _ := url.Parse(base)
	values := u.Query()
	values.Set(QueryParam, query)
	values.Set(PageParam, strconv.Itoa(page))
	u.RawQuery = values.Encode()

	return u.String(), nil
}
