package engine

import (
	"context"

	"github.com/law-makers/harvest/pkg/models"
)

// Fetcher is the interface that all page retrieval backends must implement
type Fetcher interface {
	// Fetch performs exactly one retrieval for the page and returns the raw
	// document as UTF-8 text. It never retries. Failures are returned as
	// *EngineError carrying the page index.
	Fetch(ctx context.Context, req models.PageRequest) (string, error)

	// Name returns the name of the fetcher implementation
	Name() string
}
