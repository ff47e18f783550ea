package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/law-makers/harvest/pkg/models"
)

// Save writes records in the format implied by the file extension:
// .json produces JSON, anything else CSV.
func Save(records []models.Record, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SaveJSON(records, path)
	default:
		return SaveCSV(records, path)
	}
}

// PrintRecords echoes records in a human-readable block per record
func PrintRecords(w io.Writer, records []models.Record) error {
	for _, r := range records {
		_, err := fmt.Fprintf(w, "Title: %s\nPrice: %.2f\nRating: %.1f\nReview Count: %d\n\n",
			r.Title, r.Price, r.Rating, r.ReviewCount)
		if err != nil {
			return err
		}
	}
	return nil
}
