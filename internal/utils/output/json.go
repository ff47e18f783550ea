package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/harvest/pkg/models"
)

// SaveJSON writes records as an indented JSON array to path.
func SaveJSON(records []models.Record, path string) error {
	if records == nil {
		records = []models.Record{}
	}
	return saveFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	})
}
