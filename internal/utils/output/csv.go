package output

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/law-makers/harvest/pkg/models"
)

// CSVHeader is the first row of every CSV export
var CSVHeader = []string{"title", "price", "rating", "review_count"}

// WriteCSV writes a header row and one row per record. Every field is
// double-quoted; embedded quotes are doubled.
func WriteCSV(w io.Writer, records []models.Record) error {
	bw := bufio.NewWriter(w)

	if err := writeQuotedRow(bw, CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Title,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			strconv.Itoa(r.ReviewCount),
		}
		if err := writeQuotedRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeQuotedRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// SaveCSV writes records to path, creating parent directories as needed.
func SaveCSV(records []models.Record, path string) error {
	return saveFile(path, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}

// saveFile creates path and its parents and hands the file to write.
// Any failure is returned as a *SinkError.
func saveFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &SinkError{Path: path, Err: err}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return &SinkError{Path: path, Err: err}
	}

	if err := write(file); err != nil {
		file.Close()
		return &SinkError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &SinkError{Path: path, Err: err}
	}
	return nil
}
