// Package storage persists run output outside the local filesystem.
package storage

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/harvest/pkg/models"
)

// Sink receives the records of a finished run
type Sink interface {
	Name() string
	SaveRecords(ctx context.Context, runID, query string, records []models.Record) (int64, error)
	Close() error
}

// Multi fans records out to several sinks. Every sink is attempted; the
// errors of all failing sinks are joined.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out over sinks
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Name identifies the sink in logs
func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped sinks
func (m *Multi) Len() int { return len(m.sinks) }

// SaveRecords writes to every sink and returns the largest row count
func (m *Multi) SaveRecords(ctx context.Context, runID, query string, records []models.Record) (int64, error) {
	var (
		written int64
		errs    []error
	)
	for _, s := range m.sinks {
		n, err := s.SaveRecords(ctx, runID, query, records)
		if err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Msg("Sink write failed")
			errs = append(errs, err)
			continue
		}
		if n > written {
			written = n
		}
	}
	return written, errors.Join(errs...)
}

// Close closes every sink
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
