// Package reqctx tags a scrape run with an identifier that follows it
// through logs, storage and fatal errors.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// RunContext describes one invocation of the scrape pipeline
type RunContext struct {
	RunID     string
	Query     string
	Pages     int
	StartTime time.Time
}

// WithRun attaches a new RunContext to ctx
func WithRun(ctx context.Context, query string, pages int) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     generateID(),
		Query:     query,
		Pages:     pages,
		StartTime: time.Now(),
	})
}

// FromContext returns the RunContext of ctx, or a placeholder if none was attached
func FromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger annotated with the run's fields
func Logger(ctx context.Context) zerolog.Logger {
	rc := FromContext(ctx)
	return log.With().
		Str("run_id", rc.RunID).
		Str("query", rc.Query).
		Logger()
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RunError wraps a fatal error with the run that produced it
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError wraps err with the run id from ctx. A nil err stays nil.
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: FromContext(ctx).RunID,
		Err:   err,
	}
}
