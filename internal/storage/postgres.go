package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/harvest/pkg/models"
)

// RecordsTable is the table written by Postgres.SaveRecords
const RecordsTable = "listing_records"

var recordColumns = []string{"run_id", "query", "title", "price", "rating", "review_count", "scraped_at"}

// Postgres writes records to a listing_records table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn, verifies the connection and creates the
// records table if it does not exist.
func NewPostgres(ctx context.Context, dsn string, maxConns int) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Postgres{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+RecordsTable+` (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			query TEXT NOT NULL,
			title TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_`+RecordsTable+`_run ON `+RecordsTable+`(run_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRecords bulk-copies the records of one run and returns the number of
// rows written.
func (s *Postgres) SaveRecords(ctx context.Context, runID, query string, records []models.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := recordRows(runID, query, records, time.Now().UTC())
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{RecordsTable}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy records: %w", err)
	}

	log.Debug().Str("run_id", runID).Int64("rows", n).Msg("Records stored in postgres")
	return n, nil
}

// Name identifies the sink in logs
func (s *Postgres) Name() string { return "postgres" }

// Close releases the connection pool
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// recordRows maps records to COPY rows in recordColumns order.
func recordRows(runID, query string, records []models.Record, at time.Time) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{runID, query, r.Title, r.Price, r.Rating, int32(r.ReviewCount), at}
	}
	return rows
}
