// Package audit keeps a local trail of sanitization runs in SQLite.
//
// A record holds only counts and timings, never ticket content or the
// identifier mappings themselves; the trail answers "what was redacted
// when" without being a place PII could leak back out of.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	washotel "github.com/opsforge-io/ticketwash/internal/otel"
	"github.com/opsforge-io/ticketwash/internal/sanitizer"
)

var tracer = washotel.Tracer("github.com/opsforge-io/ticketwash/internal/audit")

// Record summarizes one sanitization run.
type Record struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Source     string          `json:"source"`   // "cli" or "http"
	Detector   string          `json:"detector"` // provider name
	DurationMS int64           `json:"duration_ms"`
	Stats      sanitizer.Stats `json:"stats"`
}

// NewRecord builds a record for a completed run.
func NewRecord(source, detector string, stats sanitizer.Stats, d time.Duration) *Record {
	return &Record{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Source:     source,
		Detector:   detector,
		DurationMS: d.Milliseconds(),
		Stats:      stats,
	}
}

// Store persists run records in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the audit database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		detector TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		stats_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes one run record.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	ctx, span := tracer.Start(ctx, "audit.save",
		trace.WithAttributes(attribute.String("audit.run_id", rec.ID)))
	defer span.End()

	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshaling run stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, timestamp, source, detector, duration_ms, stats_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, rec.Source, rec.Detector, rec.DurationMS, string(statsJSON),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("inserting run record: %w", err)
	}
	return nil
}

// List returns the most recent run records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	ctx, span := tracer.Start(ctx, "audit.list")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, source, detector, duration_ms, stats_json
		 FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var statsJSON string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Source, &rec.Detector,
			&rec.DurationMS, &statsJSON); err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &rec.Stats); err != nil {
			return nil, fmt.Errorf("decoding run stats: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run records: %w", err)
	}

	span.SetAttributes(attribute.Int("audit.record_count", len(records)))
	return records, nil
}
