package intel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ThreatStore interface.
// Refresh runs inside a single transaction, which gives readers the
// all-or-nothing visibility the store contract requires.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) the indicator database.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS indicators (
			type TEXT NOT NULL,
			value TEXT NOT NULL,
			source TEXT NOT NULL,
			first_seen TIMESTAMP NOT NULL,
			confidence REAL NOT NULL,
			PRIMARY KEY (type, value)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create indicators table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Lookup performs an exact-match point query.
func (s *SQLiteStore) Lookup(ctx context.Context, typ core.IndicatorType, value string) (core.ThreatMatch, error) {
	var source string
	var confidence float64

	err := s.db.QueryRowContext(ctx, `
		SELECT source, confidence
		FROM indicators
		WHERE type = ? AND value = ?
	`, string(typ), normalizeValue(value)).Scan(&source, &confidence)

	if err != nil {
		if err == sql.ErrNoRows {
			return core.ThreatMatch{}, nil
		}
		return core.ThreatMatch{}, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return core.ThreatMatch{Matched: true, Source: source, Confidence: confidence}, nil
}

// Refresh bulk-upserts the batch keyed by (type, value) in one transaction.
// Existing rows keep their first_seen; the incoming source wins and
// confidence becomes the maximum of old and new.
func (s *SQLiteStore) Refresh(ctx context.Context, batch []core.Indicator) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indicators (type, value, source, first_seen, confidence)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(type, value) DO UPDATE SET
			source = excluded.source,
			confidence = MAX(indicators.confidence, excluded.confidence)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ind := range batch {
		firstSeen := ind.FirstSeen
		if firstSeen.IsZero() {
			firstSeen = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			string(ind.Type), normalizeValue(ind.Value), ind.Source,
			firstSeen.Format(time.RFC3339), ind.Confidence,
		); err != nil {
			return fmt.Errorf("failed to upsert indicator %s/%s: %w", ind.Type, ind.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refresh: %w", err)
	}

	s.logger.Debug("Indicator table refreshed", zap.Int("batch_size", len(batch)))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
