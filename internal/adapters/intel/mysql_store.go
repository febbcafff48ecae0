package intel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ThreatStore interface with the
// same transactional refresh contract as the SQLite store.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and initializes the indicator table.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS indicators (
			type VARCHAR(16) NOT NULL,
			value VARCHAR(2048) NOT NULL,
			source VARCHAR(64) NOT NULL,
			first_seen TIMESTAMP NOT NULL,
			confidence DOUBLE NOT NULL,
			PRIMARY KEY (type, value(255))
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create indicators table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Lookup performs an exact-match point query.
func (s *MySQLStore) Lookup(ctx context.Context, typ core.IndicatorType, value string) (core.ThreatMatch, error) {
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

// Refresh bulk-upserts the batch inside one transaction.
func (s *MySQLStore) Refresh(ctx context.Context, batch []core.Indicator) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indicators (type, value, source, first_seen, confidence)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			source = VALUES(source),
			confidence = GREATEST(confidence, VALUES(confidence))
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
			firstSeen, ind.Confidence,
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
