// Package persistence owns the decision save contract: a flat decision
// record plus the source item's processed stamp, written in one
// transaction.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is the flat persisted shape of one decision.
type Record struct {
	DecisionID string
	PostID     string

	SSS      float64
	ARS      float64
	EVSRatio float64
	TRS      float64

	CompositeScore float64
	Mode           string
	ArchetypeID    int64

	IntervalLower  float64
	IntervalUpper  float64
	ModeConfidence float64

	ProbabilitiesJSON string
	NeedsReview       bool
	ReviewReason      string
	SafetyFlagsJSON   string
	SignalsJSON       string

	CompetitorName string // empty persists as NULL

	UserTier              string
	IsPowerUser           bool
	ResponseTargetMinutes int

	SegmentKey   string
	LogicVersion string
	CreatedAt    time.Time
}

// Repository is the save contract the engine depends on. SaveDecision is
// atomic over the decision row and the item's processed stamp.
type Repository interface {
	SaveDecision(ctx context.Context, rec *Record) error
	MarkProcessed(ctx context.Context, postID string, at time.Time) error
}

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	decision_id             TEXT PRIMARY KEY,
	post_id                 TEXT NOT NULL,
	sss                     REAL NOT NULL,
	ars                     REAL NOT NULL,
	evs_ratio               REAL NOT NULL,
	trs                     REAL NOT NULL,
	composite_score         REAL NOT NULL,
	mode                    TEXT NOT NULL,
	archetype_id            INTEGER NOT NULL DEFAULT 0,
	interval_lower          REAL NOT NULL,
	interval_upper          REAL NOT NULL,
	mode_confidence         REAL NOT NULL,
	probabilities           TEXT NOT NULL,
	needs_review            INTEGER NOT NULL DEFAULT 0,
	review_reason           TEXT,
	safety_flags            TEXT,
	signals                 TEXT NOT NULL,
	competitor_name         TEXT,
	user_tier               TEXT,
	is_power_user           INTEGER NOT NULL DEFAULT 0,
	response_target_minutes INTEGER NOT NULL DEFAULT 0,
	segment_key             TEXT,
	logic_version           TEXT NOT NULL,
	created_at              TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_post ON decisions(post_id);

CREATE TABLE IF NOT EXISTS posts (
	post_id      TEXT PRIMARY KEY,
	processed_at TIMESTAMP
);
`

// Store is the sqlite Repository implementation.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the decision database and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=1",
		path, int((30 * time.Second).Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for queries outside the save contract.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveDecision writes the decision row and stamps the source post processed
// in a single transaction.
func (s *Store) SaveDecision(ctx context.Context, rec *Record) error {
	return s.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decisions (
				decision_id, post_id, sss, ars, evs_ratio, trs,
				composite_score, mode, archetype_id,
				interval_lower, interval_upper, mode_confidence,
				probabilities, needs_review, review_reason,
				safety_flags, signals, competitor_name,
				user_tier, is_power_user, response_target_minutes,
				segment_key, logic_version, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.DecisionID, rec.PostID, rec.SSS, rec.ARS, rec.EVSRatio, rec.TRS,
			rec.CompositeScore, rec.Mode, rec.ArchetypeID,
			rec.IntervalLower, rec.IntervalUpper, rec.ModeConfidence,
			rec.ProbabilitiesJSON, rec.NeedsReview, nullable(rec.ReviewReason),
			nullable(rec.SafetyFlagsJSON), rec.SignalsJSON, nullable(rec.CompetitorName),
			rec.UserTier, rec.IsPowerUser, rec.ResponseTargetMinutes,
			rec.SegmentKey, rec.LogicVersion, rec.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert decision: %w", err)
		}

		if err := markProcessedTx(ctx, tx, rec.PostID, rec.CreatedAt); err != nil {
			return err
		}
		return nil
	})
}

// MarkProcessed stamps a post processed outside the decision save path.
func (s *Store) MarkProcessed(ctx context.Context, postID string, at time.Time) error {
	return s.transaction(ctx, func(tx *sql.Tx) error {
		return markProcessedTx(ctx, tx, postID, at)
	})
}

func markProcessedTx(ctx context.Context, tx *sql.Tx, postID string, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, processed_at) VALUES (?, ?)
		ON CONFLICT(post_id) DO UPDATE SET processed_at = excluded.processed_at`,
		postID, at.UTC(),
	); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *Store) transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
