package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fuse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() *Record {
	return &Record{
		DecisionID:        "d-1",
		PostID:            "post-1",
		SSS:               0.9,
		ARS:               0.8,
		EVSRatio:          1.2,
		TRS:               0.9,
		CompositeScore:    0.77,
		Mode:              "HELPFUL",
		ArchetypeID:       7,
		IntervalLower:     0.55,
		IntervalUpper:     0.95,
		ModeConfidence:    0.66,
		ProbabilitiesJSON: `{"HELPFUL":0.66}`,
		SignalsJSON:       `{}`,
		UserTier:          "standard",
		SegmentKey:        "mastodon_morning",
		LogicVersion:      "fusion/v2",
		CreatedAt:         time.Now().UTC(),
	}
}

func TestSaveDecisionWritesRowAndProcessedStamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDecision(ctx, sampleRecord()))

	var mode string
	var composite float64
	err := s.DB().QueryRowContext(ctx,
		`SELECT mode, composite_score FROM decisions WHERE decision_id = ?`, "d-1",
	).Scan(&mode, &composite)
	require.NoError(t, err)
	assert.Equal(t, "HELPFUL", mode)
	assert.InDelta(t, 0.77, composite, 1e-9)

	var processed int
	err = s.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE post_id = ? AND processed_at IS NOT NULL`, "post-1",
	).Scan(&processed)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestSaveDecisionEmptyStringsPersistAsNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	rec.CompetitorName = ""
	rec.ReviewReason = ""
	require.NoError(t, s.SaveDecision(ctx, rec))

	var nulls int
	err := s.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decisions
		 WHERE decision_id = ? AND competitor_name IS NULL AND review_reason IS NULL`, "d-1",
	).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)
}

func TestSaveDecisionDuplicateRollsBackAtomically(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleRecord()
	require.NoError(t, s.SaveDecision(ctx, first))

	// Same decision id violates the primary key; the second post must not
	// be stamped processed by the failed transaction.
	dup := sampleRecord()
	dup.PostID = "post-2"
	require.Error(t, s.SaveDecision(ctx, dup))

	var stamped int
	err := s.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE post_id = ?`, "post-2",
	).Scan(&stamped)
	require.NoError(t, err)
	assert.Zero(t, stamped)
}

func TestMarkProcessedUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, s.MarkProcessed(ctx, "post-9", first))
	require.NoError(t, s.MarkProcessed(ctx, "post-9", second))

	var got time.Time
	err := s.DB().QueryRowContext(ctx,
		`SELECT processed_at FROM posts WHERE post_id = ?`, "post-9",
	).Scan(&got)
	require.NoError(t, err)
	assert.True(t, got.Equal(second))
}
