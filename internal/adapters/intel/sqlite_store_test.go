package intel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/phishing-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "indicators.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_LookupMiss(t *testing.T) {
	store := newTestSQLiteStore(t)

	match, err := store.Lookup(context.Background(), core.IndicatorDomain, "unknown.test")
	require.NoError(t, err)
	assert.False(t, match.Matched)
}

func TestSQLiteStore_RefreshThenLookup(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	err := store.Refresh(ctx, []core.Indicator{
		{
			Type:       core.IndicatorURL,
			Value:      "http://evil.test/login",
			Source:     "URLhaus",
			FirstSeen:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Confidence: 0.9,
		},
		{
			Type:       core.IndicatorDomain,
			Value:      "evil.test",
			Source:     "URLhaus",
			Confidence: 0.85,
		},
	})
	require.NoError(t, err)

	match, err := store.Lookup(ctx, core.IndicatorURL, "http://evil.test/login")
	require.NoError(t, err)
	assert.True(t, match.Matched)
	assert.Equal(t, "URLhaus", match.Source)
	assert.InDelta(t, 0.9, match.Confidence, 1e-9)

	match, err = store.Lookup(ctx, core.IndicatorDomain, "EVIL.TEST")
	require.NoError(t, err)
	assert.True(t, match.Matched, "lookup values are normalized")
}

func TestSQLiteStore_UpsertConflictResolution(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type:       core.IndicatorURL,
		Value:      "http://evil.test/login",
		Source:     "URLhaus",
		FirstSeen:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Confidence: 0.95,
	}}))

	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type:       core.IndicatorURL,
		Value:      "http://evil.test/login",
		Source:     "OpenPhish",
		FirstSeen:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Confidence: 0.85,
	}}))

	match, err := store.Lookup(ctx, core.IndicatorURL, "http://evil.test/login")
	require.NoError(t, err)
	assert.True(t, match.Matched)
	assert.Equal(t, "OpenPhish", match.Source, "newest source wins")
	assert.InDelta(t, 0.95, match.Confidence, 1e-9, "confidence keeps the maximum")

	var count int
	var firstSeen string
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*), MIN(first_seen) FROM indicators`).Scan(&count, &firstSeen))
	assert.Equal(t, 1, count, "same (type, value) never duplicates")
	assert.Equal(t, "2026-07-01T00:00:00Z", firstSeen, "first_seen is preserved")
}

func TestSQLiteStore_RefreshFillsMissingFirstSeen(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type: core.IndicatorDomain, Value: "evil.test", Source: "OpenPhish", Confidence: 0.85,
	}}))

	var firstSeen string
	require.NoError(t, store.db.QueryRow(
		`SELECT first_seen FROM indicators WHERE type = 'domain' AND value = 'evil.test'`).Scan(&firstSeen))

	parsed, err := time.Parse(time.RFC3339, firstSeen)
	require.NoError(t, err)
	assert.True(t, parsed.After(before))
}

func TestSQLiteStore_LookupAfterClose(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "indicators.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Lookup(context.Background(), core.IndicatorDomain, "evil.test")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}
