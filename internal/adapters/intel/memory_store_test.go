package intel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mikey/phishing-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_LookupMiss(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	match, err := store.Lookup(context.Background(), core.IndicatorDomain, "unknown.test")
	require.NoError(t, err)
	assert.False(t, match.Matched)
}

func TestMemoryStore_RefreshThenLookup(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	err := store.Refresh(ctx, []core.Indicator{{
		Type:       core.IndicatorDomain,
		Value:      "evil.test",
		Source:     "URLhaus",
		FirstSeen:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Confidence: 0.9,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	match, err := store.Lookup(ctx, core.IndicatorDomain, "evil.test")
	require.NoError(t, err)
	assert.True(t, match.Matched)
	assert.Equal(t, "URLhaus", match.Source)
	assert.InDelta(t, 0.9, match.Confidence, 1e-9)
}

func TestMemoryStore_LookupNormalizesValues(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type: core.IndicatorDomain, Value: "EVIL.test ", Source: "OpenPhish", Confidence: 0.8,
	}}))

	match, err := store.Lookup(ctx, core.IndicatorDomain, "  evil.TEST")
	require.NoError(t, err)
	assert.True(t, match.Matched, "lookup and refresh must agree on canonical form")
}

func TestMemoryStore_RefreshConflictResolution(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	firstSeen := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type:       core.IndicatorURL,
		Value:      "http://evil.test/login",
		Source:     "URLhaus",
		FirstSeen:  firstSeen,
		Confidence: 0.95,
	}}))

	// Same indicator from a later feed with lower confidence.
	require.NoError(t, store.Refresh(ctx, []core.Indicator{{
		Type:       core.IndicatorURL,
		Value:      "http://evil.test/login",
		Source:     "OpenPhish",
		FirstSeen:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Confidence: 0.85,
	}}))

	assert.Equal(t, 1, store.Len(), "same (type, value) never duplicates")

	match, err := store.Lookup(ctx, core.IndicatorURL, "http://evil.test/login")
	require.NoError(t, err)
	assert.True(t, match.Matched)
	assert.Equal(t, "OpenPhish", match.Source, "newest source wins")
	assert.InDelta(t, 0.95, match.Confidence, 1e-9, "confidence keeps the maximum")

	stored := store.snapshot[indicatorKey(core.IndicatorURL, "http://evil.test/login")]
	assert.True(t, stored.FirstSeen.Equal(firstSeen), "first_seen is preserved")
}

func TestMemoryStore_DistinctTypesDoNotCollide(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx, []core.Indicator{
		{Type: core.IndicatorDomain, Value: "evil.test", Source: "URLhaus", Confidence: 0.9},
		{Type: core.IndicatorURL, Value: "evil.test", Source: "OpenPhish", Confidence: 0.8},
	}))

	assert.Equal(t, 2, store.Len())

	match, err := store.Lookup(ctx, core.IndicatorDomain, "evil.test")
	require.NoError(t, err)
	assert.Equal(t, "URLhaus", match.Source)
}

func TestMemoryStore_ConcurrentRefreshesLoseNothing(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			batch := make([]core.Indicator, 0, perWriter)
			for i := 0; i < perWriter; i++ {
				batch = append(batch, core.Indicator{
					Type:       core.IndicatorDomain,
					Value:      fmt.Sprintf("host-%d-%d.test", w, i),
					Source:     "URLhaus",
					Confidence: 0.9,
				})
			}
			assert.NoError(t, store.Refresh(ctx, batch))
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, store.Len())
}

func TestMemoryStore_LookupDuringRefresh(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx, []core.Indicator{
		{Type: core.IndicatorDomain, Value: "evil.test", Source: "URLhaus", Confidence: 0.9},
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			store.Refresh(ctx, []core.Indicator{
				{Type: core.IndicatorDomain, Value: fmt.Sprintf("extra-%d.test", i), Source: "URLhaus", Confidence: 0.5},
			})
		}
	}()

	// Readers must always see a complete snapshot containing the first batch.
	for i := 0; i < 100; i++ {
		match, err := store.Lookup(ctx, core.IndicatorDomain, "evil.test")
		require.NoError(t, err)
		assert.True(t, match.Matched)
	}
	<-done
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Lookup(ctx, core.IndicatorDomain, "evil.test")
	assert.Error(t, err)

	err = store.Refresh(ctx, []core.Indicator{{Type: core.IndicatorDomain, Value: "x.test"}})
	assert.Error(t, err)
}
