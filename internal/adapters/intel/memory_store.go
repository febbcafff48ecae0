package intel

import (
	"context"
	"strings"
	"sync"

	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the ThreatStore interface.
//
// Indicators live in an immutable snapshot map. Refresh builds the merged
// snapshot aside and swaps it under the write lock, so concurrent readers
// observe either the whole pre-refresh state or the whole post-refresh
// state, never a partial batch. Readers never block each other.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot map[string]core.Indicator

	// refreshMu serializes writers; readers only contend at the swap.
	refreshMu sync.Mutex
	logger    *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		snapshot: make(map[string]core.Indicator),
		logger:   logger,
	}
}

// normalizeValue canonicalizes indicator values so lookups and refreshes
// agree on casing and surrounding whitespace.
func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func indicatorKey(typ core.IndicatorType, value string) string {
	return string(typ) + "\x00" + normalizeValue(value)
}

// Lookup performs an exact-match point query against the current snapshot.
func (s *MemoryStore) Lookup(ctx context.Context, typ core.IndicatorType, value string) (core.ThreatMatch, error) {
	if err := ctx.Err(); err != nil {
		return core.ThreatMatch{}, err
	}

	s.mu.RLock()
	ind, ok := s.snapshot[indicatorKey(typ, value)]
	s.mu.RUnlock()

	if !ok {
		return core.ThreatMatch{}, nil
	}
	return core.ThreatMatch{Matched: true, Source: ind.Source, Confidence: ind.Confidence}, nil
}

// Refresh upserts the batch keyed by (type, value). Conflict resolution:
// the newest source replaces the source field and confidence becomes the
// maximum of old and new; first_seen is preserved from the existing row.
func (s *MemoryStore) Refresh(ctx context.Context, batch []core.Indicator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	next := make(map[string]core.Indicator, len(s.snapshot)+len(batch))
	for k, v := range s.snapshot {
		next[k] = v
	}
	s.mu.RUnlock()

	for _, ind := range batch {
		key := indicatorKey(ind.Type, ind.Value)
		if old, ok := next[key]; ok {
			merged := ind
			merged.FirstSeen = old.FirstSeen
			if old.Confidence > merged.Confidence {
				merged.Confidence = old.Confidence
			}
			next[key] = merged
		} else {
			next[key] = ind
		}
	}

	// Atomic commit point: readers see the old snapshot until here.
	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	s.logger.Debug("Indicator snapshot refreshed",
		zap.Int("batch_size", len(batch)),
		zap.Int("total_indicators", len(next)))
	return nil
}

// Len reports the number of indicators currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}
