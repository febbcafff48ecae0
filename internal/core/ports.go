package core

import (
	"context"
)

// ThreatStore defines the interface to the local threat-intelligence store.
//
// Lookup is an exact-match point query. Refresh applies a bulk upsert that
// must be atomic with respect to readers: a concurrent Lookup observes
// either the fully pre-refresh or fully post-refresh state, never a partial
// batch. A store that is unavailable or corrupt returns an error wrapping
// ErrStoreUnavailable from Lookup.
type ThreatStore interface {
	Lookup(ctx context.Context, typ IndicatorType, value string) (ThreatMatch, error)
	Refresh(ctx context.Context, batch []Indicator) error
}

// Classifier defines the interface to the external ML classifier.
//
// Confidence returns a probability-like score in [0,1]. The text argument is
// the normalized (translated where necessary) body handed to the remote
// feature extraction; header metadata travels alongside so the model sees
// the same message the rules saw.
type Classifier interface {
	Confidence(ctx context.Context, msg *ParsedMessage, text string) (float64, error)
}

// Translator defines the interface to the machine-translation collaborator.
// Its output feeds classifier feature extraction only; rule evaluation never
// consumes translated text.
type Translator interface {
	// Translate normalizes text in the given source language to English.
	Translate(ctx context.Context, text string, lang string) (string, error)
}
