package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "0.0.0.0:8080", cfg.GetString("server.listen_address"))

	deadline, err := cfg.GetDuration("analysis.message_deadline")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, deadline)
	assert.Equal(t, 4, cfg.GetInt("analysis.lookup_workers"))

	rules := cfg.GetRules()
	assert.Equal(t, 15.0, rules.Weights.SPFFail)
	assert.Equal(t, 25.0, rules.Weights.ThreatMatch)
	assert.Equal(t, 0, rules.SuspiciousURLLimit)
	assert.Contains(t, rules.DangerousExtensions, ".exe")

	urls := cfg.GetURLs()
	assert.Equal(t, 30, urls.LongHostLength)
	assert.InDelta(t, 1.0,
		urls.WeightLongHost+urls.WeightHyphens+urls.WeightDepth+urls.WeightKeywords+urls.WeightPunycode,
		1e-9, "sub-heuristic weights sum to one")
	assert.Contains(t, urls.Shorteners, "bit.ly")

	fusion := cfg.GetFusion()
	assert.Equal(t, 0.7, fusion.MLWeight)
	assert.Equal(t, 0.3, fusion.ThresholdLow)
	assert.Equal(t, 0.5, fusion.ThresholdHigh)

	assert.Equal(t, "memory", cfg.GetIntel().Store)
	assert.Equal(t, "none", cfg.GetTranslator().Provider)
}

func TestOverridesBeatDefaults(t *testing.T) {
	v := NewEmptyViper()
	v.Set("fusion.ml_weight", 0.5)
	v.Set("intel.store", "sqlite")
	v.Set("rules.weights.spf_fail", 30.0)

	cfg := NewFromViper(v)

	assert.Equal(t, 0.5, cfg.GetFusion().MLWeight)
	assert.Equal(t, "sqlite", cfg.GetIntel().Store)
	assert.Equal(t, 30.0, cfg.GetRules().Weights.SPFFail)
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	v := NewEmptyViper()
	v.Set("analysis.message_deadline", "not a duration")

	_, err := NewFromViper(v).GetDuration("analysis.message_deadline")
	assert.Error(t, err)
}
