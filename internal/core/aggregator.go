package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Aggregator fuses the deterministic risk score with the ML classifier's
// confidence into a final score and verdict. For fixed inputs and fixed
// configuration its scoring output is bit-for-bit identical across
// invocations; only report id and timestamp vary.
type Aggregator struct {
	alpha float64
	tLow  float64
	tHigh float64
}

// NewAggregator creates an aggregator. alpha is the weight on the ML signal;
// tLow and tHigh are the verdict thresholds, calibrated offline.
func NewAggregator(alpha, tLow, tHigh float64) *Aggregator {
	return &Aggregator{alpha: alpha, tLow: tLow, tHigh: tHigh}
}

// Fuse computes f = alpha*c + (1-alpha)*r with r = risk/100. A nil
// confidence means the classifier was unavailable: the fused score reduces
// to r alone (degraded mode).
func (a *Aggregator) Fuse(risk RiskScore, confidence *float64) float64 {
	r := float64(risk.Value) / 100.0
	if confidence == nil {
		return r
	}
	return a.alpha**confidence + (1-a.alpha)*r
}

// VerdictFor maps a fused score to its verdict band.
func (a *Aggregator) VerdictFor(score float64) Verdict {
	switch {
	case score >= a.tHigh:
		return VerdictPhishing
	case score >= a.tLow:
		return VerdictSuspicious
	default:
		return VerdictLegitimate
	}
}

// BuildReport assembles the final Report for one analyzed message.
func (a *Aggregator) BuildReport(risk RiskScore, confidence *float64, diag Diagnostics) *Report {
	score := a.Fuse(risk, confidence)
	return &Report{
		ID:           uuid.NewString(),
		Risk:         risk,
		MLConfidence: confidence,
		FinalScore:   score,
		Verdict:      a.VerdictFor(score),
		Diagnostics:  diag,
		Explanation:  a.explain(risk, confidence, score),
		AnalyzedAt:   time.Now().UTC(),
	}
}

// explain concatenates the ordered rule findings with the ML contribution so
// the verdict can be audited line by line.
func (a *Aggregator) explain(risk RiskScore, confidence *float64, score float64) string {
	var b strings.Builder

	if len(risk.Findings) == 0 {
		b.WriteString("No heuristic rules triggered.\n")
	}
	for _, f := range risk.Findings {
		fmt.Fprintf(&b, "[%s] +%.1f: %s\n", f.RuleID, f.Weight, f.Explanation)
	}
	fmt.Fprintf(&b, "Rule risk score: %d/100.\n", risk.Value)

	if confidence != nil {
		fmt.Fprintf(&b, "ML classifier confidence: %.3f (weight %.2f).\n", *confidence, a.alpha)
	} else {
		b.WriteString("ML classifier unavailable; verdict from rules alone.\n")
	}
	fmt.Fprintf(&b, "Final score: %.3f.", score)

	return b.String()
}
