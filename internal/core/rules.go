package core

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
)

// Rule identifiers, also used as deterministic tie-breakers when ordering
// findings of equal weight.
const (
	RuleSPFFail             = "spf_fail"
	RuleDKIMFail            = "dkim_fail"
	RuleDMARCFail           = "dmarc_fail"
	RuleDomainMismatch      = "domain_mismatch"
	RuleThreadSpoof         = "thread_spoof"
	RuleThreatMatch         = "threat_match"
	RuleDangerousAttachment = "dangerous_attachment"
	RuleSuspiciousURLs      = "suspicious_url_count"
	RuleIPLiteralURL        = "ip_literal_url"
	RuleURLShortener        = "url_shortener"
)

// RuleWeights is the configured contribution of each rule. Values are risk
// points on the 0-100 scale; the threat-match weight is additionally scaled
// by the matched indicator's confidence.
type RuleWeights struct {
	SPFFail             float64
	DKIMFail            float64
	DMARCFail           float64
	DomainMismatch      float64
	ThreadSpoof         float64
	ThreatMatch         float64
	DangerousAttachment float64
	SuspiciousURLs      float64
	IPLiteralURL        float64
	URLShortener        float64
}

// DefaultRuleWeights is the nominal tuning carried over from the offline
// calibration; deployments override it through configuration.
func DefaultRuleWeights() RuleWeights {
	return RuleWeights{
		SPFFail:             15,
		DKIMFail:            15,
		DMARCFail:           10,
		DomainMismatch:      20,
		ThreadSpoof:         10,
		ThreatMatch:         25,
		DangerousAttachment: 20,
		SuspiciousURLs:      15,
		IPLiteralURL:        15,
		URLShortener:        10,
	}
}

// RulesEngine turns analyzer facts and threat lookups into a RiskScore.
// Every applicable rule is always evaluated; no rule short-circuits another,
// so the findings list is exhaustive.
type RulesEngine struct {
	weights            RuleWeights
	dangerousExts      map[string]struct{}
	suspiciousURLLimit int
}

// NewRulesEngine creates an engine with the given weights, dangerous
// attachment extensions (with or without leading dot) and the
// suspicious-URL count a message may carry before the count rule fires.
func NewRulesEngine(weights RuleWeights, dangerousExtensions []string, suspiciousURLLimit int) *RulesEngine {
	exts := make(map[string]struct{}, len(dangerousExtensions))
	for _, e := range dangerousExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	return &RulesEngine{
		weights:            weights,
		dangerousExts:      exts,
		suspiciousURLLimit: suspiciousURLLimit,
	}
}

// Evaluate is a deterministic fold over the rule set: it produces both the
// clamped score and its audit trail as one immutable artifact.
func (e *RulesEngine) Evaluate(
	headers HeaderAnalysisResult,
	urls URLDomainAnalysisResult,
	lookups []ThreatLookup,
	attachments []Attachment,
) RiskScore {
	var findings []RuleFinding
	add := func(id string, weight float64, explanation string) {
		findings = append(findings, RuleFinding{RuleID: id, Weight: weight, Explanation: explanation})
	}

	if headers.SPF == AuthFail || headers.SPF == AuthNone {
		add(RuleSPFFail, e.weights.SPFFail,
			fmt.Sprintf("SPF check did not pass (result: %s)", headers.SPF))
	}
	if headers.DKIM == AuthFail {
		add(RuleDKIMFail, e.weights.DKIMFail, "DKIM signature verification failed")
	}
	if headers.DMARC == AuthFail {
		add(RuleDMARCFail, e.weights.DMARCFail, "DMARC policy evaluation failed")
	}
	if headers.DomainMismatch {
		add(RuleDomainMismatch, e.weights.DomainMismatch,
			fmt.Sprintf("sender domains disagree (From: %q, Reply-To: %q, Return-Path: %q)",
				headers.FromDomain, headers.ReplyToDomain, headers.ReturnPathDomain))
	}
	if headers.ThreadSpoof {
		add(RuleThreadSpoof, e.weights.ThreadSpoof,
			"subject claims a reply but no References or In-Reply-To header is present")
	}

	for _, match := range distinctMatches(lookups) {
		add(RuleThreatMatch, e.weights.ThreatMatch*match.Match.Confidence,
			fmt.Sprintf("%s %q matched threat feed %s (confidence %.2f)",
				match.Type, match.Value, match.Match.Source, match.Match.Confidence))
	}

	if offenders := e.dangerousAttachments(attachments); len(offenders) > 0 {
		add(RuleDangerousAttachment, e.weights.DangerousAttachment,
			fmt.Sprintf("attachment with dangerous extension: %s", strings.Join(offenders, ", ")))
	}

	if urls.SuspiciousURLs > e.suspiciousURLLimit {
		add(RuleSuspiciousURLs, e.weights.SuspiciousURLs,
			fmt.Sprintf("%d URL(s) scored above the suspicion threshold", urls.SuspiciousURLs))
	}

	if hosts := ipLiteralHosts(urls.Records); len(hosts) > 0 {
		add(RuleIPLiteralURL, e.weights.IPLiteralURL,
			fmt.Sprintf("URL uses a raw IP address as host: %s", strings.Join(hosts, ", ")))
	}
	if hosts := shortenerHosts(urls.Records); len(hosts) > 0 {
		add(RuleURLShortener, e.weights.URLShortener,
			fmt.Sprintf("URL points at a link-shortening service: %s", strings.Join(hosts, ", ")))
	}

	sortFindings(findings)

	total := 0.0
	for _, f := range findings {
		total += f.Weight
	}
	value := int(math.Round(total))
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return RiskScore{Value: value, Findings: findings}
}

// distinctMatches deduplicates matched lookups by (type, value) so one
// indicator contributes once no matter how often it occurs in the message.
// Output order is deterministic.
func distinctMatches(lookups []ThreatLookup) []ThreatLookup {
	seen := make(map[string]struct{})
	var matches []ThreatLookup
	for _, l := range lookups {
		if l.Skipped || !l.Match.Matched {
			continue
		}
		key := string(l.Type) + "\x00" + l.Value
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matches = append(matches, l)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Type != matches[j].Type {
			return matches[i].Type < matches[j].Type
		}
		return matches[i].Value < matches[j].Value
	})
	return matches
}

func (e *RulesEngine) dangerousAttachments(attachments []Attachment) []string {
	var offenders []string
	for _, a := range attachments {
		ext := strings.ToLower(filepath.Ext(a.Filename))
		if _, bad := e.dangerousExts[ext]; bad {
			offenders = append(offenders, a.Filename)
		}
	}
	return offenders
}

func ipLiteralHosts(records []URLRecord) []string {
	var hosts []string
	for _, r := range records {
		if r.IPLiteral && !r.PrivateIP {
			hosts = append(hosts, r.URL.Host)
		}
	}
	return hosts
}

func shortenerHosts(records []URLRecord) []string {
	var hosts []string
	for _, r := range records {
		if r.Shortener {
			hosts = append(hosts, r.URL.Host)
		}
	}
	return hosts
}

// sortFindings orders findings by descending contributed weight, ties broken
// by rule id then explanation, keeping reports byte-stable across runs.
func sortFindings(findings []RuleFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Weight != findings[j].Weight {
			return findings[i].Weight > findings[j].Weight
		}
		if findings[i].RuleID != findings[j].RuleID {
			return findings[i].RuleID < findings[j].RuleID
		}
		return findings[i].Explanation < findings[j].Explanation
	})
}
