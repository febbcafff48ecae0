package core

import (
	"net/netip"
	"strings"
)

// suspicionKeywords are the security-themed lures looked for in hosts and
// paths. Phishing pages overwhelmingly brand themselves with these.
var suspicionKeywords = []string{
	"secure", "verify", "login", "account", "signin",
	"update", "confirm", "password", "banking", "webscr",
}

// URLHeuristics holds the tunable weights and thresholds of the per-URL
// suspicion score. The five weights sum to 1.0 in the default tuning so a
// single URL's score stays in [0,1].
type URLHeuristics struct {
	LongHostLength     int
	HyphenCount        int
	SubdomainDepth     int
	SuspicionThreshold float64

	WeightLongHost float64
	WeightHyphens  float64
	WeightDepth    float64
	WeightKeywords float64
	WeightPunycode float64
}

// DefaultURLHeuristics returns the nominal tuning. Deployments override
// these through configuration.
func DefaultURLHeuristics() URLHeuristics {
	return URLHeuristics{
		LongHostLength:     30,
		HyphenCount:        2,
		SubdomainDepth:     3,
		SuspicionThreshold: 0.5,
		WeightLongHost:     0.2,
		WeightHyphens:      0.15,
		WeightDepth:        0.15,
		WeightKeywords:     0.25,
		WeightPunycode:     0.25,
	}
}

// URLAnalyzer scores extracted URLs with deterministic heuristics. It is a
// pure function over its input: no network access, never blocks.
type URLAnalyzer struct {
	heuristics URLHeuristics
	shorteners map[string]struct{}
}

// NewURLAnalyzer creates an analyzer with the given tuning and
// shortener-domain set.
func NewURLAnalyzer(heuristics URLHeuristics, shortenerDomains []string) *URLAnalyzer {
	shorteners := make(map[string]struct{}, len(shortenerDomains))
	for _, d := range shortenerDomains {
		shorteners[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &URLAnalyzer{heuristics: heuristics, shorteners: shorteners}
}

// Analyze evaluates every URL and computes the message-level aggregates.
func (a *URLAnalyzer) Analyze(urls []ExtractedURL) URLDomainAnalysisResult {
	res := URLDomainAnalysisResult{
		Records: make([]URLRecord, 0, len(urls)),
	}

	domains := make(map[string]struct{})
	for _, u := range urls {
		rec := a.analyzeOne(u)
		res.Records = append(res.Records, rec)

		if rec.Domain != "" {
			domains[rec.Domain] = struct{}{}
		}
		if rec.Suspicion > res.MaxSuspicion {
			res.MaxSuspicion = rec.Suspicion
		}
		if rec.Suspicion > a.heuristics.SuspicionThreshold {
			res.SuspiciousURLs++
		}
		if insecureScheme(u.Scheme) {
			res.InsecureSchemes++
		}
	}
	res.DistinctDomains = len(domains)

	return res
}

func (a *URLAnalyzer) analyzeOne(u ExtractedURL) URLRecord {
	host := strings.ToLower(hostWithoutPort(u.Host))

	rec := URLRecord{URL: u}

	if ip, ok := parseIPLiteral(host); ok {
		rec.IPLiteral = true
		// Private-range literals point at lab setups, not lures; scoring
		// skips them while the structural flag stays truthful.
		rec.PrivateIP = ip.IsPrivate() || ip.IsLoopback()
	} else {
		rec.Domain = host
		rec.Shortener = a.isShortener(host)
	}

	rec.Suspicion = a.suspicionScore(host, strings.ToLower(u.Path))
	return rec
}

// suspicionScore sums the triggered sub-heuristic weights, bounded to [0,1].
func (a *URLAnalyzer) suspicionScore(host, path string) float64 {
	h := a.heuristics
	score := 0.0

	if len(host) > h.LongHostLength {
		score += h.WeightLongHost
	}
	if strings.Count(host, "-") >= h.HyphenCount {
		score += h.WeightHyphens
	}
	if strings.Count(host, ".") >= h.SubdomainDepth {
		score += h.WeightDepth
	}
	if containsKeyword(host) || containsKeyword(path) {
		score += h.WeightKeywords
	}
	if hasPunycodeLabel(host) {
		score += h.WeightPunycode
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (a *URLAnalyzer) isShortener(host string) bool {
	if _, ok := a.shorteners[host]; ok {
		return true
	}
	for shortener := range a.shorteners {
		if strings.HasSuffix(host, "."+shortener) {
			return true
		}
	}
	return false
}

func containsKeyword(s string) bool {
	for _, kw := range suspicionKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// hasPunycodeLabel reports whether any DNS label carries the ACE prefix,
// the marker of a possibly homoglyph-spoofed name.
func hasPunycodeLabel(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}

// parseIPLiteral recognizes a valid IPv4 or IPv6 literal used as a host.
// IPv6 hosts may still be wrapped in brackets at this point.
func parseIPLiteral(host string) (netip.Addr, bool) {
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

// hostWithoutPort strips a trailing :port while leaving bare IPv6 literals
// intact.
func hostWithoutPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end >= 0 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndex(host, ":"); i >= 0 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}

func insecureScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "https", "":
		return false
	default:
		return true
	}
}
