package core

import (
	"time"
)

// IndicatorType identifies the kind of value a threat indicator matches against.
type IndicatorType string

const (
	IndicatorURL    IndicatorType = "url"
	IndicatorDomain IndicatorType = "domain"
	IndicatorIP     IndicatorType = "ip"
	IndicatorHash   IndicatorType = "hash"
)

// URLSource records where in the message a URL was extracted from.
type URLSource string

const (
	URLSourceSubject    URLSource = "subject"
	URLSourceBody       URLSource = "body"
	URLSourceAttachment URLSource = "attachment"
)

// AuthOutcome is the per-mechanism result of an email authentication check.
type AuthOutcome string

const (
	AuthPass  AuthOutcome = "pass"
	AuthFail  AuthOutcome = "fail"
	AuthNone  AuthOutcome = "none"
	AuthError AuthOutcome = "error"
)

// Verdict is the final classification of a message.
type Verdict string

const (
	VerdictLegitimate Verdict = "legitimate"
	VerdictSuspicious Verdict = "suspicious"
	VerdictPhishing   Verdict = "phishing"
)

// Analysis modes recorded in Report diagnostics.
const (
	ModeFull      = "full"
	ModeRulesOnly = "rules_only"
)

// ExtractedURL is one URL pulled out of the message by the upstream parser,
// with host and path already separated.
type ExtractedURL struct {
	Raw    string    `json:"raw"`
	Scheme string    `json:"scheme"`
	Host   string    `json:"host"`
	Path   string    `json:"path"`
	Source URLSource `json:"source"`
}

// Attachment is the metadata of one message attachment. The content itself
// never enters the pipeline, only its hash.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SHA256      string `json:"sha256"`
}

// ParsedMessage is the sole input to the analysis pipeline, produced by the
// out-of-process message parser. It is immutable and owned by the caller.
type ParsedMessage struct {
	// Headers maps a canonical field name to its raw values in order of
	// appearance. Repeated fields (Received, Authentication-Results) keep
	// every occurrence.
	Headers map[string][]string `json:"headers"`

	// Bodies maps a detected language tag to the body text in that language.
	Bodies map[string]string `json:"bodies"`

	URLs        []ExtractedURL `json:"urls"`
	Attachments []Attachment   `json:"attachments"`
}

// HeaderAnalysisResult holds the structural facts extracted from headers.
// It carries no scores; scoring is the Rules Engine's job.
type HeaderAnalysisResult struct {
	SPF   AuthOutcome `json:"spf"`
	DKIM  AuthOutcome `json:"dkim"`
	DMARC AuthOutcome `json:"dmarc"`

	FromDomain       string `json:"from_domain"`
	ReplyToDomain    string `json:"reply_to_domain"`
	ReturnPathDomain string `json:"return_path_domain"`

	DomainMismatch         bool `json:"domain_mismatch"`
	ThreadSpoof            bool `json:"thread_spoof"`
	MissingMandatoryHeader bool `json:"missing_mandatory_header"`
}

// URLRecord is the per-URL output of the URL/domain analyzer.
type URLRecord struct {
	URL       ExtractedURL `json:"url"`
	Domain    string       `json:"domain"`
	IPLiteral bool         `json:"ip_literal"`
	PrivateIP bool         `json:"private_ip,omitempty"`
	Shortener bool         `json:"shortener"`
	Suspicion float64      `json:"suspicion"`
}

// URLDomainAnalysisResult holds per-URL records plus message-level aggregates.
type URLDomainAnalysisResult struct {
	Records []URLRecord `json:"records"`

	MaxSuspicion    float64 `json:"max_suspicion"`
	SuspiciousURLs  int     `json:"suspicious_urls"`
	DistinctDomains int     `json:"distinct_domains"`
	InsecureSchemes int     `json:"insecure_schemes"`
}

// Indicator is one threat-intelligence row, uniquely identified by
// (Type, Value). Source and Confidence may be updated by a refresh;
// FirstSeen is preserved across refreshes.
type Indicator struct {
	Type       IndicatorType `json:"type"`
	Value      string        `json:"value"`
	Source     string        `json:"source"`
	FirstSeen  time.Time     `json:"first_seen"`
	Confidence float64       `json:"confidence"`
}

// ThreatMatch is the result of a single store lookup. It is always derived,
// never persisted.
type ThreatMatch struct {
	Matched    bool    `json:"matched"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ThreatLookup pairs a looked-up value with its outcome. Skipped marks a
// lookup the store could not serve; the Rules Engine treats that as
// "unknown", not as "clean".
type ThreatLookup struct {
	Type    IndicatorType `json:"type"`
	Value   string        `json:"value"`
	Match   ThreatMatch   `json:"match"`
	Skipped bool          `json:"skipped"`
}

// RuleFinding is one triggered rule with the weight it contributed.
type RuleFinding struct {
	RuleID      string  `json:"rule_id"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
}

// RiskScore is the Rules Engine output: the clamped sum of triggered weights
// together with its audit trail. Findings are ordered by descending weight,
// ties broken by rule id.
type RiskScore struct {
	Value    int           `json:"value"`
	Findings []RuleFinding `json:"findings"`
}

// Diagnostics records non-fatal trouble encountered during one analysis.
type Diagnostics struct {
	Mode              string   `json:"mode"`
	TimedOut          bool     `json:"timed_out"`
	SkippedLookups    int      `json:"skipped_lookups"`
	TranslationFailed bool     `json:"translation_failed"`
	Errors            []string `json:"errors,omitempty"`
}

// Report is the final output for one message. Given the same ParsedMessage,
// indicator snapshot, ML confidence and configuration, the scoring fields
// are identical across invocations; only ID and AnalyzedAt vary.
type Report struct {
	ID           string      `json:"id"`
	Risk         RiskScore   `json:"risk"`
	MLConfidence *float64    `json:"ml_confidence,omitempty"`
	FinalScore   float64     `json:"final_score"`
	Verdict      Verdict     `json:"verdict"`
	Diagnostics  Diagnostics `json:"diagnostics"`
	Explanation  string      `json:"explanation"`
	AnalyzedAt   time.Time   `json:"analyzed_at"`
}
