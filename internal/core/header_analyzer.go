package core

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// mechanismPattern matches one `mechanism=result` token inside an
// Authentication-Results value, e.g. "spf=pass" or "dkim=temperror".
var mechanismPattern = regexp.MustCompile(`\b(spf|dkim|dmarc)\s*=\s*([a-z0-9]+)`)

// addressDomainPattern is the fallback for addresses net/mail refuses,
// e.g. bare "Return-Path: bounce@example.com" with display junk around it.
var addressDomainPattern = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9.-]*)`)

// replyMarkers are the subject prefixes that claim thread membership.
// Localized variants cover the common mail clients.
var replyMarkers = []string{"re:", "fwd:", "fw:", "aw:", "sv:", "antw:", "vs:", "odp:", "res:", "ref:"}

// AnalyzeHeaders extracts structural facts from a message's header mapping.
// It is a pure function: no I/O, no scoring, no verdicts. It fails only with
// a MalformedMessageError when the mapping itself cannot be interpreted.
func AnalyzeHeaders(headers map[string][]string) (HeaderAnalysisResult, error) {
	var res HeaderAnalysisResult

	if len(headers) == 0 {
		return res, &MalformedMessageError{Reason: "empty header mapping"}
	}
	for name, values := range headers {
		if !utf8.ValidString(name) {
			return res, &MalformedMessageError{Reason: "header name is not valid text"}
		}
		for _, v := range values {
			if !utf8.ValidString(v) {
				return res, &MalformedMessageError{Reason: "header value for " + name + " is not valid text"}
			}
		}
	}

	if !hasHeader(headers, "From") && !hasHeader(headers, "Date") && !hasHeader(headers, "Message-ID") {
		return res, &MalformedMessageError{Reason: "no required headers present"}
	}

	res.SPF, res.DKIM, res.DMARC = parseAuthenticationResults(headerValues(headers, "Authentication-Results"))

	res.FromDomain = extractAddressDomain(firstHeader(headers, "From"))
	res.ReplyToDomain = extractAddressDomain(firstHeader(headers, "Reply-To"))
	res.ReturnPathDomain = extractAddressDomain(firstHeader(headers, "Return-Path"))
	res.DomainMismatch = domainsMismatch(res.FromDomain, res.ReplyToDomain, res.ReturnPathDomain)

	subject := firstHeader(headers, "Subject")
	if hasReplyMarker(subject) && !hasHeader(headers, "References") && !hasHeader(headers, "In-Reply-To") {
		res.ThreadSpoof = true
	}

	if !hasHeader(headers, "From") || !hasHeader(headers, "Date") || !hasHeader(headers, "Message-ID") {
		res.MissingMandatoryHeader = true
	}

	return res, nil
}

// parseAuthenticationResults folds every Authentication-Results occurrence
// into one outcome per mechanism. Aggregation is strictest-wins: any fail
// makes the mechanism fail, otherwise any pass makes it pass, otherwise an
// observed error (temperror, permerror, softfail, ...) makes it error,
// otherwise none. The fold is order-independent.
func parseAuthenticationResults(occurrences []string) (spf, dkim, dmarc AuthOutcome) {
	outcomes := map[string]AuthOutcome{
		"spf":   AuthNone,
		"dkim":  AuthNone,
		"dmarc": AuthNone,
	}

	for _, occurrence := range occurrences {
		for _, m := range mechanismPattern.FindAllStringSubmatch(strings.ToLower(occurrence), -1) {
			mech, outcome := m[1], classifyAuthToken(m[2])
			if authRank(outcome) > authRank(outcomes[mech]) {
				outcomes[mech] = outcome
			}
		}
	}

	return outcomes["spf"], outcomes["dkim"], outcomes["dmarc"]
}

func classifyAuthToken(token string) AuthOutcome {
	switch token {
	case "pass":
		return AuthPass
	case "fail":
		return AuthFail
	case "none":
		return AuthNone
	default:
		// temperror, permerror, softfail, neutral, policy, ...
		return AuthError
	}
}

func authRank(o AuthOutcome) int {
	switch o {
	case AuthFail:
		return 3
	case AuthPass:
		return 2
	case AuthError:
		return 1
	default:
		return 0
	}
}

// extractAddressDomain returns the lowercased domain part of the first
// address in a header value, or "" when no address can be found.
func extractAddressDomain(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if addr, err := mail.ParseAddress(value); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
			return strings.ToLower(addr.Address[at+1:])
		}
	}

	if m := addressDomainPattern.FindStringSubmatch(value); m != nil {
		return strings.ToLower(strings.TrimRight(m[1], ".>"))
	}
	return ""
}

// domainsMismatch reports whether any two of the present domains differ.
// Comparison is exact-string and case-insensitive (domains arrive lowered).
func domainsMismatch(domains ...string) bool {
	seen := ""
	for _, d := range domains {
		if d == "" {
			continue
		}
		if seen == "" {
			seen = d
			continue
		}
		if d != seen {
			return true
		}
	}
	return false
}

func hasReplyMarker(subject string) bool {
	s := strings.ToLower(strings.TrimSpace(subject))
	for _, marker := range replyMarkers {
		if strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}

// headerValues returns all values for a field, matching the name
// case-insensitively since parsers disagree on canonicalization.
func headerValues(headers map[string][]string, name string) []string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func firstHeader(headers map[string][]string, name string) string {
	values := headerValues(headers, name)
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func hasHeader(headers map[string][]string, name string) bool {
	return firstHeader(headers, name) != ""
}
