package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseHeaders() map[string][]string {
	return map[string][]string{
		"From":       {"Alice <alice@example.com>"},
		"Date":       {"Mon, 10 Aug 2026 10:00:00 +0000"},
		"Message-ID": {"<abc123@example.com>"},
	}
}

func TestAnalyzeHeaders_AuthenticationResults(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		spf     AuthOutcome
		dkim    AuthOutcome
		dmarc   AuthOutcome
	}{
		{
			name:   "all pass in one occurrence",
			values: []string{"mx.example.com; spf=pass smtp.mailfrom=example.com; dkim=pass; dmarc=pass"},
			spf:    AuthPass, dkim: AuthPass, dmarc: AuthPass,
		},
		{
			name:   "no occurrences means none",
			values: nil,
			spf:    AuthNone, dkim: AuthNone, dmarc: AuthNone,
		},
		{
			name: "fail beats pass across occurrences",
			values: []string{
				"mx1.example.com; spf=pass",
				"mx2.example.com; spf=fail smtp.mailfrom=evil.test",
			},
			spf: AuthFail, dkim: AuthNone, dmarc: AuthNone,
		},
		{
			name: "pass beats error",
			values: []string{
				"mx1.example.com; dkim=temperror",
				"mx2.example.com; dkim=pass header.d=example.com",
			},
			spf: AuthNone, dkim: AuthPass, dmarc: AuthNone,
		},
		{
			name:   "unknown token classifies as error",
			values: []string{"mx.example.com; dmarc=permerror"},
			spf:    AuthNone, dkim: AuthNone, dmarc: AuthError,
		},
		{
			name:   "uppercase tokens are normalized",
			values: []string{"mx.example.com; SPF=FAIL; DKIM=Pass"},
			spf:    AuthFail, dkim: AuthPass, dmarc: AuthNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := baseHeaders()
			if tt.values != nil {
				headers["Authentication-Results"] = tt.values
			}

			res, err := AnalyzeHeaders(headers)
			require.NoError(t, err)
			assert.Equal(t, tt.spf, res.SPF, "spf")
			assert.Equal(t, tt.dkim, res.DKIM, "dkim")
			assert.Equal(t, tt.dmarc, res.DMARC, "dmarc")
		})
	}
}

func TestAnalyzeHeaders_AuthAggregationIsOrderIndependent(t *testing.T) {
	occurrences := []string{
		"mx1.example.com; spf=pass; dkim=temperror",
		"mx2.example.com; spf=fail; dkim=pass",
		"mx3.example.com; dmarc=none",
	}
	reversed := []string{occurrences[2], occurrences[1], occurrences[0]}

	forward := baseHeaders()
	forward["Authentication-Results"] = occurrences
	backward := baseHeaders()
	backward["Authentication-Results"] = reversed

	a, err := AnalyzeHeaders(forward)
	require.NoError(t, err)
	b, err := AnalyzeHeaders(backward)
	require.NoError(t, err)

	assert.Equal(t, a.SPF, b.SPF)
	assert.Equal(t, a.DKIM, b.DKIM)
	assert.Equal(t, a.DMARC, b.DMARC)
	assert.Equal(t, AuthFail, a.SPF)
	assert.Equal(t, AuthPass, a.DKIM)
	assert.Equal(t, AuthNone, a.DMARC)
}

func TestAnalyzeHeaders_DomainMismatch(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		replyTo    string
		returnPath string
		mismatch   bool
	}{
		{
			name:     "all domains agree",
			from:     "Alice <alice@example.com>",
			replyTo:  "alice@example.com",
			mismatch: false,
		},
		{
			name:     "reply-to diverges",
			from:     "Support <support@example.com>",
			replyTo:  "attacker@evil.test",
			mismatch: true,
		},
		{
			name:       "return-path diverges",
			from:       "billing@example.com",
			returnPath: "<bounce@mailer.evil.test>",
			mismatch:   true,
		},
		{
			name:     "case differences are not a mismatch",
			from:     "alice@Example.COM",
			replyTo:  "alice@example.com",
			mismatch: false,
		},
		{
			name:     "absent optional headers never mismatch",
			from:     "alice@example.com",
			mismatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := baseHeaders()
			headers["From"] = []string{tt.from}
			if tt.replyTo != "" {
				headers["Reply-To"] = []string{tt.replyTo}
			}
			if tt.returnPath != "" {
				headers["Return-Path"] = []string{tt.returnPath}
			}

			res, err := AnalyzeHeaders(headers)
			require.NoError(t, err)
			assert.Equal(t, tt.mismatch, res.DomainMismatch)
		})
	}
}

func TestAnalyzeHeaders_ThreadSpoof(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		extra   map[string][]string
		spoofed bool
	}{
		{
			name:    "reply marker without thread headers",
			subject: "Re: Your invoice",
			spoofed: true,
		},
		{
			name:    "forward marker without thread headers",
			subject: "FWD: Urgent payment",
			spoofed: true,
		},
		{
			name:    "localized marker without thread headers",
			subject: "AW: Rechnung",
			spoofed: true,
		},
		{
			name:    "reply marker with References",
			subject: "Re: Your invoice",
			extra:   map[string][]string{"References": {"<orig@example.com>"}},
			spoofed: false,
		},
		{
			name:    "reply marker with In-Reply-To",
			subject: "Re: Your invoice",
			extra:   map[string][]string{"In-Reply-To": {"<orig@example.com>"}},
			spoofed: false,
		},
		{
			name:    "no marker",
			subject: "Your invoice",
			spoofed: false,
		},
		{
			name:    "marker must be a prefix",
			subject: "About re: something",
			spoofed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := baseHeaders()
			headers["Subject"] = []string{tt.subject}
			for k, v := range tt.extra {
				headers[k] = v
			}

			res, err := AnalyzeHeaders(headers)
			require.NoError(t, err)
			assert.Equal(t, tt.spoofed, res.ThreadSpoof)
		})
	}
}

func TestAnalyzeHeaders_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string][]string
	}{
		{
			name:    "empty mapping",
			headers: map[string][]string{},
		},
		{
			name: "none of the required headers",
			headers: map[string][]string{
				"Subject": {"hello"},
				"To":      {"bob@example.com"},
			},
		},
		{
			name: "invalid text in header value",
			headers: map[string][]string{
				"From": {"alice@example.com"},
				"Date": {string([]byte{0xff, 0xfe, 0xfd})},
			},
		},
		{
			name: "invalid text in header name",
			headers: map[string][]string{
				string([]byte{0xc0, 0x80}): {"x"},
				"From":                     {"alice@example.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzeHeaders(tt.headers)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
		})
	}
}

func TestAnalyzeHeaders_MissingMandatoryHeader(t *testing.T) {
	headers := map[string][]string{
		"From":    {"alice@example.com"},
		"Subject": {"hello"},
	}

	res, err := AnalyzeHeaders(headers)
	require.NoError(t, err)
	assert.True(t, res.MissingMandatoryHeader)

	res, err = AnalyzeHeaders(baseHeaders())
	require.NoError(t, err)
	assert.False(t, res.MissingMandatoryHeader)
}

func TestAnalyzeHeaders_HeaderNamesMatchCaseInsensitively(t *testing.T) {
	headers := map[string][]string{
		"from":       {"alice@example.com"},
		"date":       {"Mon, 10 Aug 2026 10:00:00 +0000"},
		"message-id": {"<abc@example.com>"},
		"reply-to":   {"attacker@evil.test"},
	}

	res, err := AnalyzeHeaders(headers)
	require.NoError(t, err)
	assert.False(t, res.MissingMandatoryHeader)
	assert.Equal(t, "example.com", res.FromDomain)
	assert.Equal(t, "evil.test", res.ReplyToDomain)
	assert.True(t, res.DomainMismatch)
}

func TestExtractAddressDomain(t *testing.T) {
	tests := []struct {
		value  string
		domain string
	}{
		{"Alice <alice@example.com>", "example.com"},
		{"alice@example.com", "example.com"},
		{"<bounce@mailer.example.com>", "mailer.example.com"},
		{"alice@EXAMPLE.com", "example.com"},
		{"", ""},
		{"no address here", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.domain, extractAddressDomain(tt.value), "value: %q", tt.value)
	}
}
