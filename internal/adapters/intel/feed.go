package intel

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mikey/phishing-filter/internal/core"
)

// Feed source names recorded on ingested indicators.
const (
	SourceURLhaus   = "URLhaus"
	SourceOpenPhish = "OpenPhish"
)

// Default per-feed confidence for ingested indicators. Derived domain
// indicators get a small haircut: the URL is the observed artifact, the
// domain an inference from it.
const (
	urlhausConfidence   = 0.90
	openPhishConfidence = 0.85
	domainDiscount      = 0.05
)

// OpenFeed returns a reader for a feed location, which may be an http(s)
// URL or a local file path.
func OpenFeed(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build feed request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed %s: %w", location, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("feed %s returned status %d", location, resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	return f, nil
}

// ParseURLhausCSV parses a URLhaus CSV export into indicators. The export
// starts with '#'-commented metadata lines; data rows are
// id,dateadded,url,url_status,last_online,threat,tags,urlhaus_link,reporter.
// Every URL row also yields a derived domain (or IP) indicator.
func ParseURLhausCSV(r io.Reader) ([]core.Indicator, error) {
	reader := csv.NewReader(stripComments(r))
	reader.FieldsPerRecord = -1

	var indicators []core.Indicator
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse URLhaus CSV: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		if strings.EqualFold(record[0], "id") {
			// Column header row.
			continue
		}

		rawURL := strings.TrimSpace(record[2])
		if rawURL == "" {
			continue
		}

		firstSeen := time.Time{}
		if t, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(record[1])); err == nil {
			firstSeen = t.UTC()
		}

		indicators = append(indicators,
			feedIndicators(rawURL, SourceURLhaus, urlhausConfidence, firstSeen)...)
	}
	return indicators, nil
}

// ParseOpenPhishFeed parses the OpenPhish plain-text feed, one URL per line.
func ParseOpenPhishFeed(r io.Reader) ([]core.Indicator, error) {
	var indicators []core.Indicator

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		indicators = append(indicators,
			feedIndicators(line, SourceOpenPhish, openPhishConfidence, time.Time{})...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read OpenPhish feed: %w", err)
	}
	return indicators, nil
}

// feedIndicators builds the url indicator plus its derived domain or ip
// indicator for one feed entry.
func feedIndicators(rawURL, source string, confidence float64, firstSeen time.Time) []core.Indicator {
	indicators := []core.Indicator{{
		Type:       core.IndicatorURL,
		Value:      normalizeValue(rawURL),
		Source:     source,
		FirstSeen:  firstSeen,
		Confidence: confidence,
	}}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return indicators
	}

	host := strings.ToLower(parsed.Hostname())
	typ := core.IndicatorDomain
	if _, err := netip.ParseAddr(host); err == nil {
		typ = core.IndicatorIP
	}

	return append(indicators, core.Indicator{
		Type:       typ,
		Value:      host,
		Source:     source,
		FirstSeen:  firstSeen,
		Confidence: confidence - domainDiscount,
	})
}

// stripComments filters out URLhaus' leading '#' metadata lines so the CSV
// reader only sees records.
func stripComments(r io.Reader) io.Reader {
	var b strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.NewReader(b.String())
}
