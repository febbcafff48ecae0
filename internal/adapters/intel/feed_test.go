package intel

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/phishing-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const urlhausSample = `# URLhaus database dump
# Last updated: 2026-08-30
#
"id","dateadded","url","url_status","last_online","threat","tags","urlhaus_link","reporter"
"100001","2026-08-29 14:22:01","http://evil.test/login.php","online","2026-08-30","malware_download","elf","https://urlhaus.example/100001","tester"
"100002","2026-08-29 15:00:00","http://203.0.113.5/payload.exe","offline","2026-08-29","malware_download","exe","https://urlhaus.example/100002","tester"
`

func TestParseURLhausCSV(t *testing.T) {
	indicators, err := ParseURLhausCSV(strings.NewReader(urlhausSample))
	require.NoError(t, err)
	require.Len(t, indicators, 4, "each row yields a url plus a derived host indicator")

	url1 := indicators[0]
	assert.Equal(t, core.IndicatorURL, url1.Type)
	assert.Equal(t, "http://evil.test/login.php", url1.Value)
	assert.Equal(t, SourceURLhaus, url1.Source)
	assert.InDelta(t, 0.90, url1.Confidence, 1e-9)
	assert.Equal(t, time.Date(2026, 8, 29, 14, 22, 1, 0, time.UTC), url1.FirstSeen)

	domain1 := indicators[1]
	assert.Equal(t, core.IndicatorDomain, domain1.Type)
	assert.Equal(t, "evil.test", domain1.Value)
	assert.InDelta(t, 0.85, domain1.Confidence, 1e-9, "derived indicators take the discount")

	ip2 := indicators[3]
	assert.Equal(t, core.IndicatorIP, ip2.Type, "IP hosts derive an ip indicator, not a domain")
	assert.Equal(t, "203.0.113.5", ip2.Value)
}

func TestParseURLhausCSV_Empty(t *testing.T) {
	indicators, err := ParseURLhausCSV(strings.NewReader("# nothing but comments\n"))
	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestParseOpenPhishFeed(t *testing.T) {
	feed := strings.Join([]string{
		"http://phish.test/secure/verify",
		"",
		"https://bank-login.evil.test/",
		"# trailing comment",
	}, "\n")

	indicators, err := ParseOpenPhishFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, indicators, 4)

	assert.Equal(t, core.IndicatorURL, indicators[0].Type)
	assert.Equal(t, "http://phish.test/secure/verify", indicators[0].Value)
	assert.Equal(t, SourceOpenPhish, indicators[0].Source)
	assert.InDelta(t, 0.85, indicators[0].Confidence, 1e-9)
	assert.True(t, indicators[0].FirstSeen.IsZero(), "OpenPhish carries no timestamps")

	assert.Equal(t, core.IndicatorDomain, indicators[1].Type)
	assert.Equal(t, "phish.test", indicators[1].Value)
	assert.InDelta(t, 0.80, indicators[1].Confidence, 1e-9)

	assert.Equal(t, "https://bank-login.evil.test/", indicators[2].Value)
	assert.Equal(t, "bank-login.evil.test", indicators[3].Value)
}

func TestOpenFeed_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.txt")
	require.NoError(t, os.WriteFile(path, []byte("http://phish.test/a\n"), 0o644))

	r, err := OpenFeed(context.Background(), path)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "http://phish.test/a\n", string(data))
}

func TestOpenFeed_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "http://phish.test/b\n")
	}))
	defer srv.Close()

	r, err := OpenFeed(context.Background(), srv.URL)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "http://phish.test/b\n", string(data))
}

func TestOpenFeed_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := OpenFeed(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestOpenFeed_MissingFile(t *testing.T) {
	_, err := OpenFeed(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
