package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name    string
		text    string
		maxSize int
		want    string
	}{
		{
			name:    "short text passes through",
			text:    "hello",
			maxSize: 100,
			want:    "hello",
		},
		{
			name:    "zero max disables truncation",
			text:    strings.Repeat("a", 50),
			maxSize: 0,
			want:    strings.Repeat("a", 50),
		},
		{
			name:    "long text is cut with marker",
			text:    strings.Repeat("a", 50),
			maxSize: 10,
			want:    strings.Repeat("a", 10) + "\n[... content truncated ...]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.TruncateText(tt.text, tt.maxSize))
		})
	}
}

func TestTruncateText_RespectsRuneBoundaries(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "héllo" cut in the middle of the two-byte é must back off, not emit
	// a broken sequence.
	got := tp.TruncateText("héllo", 2)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(got, "h"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))

	dirty := "ab" + string([]byte{0xff}) + "cd"
	got := tp.SanitizeUTF8(dirty)
	assert.Equal(t, "abcd", got)
	assert.True(t, utf8.ValidString(got))
}

func TestLanguageName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"en", "English"},
		{"fr", "French"},
		{"de", "German"},
		{"not-a-real-tag!", "not-a-real-tag!"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageName(tt.tag), "tag: %s", tt.tag)
	}
}
