package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSanitizeSubject(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  Hello  ", "Hello"},
		{"collapses whitespace", "Big\t\tnews\n for   you", "Big news for you"},
		{"strips control characters", "Hel\x00lo\x7f there", "Hello there"},
		{"whitespace only", " \t\n ", ""},
		{"composes accents", "Cafe\u0301 menu", "Caf\u00e9 menu"},
		{"drops invalid bytes", "Hi\xff there", "Hi there"},
		{"keeps long input", strings.Repeat("a", 250), strings.Repeat("a", 250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.SanitizeSubject(tt.input))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "héllo", tp.TruncateRunes("héllo world", 5))
	assert.Equal(t, "short", tp.TruncateRunes("short", 10))
	assert.Equal(t, "unlimited", tp.TruncateRunes("unlimited", 0))
	assert.Equal(t, 200, len([]rune(tp.TruncateRunes(strings.Repeat("é", 300), 200))))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "valid", tp.SanitizeUTF8("valid"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xc3b"))
}
