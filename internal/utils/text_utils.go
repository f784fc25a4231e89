package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateRunes cuts text to at most maxRunes characters. A non-positive limit disables truncation.
func (tp *TextProcessor) TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	count := 0
	for i := range text {
		if count == maxRunes {
			tp.logger.Debug("Text truncated",
				zap.Int("original_size", len(text)),
				zap.Int("truncated_size", i),
				zap.Int("max_runes", maxRunes))
			return text[:i]
		}
		count++
	}
	return text
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// SanitizeSubject normalizes a subject line for scoring and caching: invalid bytes are
// dropped, the text is NFC-composed, runs of whitespace become one space, control
// characters are removed and the ends are trimmed. Length is not capped here.
func (tp *TextProcessor) SanitizeSubject(subject string) string {
	text := norm.NFC.String(tp.SanitizeUTF8(subject))

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r):
			// dropped
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	return b.String()
}
