package filter

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts encoded-word payloads in any WHATWG-registered charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded-words in a header value
func decodeEncodedHeader(value string) (string, error) {
	if !strings.Contains(value, "=?") {
		return value, nil
	}
	return wordDecoder.DecodeHeader(value)
}

// Header lines stay within RFC 5322 limits: values are capped before encoding
// and folded at whitespace near the recommended line length.
const (
	maxHeaderValueBytes = 512
	foldLineLength      = 78
)

// headerValue collapses a value onto one line, caps its length and Q-encodes it when it is not plain ASCII
func headerValue(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if len(value) > maxHeaderValueBytes {
		cut := maxHeaderValueBytes
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut] + "..."
	}
	for _, r := range value {
		if r > 126 || r < 32 {
			return mime.QEncoding.Encode("utf-8", value)
		}
	}
	return value
}

// foldHeader breaks value at spaces so no line grows past foldLineLength when a break is possible.
// used is the width already taken on the first line by the field name.
func foldHeader(used int, value string) string {
	var b strings.Builder
	lineLen := used
	for i, word := range strings.Split(value, " ") {
		if i > 0 {
			if lineLen+1+len(word) > foldLineLength {
				b.WriteString("\r\n ")
				lineLen = 1
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
