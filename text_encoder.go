package lzmatch

import (
	"strconv"

	"github.com/andybalholm/brotli/matchfinder"
)

// TextEncoder is a matchfinder.Encoder that renders a parse for people:
// literals are copied and matches become <length,distance>.
type TextEncoder struct{}

func (TextEncoder) Reset() {}

func (TextEncoder) Encode(dst []byte, src []byte, matches []matchfinder.Match, lastBlock bool) []byte {
	pos := 0

	for _, m := range matches {
		if m.Unmatched > 0 {
			dst = append(dst, src[pos:pos+m.Unmatched]...)
			pos += m.Unmatched
		}

		if m.Length > 0 {
			dst = append(dst, '<')
			dst = strconv.AppendInt(dst, int64(m.Length), 10)
			dst = append(dst, ',')
			dst = strconv.AppendInt(dst, int64(m.Distance), 10)
			dst = append(dst, '>')

			pos += m.Length
		}
	}

	if pos < len(src) {
		dst = append(dst, src[pos:]...)
	}

	return dst
}
