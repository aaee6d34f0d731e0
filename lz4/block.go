// Package lz4 writes parses in the LZ4 block and frame formats.
package lz4

import (
	"encoding/binary"

	"github.com/andybalholm/brotli/matchfinder"
)

const (
	// MinMatch is the shortest match a sequence can carry.
	MinMatch = 4

	// MaxDistance is the largest offset a sequence can carry.
	MaxDistance = 65535
)

// A BlockEncoder is a matchfinder.Encoder writing the LZ4 block format.
type BlockEncoder struct{}

func (BlockEncoder) Reset() {}

func (BlockEncoder) Encode(dst []byte, src []byte, matches []matchfinder.Match, lastBlock bool) []byte {
	// A block ends with at least 5 literals, and the last match
	// starts at least 12 bytes before the end.
	trailingLiterals := 0
	for len(matches) > 0 && (trailingLiterals < 5 || trailingLiterals+matches[len(matches)-1].Length < 12) {
		lastMatch := matches[len(matches)-1]
		matches = matches[:len(matches)-1]
		trailingLiterals += lastMatch.Unmatched + lastMatch.Length
	}

	pos := 0
	for _, m := range matches {
		token := byte(0)
		if m.Unmatched > 14 {
			token |= 0xf0
		} else {
			token |= byte(m.Unmatched << 4)
		}

		if m.Length > 18 {
			token |= 0x0f
		} else {
			token |= byte(m.Length - MinMatch)
		}

		dst = append(dst, token)

		if m.Unmatched > 14 {
			dst = appendInt(dst, m.Unmatched-15)
		}

		dst = append(dst, src[pos:pos+m.Unmatched]...)

		dst = binary.LittleEndian.AppendUint16(dst, uint16(m.Distance))
		if m.Length > 18 {
			dst = appendInt(dst, m.Length-19)
		}

		pos += m.Unmatched + m.Length
	}

	token := byte(0)
	if trailingLiterals > 14 {
		token |= 0xf0
	} else {
		token |= byte(trailingLiterals << 4)
	}

	dst = append(dst, token)
	if trailingLiterals > 14 {
		dst = appendInt(dst, trailingLiterals-15)
	}

	dst = append(dst, src[pos:]...)

	return dst
}

// appendInt appends n in the LZ4 variable-length integer format.
func appendInt(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}

	return append(dst, byte(n))
}
