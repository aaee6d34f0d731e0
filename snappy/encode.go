// Package snappy writes parses in the snappy framing format.
package snappy

import (
	"hash/crc32"
	"io"

	"github.com/andybalholm/brotli/matchfinder"

	"github.com/kulaginds/lzmatch"
)

const (
	// MaxBlockSize is the largest chunk body snappy frames allow.
	MaxBlockSize = 65536

	// MaxDistance is the largest copy offset the encoder emits.
	MaxDistance = 65535
)

type Encoder struct {
	wroteHeader bool
}

var magicChunk = []byte("\xff\x06\x00\x00sNaPpY")

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// crc is the masked checksum of the framing format.
func crc(b []byte) uint32 {
	c := crc32.Update(0, crcTable, b)
	return uint32(c>>15|c<<17) + 0xa282ead8
}

func (e *Encoder) Reset() {
	e.wroteHeader = false
}

func (e *Encoder) Encode(dst []byte, src []byte, matches []matchfinder.Match, lastBlock bool) []byte {
	if len(src) > MaxBlockSize {
		panic("snappy: block too large")
	}

	if !e.wroteHeader {
		dst = append(dst, magicChunk...)
		e.wroteHeader = true
	}

	if len(src) == 0 {
		return dst
	}

	start := len(dst)
	checksum := crc(src)

	dst = append(dst,
		0,       // compressed data
		0, 0, 0, // length
		byte(checksum), byte(checksum>>8), byte(checksum>>16), byte(checksum>>24),
	)
	dataStart := len(dst)

	dst = appendUvarint(dst, uint64(len(src)))

	pos := 0
	for _, m := range matches {
		if m.Unmatched > 0 {
			dst = appendLiteral(dst, src[pos:pos+m.Unmatched])
			pos += m.Unmatched
		}

		if m.Length > 0 {
			dst = appendCopy(dst, m.Length, m.Distance)
			pos += m.Length
		}
	}

	if pos < len(src) {
		dst = appendLiteral(dst, src[pos:])
	}

	dataLen := len(dst) - dataStart
	if dataLen >= len(src)-len(src)/8 {
		dst = append(dst[:dataStart], src...)
		dst[start] = 1 // uncompressed data
		dataLen = len(src)
	}

	chunkLen := dataLen + 4
	dst[start+1] = byte(chunkLen)
	dst[start+2] = byte(chunkLen >> 8)
	dst[start+3] = byte(chunkLen >> 16)

	return dst
}

const (
	tagLiteral = 0x00
	tagCopy1   = 0x01
	tagCopy2   = 0x02
)

func appendLiteral(dst, lit []byte) []byte {
	for len(lit) > 0 {
		n := min(len(lit), 1<<16)

		dst = appendLiteralTag(dst, n-1)
		dst = append(dst, lit[:n]...)

		lit = lit[n:]
	}

	return dst
}

func appendLiteralTag(dst []byte, n int) []byte {
	switch {
	case n < 60:
		return append(dst, byte(n)<<2|tagLiteral)
	case n < 1<<8:
		return append(dst, 60<<2|tagLiteral, byte(n))
	default:
		return append(dst, 61<<2|tagLiteral, byte(n), byte(n>>8))
	}
}

// appendCopy splits long copies into 64 byte pieces. A length 67 copy is
// cheaper as 60+7 than as 64+3, since 3 byte copies cannot use tagCopy1.
func appendCopy(dst []byte, length, offset int) []byte {
	for length >= 68 {
		dst = append(dst, 63<<2|tagCopy2, byte(offset), byte(offset>>8))
		length -= 64
	}

	if length > 64 {
		dst = append(dst, 59<<2|tagCopy2, byte(offset), byte(offset>>8))
		length -= 60
	}

	if length >= 12 || length < 4 || offset >= 2048 {
		return append(dst, byte(length-1)<<2|tagCopy2, byte(offset), byte(offset>>8))
	}

	return append(dst, byte(offset>>8)<<5|byte(length-4)<<2|tagCopy1, byte(offset))
}

func appendUvarint(dst []byte, x uint64) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}

	return append(dst, byte(x))
}

// Options returns finder options whose distances fit snappy copies.
func Options(level int) lzmatch.Options {
	opts := lzmatch.LevelOptions(level)
	opts.HistorySize = MaxDistance

	return opts
}

// NewWriter returns a snappy framed writer parsing every chunk on its own.
func NewWriter(dst io.Writer, level int) (*matchfinder.Writer, error) {
	p, err := lzmatch.NewParser(Options(level))
	if err != nil {
		return nil, err
	}

	p.Lazy = level >= 5

	return &matchfinder.Writer{
		Dest:        dst,
		MatchFinder: p,
		Encoder:     &Encoder{},
		BlockSize:   MaxBlockSize,
	}, nil
}
