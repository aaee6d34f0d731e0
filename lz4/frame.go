package lz4

import (
	"encoding/binary"
	"hash"
	"io"

	"github.com/andybalholm/brotli/matchfinder"
	"github.com/pierrec/xxHash/xxHash32"

	"github.com/kulaginds/lzmatch"
)

const (
	frameMagic = 0x184D2204

	// MaxBlockSize is the block size announced in the frame header.
	MaxBlockSize = 4 << 20
)

// A FrameEncoder is a matchfinder.Encoder writing the LZ4 frame format
// with a content checksum.
type FrameEncoder struct {
	hasher      hash.Hash32
	blockBuffer []byte
}

func (f *FrameEncoder) Reset() {
	f.hasher = nil
}

func (f *FrameEncoder) Encode(dst []byte, src []byte, matches []matchfinder.Match, lastBlock bool) []byte {
	if f.hasher == nil {
		f.hasher = xxHash32.New(0)
		dst = binary.LittleEndian.AppendUint32(dst, frameMagic)
		// version 1, content checksum, 4 MiB blocks, header checksum
		dst = append(dst, 0x44, 0x70, 0x1d)
	}

	if len(src) != 0 {
		var be BlockEncoder
		f.blockBuffer = be.Encode(f.blockBuffer[:0], src, matches, lastBlock)

		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(f.blockBuffer)))
		dst = append(dst, f.blockBuffer...)

		_, _ = f.hasher.Write(src)
	}

	if lastBlock {
		dst = append(dst, 0, 0, 0, 0)
		dst = binary.LittleEndian.AppendUint32(dst, f.hasher.Sum32())
	}

	return dst
}

// Options returns finder options whose distances fit LZ4 offsets.
func Options(level int) lzmatch.Options {
	opts := lzmatch.LevelOptions(level)
	opts.HistorySize = MaxDistance

	return opts
}

// NewWriter returns an LZ4 frame writer with independent 1 MiB blocks.
func NewWriter(dst io.Writer, level int) (*matchfinder.Writer, error) {
	p, err := lzmatch.NewParser(Options(level))
	if err != nil {
		return nil, err
	}

	p.MinLength = MinMatch
	p.Lazy = level >= 5

	return &matchfinder.Writer{
		Dest:        dst,
		MatchFinder: p,
		Encoder:     &FrameEncoder{},
		BlockSize:   1 << 20,
	}, nil
}
