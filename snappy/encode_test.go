package snappy

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/andybalholm/brotli/matchfinder"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"
)

func testText(n int, seed int64) []byte {
	rnd := rand.New(rand.NewSource(seed))
	words := []string{"snappy", "frames", "chunks", "carry", "masked", "crc", "of", "the", "data", "copy", "literal"}

	b := make([]byte, 0, n+16)
	for len(b) < n {
		b = append(b, words[rnd.Intn(len(words))]...)
		b = append(b, ' ')
	}

	return b[:n]
}

func testRandom(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)

	return b
}

func TestEncode(t *testing.T) {
	testCases := []struct {
		name string

		data  []byte
		level int
	}{
		{name: "text", data: testText(300<<10, 1), level: 6},
		{name: "text_fast", data: testText(100<<10, 2), level: 0},
		{name: "random", data: testRandom(100<<10, 3), level: 6},
		{name: "short", data: []byte("snappy snappy snappy"), level: 6},
		{name: "empty", data: nil, level: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			var buf bytes.Buffer

			w, err := NewWriter(&buf, tc.level)
			r.NoError(err)

			_, err = w.Write(tc.data)
			r.NoError(err)

			err = w.Close()
			r.NoError(err)

			dec, err := io.ReadAll(snappy.NewReader(&buf))
			r.NoError(err)
			r.True(bytes.Equal(tc.data, dec))
		})
	}
}

func TestEncodeUncompressedChunk(t *testing.T) {
	r := require.New(t)

	data := testRandom(1000, 4)

	var e Encoder

	out := e.Encode(nil, data, []matchfinder.Match{{Unmatched: len(data)}}, true)

	r.Equal(magicChunk, out[:len(magicChunk)])
	r.Equal(byte(1), out[len(magicChunk)])
	r.Len(out, len(magicChunk)+4+4+len(data))

	dec, err := io.ReadAll(snappy.NewReader(bytes.NewReader(out)))
	r.NoError(err)
	r.Equal(data, dec)
}

func TestAppendCopy(t *testing.T) {
	r := require.New(t)

	// a copy of every length from the same offset decodes with the block decoder
	for _, offset := range []int{1, 7, 2047, 2048, MaxDistance} {
		for length := 1; length <= 300; length++ {
			src := testRandom(offset, int64(offset))

			var blk []byte
			blk = appendUvarint(blk, uint64(offset+length))
			blk = appendLiteral(blk, src)
			blk = appendCopy(blk, length, offset)

			dec, err := snappy.Decode(nil, blk)
			r.NoError(err, "offset %d length %d", offset, length)
			r.Len(dec, offset+length)

			for i := offset; i < len(dec); i++ {
				r.Equal(dec[i-offset], dec[i])
			}
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	data := testText(1<<20, 5)

	var buf bytes.Buffer

	w, err := NewWriter(&buf, 6)
	if err != nil {
		b.Fatal(err)
	}

	_, _ = w.Write(data)
	_ = w.Close()

	b.ReportMetric(float64(len(data))/float64(buf.Len()), "ratio")
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)

		_, _ = w.Write(data)
		_ = w.Close()
	}
}
