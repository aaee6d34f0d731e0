package lzmatch

import (
	"bytes"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/andybalholm/brotli/matchfinder"
	"github.com/stretchr/testify/require"
)

func TestParserText(t *testing.T) {
	r := require.New(t)

	p, err := NewParser(testOptions(64, 4))
	r.NoError(err)

	var buf bytes.Buffer

	w := &matchfinder.Writer{
		Dest:        &buf,
		MatchFinder: p,
		Encoder:     TextEncoder{},
		BlockSize:   1 << 10,
	}

	_, err = w.Write([]byte("abcabcabcX"))
	r.NoError(err)

	err = w.Close()
	r.NoError(err)

	r.Equal("abc<6,3>X", buf.String())
}

func TestParserReplay(t *testing.T) {
	data := testText(200<<10, 9)

	testCases := []struct {
		name string

		lazy       bool
		maxHistory int
		blockSize  int
		minLength  int
		hashBytes  uint32
	}{
		{name: "greedy_blocks", blockSize: 4 << 10, hashBytes: 4},
		{name: "lazy_blocks", lazy: true, blockSize: 4 << 10, hashBytes: 4},
		{name: "greedy_history", maxHistory: 32 << 10, blockSize: 16 << 10, hashBytes: 4},
		{name: "lazy_history_bt2", lazy: true, maxHistory: 8 << 10, blockSize: 64 << 10, hashBytes: 2},
		{name: "min_length_2", minLength: 2, blockSize: 64 << 10, hashBytes: 4},
		{name: "whole", lazy: true, blockSize: len(data), hashBytes: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			opts := testOptions(8<<10, tc.hashBytes)

			p, err := NewParser(opts)
			r.NoError(err)

			p.Lazy = tc.lazy
			p.MaxHistory = tc.maxHistory
			p.MinLength = tc.minLength

			minLength := 4
			if tc.minLength != 0 {
				minLength = tc.minLength
			}

			var all []matchfinder.Match
			matched := 0

			for i := 0; i < len(data); i += tc.blockSize {
				block := data[i:min(i+tc.blockSize, len(data))]
				start := len(all)

				all = p.FindMatches(all, block)

				pos := 0
				for _, m := range all[start:] {
					pos += m.Unmatched

					if m.Length != 0 {
						r.GreaterOrEqual(m.Length, minLength)
						r.LessOrEqual(m.Distance, int(opts.HistorySize))
						r.GreaterOrEqual(m.Distance, 1)

						if tc.maxHistory == 0 {
							r.LessOrEqual(m.Distance, pos)
						}
					}

					pos += m.Length
					matched += m.Length
				}

				r.Equal(len(block), pos)
			}

			r.Greater(matched, len(data)/2)

			var buf bytes.Buffer

			err = Replay(&buf, data, all, int(opts.HistorySize))
			r.NoError(err)
			r.True(bytes.Equal(data, buf.Bytes()))
		})
	}
}

func TestParserLazy(t *testing.T) {
	r := require.New(t)

	// greedy takes "abcd" and then "efgh",
	// lazy emits one more literal to get "bcdefgh" in one match
	data := []byte("abcd__bcdefgh__abcdefgh")

	parse := func(lazy bool) []matchfinder.Match {
		p, err := NewParser(testOptions(64, 4))
		r.NoError(err)

		p.Lazy = lazy

		return p.FindMatches(nil, data)
	}

	greedy := parse(false)
	lazy := parse(true)

	r.Equal([]matchfinder.Match{
		{Unmatched: 15, Length: 4, Distance: 15},
		{Unmatched: 0, Length: 4, Distance: 10},
	}, greedy)

	r.Equal([]matchfinder.Match{
		{Unmatched: 16, Length: 7, Distance: 10},
	}, lazy)

	for _, ms := range [][]matchfinder.Match{greedy, lazy} {
		var buf bytes.Buffer

		err := Replay(&buf, data, ms, 64)
		r.NoError(err)
		r.Equal(data, buf.Bytes())
	}
}

func TestParserReset(t *testing.T) {
	r := require.New(t)

	p, err := NewParser(testOptions(1<<12, 4))
	r.NoError(err)

	p.MaxHistory = 1 << 12

	block := []byte("0123456789abcdef")

	ms := p.FindMatches(nil, block)
	r.Equal([]matchfinder.Match{{Unmatched: len(block)}}, ms)

	ms = p.FindMatches(nil, block)
	r.Equal([]matchfinder.Match{{Unmatched: 0, Length: len(block), Distance: len(block)}}, ms)

	p.Reset()

	ms = p.FindMatches(nil, block)
	r.Equal([]matchfinder.Match{{Unmatched: len(block)}}, ms)

	ms = p.FindMatches(ms, nil)
	r.Len(ms, 1)
}

func TestParserBrotli(t *testing.T) {
	r := require.New(t)

	data := testText(300<<10, 10)

	p, err := NewParser(LevelOptions(5))
	r.NoError(err)

	p.Lazy = true
	p.MaxHistory = 1 << 18

	var buf bytes.Buffer

	w := &matchfinder.Writer{
		Dest:        &buf,
		MatchFinder: p,
		Encoder:     &brotli.Encoder{},
		BlockSize:   1 << 16,
	}

	_, err = w.Write(data)
	r.NoError(err)

	err = w.Close()
	r.NoError(err)

	r.Less(buf.Len(), len(data)/2)

	dec, err := io.ReadAll(brotli.NewReader(&buf))
	r.NoError(err)
	r.True(bytes.Equal(data, dec))
}

func BenchmarkParser(b *testing.B) {
	data := testText(1<<20, 11)

	for _, lazy := range []bool{false, true} {
		b.Run(map[bool]string{false: "greedy", true: "lazy"}[lazy], func(b *testing.B) {
			p, err := NewParser(LevelOptions(5))
			if err != nil {
				b.Fatal(err)
			}

			p.Lazy = lazy

			var ms []matchfinder.Match

			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				ms = p.FindMatches(ms[:0], data)
			}
		})
	}
}
