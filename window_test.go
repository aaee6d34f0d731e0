package lzmatch

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestWindowInvariant(t *testing.T) {
	data := testText(50<<10, 12)

	const before, after = 1000, 300

	testCases := []struct {
		name string

		reader func(io.Reader) io.Reader
	}{
		{name: "bytes_reader"},
		{name: "one_byte_reader", reader: iotest.OneByteReader},
		{name: "half_reader", reader: iotest.HalfReader},
		{name: "data_err_reader", reader: iotest.DataErrReader},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			var src io.Reader = bytes.NewReader(data)
			if tc.reader != nil {
				src = tc.reader(src)
			}

			var w Window

			w.Create(before, after, 700)
			w.SetStream(src)

			err := w.Init()
			r.NoError(err)

			for i := range data {
				avail := int(w.GetNumAvailableBytes())

				if w.streamEndWasReached && len(data)-i < after {
					r.Equal(len(data)-i, avail, "position %d", i)
				} else {
					r.GreaterOrEqual(avail, after, "position %d", i)
				}

				r.Equal(data[i], w.GetIndexByte(0), "position %d", i)
				r.Equal(data[i+avail-1], w.GetIndexByte(avail-1), "position %d", i)

				for _, k := range []int{1, 500, before} {
					if k <= i {
						r.Equal(data[i-k], w.GetIndexByte(-k), "position %d back %d", i, k)
					}
				}

				err = w.MovePos()
				r.NoError(err)
			}

			r.True(w.streamEndWasReached)
			r.Zero(w.GetNumAvailableBytes())
			r.Equal(int64(len(data)), w.src.total)
		})
	}
}

func TestWindowGetMatchLen(t *testing.T) {
	testCases := []struct {
		name string

		data  string
		skip  int
		index int
		dist  uint32
		limit uint32

		exp uint32
	}{
		{name: "repeat", data: "abcabcabcX", skip: 3, dist: 2, limit: 100, exp: 6},
		{name: "limit", data: "abcabcabcX", skip: 3, dist: 2, limit: 4, exp: 4},
		{name: "index", data: "abcabcabcX", skip: 3, index: 2, dist: 2, limit: 100, exp: 4},
		{name: "run_to_end", data: "aaaaaaaaaa", skip: 1, dist: 0, limit: 100, exp: 9},
		{name: "mismatch", data: "abcabd", skip: 3, dist: 2, limit: 100, exp: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			var w Window

			w.Create(64, 16, 64)
			w.SetStream(strings.NewReader(tc.data))

			err := w.Init()
			r.NoError(err)

			for i := 0; i < tc.skip; i++ {
				err = w.MovePos()
				r.NoError(err)
			}

			r.Equal(tc.exp, w.GetMatchLen(tc.index, tc.dist, tc.limit))
		})
	}
}

func TestWindowReduceOffsets(t *testing.T) {
	r := require.New(t)

	var w Window

	w.Create(64, 16, 64)
	w.SetStream(strings.NewReader("0123456789"))

	err := w.Init()
	r.NoError(err)

	err = w.MovePos()
	r.NoError(err)

	avail := w.GetNumAvailableBytes()

	w.ReduceOffsets(-1)

	r.Equal(2, w.pos)
	r.Equal(avail, w.GetNumAvailableBytes())
	r.Equal(byte('1'), w.GetIndexByte(0))
	r.Equal(byte('0'), w.GetIndexByte(-1))
}
