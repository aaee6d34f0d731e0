package lzmatch

import (
	"io"
)

// maxEmptyReads is how many (0, nil) reads in a row a source may return
// before it is treated as stuck.
const maxEmptyReads = 100

// source wraps the window input. Errors other than io.EOF pass through unchanged.
type source struct {
	r io.Reader

	total int64
}

func (s *source) Read(p []byte) (n int, err error) {
	if s.r == nil {
		return 0, ErrNoStream
	}

	for i := 0; i < maxEmptyReads; i++ {
		n, err = s.r.Read(p)
		s.total += int64(n)

		if n != 0 || err != nil {
			return n, err
		}
	}

	return 0, io.ErrNoProgress
}
