package lzmatch

import (
	"io"

	"github.com/andybalholm/brotli/matchfinder"
	"tlog.app/go/errors"
)

// History is the decoder side of a parse: a ring of the last size output
// bytes with the bytes not yet flushed counted as pending.
type History struct {
	buf    []byte
	pos    uint32
	size   uint32
	isFull bool

	TotalPos uint64
	pending  uint32
}

func NewHistory(size uint32) *History {
	return &History{
		buf:  make([]byte, size),
		size: size,
	}
}

func (h *History) PutByte(b byte) {
	h.TotalPos++
	h.buf[h.pos] = b
	h.pos++
	h.pending++

	if h.pos == h.size {
		h.pos = 0
		h.isFull = true
	}
}

// GetByte returns the byte dist positions back. dist 1 is the last byte.
func (h *History) GetByte(dist uint32) byte {
	i := h.size - dist + h.pos

	if dist <= h.pos {
		i = h.pos - dist
	}

	return h.buf[i]
}

func (h *History) CopyMatch(dist, length uint32) {
	for ; length > 0; length-- {
		h.PutByte(h.GetByte(dist))
	}
}

// CheckDistance reports whether dist points into the written data.
func (h *History) CheckDistance(dist uint32) bool {
	if dist == 0 || dist > h.size {
		return false
	}

	return dist <= h.pos || h.isFull
}

func (h *History) IsEmpty() bool {
	return h.pos == 0 && !h.isFull
}

func (h *History) HasPending() bool {
	return h.pending > 0
}

// Free is the number of bytes that can be put before pending data is overwritten.
func (h *History) Free() uint32 {
	return h.size - h.pending
}

// Flush writes pending bytes to w, oldest first.
func (h *History) Flush(w io.Writer) error {
	for h.pending > 0 {
		start := h.pos - h.pending
		end := h.pos

		if h.pending > h.pos {
			start = h.size - (h.pending - h.pos)
			end = h.size
		}

		_, err := w.Write(h.buf[start:end])
		if err != nil {
			return err
		}

		h.pending -= end - start
	}

	return nil
}

// Replay rebuilds the stream described by matches over literal bytes src
// and writes it to w. Every match must point inside the last historySize
// bytes of output.
func Replay(w io.Writer, src []byte, matches []matchfinder.Match, historySize int) (err error) {
	if historySize <= 0 {
		return errors.Wrap(ErrInvalidOptions, "history size %d", historySize)
	}

	h := NewHistory(uint32(historySize))
	i := 0

	for _, m := range matches {
		if m.Unmatched < 0 || i+m.Unmatched > len(src) {
			return errors.Wrap(ErrBadLength, "literal run %d at %d", m.Unmatched, h.TotalPos)
		}

		for _, b := range src[i : i+m.Unmatched] {
			if h.Free() == 0 {
				err = h.Flush(w)
				if err != nil {
					return errors.Wrap(err, "write")
				}
			}

			h.PutByte(b)
		}

		i += m.Unmatched

		if m.Length == 0 {
			continue
		}

		if m.Length < 0 {
			return errors.Wrap(ErrBadLength, "match length %d at %d", m.Length, h.TotalPos)
		}

		dist := uint32(m.Distance)
		if m.Distance <= 0 || m.Distance > historySize || !h.CheckDistance(dist) {
			return errors.Wrap(ErrBadDistance, "distance %d at %d", m.Distance, h.TotalPos)
		}

		for left := uint32(m.Length); left > 0; {
			if h.Free() == 0 {
				err = h.Flush(w)
				if err != nil {
					return errors.Wrap(err, "write")
				}
			}

			n := min(left, h.Free())

			h.CopyMatch(dist, n)
			left -= n
		}

		i += m.Length
	}

	err = h.Flush(w)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}
