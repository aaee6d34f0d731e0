package lzmatch

import (
	"io"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Window is a bounded view of the input stream: keepSizeBefore bytes of
// history behind the cursor and keepSizeAfter bytes of look-ahead in front of it.
// Positions are logical stream offsets; bufferOffset maps them into buf.
type Window struct {
	src source

	buf         []byte
	blockSize   int
	lastSafePos int

	bufferOffset int
	pos          int
	posLimit     int
	streamPos    int

	keepSizeBefore int
	keepSizeAfter  int

	streamEndWasReached bool
}

// Create sizes the buffer. It reallocates only if the size changes.
func (w *Window) Create(keepSizeBefore, keepSizeAfter, keepSizeReserve int) {
	w.keepSizeBefore = keepSizeBefore
	w.keepSizeAfter = keepSizeAfter

	blockSize := keepSizeBefore + keepSizeAfter + keepSizeReserve
	if w.buf == nil || w.blockSize != blockSize {
		w.buf = make([]byte, blockSize)
		w.blockSize = blockSize
	}

	w.lastSafePos = blockSize - keepSizeAfter
}

func (w *Window) SetStream(r io.Reader) {
	w.src = source{r: r}
}

func (w *Window) ReleaseStream() {
	w.src.r = nil
}

// Init resets offsets and fills the buffer from the stream.
func (w *Window) Init() error {
	w.bufferOffset = 0
	w.pos = 0
	w.posLimit = 0
	w.streamPos = 0
	w.streamEndWasReached = false

	return w.readBlock()
}

// moveBlock drops bytes more than keepSizeBefore behind the cursor and
// shifts the rest to the front of buf.
func (w *Window) moveBlock() {
	offset := w.bufferOffset + w.pos - w.keepSizeBefore
	// one more byte: MovePos has already stepped past the position
	if offset > 0 {
		offset--
	}

	numBytes := w.bufferOffset + w.streamPos - offset
	copy(w.buf[:numBytes], w.buf[offset:offset+numBytes])

	w.bufferOffset -= offset
}

func (w *Window) readBlock() error {
	if w.streamEndWasReached {
		return nil
	}

	for {
		size := w.blockSize - w.bufferOffset - w.streamPos
		if size == 0 {
			return nil
		}

		start := w.bufferOffset + w.streamPos

		n, err := w.src.Read(w.buf[start : start+size])
		w.streamPos += n

		if w.streamPos >= w.pos+w.keepSizeAfter {
			w.posLimit = w.streamPos - w.keepSizeAfter
		}

		if errors.Is(err, io.EOF) {
			w.posLimit = w.streamPos

			if w.bufferOffset+w.posLimit > w.lastSafePos {
				w.posLimit = w.lastSafePos - w.bufferOffset
			}

			w.streamEndWasReached = true

			tlog.V("lzmatch").Printw("stream end", "stream_pos", w.streamPos, "pos", w.pos, "total", w.src.total)

			return nil
		}

		if err != nil {
			return err
		}
	}
}

// MovePos advances the cursor by one byte, compacting and refilling the
// buffer once the cursor passes posLimit.
func (w *Window) MovePos() error {
	w.pos++

	if w.pos <= w.posLimit {
		return nil
	}

	if w.bufferOffset+w.pos > w.lastSafePos {
		w.moveBlock()
	}

	return w.readBlock()
}

// GetIndexByte returns the byte at pos+index. index may be negative.
func (w *Window) GetIndexByte(index int) byte {
	return w.buf[w.bufferOffset+w.pos+index]
}

// GetMatchLen counts equal bytes at pos+index and distance+1 bytes before it,
// up to limit and never past the end of the stream.
func (w *Window) GetMatchLen(index int, distance, limit uint32) uint32 {
	lim := int(limit)

	if w.streamEndWasReached && w.pos+index+lim > w.streamPos {
		lim = w.streamPos - (w.pos + index)
	}

	back := int(distance) + 1
	p := w.bufferOffset + w.pos + index

	i := 0
	for i < lim && w.buf[p+i] == w.buf[p+i-back] {
		i++
	}

	return uint32(i)
}

func (w *Window) GetNumAvailableBytes() uint32 {
	return uint32(w.streamPos - w.pos)
}

// ReduceOffsets shifts every logical offset down by subValue.
func (w *Window) ReduceOffsets(subValue int) {
	w.bufferOffset += subValue
	w.posLimit -= subValue
	w.pos -= subValue
	w.streamPos -= subValue
}
