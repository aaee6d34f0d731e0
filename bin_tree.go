package lzmatch

import (
	"io"
)

const (
	hash2Size   = 1 << 10
	hash3Size   = 1 << 16
	bt2HashSize = 1 << 16
	hash3Offset = hash2Size

	startMaxLen = 1

	// emptyHashValue never names a position: positions are stored shifted by one.
	emptyHashValue = 0

	maxValForNormalize = 1<<30 - 1
)

// BinTree is a binary tree match finder over a Window.
//
// Every position in the history owns a node in a cyclic array of child link
// pairs. A hash of the first bytes selects the tree root; a search walks the
// tree from the newest candidate, reports matches of growing length and
// splices the current position in as the new root.
type BinTree struct {
	win Window

	son  []uint32
	hash []uint32

	cyclicBufferPos  int
	cyclicBufferSize int

	matchMaxLen  int
	keepAddAfter int
	cutValue     uint32

	hashArray          bool
	hashMask           uint32
	hashSizeSum        int
	fixHashSize        int
	numHashDirectBytes int
	minMatchCheck      int

	normalizeAt int
	initialized bool
}

func NewBinTree(opts Options) (*BinTree, error) {
	bt := &BinTree{}

	err := bt.Create(opts)
	if err != nil {
		return nil, err
	}

	return bt, nil
}

// Create sizes the window, node array and hash tables for opts.
// Buffers are kept when their size does not change.
func (bt *BinTree) Create(opts Options) error {
	err := opts.Validate()
	if err != nil {
		return err
	}

	historySize := int(opts.HistorySize)
	before := int(opts.KeepAddBufferBefore)
	after := int(opts.KeepAddBufferAfter)
	matchMaxLen := int(opts.MatchMaxLen)

	reserve := (historySize+before+matchMaxLen+after)/2 + 256
	bt.win.Create(historySize+before, matchMaxLen+after, reserve)

	bt.matchMaxLen = matchMaxLen
	bt.keepAddAfter = after
	bt.cutValue = opts.cutValue()

	cyclicBufferSize := historySize + 1
	if bt.cyclicBufferSize != cyclicBufferSize {
		bt.son = make([]uint32, 2*cyclicBufferSize)
		bt.cyclicBufferSize = cyclicBufferSize
	}

	bt.hashArray = opts.HashBytes > 2

	if bt.hashArray {
		bt.numHashDirectBytes = 0
		bt.minMatchCheck = 4
		bt.fixHashSize = hash2Size + hash3Size
	} else {
		bt.numHashDirectBytes = 2
		bt.minMatchCheck = 3
		bt.fixHashSize = 0
	}

	hs := bt2HashSize
	if bt.hashArray {
		h := uint32(historySize - 1)
		h |= h >> 1
		h |= h >> 2
		h |= h >> 4
		h |= h >> 8
		h >>= 1
		h |= 0xffff
		if h > 1<<24 {
			h >>= 1
		}

		bt.hashMask = h
		hs = int(h) + 1 + bt.fixHashSize
	}

	if hs != bt.hashSizeSum {
		bt.hash = make([]uint32, hs)
		bt.hashSizeSum = hs
	}

	bt.normalizeAt = maxValForNormalize
	bt.initialized = false

	return nil
}

func (bt *BinTree) SetStream(r io.Reader) {
	bt.win.SetStream(r)
}

func (bt *BinTree) ReleaseStream() {
	bt.win.ReleaseStream()
	bt.initialized = false
}

func (bt *BinTree) SetCutValue(v uint32) {
	bt.cutValue = v
}

// Init resets the finder and loads the first block from the stream.
func (bt *BinTree) Init() error {
	if bt.son == nil {
		return ErrNotInitialized
	}

	if bt.win.src.r == nil {
		return ErrNoStream
	}

	bt.initialized = false

	err := bt.win.Init()
	if err != nil {
		return err
	}

	clear(bt.hash)

	bt.cyclicBufferPos = 0
	bt.win.ReduceOffsets(-1)

	bt.initialized = true

	return nil
}

// GetMatches appends to dst the matches for the current position in
// strictly increasing length order and advances one byte.
func (bt *BinTree) GetMatches(dst []Match) ([]Match, error) {
	if !bt.initialized {
		return dst, ErrNotInitialized
	}

	return bt.find(dst, true)
}

// Skip inserts the next num positions into the tree without reporting matches.
func (bt *BinTree) Skip(num int) error {
	if !bt.initialized {
		return ErrNotInitialized
	}

	for i := 0; i < num; i++ {
		_, err := bt.find(nil, false)
		if err != nil {
			return err
		}
	}

	return nil
}

// LongestMatch runs GetMatches and returns its result together with the
// longest match length. A match stopped by MatchMaxLen is extended byte by
// byte up to the LZMA maximum as far as the look-ahead allows.
func (bt *BinTree) LongestMatch(dst []Match) ([]Match, uint32, error) {
	start := len(dst)

	dst, err := bt.GetMatches(dst)
	if err != nil || len(dst) == start {
		return dst, 0, err
	}

	m := dst[len(dst)-1]
	l := m.Len

	if int(l) == bt.matchMaxLen {
		ext := min(MatchMaxLen, bt.matchMaxLen+bt.keepAddAfter)
		if int(l) < ext {
			l += bt.win.GetMatchLen(int(l)-1, m.Dist, uint32(ext)-l)
		}
	}

	return dst, l, nil
}

func (bt *BinTree) GetIndexByte(index int) byte {
	return bt.win.GetIndexByte(index)
}

func (bt *BinTree) GetMatchLen(index int, distance, limit uint32) uint32 {
	return bt.win.GetMatchLen(index, distance, limit)
}

func (bt *BinTree) GetNumAvailableBytes() uint32 {
	return bt.win.GetNumAvailableBytes()
}

func (bt *BinTree) movePos() error {
	bt.cyclicBufferPos++
	if bt.cyclicBufferPos >= bt.cyclicBufferSize {
		bt.cyclicBufferPos = 0
	}

	err := bt.win.MovePos()
	if err != nil {
		return err
	}

	if bt.win.pos >= bt.normalizeAt {
		bt.normalize()
	}

	return nil
}

// find indexes the current position and advances. With collect set it
// also appends the matches it meets on the way.
func (bt *BinTree) find(dst []Match, collect bool) ([]Match, error) {
	w := &bt.win

	lenLimit := bt.matchMaxLen
	if w.pos+bt.matchMaxLen > w.streamPos {
		lenLimit = w.streamPos - w.pos

		if lenLimit < bt.minMatchCheck {
			return dst, bt.movePos()
		}
	}

	matchMinPos := 0
	if w.pos > bt.cyclicBufferSize {
		matchMinPos = w.pos - bt.cyclicBufferSize
	}

	buf := w.buf
	cur := w.bufferOffset + w.pos
	pos := uint32(w.pos)
	start := len(dst)
	maxLen := startMaxLen

	var hashValue, hash2Value, hash3Value uint32

	if bt.hashArray {
		crc := crcTable()

		tmp := crc[buf[cur]] ^ uint32(buf[cur+1])
		hash2Value = tmp & (hash2Size - 1)
		tmp ^= uint32(buf[cur+2]) << 8
		hash3Value = tmp & (hash3Size - 1)
		hashValue = (tmp ^ crc[buf[cur+3]]<<5) & bt.hashMask
	} else {
		hashValue = uint32(buf[cur]) ^ uint32(buf[cur+1])<<8
	}

	curMatch := int(bt.hash[bt.fixHashSize+int(hashValue)])

	if bt.hashArray {
		curMatch2 := int(bt.hash[hash2Value])
		curMatch3 := int(bt.hash[hash3Offset+hash3Value])

		bt.hash[hash2Value] = pos
		bt.hash[hash3Offset+hash3Value] = pos

		if collect {
			if curMatch2 > matchMinPos && buf[w.bufferOffset+curMatch2] == buf[cur] {
				maxLen = 2
				dst = append(dst, Match{Len: 2, Dist: uint32(w.pos - curMatch2 - 1)})
			}

			if curMatch3 > matchMinPos && buf[w.bufferOffset+curMatch3] == buf[cur] {
				if curMatch3 == curMatch2 && len(dst) > start {
					dst = dst[:len(dst)-1]
				}

				maxLen = 3
				dst = append(dst, Match{Len: 3, Dist: uint32(w.pos - curMatch3 - 1)})
				curMatch2 = curMatch3
			}

			// the tree walk starts at the same position and reports it longer
			if len(dst) > start && curMatch2 == curMatch {
				dst = dst[:len(dst)-1]
				maxLen = startMaxLen
			}
		}
	}

	bt.hash[bt.fixHashSize+int(hashValue)] = pos

	direct := bt.numHashDirectBytes

	if collect && direct != 0 && curMatch > matchMinPos {
		if buf[w.bufferOffset+curMatch+direct] != buf[cur+direct] {
			maxLen = direct
			dst = append(dst, Match{Len: uint32(direct), Dist: uint32(w.pos - curMatch - 1)})
		}
	}

	ptr0 := bt.cyclicBufferPos<<1 + 1
	ptr1 := bt.cyclicBufferPos << 1
	len0, len1 := direct, direct

	for count := bt.cutValue; ; count-- {
		if curMatch <= matchMinPos || count == 0 {
			bt.son[ptr0] = emptyHashValue
			bt.son[ptr1] = emptyHashValue

			break
		}

		delta := w.pos - curMatch

		cyclicPos := bt.cyclicBufferPos - delta
		if delta > bt.cyclicBufferPos {
			cyclicPos += bt.cyclicBufferSize
		}
		cyclicPos <<= 1

		pby1 := w.bufferOffset + curMatch
		l := min(len0, len1)

		if buf[pby1+l] == buf[cur+l] {
			for l++; l != lenLimit; l++ {
				if buf[pby1+l] != buf[cur+l] {
					break
				}
			}

			if maxLen < l {
				maxLen = l

				if collect {
					dst = append(dst, Match{Len: uint32(l), Dist: uint32(delta - 1)})
				}
			}

			if l == lenLimit {
				bt.son[ptr1] = bt.son[cyclicPos]
				bt.son[ptr0] = bt.son[cyclicPos+1]

				break
			}
		}

		if buf[pby1+l] < buf[cur+l] {
			bt.son[ptr1] = uint32(curMatch)
			ptr1 = cyclicPos + 1
			curMatch = int(bt.son[ptr1])
			len1 = l
		} else {
			bt.son[ptr0] = uint32(curMatch)
			ptr0 = cyclicPos
			curMatch = int(bt.son[ptr0])
			len0 = l
		}
	}

	return dst, bt.movePos()
}
