package lzmatch

import "tlog.app/go/errors"

const (
	// MatchMinLen is the shortest match the finder reports.
	MatchMinLen = 2
	// MatchMaxLen is the longest match an LZMA stream can encode.
	MatchMaxLen = 273

	NumFastBytesMin     = 5
	NumFastBytesDefault = 0x20

	// NumOpts is the look-behind an optimal parser keeps on top of the
	// history while it revisits earlier positions.
	NumOpts = 1 << 12

	DictSizeMin     = 1 << 12
	DictSizeDefault = 1 << 22
	DictSizeMax     = 1 << 29

	historySizeMax = maxValForNormalize - 256
)

// Options configures a BinTree.
type Options struct {
	// HistorySize is how far back a match may reach.
	HistorySize uint32
	// MatchMaxLen bounds the length a search tries to grow a match to
	// (the encoder's fast bytes).
	MatchMaxLen uint32

	KeepAddBufferBefore uint32
	KeepAddBufferAfter  uint32

	// HashBytes selects the finder type: 2 is BT2, 4 is BT4 with the
	// 2-byte and 3-byte fast path tables.
	HashBytes uint32

	// CutValue limits tree nodes visited per search. 0 means 16 + MatchMaxLen/2.
	CutValue uint32
}

// DefaultOptions returns BT4 options sized the way an LZMA encoder sizes them.
func DefaultOptions() Options {
	return Options{
		HistorySize:         DictSizeDefault,
		MatchMaxLen:         NumFastBytesDefault,
		KeepAddBufferBefore: NumOpts,
		KeepAddBufferAfter:  MatchMaxLen + 1,
		HashBytes:           4,
	}
}

// levels maps compression level to history log size, fast bytes and hash bytes.
var levels = [10]struct {
	dictLog   uint
	fastBytes uint32
	hashBytes uint32
}{
	{16, 32, 2},
	{18, 32, 2},
	{20, 32, 4},
	{21, 32, 4},
	{22, 32, 4},
	{22, 32, 4},
	{23, 32, 4},
	{24, 64, 4},
	{25, 64, 4},
	{26, 64, 4},
}

// LevelOptions returns preset options for level 0..9. Levels out of range are clamped.
func LevelOptions(level int) Options {
	level = max(level, 0)
	level = min(level, len(levels)-1)

	l := levels[level]

	opts := DefaultOptions()
	opts.HistorySize = 1 << l.dictLog
	opts.MatchMaxLen = l.fastBytes
	opts.HashBytes = l.hashBytes

	return opts
}

func (o Options) Validate() error {
	if o.HistorySize == 0 || o.HistorySize > historySizeMax {
		return errors.Wrap(ErrInvalidOptions, "history size %d", o.HistorySize)
	}

	if o.MatchMaxLen < NumFastBytesMin || o.MatchMaxLen > MatchMaxLen {
		return errors.Wrap(ErrInvalidOptions, "match max len %d", o.MatchMaxLen)
	}

	if o.HashBytes != 2 && o.HashBytes != 4 {
		return errors.Wrap(ErrInvalidOptions, "hash bytes %d", o.HashBytes)
	}

	return nil
}

func (o Options) cutValue() uint32 {
	if o.CutValue != 0 {
		return o.CutValue
	}

	return 16 + o.MatchMaxLen>>1
}
