package lzmatch

import (
	"tlog.app/go/tlog"
)

// normalize rebases every stored position so the logical cursor stays below
// normalizeAt. Links older than the history become empty.
func (bt *BinTree) normalize() {
	subValue := bt.win.pos - bt.cyclicBufferSize

	normalizeLinks(bt.son[:2*bt.cyclicBufferSize], uint32(subValue))
	normalizeLinks(bt.hash, uint32(subValue))

	bt.win.ReduceOffsets(subValue)

	tlog.V("lzmatch,normalize").Printw("normalize", "sub", subValue, "pos", bt.win.pos)
}

func normalizeLinks(items []uint32, subValue uint32) {
	for i, v := range items {
		if v <= subValue {
			v = emptyHashValue
		} else {
			v -= subValue
		}

		items[i] = v
	}
}
