// Package lzmatch finds LZ77 matches with the binary tree match finder of
// LZMA encoders.
//
// A BinTree reads its input through a sliding Window and, for every position,
// reports back references of strictly increasing length:
//
//	bt, err := lzmatch.NewBinTree(lzmatch.DefaultOptions())
//	bt.SetStream(r)
//	err = bt.Init()
//
//	for bt.GetNumAvailableBytes() > 0 {
//		ms, err = bt.GetMatches(ms[:0])
//		// or bt.Skip(n) to index positions without searching
//	}
//
// Parser adapts the finder to github.com/andybalholm/brotli/matchfinder, so
// its parses can be written by brotli and by the snappy and lz4 subpackages.
package lzmatch
