package lzmatch

import (
	"hash/crc32"
	"sync"
)

// crcTable is the reflected CRC-32 table the BT4 hashes fold bytes through.
var crcTable = sync.OnceValue(func() *crc32.Table {
	return crc32.MakeTable(crc32.IEEE)
})
