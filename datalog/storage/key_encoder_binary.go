package storage

import (
	"encoding/binary"

	"github.com/wbrown/janus-factdb/datalog"
)

// prefixSize is the width of the per-container key prefix
const prefixSize = 4

// BinaryKeyEncoder implements KeyEncoder using raw binary for space efficiency
type BinaryKeyEncoder struct{}

// EncodeKey creates a binary index key from a tuple
func (e *BinaryKeyEncoder) EncodeKey(prefix uint32, order []int, t datalog.Tuple) []byte {
	key := make([]byte, 0, prefixSize+len(order)*datalog.IDSize)
	key = binary.BigEndian.AppendUint32(key, prefix)
	for _, col := range order {
		key = datalog.AppendID(key, t[col].ID())
	}
	return key
}

// EncodePrefix creates the binary prefix of a container
func (e *BinaryKeyEncoder) EncodePrefix(prefix uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, prefixSize), prefix)
}
