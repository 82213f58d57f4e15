package storage

import (
	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/codec"
)

// L85KeyEncoder implements KeyEncoder with L85-encoded keys.
// Keys stay printable in badger dumps and keep their order: the binary key is
// a whole number of 4-byte groups, and the prefix encodes to exactly 5 digits,
// so the encoded prefix is also a prefix of every encoded key.
type L85KeyEncoder struct {
	binary BinaryKeyEncoder
}

// EncodeKey creates an L85 index key from a tuple
func (e *L85KeyEncoder) EncodeKey(prefix uint32, order []int, t datalog.Tuple) []byte {
	raw := e.binary.EncodeKey(prefix, order, t)
	return codec.AppendL85(make([]byte, 0, codec.EncodedLen(len(raw))), raw)
}

// EncodePrefix creates the L85 prefix of a container
func (e *L85KeyEncoder) EncodePrefix(prefix uint32) []byte {
	raw := e.binary.EncodePrefix(prefix)
	return codec.AppendL85(make([]byte, 0, codec.EncodedLen(len(raw))), raw)
}
