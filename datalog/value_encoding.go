package datalog

import (
	"encoding/binary"
	"fmt"
)

// IDSize is the encoded width of one term identity
const IDSize = 8

// AppendID appends an order-preserving encoding of a term identity:
// flipping the sign bit makes big-endian byte order match signed integer order,
// so MinTerm encodes as all zeros and MaxTerm as all ones.
func AppendID(dst []byte, id int64) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(id)^(1<<63))
}

// IDFromBytes decodes an identity written by AppendID
func IDFromBytes(b []byte) (int64, error) {
	if len(b) < IDSize {
		return 0, fmt.Errorf("identity needs %d bytes, got %d", IDSize, len(b))
	}
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
}

// TupleBytes serializes every column of a tuple in column order
func TupleBytes(t Tuple) []byte {
	buf := make([]byte, 0, len(t)*IDSize)
	for _, term := range t {
		buf = AppendID(buf, term.ID())
	}
	return buf
}

// TupleFromBytes rebuilds a tuple written by TupleBytes
func TupleFromBytes(data []byte, resolver TermResolver) (Tuple, error) {
	if len(data)%IDSize != 0 {
		return nil, fmt.Errorf("tuple encoding has %d bytes, not a multiple of %d", len(data), IDSize)
	}
	tuple := make(Tuple, len(data)/IDSize)
	for i := range tuple {
		id, err := IDFromBytes(data[i*IDSize:])
		if err != nil {
			return nil, err
		}
		term, ok := resolver.Resolve(id)
		if !ok {
			return nil, fmt.Errorf("column %d: unknown term identity %d", i, id)
		}
		tuple[i] = term
	}
	return tuple, nil
}
