package storage

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-factdb/datalog"
)

// KeyEncoder builds sortable index keys from tuples.
// A key is a 4-byte container prefix followed by the identities of the
// columns in comparator order; byte order of keys equals tuple order.
type KeyEncoder interface {
	// EncodeKey creates the key of t in the container with the given prefix
	EncodeKey(prefix uint32, order []int, t datalog.Tuple) []byte

	// EncodePrefix creates the key prefix shared by every key of a container
	EncodePrefix(prefix uint32) []byte
}

// KeyEncodingStrategy represents different encoding strategies
type KeyEncodingStrategy int

const (
	// L85Strategy uses L85 encoding for human-readable keys
	L85Strategy KeyEncodingStrategy = iota

	// BinaryStrategy uses raw binary for space efficiency
	BinaryStrategy
)

// String returns the strategy name
func (s KeyEncodingStrategy) String() string {
	switch s {
	case L85Strategy:
		return "l85"
	case BinaryStrategy:
		return "binary"
	default:
		return fmt.Sprintf("KeyEncodingStrategy(%d)", int(s))
	}
}

// ParseKeyEncoding parses a strategy name
func ParseKeyEncoding(s string) (KeyEncodingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "":
		return BinaryStrategy, nil
	case "l85":
		return L85Strategy, nil
	default:
		return 0, fmt.Errorf("unknown key encoding %q (use binary or l85)", s)
	}
}

// NewKeyEncoder creates a key encoder with the specified strategy
func NewKeyEncoder(strategy KeyEncodingStrategy) KeyEncoder {
	switch strategy {
	case L85Strategy:
		return &L85KeyEncoder{}
	default:
		return &BinaryKeyEncoder{}
	}
}
