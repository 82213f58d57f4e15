package datalog

import (
	"fmt"
	"strconv"
	"time"
)

// Value is the payload of a Constant.
// Just like the datom store, we use interface{} with direct Go types.
type Value interface{}

// Valid value types:
// - int64
// - float64
// - string
// - bool
// - time.Time
// - Keyword (e.g. :status/active)

// Keyword is a constant naming something, written with a leading colon
type Keyword struct {
	value string // The keyword string (e.g., ":user/name")
}

// NewKeyword creates a keyword
func NewKeyword(s string) Keyword {
	return Keyword{value: s}
}

// String returns the keyword string
func (k Keyword) String() string {
	return k.value
}

// FormatValue renders a constant payload the way the workload syntax writes it
func FormatValue(v Value) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return "#inst " + strconv.Quote(val.UTC().Format(time.RFC3339Nano))
	case Keyword:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
