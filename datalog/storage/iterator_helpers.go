package storage

import (
	"github.com/wbrown/janus-factdb/datalog"
)

// Collect drains an iterator into a slice and closes it
func Collect(it Iterator) ([]datalog.Tuple, error) {
	var tuples []datalog.Tuple
	for it.Next() {
		tuples = append(tuples, it.Tuple())
	}
	return tuples, it.Close()
}
