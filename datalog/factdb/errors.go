package factdb

import "errors"

var (
	// ErrContractViolation marks a caller bug: storing a non-fact, or a
	// pattern or key whose width disagrees with the relation arity.
	ErrContractViolation = errors.New("contract violation")

	// ErrUnrecognizedSymbol is returned for relations never given to the builder.
	// A registered relation with no facts is empty, not unrecognized.
	ErrUnrecognizedSymbol = errors.New("unrecognized relation symbol")

	// ErrInvalidIndex is returned for index handles outside [0, NumIndices).
	ErrInvalidIndex = errors.New("invalid index handle")

	// ErrBuilderClosed is returned by a builder after Build has run.
	ErrBuilderClosed = errors.New("builder already built")
)
