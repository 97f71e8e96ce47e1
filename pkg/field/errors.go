package field

import "errors"

var (
	// ErrModulusMismatch is returned when two elements from different
	// fields are combined. The operation aborts with no partial result.
	ErrModulusMismatch = errors.New("field: modulus mismatch")

	// ErrNotInvertible is returned when inverting zero or an element that
	// is not coprime with the modulus.
	ErrNotInvertible = errors.New("field: element not invertible")

	// ErrDimensionMismatch is returned when matrix operands do not have
	// compatible dimensions.
	ErrDimensionMismatch = errors.New("field: matrix dimension mismatch")

	// ErrCountExceeded is returned when a CRT operation requests more
	// residues than the fixed prime bank provides.
	ErrCountExceeded = errors.New("field: residue count exceeds prime bank")
)
