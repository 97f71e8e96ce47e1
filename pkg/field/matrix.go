package field

import "fmt"

// Matrix is a square matrix of field values under a single modulus, stored
// row-major.
type Matrix struct {
	n       int
	modulus uint64
	values  []uint64
}

// NewMatrix returns an n by n zero matrix over GF(modulus).
func NewMatrix(n int, modulus uint64) *Matrix {
	return &Matrix{n: n, modulus: modulus, values: make([]uint64, n*n)}
}

// IdentityMatrix returns the n by n identity matrix over GF(modulus).
func IdentityMatrix(n int, modulus uint64) *Matrix {
	m := NewMatrix(n, modulus)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Dim returns the matrix dimension.
func (m *Matrix) Dim() int { return m.n }

// Modulus returns the field modulus the matrix entries live in.
func (m *Matrix) Modulus() uint64 { return m.modulus }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) uint64 { return m.values[i*m.n+j] }

// Set stores value mod the matrix modulus at row i, column j.
func (m *Matrix) Set(i, j int, value uint64) {
	m.values[i*m.n+j] = value % m.modulus
}

// MatrixMultiply returns a*b over the matrices' common field. Every partial
// product and partial sum is reduced after each step, so no intermediate
// exceeds the double-width product.
func (g *Engine) MatrixMultiply(a, b *Matrix) (*Matrix, error) {
	if a.modulus != b.modulus {
		return nil, fmt.Errorf("%w: %d vs %d", ErrModulusMismatch, a.modulus, b.modulus)
	}
	if a.n != b.n {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.n, a.n, b.n, b.n)
	}
	g.operations.Add(1)

	mod := a.modulus
	out := NewMatrix(a.n, mod)
	for i := 0; i < a.n; i++ {
		for j := 0; j < a.n; j++ {
			var acc uint64
			for k := 0; k < a.n; k++ {
				acc = addmod(acc, mulmod(a.At(i, k), b.At(k, j), mod), mod)
			}
			out.values[i*out.n+j] = acc
		}
	}
	return out, nil
}
