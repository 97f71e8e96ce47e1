// Package field implements finite-field arithmetic over a configured prime
// modulus, together with a Chinese-Remainder-Theorem codec over a fixed bank
// of eight 31-bit primes.
//
// The package is the numeric substrate for the placement engine: the
// registry's diagnostic and scoring computations are defined in terms of
// exact modular arithmetic rather than floating point.
//
// # Field Engine
//
// An Engine owns a single prime modulus and provides the arithmetic
// operations on elements of GF(p):
//
//	eng := field.NewEngine(field.Mersenne61)
//	a := eng.Element(12345)
//	b := eng.Element(67890)
//	sum, err := eng.Add(a, b)
//
// Every binary operation requires both operands to carry the same modulus
// and fails with ErrModulusMismatch otherwise; values from different fields
// are never silently coerced.
//
// Multiplication computes the full 128-bit product before reduction. For a
// 61-bit modulus the intermediate product needs up to 122 bits, so reducing
// a truncated 64-bit product would silently corrupt results.
//
// Inversion uses the extended Euclidean algorithm and fails with
// ErrNotInvertible for zero or any element not coprime with the modulus.
//
// Exponentiation uses binary square-and-multiply. The engine keeps a bounded
// cache of previously computed powers (1024 entries, populated lazily and
// never resized) so repeated exponentiation by the same base is cheap; cache
// hit and miss counts are exposed through Stats for the status surface.
//
// # CRT Codec
//
// A Codec decomposes an integer into residues modulo the prime bank and
// reconstructs the canonical integer from residues:
//
//	codec := field.NewCodec()
//	residues, err := codec.Decompose(v, 4)
//	value, err := codec.Reconstruct(residues, 4)
//
// Reconstruction carries the prime product, the partial terms and the sum in
// arbitrary precision: the full eight-prime product is a 248-bit integer and
// does not fit any machine word. For any value below the product of the
// selected primes, Reconstruct(Decompose(v, n), n) == v.
//
// Residue tracks can also be combined without reconstructing: AddResidues
// and MulResidues operate elementwise under the respective bank primes, so
// independent tracks may be computed separately and recombined later.
package field
