package field

import (
	"fmt"
	"math/big"
	"sync/atomic"
)

// crtPrimes is the fixed bank of pairwise-coprime primes just below 2^31
// used for residue decomposition.
var crtPrimes = [...]uint64{
	2147483647, // 2^31 - 1
	2147483629,
	2147483587,
	2147483579,
	2147483563,
	2147483549,
	2147483543,
	2147483497,
}

// BankSize is the number of primes in the CRT bank.
const BankSize = len(crtPrimes)

// Codec decomposes integers into residues modulo the fixed prime bank and
// reconstructs them. Independent residue tracks can be computed or
// transmitted separately and recombined into a single canonical integer.
//
// Reconstruction arithmetic runs in arbitrary precision: the product of the
// full bank is a 248-bit integer, far beyond a machine word.
type Codec struct {
	primes          []uint64
	reconstructions atomic.Uint64
}

// CodecStats are cumulative codec counters, read by the status surface.
type CodecStats struct {
	Reconstructions uint64
}

// NewCodec returns a codec over the full prime bank.
func NewCodec() *Codec {
	return &Codec{primes: crtPrimes[:]}
}

// Primes returns the bank primes in canonical order.
func (c *Codec) Primes() []uint64 {
	out := make([]uint64, len(c.primes))
	copy(out, c.primes)
	return out
}

// Stats returns a snapshot of the codec's cumulative counters.
func (c *Codec) Stats() CodecStats {
	return CodecStats{Reconstructions: c.reconstructions.Load()}
}

func (c *Codec) checkCount(count int) error {
	if count < 1 || count > len(c.primes) {
		return fmt.Errorf("%w: requested %d of %d", ErrCountExceeded, count, len(c.primes))
	}
	return nil
}

// Decompose returns count residues of value, residues[i] = value mod
// primes[i].
func (c *Codec) Decompose(value uint64, count int) ([]uint64, error) {
	if err := c.checkCount(count); err != nil {
		return nil, err
	}
	residues := make([]uint64, count)
	for i := 0; i < count; i++ {
		residues[i] = value % c.primes[i]
	}
	return residues, nil
}

// Product returns the product of the first count bank primes.
func (c *Codec) Product(count int) (*big.Int, error) {
	if err := c.checkCount(count); err != nil {
		return nil, err
	}
	product := big.NewInt(1)
	for i := 0; i < count; i++ {
		product.Mul(product, new(big.Int).SetUint64(c.primes[i]))
	}
	return product, nil
}

// Reconstruct combines count residues into the canonical integer modulo the
// product of the selected primes. Each partial inverse is computed by
// Fermat's little theorem, m_i^(p_i-2) mod p_i, valid because every bank
// modulus is prime. For any value below the product,
// Reconstruct(Decompose(v, n), n) == v.
func (c *Codec) Reconstruct(residues []uint64, count int) (*big.Int, error) {
	if err := c.checkCount(count); err != nil {
		return nil, err
	}
	if len(residues) < count {
		return nil, fmt.Errorf("%w: %d residues for count %d", ErrCountExceeded, len(residues), count)
	}

	product, err := c.Product(count)
	if err != nil {
		return nil, err
	}

	sum := new(big.Int)
	term := new(big.Int)
	for i := 0; i < count; i++ {
		prime := c.primes[i]
		mi := new(big.Int).Div(product, new(big.Int).SetUint64(prime))

		miModPrime := new(big.Int).Mod(mi, new(big.Int).SetUint64(prime)).Uint64()
		inv := powmod(miModPrime, prime-2, prime)

		term.SetUint64(residues[i] % prime)
		term.Mul(term, mi)
		term.Mul(term, new(big.Int).SetUint64(inv))
		sum.Add(sum, term)
		sum.Mod(sum, product)
	}

	c.reconstructions.Add(1)
	return sum, nil
}

// AddResidues combines two residue tracks elementwise, each entry reduced
// modulo its bank prime. Both tracks must have the same length within the
// bank.
func (c *Codec) AddResidues(a, b []uint64) ([]uint64, error) {
	if err := c.checkTracks(a, b); err != nil {
		return nil, err
	}
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = addmod(a[i], b[i], c.primes[i])
	}
	return out, nil
}

// MulResidues combines two residue tracks elementwise under the bank primes.
func (c *Codec) MulResidues(a, b []uint64) ([]uint64, error) {
	if err := c.checkTracks(a, b); err != nil {
		return nil, err
	}
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = mulmod(a[i]%c.primes[i], b[i]%c.primes[i], c.primes[i])
	}
	return out, nil
}

func (c *Codec) checkTracks(a, b []uint64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: track lengths %d and %d differ", ErrCountExceeded, len(a), len(b))
	}
	return c.checkCount(len(a))
}
