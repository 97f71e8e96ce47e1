package field

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// Mersenne61 is the Mersenne prime 2^61 - 1, the default field modulus.
const Mersenne61 uint64 = (1 << 61) - 1

// Element is a value in GF(p) for a prime modulus p. The value is always
// normalized into [0, Modulus).
type Element struct {
	Value   uint64
	Modulus uint64
}

// NewElement returns the element value mod modulus in GF(modulus).
func NewElement(value, modulus uint64) Element {
	return Element{Value: value % modulus, Modulus: modulus}
}

// Mersenne returns an element of the Mersenne field GF(2^61-1).
func Mersenne(value uint64) Element {
	return NewElement(value, Mersenne61)
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool { return e.Value == 0 }

// IsOne reports whether the element is the multiplicative identity.
func (e Element) IsOne() bool { return e.Value == 1 }

func (e Element) String() string {
	return fmt.Sprintf("%d (mod %d)", e.Value, e.Modulus)
}

// Engine performs arithmetic in GF(prime). It is safe for concurrent use;
// the only mutable state is the bounded power cache and the operation
// counters, both internally synchronized.
type Engine struct {
	prime      uint64
	cache      *powerCache
	operations atomic.Uint64
}

// Stats are cumulative engine counters, read by the status surface.
type Stats struct {
	Operations  uint64
	CacheHits   uint64
	CacheMisses uint64
}

// NewEngine creates an engine over GF(prime) with the power cache enabled
// at its default capacity.
func NewEngine(prime uint64) *Engine {
	return NewEngineWithCacheSize(prime, defaultPowerCacheSize)
}

// NewEngineWithCacheSize creates an engine with an explicit power cache
// capacity. A size of zero disables the cache.
func NewEngineWithCacheSize(prime uint64, cacheSize int) *Engine {
	return &Engine{
		prime: prime,
		cache: newPowerCache(cacheSize),
	}
}

// Prime returns the engine's field modulus.
func (g *Engine) Prime() uint64 { return g.prime }

// Element returns value as an element of the engine's field.
func (g *Engine) Element(value uint64) Element {
	return NewElement(value, g.prime)
}

// Stats returns a snapshot of the engine's cumulative counters.
func (g *Engine) Stats() Stats {
	hits, misses := g.cache.counts()
	return Stats{
		Operations:  g.operations.Load(),
		CacheHits:   hits,
		CacheMisses: misses,
	}
}

func (g *Engine) check(a, b Element) error {
	if a.Modulus != b.Modulus {
		return fmt.Errorf("%w: %d vs %d", ErrModulusMismatch, a.Modulus, b.Modulus)
	}
	return nil
}

// Add returns a + b in the operands' field.
func (g *Engine) Add(a, b Element) (Element, error) {
	if err := g.check(a, b); err != nil {
		return Element{}, err
	}
	g.operations.Add(1)
	return Element{Value: addmod(a.Value, b.Value, a.Modulus), Modulus: a.Modulus}, nil
}

// Sub returns a - b in the operands' field.
func (g *Engine) Sub(a, b Element) (Element, error) {
	if err := g.check(a, b); err != nil {
		return Element{}, err
	}
	g.operations.Add(1)
	v := a.Value
	if b.Value > v {
		v += a.Modulus
	}
	return Element{Value: v - b.Value, Modulus: a.Modulus}, nil
}

// Neg returns the additive inverse of a.
func (g *Engine) Neg(a Element) Element {
	g.operations.Add(1)
	if a.Value == 0 {
		return a
	}
	return Element{Value: a.Modulus - a.Value, Modulus: a.Modulus}
}

// Mul returns a * b in the operands' field. The full double-width product
// is computed before reduction.
func (g *Engine) Mul(a, b Element) (Element, error) {
	if err := g.check(a, b); err != nil {
		return Element{}, err
	}
	g.operations.Add(1)
	return Element{Value: mulmod(a.Value, b.Value, a.Modulus), Modulus: a.Modulus}, nil
}

// Pow returns base^exponent mod modulus by binary square-and-multiply.
// A zero exponent yields 1. Results are served from the bounded power cache
// when the same (base, exponent) pair repeats.
func (g *Engine) Pow(base, exponent, modulus uint64) uint64 {
	g.operations.Add(1)
	if v, ok := g.cache.get(base, exponent, modulus); ok {
		return v
	}
	v := powmod(base, exponent, modulus)
	g.cache.put(base, exponent, modulus, v)
	return v
}

// PowElement raises a to the given exponent within a's field.
func (g *Engine) PowElement(a Element, exponent uint64) Element {
	return Element{Value: g.Pow(a.Value, exponent, a.Modulus), Modulus: a.Modulus}
}

// Invert returns the multiplicative inverse of a via the extended Euclidean
// algorithm on (modulus, value). It fails with ErrNotInvertible if a is zero
// or not coprime with the modulus. The result is normalized into [0, p):
// a negative Bezout coefficient is corrected by adding the modulus.
func (g *Engine) Invert(a Element) (Element, error) {
	g.operations.Add(1)
	if a.Value == 0 {
		return Element{}, fmt.Errorf("%w: zero element of GF(%d)", ErrNotInvertible, a.Modulus)
	}

	oldR, r := int64(a.Modulus), int64(a.Value)
	oldS, s := int64(0), int64(1)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	if oldR > 1 {
		return Element{}, fmt.Errorf("%w: gcd(%d, %d) = %d", ErrNotInvertible, a.Modulus, a.Value, oldR)
	}
	if oldS < 0 {
		oldS += int64(a.Modulus)
	}
	return Element{Value: uint64(oldS), Modulus: a.Modulus}, nil
}

// Div returns a / b, i.e. a multiplied by the inverse of b.
func (g *Engine) Div(a, b Element) (Element, error) {
	if err := g.check(a, b); err != nil {
		return Element{}, err
	}
	inv, err := g.Invert(b)
	if err != nil {
		return Element{}, err
	}
	return g.Mul(a, inv)
}

func addmod(a, b, m uint64) uint64 {
	a %= m
	b %= m
	if a >= m-b {
		return a - (m - b)
	}
	return a + b
}

// mulmod reduces the full 128-bit product of a and b modulo m.
func mulmod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi%m, lo, m)
	return rem
}

func powmod(base, exponent, modulus uint64) uint64 {
	result := uint64(1) % modulus
	b := base % modulus
	for e := exponent; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = mulmod(result, b, modulus)
		}
		b = mulmod(b, b, modulus)
	}
	return result
}
