package huffman

// SimplePRNG is a Linear Congruential Generator for reproducible test inputs
// across platforms.
type SimplePRNG struct {
	state uint64
}

// NewSimplePRNG creates a new PRNG with the given seed
func NewSimplePRNG(seed uint64) *SimplePRNG {
	return &SimplePRNG{state: seed}
}

// Next generates the next random number using LCG
// Uses multiplier and increment from Numerical Recipes
func (p *SimplePRNG) Next() uint64 {
	p.state = p.state*6364136223846793005 + 1442695040888963407
	return p.state
}

// Uint64N returns a random number in [0, n)
func (p *SimplePRNG) Uint64N(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return (p.Next() >> 16) % n
}

// Text returns n runes drawn from alphabet with a skewed distribution, so
// that generated trees have codes of different lengths.
func (p *SimplePRNG) Text(alphabet []rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		k := uint64(len(alphabet))
		// min of two draws favors the front of the alphabet
		a, b := p.Uint64N(k), p.Uint64N(k)
		out[i] = alphabet[min(a, b)]
	}
	return string(out)
}
