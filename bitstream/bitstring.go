// Package bitstream provides packed bit strings and bit-level readers and
// writers over them. Codes and encoded streams are both BitStrings.
package bitstream

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNonZeroPadding is returned when the unused low bits of the final
	// octet of a packed bit string are set.
	ErrNonZeroPadding = errors.New("bitstream: non-zero padding bits")
	// ErrLengthMismatch is returned when the number of packed octets does not
	// match the declared bit length.
	ErrLengthMismatch = errors.New("bitstream: packed length does not match bit length")
	// ErrInvalidDigit is returned by Parse for characters other than '0' and '1'.
	ErrInvalidDigit = errors.New("bitstream: invalid binary digit")
)

// BitString is an immutable sequence of bits. Within each octet, bits are
// addressed most significant first.
//
// Invariants:
//   - len(packed) == PackedLen(n)
//   - if n%8 != 0, the low (8 - n%8) bits of the last octet are zero
type BitString struct {
	packed []byte
	n      int
}

// PackedLen returns the number of octets needed to hold bits bits.
func PackedLen(bits int) int {
	return (bits + 7) / 8
}

// FromBytes returns a BitString holding the first bits bits of packed.
// The octets are copied.
func FromBytes(packed []byte, bits int) (BitString, error) {
	if bits < 0 {
		return BitString{}, fmt.Errorf("bitstream: negative bit length %d", bits)
	}
	if len(packed) != PackedLen(bits) {
		return BitString{}, fmt.Errorf("%w: %d octets for %d bits", ErrLengthMismatch, len(packed), bits)
	}
	if rem := bits % 8; rem != 0 {
		if packed[len(packed)-1]&(0xFF>>rem) != 0 {
			return BitString{}, ErrNonZeroPadding
		}
	}
	if bits == 0 {
		return BitString{}, nil
	}
	return BitString{packed: append([]byte(nil), packed...), n: bits}, nil
}

// Parse parses a string of '0' and '1' characters.
func Parse(s string) (BitString, error) {
	packed := make([]byte, PackedLen(len(s)))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			packed[i/8] |= 0x80 >> (i % 8)
		default:
			return BitString{}, fmt.Errorf("%w %q at offset %d", ErrInvalidDigit, s[i], i)
		}
	}
	if len(s) == 0 {
		return BitString{}, nil
	}
	return BitString{packed: packed, n: len(s)}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) BitString {
	bs, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return bs
}

// Len returns the number of bits.
func (bs BitString) Len() int {
	return bs.n
}

// Bit returns the bit at offset i as 0 or 1. It panics if i is out of range.
func (bs BitString) Bit(i int) uint8 {
	if i < 0 || i >= bs.n {
		panic(fmt.Sprintf("bitstream: bit offset %d out of range [0, %d)", i, bs.n))
	}
	return (bs.packed[i/8] >> (7 - uint(i%8))) & 1
}

// Bytes returns a copy of the packed octets.
func (bs BitString) Bytes() []byte {
	return append([]byte(nil), bs.packed...)
}

// Append returns a new BitString with bit appended. bs is not modified.
func (bs BitString) Append(bit uint8) BitString {
	packed := make([]byte, PackedLen(bs.n+1))
	copy(packed, bs.packed)
	if bit != 0 {
		packed[bs.n/8] |= 0x80 >> (bs.n % 8)
	}
	return BitString{packed: packed, n: bs.n + 1}
}

// HasPrefix reports whether prefix is a prefix of bs.
func (bs BitString) HasPrefix(prefix BitString) bool {
	if prefix.n > bs.n {
		return false
	}
	full := prefix.n / 8
	for i := 0; i < full; i++ {
		if bs.packed[i] != prefix.packed[i] {
			return false
		}
	}
	if rem := prefix.n % 8; rem != 0 {
		mask := byte(0xFF) << (8 - rem)
		return bs.packed[full]&mask == prefix.packed[full]
	}
	return true
}

// Equal reports whether bs and other hold the same bits.
func (bs BitString) Equal(other BitString) bool {
	return bs.n == other.n && bs.HasPrefix(other)
}

// String renders the bits as '0' and '1' characters.
func (bs BitString) String() string {
	var sb strings.Builder
	sb.Grow(bs.n)
	for i := 0; i < bs.n; i++ {
		sb.WriteByte('0' + bs.Bit(i))
	}
	return sb.String()
}
