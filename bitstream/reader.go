package bitstream

import (
	"bytes"
	"io"

	"github.com/icza/bitio"
)

// Reader reads the bits of a BitString one at a time. Padding bits are
// never returned: after Len bits the Reader reports io.EOF.
type Reader struct {
	r   *bitio.Reader
	pos int
	n   int
}

// NewReader returns a Reader positioned at the first bit of bs.
func NewReader(bs BitString) *Reader {
	return &Reader{
		r: bitio.NewReader(bytes.NewReader(bs.packed)),
		n: bs.n,
	}
}

// ReadBit returns the next bit as 0 or 1, or io.EOF at the end of the string.
func (r *Reader) ReadBit() (uint8, error) {
	if r.pos >= r.n {
		return 0, io.EOF
	}
	b, err := r.r.ReadBool()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	r.pos++
	if b {
		return 1, nil
	}
	return 0, nil
}

// Pos returns the number of bits consumed.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bits left.
func (r *Reader) Remaining() int {
	return r.n - r.pos
}
