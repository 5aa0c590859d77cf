package bitstream

import (
	"bytes"
	"errors"

	"github.com/icza/bitio"
)

// ErrClosed is returned when writing to a Writer whose BitString was taken.
var ErrClosed = errors.New("bitstream: writer closed")

// Writer accumulates bits into an in-memory BitString.
type Writer struct {
	buf    bytes.Buffer
	w      *bitio.Writer
	n      int
	closed bool
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	wr := &Writer{}
	wr.w = bitio.NewWriter(&wr.buf)
	return wr
}

// Len returns the number of bits written so far.
func (wr *Writer) Len() int {
	return wr.n
}

// WriteBit appends a single bit. Any non-zero value is a one bit.
func (wr *Writer) WriteBit(bit uint8) error {
	if wr.closed {
		return ErrClosed
	}
	if err := wr.w.WriteBool(bit != 0); err != nil {
		return err
	}
	wr.n++
	return nil
}

// WriteBitString appends all bits of bs.
func (wr *Writer) WriteBitString(bs BitString) error {
	if wr.closed {
		return ErrClosed
	}
	full := bs.n / 8
	for i := 0; i < full; i++ {
		if err := wr.w.WriteBits(uint64(bs.packed[i]), 8); err != nil {
			return err
		}
	}
	if rem := bs.n % 8; rem != 0 {
		if err := wr.w.WriteBits(uint64(bs.packed[full]>>(8-rem)), uint8(rem)); err != nil {
			return err
		}
	}
	wr.n += bs.n
	return nil
}

// BitString flushes the pending bits with zero padding and returns the
// result. The Writer cannot be used afterwards.
func (wr *Writer) BitString() (BitString, error) {
	if wr.closed {
		return BitString{}, ErrClosed
	}
	wr.closed = true
	if err := wr.w.Close(); err != nil {
		return BitString{}, err
	}
	return FromBytes(wr.buf.Bytes(), wr.n)
}
