// Package compressor provides Huffman compression of byte slices with a
// shared, serializable dictionary.
package compressor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/sukesh19/huffman"
	"github.com/sukesh19/huffman/bitstream"
)

const dictionaryVersion = uint64(1)

var (
	// ErrInvalidBlock is returned by Decompress for malformed compressed blocks.
	ErrInvalidBlock = errors.New("compressor: invalid block")
	// ErrUnsupportedVersion is returned by ReadFrom for unknown dictionary versions.
	ErrUnsupportedVersion = errors.New("compressor: unsupported dictionary version")
	// ErrEmptyDictionary is returned when a zero Dictionary is used.
	ErrEmptyDictionary = errors.New("compressor: dictionary is not trained")
)

// Dictionary holds a trained byte code table for compression and decompression.
// A Dictionary is created via Train and can compress or decompress byte slices.
// After training, a Dictionary can be serialized with WriteTo and restored with ReadFrom.
type Dictionary struct {
	table *huffman.CodeTable[byte]
	tree  *huffman.Tree[byte]
}

// Train builds a dictionary from the byte frequencies of data. Bytes that
// do not occur in data cannot be compressed with the result.
//
// Example:
//
//	dict, err := Train([]byte("hello world"))
//	if err != nil {
//		return err
//	}
//	block, err := dict.Compress([]byte("hello"))
func Train(data []byte) (*Dictionary, error) {
	tree, err := huffman.BuildTree(huffman.Count(data))
	if err != nil {
		return nil, err
	}
	table, err := huffman.GenerateCodes(tree)
	if err != nil {
		return nil, err
	}
	return &Dictionary{table: table, tree: tree}, nil
}

// TrainStrings is a convenience function that trains a dictionary from a slice of strings.
func TrainStrings(strings []string) (*Dictionary, error) {
	var data []byte
	for _, s := range strings {
		data = append(data, s...)
	}
	return Train(data)
}

// Compress encodes src as a self-delimited block:
//
//	uvarint symbolCount | uvarint bitCount | packed bits
func (dict *Dictionary) Compress(src []byte) ([]byte, error) {
	if dict.table == nil {
		return nil, ErrEmptyDictionary
	}
	stream, err := huffman.Encode(src, dict.table)
	if err != nil {
		return nil, err
	}

	packed := stream.Bytes()
	out := make([]byte, 0, 2*binary.MaxVarintLen64+len(packed))
	out = binary.AppendUvarint(out, uint64(len(src)))
	out = binary.AppendUvarint(out, uint64(stream.Len()))
	return append(out, packed...), nil
}

// Decompress decodes the block src and appends the result to dst.
//
// Example:
//
//	block, _ := dict.Compress([]byte("hello"))
//	out, err := dict.Decompress(nil, block) // "hello"
//
//	// Reuse a buffer for multiple blocks
//	buf := make([]byte, 0, 1024)
//	buf, err = dict.Decompress(buf[:0], block1)
func (dict *Dictionary) Decompress(dst []byte, src []byte) ([]byte, error) {
	if dict.tree == nil {
		return dst, ErrEmptyDictionary
	}

	symbols, n := binary.Uvarint(src)
	if n <= 0 {
		return dst, fmt.Errorf("%w: bad symbol count", ErrInvalidBlock)
	}
	src = src[n:]
	bits, n := binary.Uvarint(src)
	if n <= 0 {
		return dst, fmt.Errorf("%w: bad bit count", ErrInvalidBlock)
	}
	src = src[n:]
	if symbols > bits || bits > uint64(len(src))*8 {
		return dst, fmt.Errorf("%w: %d symbols in %d bits over %d bytes", ErrInvalidBlock, symbols, bits, len(src))
	}

	stream, err := bitstream.FromBytes(src, int(bits))
	if err != nil {
		return dst, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	decoded, err := huffman.Decode(stream, dict.tree)
	if err != nil {
		return dst, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	if uint64(len(decoded)) != symbols {
		return dst, fmt.Errorf("%w: %w: decoded %d, block declares %d", ErrInvalidBlock, huffman.ErrSymbolCountMismatch, len(decoded), symbols)
	}
	return append(dst, decoded...), nil
}

// WriteTo serializes the Dictionary to w.
// Layout:
// - 8 bytes: version
// - 2 bytes: number of entries (uint16)
// - per entry: symbol byte, code length byte, packed code
func (dict *Dictionary) WriteTo(w io.Writer) (int64, error) {
	if dict.table == nil {
		return 0, ErrEmptyDictionary
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, dictionaryVersion); err != nil {
		return 0, err
	}
	entries := dict.table.Entries()
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(entries))); err != nil {
		return 0, err
	}
	for _, e := range entries {
		buf.WriteByte(e.Symbol)
		buf.WriteByte(uint8(e.Code.Len()))
		buf.Write(e.Code.Bytes())
	}
	return buf.WriteTo(w)
}

// ReadFrom deserializes a Dictionary from r.
func (dict *Dictionary) ReadFrom(r io.Reader) (int64, error) {
	var n int64

	var version uint64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return n, err
	}
	n += 8
	if version != dictionaryVersion {
		return n, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return n, err
	}
	n += 2
	if count == 0 || count > 256 {
		return n, fmt.Errorf("compressor: invalid dictionary entry count %d", count)
	}

	entries := make([]huffman.Entry[byte], 0, count)
	var header [2]byte
	for i := 0; i < int(count); i++ {
		read, err := io.ReadFull(r, header[:])
		n += int64(read)
		if err != nil {
			return n, err
		}
		// A byte code is never longer than 255 bits.
		codeLen := int(header[1])
		if codeLen == 0 {
			return n, fmt.Errorf("%w: empty code for byte %d", huffman.ErrAmbiguousCode, header[0])
		}
		packed := make([]byte, bitstream.PackedLen(codeLen))
		read, err = io.ReadFull(r, packed)
		n += int64(read)
		if err != nil {
			return n, err
		}
		code, err := bitstream.FromBytes(packed, codeLen)
		if err != nil {
			return n, err
		}
		entries = append(entries, huffman.Entry[byte]{Symbol: header[0], Code: code})
	}

	table, err := huffman.NewCodeTable(entries)
	if err != nil {
		return n, err
	}
	tree, err := huffman.RebuildTree(table)
	if err != nil {
		return n, err
	}
	dict.table = table
	dict.tree = tree
	return n, nil
}

// ID returns the xxhash64 of the serialized dictionary. Dictionaries with
// the same codes have the same ID.
func (dict *Dictionary) ID() uint64 {
	d := xxhash.New()
	if _, err := dict.WriteTo(d); err != nil {
		return 0
	}
	return d.Sum64()
}

// Len returns the number of distinct bytes the dictionary can encode.
func (dict *Dictionary) Len() int {
	if dict.table == nil {
		return 0
	}
	return dict.table.Len()
}

// SpaceUsed returns the total space (in bytes) used by the dictionary codes.
func (dict *Dictionary) SpaceUsed() int {
	if dict.table == nil {
		return 0
	}
	size := 0
	for _, e := range dict.table.Entries() {
		size += 2 + bitstream.PackedLen(e.Code.Len())
	}
	return size
}
