package huffman

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/sukesh19/huffman/bitstream"
)

const (
	archiveMagic   = "HUFA"
	archiveVersion = uint16(1)

	stageEncodedBits = "encoded_bits"
	stageCodeTable   = "code_table"
	stageSymbolCount = "symbol_count"
	stageChecksum    = "checksum"

	stageCodeTableParamRaw   = uint8(0)
	stageCodeTableParamFlate = uint8(1)
	stageCodeTableParamZstd  = uint8(2)

	maxArchiveStages     = 64
	maxStagePayloadBytes = 1 << 30 // 1 GiB
	maxStreamBits        = uint64(maxStagePayloadBytes) * 8
	maxTableEntries      = 1 << 21 // covers every rune
)

// Wire format (version 1):
//
//	magic[4] = "HUFA"
//	version  = uint16 little-endian
//	stageCnt = uint16 little-endian
//	repeat stageCnt times:
//	  nameLen  = uint8
//	  paramLen = uint16 little-endian
//	  dataLen  = uint32 little-endian
//	  name     = nameLen bytes
//	  params   = paramLen bytes
//	  payload  = dataLen bytes
//
// Required stage names:
//
//	encoded_bits, code_table, symbol_count
//
// The optional checksum stage holds the xxhash64 of the required payloads in
// the order above. Unknown stages are skipped via dataLen framing.
type wireStageHeader struct {
	name     string
	paramLen uint16
	dataLen  uint32
}

func writeBytes(w io.Writer, b []byte) (int64, error) {
	n, err := w.Write(b)
	if err != nil {
		return int64(n), err
	}
	if n != len(b) {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}

func writeStage(w io.Writer, name string, params []byte, payload []byte) (int64, error) {
	if len(name) == 0 || len(name) > 255 {
		return 0, fmt.Errorf("invalid stage name length: %d", len(name))
	}
	if len(params) > int(^uint16(0)) {
		return 0, fmt.Errorf("stage params too large for %q: %d", name, len(params))
	}
	if len(payload) > maxStagePayloadBytes {
		return 0, fmt.Errorf("stage payload too large for %q: %d", name, len(payload))
	}

	var header [7]byte
	header[0] = uint8(len(name))
	binary.LittleEndian.PutUint16(header[1:3], uint16(len(params)))
	binary.LittleEndian.PutUint32(header[3:7], uint32(len(payload)))

	var total int64
	for _, part := range [][]byte{header[:], []byte(name), params, payload} {
		n, err := writeBytes(w, part)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// readPayload reads exactly n bytes. The buffer grows with the data actually
// read, not with the declared length.
func readPayload(r io.Reader, n uint32) ([]byte, int64, error) {
	var buf bytes.Buffer
	read, err := io.CopyN(&buf, r, int64(n))
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return buf.Bytes(), read, err
}

func readStageHeader(r io.Reader) (wireStageHeader, int64, error) {
	var header [7]byte
	n, err := io.ReadFull(r, header[:])
	total := int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}

	nameLen := header[0]
	if nameLen == 0 {
		return wireStageHeader{}, total, fmt.Errorf("stage name length must be > 0")
	}
	paramLen := binary.LittleEndian.Uint16(header[1:3])
	dataLen := binary.LittleEndian.Uint32(header[3:7])
	if dataLen > uint32(maxStagePayloadBytes) {
		return wireStageHeader{}, total, fmt.Errorf("stage payload too large: %d", dataLen)
	}

	nameBytes := make([]byte, int(nameLen))
	n, err = io.ReadFull(r, nameBytes)
	total += int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}

	return wireStageHeader{
		name:     string(nameBytes),
		paramLen: paramLen,
		dataLen:  dataLen,
	}, total, nil
}

// stageDecoders apply the payloads of known stages. Other stages are skipped.
var stageDecoders = map[string]func(dst *Archive, params []byte, payload []byte) error{
	stageEncodedBits: decodeEncodedBitsStage,
	stageCodeTable:   decodeCodeTableStage,
	stageSymbolCount: decodeSymbolCountStage,
	stageChecksum:    decodeChecksumStage,
}

// readStage reads one framed stage into dst and records the payload of a
// known stage in payloads, keyed by name.
func readStage(r io.Reader, dst *Archive, payloads map[string][]byte) (int64, error) {
	header, total, err := readStageHeader(r)
	if err != nil {
		return total, fmt.Errorf("read stage header: %w", err)
	}
	if _, dup := payloads[header.name]; dup {
		return total, fmt.Errorf("duplicate stage %q", header.name)
	}

	params := make([]byte, int(header.paramLen))
	n, err := io.ReadFull(r, params)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("read stage %q params: %w", header.name, err)
	}

	decode, known := stageDecoders[header.name]
	if !known {
		skipped, err := io.CopyN(io.Discard, r, int64(header.dataLen))
		total += skipped
		if err != nil {
			return total, fmt.Errorf("skip unknown stage %q: %w", header.name, err)
		}
		return total, nil
	}

	payload, read, err := readPayload(r, header.dataLen)
	total += read
	if err != nil {
		return total, fmt.Errorf("read stage %q payload: %w", header.name, err)
	}
	if err := decode(dst, params, payload); err != nil {
		return total, fmt.Errorf("decode stage %q: %w", header.name, err)
	}
	payloads[header.name] = payload
	return total, nil
}

// Archive holds everything needed to reverse a compression: the encoded
// bits, the code table and the number of symbols in the original text.
type Archive struct {
	Stream      bitstream.BitString // Concatenated codes
	Table       *CodeTable[rune]    // Code table, used to rebuild the decoding tree
	SymbolCount int                 // Number of symbols in the original text

	// Serialization settings carried from the encoder.
	tableCodec TableCodec
	noChecksum bool
}

// Stats summarizes an archive the way the compression report shows it.
type Stats struct {
	Symbols        int // Original length in symbols
	Distinct       int // Distinct symbols
	OriginalBits   int // 8 bits per original symbol
	CompressedBits int // Length of the encoded stream
	MaxCodeLen     int // Longest code in the table
}

// Ratio returns the space saving in percent, 1 - compressed/original.
func (s Stats) Ratio() float64 {
	if s.OriginalBits == 0 {
		return 0
	}
	return (1 - float64(s.CompressedBits)/float64(s.OriginalBits)) * 100
}

// Stats reports the sizes of the archive.
func (a *Archive) Stats() Stats {
	st := Stats{
		Symbols:        a.SymbolCount,
		OriginalBits:   a.SymbolCount * 8,
		CompressedBits: a.Stream.Len(),
	}
	st.Distinct = a.Table.Len()
	st.MaxCodeLen = a.Table.MaxCodeLen()
	return st
}

// SpaceUsed returns the in-memory size of the archive contents in bytes:
// packed stream, four bytes per symbol plus its packed code, and the count.
func (a *Archive) SpaceUsed() int {
	n := bitstream.PackedLen(a.Stream.Len()) + 8
	if a.Table != nil {
		for _, e := range a.Table.entries {
			n += 4 + bitstream.PackedLen(e.Code.Len())
		}
	}
	return n
}

// Decode rebuilds the tree from the code table and decodes the stream.
func (a *Archive) Decode() ([]rune, error) {
	if err := validateArchiveStructure(a); err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}
	if a.SymbolCount == 0 {
		return []rune{}, nil
	}
	tree, err := RebuildTree(a.Table)
	if err != nil {
		return nil, err
	}
	return a.decodeWith(tree)
}

// DecodeString is like Decode but returns the text.
func (a *Archive) DecodeString() (string, error) {
	symbols, err := a.Decode()
	if err != nil {
		return "", err
	}
	return string(symbols), nil
}

func (a *Archive) decodeWith(tree *Tree[rune]) ([]rune, error) {
	symbols, err := Decode(a.Stream, tree)
	if err != nil {
		return nil, err
	}
	if len(symbols) != a.SymbolCount {
		return nil, fmt.Errorf("%w: decoded %d symbols, archive declares %d", ErrSymbolCountMismatch, len(symbols), a.SymbolCount)
	}
	return symbols, nil
}

// validateArchiveStructure accepts a nil Table only for the empty archive,
// so the zero Archive is valid.
func validateArchiveStructure(a *Archive) error {
	if a.SymbolCount < 0 {
		return fmt.Errorf("negative symbol count: %d", a.SymbolCount)
	}
	if a.SymbolCount == 0 {
		if a.Stream.Len() != 0 {
			return fmt.Errorf("empty archive carries %d encoded bits", a.Stream.Len())
		}
		if a.Table.Len() != 0 {
			return fmt.Errorf("empty archive carries %d code table entries", a.Table.Len())
		}
		return nil
	}
	if a.Table == nil {
		return fmt.Errorf("missing code table for %d symbols", a.SymbolCount)
	}
	if a.Table.Len() == 0 {
		return fmt.Errorf("code table is empty for %d symbols", a.SymbolCount)
	}
	if a.Stream.Len() < a.SymbolCount {
		return fmt.Errorf("%d encoded bits cannot hold %d symbols", a.Stream.Len(), a.SymbolCount)
	}
	if uint64(a.Stream.Len()) > maxStreamBits {
		return fmt.Errorf("encoded stream too large: %d bits", a.Stream.Len())
	}
	if longest := a.Table.MaxCodeLen(); a.Stream.Len() > a.SymbolCount*longest {
		return fmt.Errorf("%d encoded bits exceed %d symbols of at most %d bits", a.Stream.Len(), a.SymbolCount, longest)
	}
	return nil
}

// WriteTo serializes the Archive to an io.Writer.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	if err := validateArchiveStructure(a); err != nil {
		return 0, fmt.Errorf("invalid archive: %w", err)
	}

	bitsPayload, err := encodeEncodedBitsStage(a)
	if err != nil {
		return 0, err
	}
	tablePayload, tableParam, err := encodeCodeTableStage(a)
	if err != nil {
		return 0, err
	}
	countPayload := encodeSymbolCountStage(a)

	stages := []struct {
		name    string
		params  []byte
		payload []byte
	}{
		{
			name:    stageEncodedBits,
			params:  nil,
			payload: bitsPayload,
		},
		{
			name:    stageCodeTable,
			params:  []byte{tableParam},
			payload: tablePayload,
		},
		{
			name:    stageSymbolCount,
			params:  nil,
			payload: countPayload,
		},
	}
	if !a.noChecksum {
		stages = append(stages, struct {
			name    string
			params  []byte
			payload []byte
		}{
			name:    stageChecksum,
			payload: checksumPayload(bitsPayload, tablePayload, countPayload),
		})
	}

	var total int64
	n, err := writeBytes(w, []byte(archiveMagic))
	total += n
	if err != nil {
		return total, err
	}

	var header [4]byte
	binary.LittleEndian.PutUint16(header[0:2], archiveVersion)
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(stages)))
	n, err = writeBytes(w, header[:])
	total += n
	if err != nil {
		return total, err
	}

	for _, stage := range stages {
		n, err := writeStage(w, stage.name, stage.params, stage.payload)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// ReadFrom deserializes an Archive from an io.Reader.
func (a *Archive) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	var magic [4]byte
	magicOffset := total
	n, err := io.ReadFull(r, magic[:])
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("read archive magic at offset %d: %w", magicOffset, err)
	}
	if string(magic[:]) != archiveMagic {
		return total, fmt.Errorf("invalid archive magic at offset %d: %q", magicOffset, string(magic[:]))
	}

	var version uint16
	versionOffset := total
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return total, fmt.Errorf("read archive version at offset %d: %w", versionOffset, err)
	}
	total += 2
	if version != archiveVersion {
		return total, fmt.Errorf("unsupported archive version at offset %d: %d", versionOffset, version)
	}

	var stageCount uint16
	stageCountOffset := total
	if err := binary.Read(r, binary.LittleEndian, &stageCount); err != nil {
		return total, fmt.Errorf("read stage count at offset %d: %w", stageCountOffset, err)
	}
	total += 2
	if stageCount == 0 || stageCount > maxArchiveStages {
		return total, fmt.Errorf("invalid stage count at offset %d: %d", stageCountOffset, stageCount)
	}

	tmp := Archive{noChecksum: true}
	payloads := make(map[string][]byte, stageCount)
	for i := 0; i < int(stageCount); i++ {
		stageOffset := total
		n, err := readStage(r, &tmp, payloads)
		total += n
		if err != nil {
			return total, fmt.Errorf("stage index %d at offset %d: %w", i, stageOffset, err)
		}
	}

	requiredStages := []string{
		stageEncodedBits,
		stageCodeTable,
		stageSymbolCount,
	}
	for _, stageName := range requiredStages {
		if _, ok := payloads[stageName]; !ok {
			return total, fmt.Errorf("missing required stage %q", stageName)
		}
	}
	if stored, ok := payloads[stageChecksum]; ok {
		want := binary.LittleEndian.Uint64(stored)
		got := binary.LittleEndian.Uint64(checksumPayload(payloads[stageEncodedBits], payloads[stageCodeTable], payloads[stageSymbolCount]))
		if got != want {
			return total, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksumMismatch, want, got)
		}
	}
	if err := validateArchiveStructure(&tmp); err != nil {
		return total, fmt.Errorf("invalid archive structure: %w", err)
	}

	*a = tmp
	return total, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a *Archive) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Trailing bytes
// after the last stage are rejected.
func (a *Archive) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	if _, err := a.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("archive trailing bytes: %d", r.Len())
	}
	return nil
}

func checksumPayload(payloads ...[]byte) []byte {
	d := xxhash.New()
	for _, p := range payloads {
		_, _ = d.Write(p)
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, d.Sum64())
	return out
}

func decodeChecksumStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 0 {
		return fmt.Errorf("invalid checksum params: %v", params)
	}
	if len(payload) != 8 {
		return fmt.Errorf("checksum payload must be 8 bytes: %d", len(payload))
	}
	dst.noChecksum = false
	return nil
}
