package huffman

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/sukesh19/huffman/bitstream"
)

// maxCodeBits bounds a single code read from an archive.
const maxCodeBits = 1 << 16

func encodeEncodedBitsStage(a *Archive) ([]byte, error) {
	packed := a.Stream.Bytes()
	out := make([]byte, 8, 8+len(packed))
	binary.LittleEndian.PutUint64(out, uint64(a.Stream.Len()))
	return append(out, packed...), nil
}

func decodeEncodedBitsStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 0 {
		return fmt.Errorf("invalid encoded_bits params: %v", params)
	}
	if len(payload) < 8 {
		return fmt.Errorf("encoded_bits payload too short: %d", len(payload))
	}
	bits := binary.LittleEndian.Uint64(payload[:8])
	if bits > maxStreamBits {
		return fmt.Errorf("encoded bit count too large: %d", bits)
	}
	stream, err := bitstream.FromBytes(payload[8:], int(bits))
	if err != nil {
		return err
	}
	dst.Stream = stream
	return nil
}

func encodeSymbolCountStage(a *Archive) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(a.SymbolCount))
	return out
}

func decodeSymbolCountStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 0 {
		return fmt.Errorf("invalid symbol_count params: %v", params)
	}
	if len(payload) != 8 {
		return fmt.Errorf("symbol_count payload must be 8 bytes: %d", len(payload))
	}
	count := binary.LittleEndian.Uint64(payload)
	if count > maxStreamBits {
		return fmt.Errorf("symbol count too large: %d", count)
	}
	dst.SymbolCount = int(count)
	return nil
}

func encodeCodeTableStage(a *Archive) ([]byte, uint8, error) {
	rawPayload, err := encodeCodeTable(a.Table)
	if err != nil {
		return nil, 0, err
	}

	switch a.tableCodec {
	case TableCodecRaw:
		return rawPayload, stageCodeTableParamRaw, nil
	case TableCodecFlate:
		payload, err := encodeFlatePayload(rawPayload)
		return payload, stageCodeTableParamFlate, err
	case TableCodecZstd:
		payload, err := encodeZstdPayload(rawPayload)
		return payload, stageCodeTableParamZstd, err
	case TableCodecAuto:
	default:
		return nil, 0, fmt.Errorf("unsupported table codec: %s", a.tableCodec)
	}

	type candidate struct {
		payload []byte
		param   uint8
	}
	candidates := []candidate{
		{payload: rawPayload, param: stageCodeTableParamRaw},
	}

	flatePayload, err := encodeFlatePayload(rawPayload)
	if err != nil {
		return nil, 0, err
	}
	candidates = append(candidates, candidate{payload: flatePayload, param: stageCodeTableParamFlate})

	zstdPayload, err := encodeZstdPayload(rawPayload)
	if err != nil {
		return nil, 0, err
	}
	candidates = append(candidates, candidate{payload: zstdPayload, param: stageCodeTableParamZstd})

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if len(candidate.payload) < len(best.payload) {
			best = candidate
		}
	}
	return best.payload, best.param, nil
}

func decodeCodeTableStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 1 {
		return fmt.Errorf("invalid code_table params: %v", params)
	}

	var (
		raw   []byte
		codec TableCodec
		err   error
	)
	switch params[0] {
	case stageCodeTableParamRaw:
		raw, codec = payload, TableCodecRaw
	case stageCodeTableParamFlate:
		raw, err = decodeFlatePayload(payload)
		codec = TableCodecFlate
	case stageCodeTableParamZstd:
		raw, err = decodeZstdPayload(payload)
		codec = TableCodecZstd
	default:
		return fmt.Errorf("invalid code_table params: %v", params)
	}
	if err != nil {
		return err
	}

	table, err := decodeCodeTable(raw)
	if err != nil {
		return err
	}
	dst.Table = table
	dst.tableCodec = codec
	return nil
}

// encodeCodeTable writes the entry count followed by, per entry in table
// order, the symbol and code length as uvarints and the packed code.
func encodeCodeTable(ct *CodeTable[rune]) ([]byte, error) {
	var entries []Entry[rune]
	if ct != nil {
		entries = ct.entries
	}
	if len(entries) > maxTableEntries {
		return nil, fmt.Errorf("code table too large: %d entries", len(entries))
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(entries))); err != nil {
		return nil, err
	}
	varintBuf := make([]byte, binary.MaxVarintLen64)
	for _, e := range entries {
		if e.Symbol < 0 || e.Symbol > unicode.MaxRune {
			return nil, fmt.Errorf("symbol out of range: %d", e.Symbol)
		}
		n := binary.PutUvarint(varintBuf, uint64(e.Symbol))
		buf.Write(varintBuf[:n])
		n = binary.PutUvarint(varintBuf, uint64(e.Code.Len()))
		buf.Write(varintBuf[:n])
		buf.Write(e.Code.Bytes())
	}
	return buf.Bytes(), nil
}

func decodeCodeTable(payload []byte) (*CodeTable[rune], error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("code_table payload too short: %d", len(payload))
	}

	r := bytes.NewReader(payload)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count > maxTableEntries {
		return nil, fmt.Errorf("code table entry count too large: %d", count)
	}
	// Every entry takes at least three bytes.
	if int(count) > r.Len()/3 {
		return nil, fmt.Errorf("code table entry count %d exceeds payload of %d bytes", count, r.Len())
	}

	entries := make([]Entry[rune], 0, count)
	for i := 0; i < int(count); i++ {
		symbol, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read symbol of entry %d: %w", i, err)
		}
		if symbol > unicode.MaxRune {
			return nil, fmt.Errorf("symbol of entry %d out of range: %d", i, symbol)
		}
		codeLen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read code length of entry %d: %w", i, err)
		}
		if codeLen == 0 || codeLen > maxCodeBits {
			return nil, fmt.Errorf("invalid code length of entry %d: %d", i, codeLen)
		}
		packed := make([]byte, bitstream.PackedLen(int(codeLen)))
		if _, err := io.ReadFull(r, packed); err != nil {
			return nil, fmt.Errorf("read code of entry %d: %w", i, err)
		}
		code, err := bitstream.FromBytes(packed, int(codeLen))
		if err != nil {
			return nil, fmt.Errorf("code of entry %d: %w", i, err)
		}
		entries = append(entries, Entry[rune]{Symbol: rune(symbol), Code: code})
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("code_table trailing bytes: %d", r.Len())
	}
	return NewCodeTable(entries)
}

func encodeFlatePayload(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFlatePayload(payload []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(payload))
	defer r.Close()

	limited := io.LimitReader(r, maxStagePayloadBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(raw) > maxStagePayloadBytes {
		return nil, fmt.Errorf("flate payload expands beyond limit")
	}
	return raw, nil
}

func encodeZstdPayload(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeZstdPayload(payload []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(payload), zstd.WithDecoderMaxMemory(maxStagePayloadBytes))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	limited := io.LimitReader(dec, maxStagePayloadBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(raw) > maxStagePayloadBytes {
		return nil, fmt.Errorf("zstd payload expands beyond limit")
	}
	return raw, nil
}
