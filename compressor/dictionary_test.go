package compressor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sukesh19/huffman"
)

func mustTrain(t *testing.T, strings ...string) *Dictionary {
	t.Helper()
	dict, err := TrainStrings(strings)
	if err != nil {
		t.Fatalf("TrainStrings: %v", err)
	}
	return dict
}

func TestDictionaryBasic(t *testing.T) {
	dict := mustTrain(t, "hello", "world", "hello", "test")

	for _, s := range []string{"hello", "world", "test", "", "lol"} {
		compressed, err := dict.Compress([]byte(s))
		if err != nil {
			t.Fatalf("Compress(%q): %v", s, err)
		}
		out, err := dict.Decompress(nil, compressed)
		if err != nil {
			t.Fatalf("Decompress(%q): %v", s, err)
		}
		if string(out) != s {
			t.Errorf("expected %q, got %q", s, string(out))
		}
	}
}

func TestDictionaryBlockLayout(t *testing.T) {
	dict := mustTrain(t, "hello world")

	compressed, err := dict.Compress([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	// uvarint 5 symbols, uvarint 15 bits, two packed octets
	if len(compressed) != 4 || compressed[0] != 5 || compressed[1] != 15 {
		t.Errorf("unexpected block %v", compressed)
	}

	empty, err := dict.Compress(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(empty, []byte{0, 0}) {
		t.Errorf("expected empty block [0 0], got %v", empty)
	}
}

func TestDictionaryDecompressAppends(t *testing.T) {
	dict := mustTrain(t, "abcabcabd")
	compressed, err := dict.Compress([]byte("cab"))
	if err != nil {
		t.Fatal(err)
	}

	buf := append(make([]byte, 0, 64), "prefix:"...)
	out, err := dict.Decompress(buf, compressed)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "prefix:cab" {
		t.Errorf("expected prefix:cab, got %q", string(out))
	}
}

func TestDictionaryUnknownByte(t *testing.T) {
	dict := mustTrain(t, "abc")
	if _, err := dict.Compress([]byte("abz")); !errors.Is(err, huffman.ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestDictionaryTrainEmpty(t *testing.T) {
	if _, err := Train(nil); !errors.Is(err, huffman.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDictionaryUntrained(t *testing.T) {
	var dict Dictionary
	if _, err := dict.Compress([]byte("a")); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("Compress: expected ErrEmptyDictionary, got %v", err)
	}
	if _, err := dict.Decompress(nil, []byte{0, 0}); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("Decompress: expected ErrEmptyDictionary, got %v", err)
	}
	if _, err := dict.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("WriteTo: expected ErrEmptyDictionary, got %v", err)
	}
	if dict.Len() != 0 || dict.SpaceUsed() != 0 {
		t.Error("untrained dictionary should be empty")
	}
}

func TestDictionaryInvalidBlocks(t *testing.T) {
	dict := mustTrain(t, "hello world")
	valid, err := dict.Compress([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		block []byte
	}{
		{"empty", nil},
		{"missing bit count", []byte{5}},
		{"more symbols than bits", []byte{9, 4, 0xF0}},
		{"bits beyond data", []byte{1, 16, 0x00}},
		{"truncated code", append([]byte{5, 14}, valid[2:]...)},
		{"wrong symbol count", append([]byte{4}, valid[1:]...)},
		{"non-zero padding", []byte{1, 2, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dict.Decompress(nil, tt.block); !errors.Is(err, ErrInvalidBlock) {
				t.Errorf("expected ErrInvalidBlock, got %v", err)
			}
		})
	}
}

func TestDictionarySerialization(t *testing.T) {
	original := mustTrain(t, "hello", "world", "hello", "test", "hello world")

	var buf bytes.Buffer
	written, err := original.WriteTo(&buf)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	size := buf.Len()
	if written != int64(size) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", written, size)
	}

	loaded := &Dictionary{}
	read, err := loaded.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if read != int64(size) {
		t.Errorf("ReadFrom consumed %d of %d bytes", read, size)
	}
	if loaded.ID() != original.ID() {
		t.Errorf("ID changed across serialization: %x vs %x", original.ID(), loaded.ID())
	}
	if loaded.Len() != original.Len() {
		t.Errorf("expected %d codes, got %d", original.Len(), loaded.Len())
	}

	data := []byte("hello world")
	a, err := original.Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := loaded.Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("loaded dictionary compresses differently")
	}
	out, err := loaded.Decompress(nil, a)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hello world" {
		t.Errorf("expected hello world, got %q", string(out))
	}
}

func TestDictionaryReadFromErrors(t *testing.T) {
	dict := mustTrain(t, "abc")
	var buf bytes.Buffer
	if _, err := dict.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	blob := buf.Bytes()

	badVersion := append([]byte(nil), blob...)
	badVersion[0] = 2
	if _, err := (&Dictionary{}).ReadFrom(bytes.NewReader(badVersion)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	if _, err := (&Dictionary{}).ReadFrom(bytes.NewReader(blob[:len(blob)-1])); err == nil {
		t.Error("expected error for truncated dictionary")
	}
}

func TestDictionaryIDDiffers(t *testing.T) {
	if mustTrain(t, "aab").ID() == mustTrain(t, "abb").ID() {
		t.Error("different code tables share an ID")
	}
}

func TestDictionaryAllBytes(t *testing.T) {
	data := make([]byte, 0, 256*3)
	for round := 0; round < 3; round++ {
		for i := 0; i < 256; i++ {
			if i%(round+1) == 0 {
				data = append(data, byte(i))
			}
		}
	}
	dict, err := Train(data)
	if err != nil {
		t.Fatal(err)
	}
	if dict.Len() != 256 {
		t.Fatalf("expected 256 codes, got %d", dict.Len())
	}

	compressed, err := dict.Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := dict.Decompress(nil, compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Error("round trip mismatch")
	}
	if dict.SpaceUsed() <= 2*256 {
		t.Errorf("expected more than %d bytes, got %d", 2*256, dict.SpaceUsed())
	}
}
