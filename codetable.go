package huffman

import (
	"fmt"
	"sort"

	"github.com/sukesh19/huffman/bitstream"
)

// Entry pairs a symbol with its code.
type Entry[S comparable] struct {
	Symbol S
	Code   bitstream.BitString
}

// CodeTable is a prefix-free bijection between symbols and non-empty codes.
// It serves both directions: symbol to code for encoding and code to symbol
// for decoding.
type CodeTable[S comparable] struct {
	codes   map[S]bitstream.BitString
	symbols map[string]S
	entries []Entry[S] // by code length, then code bits
}

// NewCodeTable validates entries and builds a table from them. Empty codes,
// duplicate symbols, duplicate codes and codes that prefix other codes are
// rejected with ErrAmbiguousCode.
func NewCodeTable[S comparable](entries []Entry[S]) (*CodeTable[S], error) {
	ct := &CodeTable[S]{
		codes:   make(map[S]bitstream.BitString, len(entries)),
		symbols: make(map[string]S, len(entries)),
		entries: append([]Entry[S](nil), entries...),
	}

	for _, e := range ct.entries {
		if e.Code.Len() == 0 {
			return nil, fmt.Errorf("%w: empty code for symbol %v", ErrAmbiguousCode, e.Symbol)
		}
		if _, dup := ct.codes[e.Symbol]; dup {
			return nil, fmt.Errorf("%w: symbol %v has more than one code", ErrAmbiguousCode, e.Symbol)
		}
		key := e.Code.String()
		if prev, dup := ct.symbols[key]; dup {
			return nil, fmt.Errorf("%w: code %s shared by %v and %v", ErrAmbiguousCode, key, prev, e.Symbol)
		}
		ct.codes[e.Symbol] = e.Code
		ct.symbols[key] = e.Symbol
	}

	// In lexicographic order, a code that prefixes others is immediately
	// followed by one of them.
	sorted := make([]string, 0, len(ct.symbols))
	for key := range ct.symbols {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if len(sorted[i-1]) < len(sorted[i]) && sorted[i][:len(sorted[i-1])] == sorted[i-1] {
			return nil, fmt.Errorf("%w: code %s is a prefix of %s", ErrAmbiguousCode, sorted[i-1], sorted[i])
		}
	}

	sort.Slice(ct.entries, func(i, j int) bool {
		a, b := ct.entries[i].Code, ct.entries[j].Code
		if a.Len() != b.Len() {
			return a.Len() < b.Len()
		}
		return a.String() < b.String()
	})
	return ct, nil
}

// GenerateCodes walks t depth-first and assigns every leaf the path leading
// to it, 0 for a left edge and 1 for a right edge. The degenerate
// single-symbol tree yields the one-bit code "0".
func GenerateCodes[S comparable](t *Tree[S]) (*CodeTable[S], error) {
	if t == nil || len(t.nodes) == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrMalformedTree)
	}
	if t.nodes[t.root].leaf {
		return nil, fmt.Errorf("%w: root is a leaf", ErrMalformedTree)
	}

	entries := make([]Entry[S], 0, len(t.nodes)/2+1)
	var walk func(i int32, path bitstream.BitString) error
	walk = func(i int32, path bitstream.BitString) error {
		n := t.nodes[i]
		if n.leaf {
			entries = append(entries, Entry[S]{Symbol: n.symbol, Code: path})
			return nil
		}
		if n.left == noChild || n.right == noChild {
			degenerate := i == t.root && n.right == noChild && n.left != noChild && t.nodes[n.left].leaf
			if !degenerate {
				return fmt.Errorf("%w: internal node %d has a missing child", ErrMalformedTree, i)
			}
		}
		if n.left != noChild {
			if err := walk(n.left, path.Append(0)); err != nil {
				return err
			}
		}
		if n.right != noChild {
			if err := walk(n.right, path.Append(1)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.root, bitstream.BitString{}); err != nil {
		return nil, err
	}

	ct, err := NewCodeTable(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTree, err)
	}
	return ct, nil
}

// Len returns the number of symbols in the table. A nil table is empty.
func (ct *CodeTable[S]) Len() int {
	if ct == nil {
		return 0
	}
	return len(ct.entries)
}

// Equal reports whether both tables assign the same code to every symbol.
func (ct *CodeTable[S]) Equal(other *CodeTable[S]) bool {
	if ct.Len() != other.Len() {
		return false
	}
	for i := 0; i < ct.Len(); i++ {
		a, b := ct.entries[i], other.entries[i]
		if a.Symbol != b.Symbol || !a.Code.Equal(b.Code) {
			return false
		}
	}
	return true
}

// Code returns the code of s.
func (ct *CodeTable[S]) Code(s S) (bitstream.BitString, bool) {
	code, ok := ct.codes[s]
	return code, ok
}

// Symbol returns the symbol whose code is exactly code.
func (ct *CodeTable[S]) Symbol(code bitstream.BitString) (S, bool) {
	s, ok := ct.symbols[code.String()]
	return s, ok
}

// Entries returns the entries ordered by code length, then by code bits.
func (ct *CodeTable[S]) Entries() []Entry[S] {
	return append([]Entry[S](nil), ct.entries...)
}

// MaxCodeLen returns the length of the longest code.
func (ct *CodeTable[S]) MaxCodeLen() int {
	if ct.Len() == 0 {
		return 0
	}
	return ct.entries[len(ct.entries)-1].Code.Len()
}

// EncodedLen returns the number of bits needed to encode a sequence with the
// frequencies in ft.
func (ct *CodeTable[S]) EncodedLen(ft *FrequencyTable[S]) (int, error) {
	if ft == nil || ft.Len() == 0 {
		return 0, nil
	}
	if ct == nil {
		return 0, fmt.Errorf("%w: nil code table", ErrUnknownSymbol)
	}
	bits := 0
	for _, s := range ft.order {
		code, ok := ct.codes[s]
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownSymbol, s)
		}
		bits += code.Len() * ft.counts[s]
	}
	return bits, nil
}
