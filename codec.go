package huffman

import (
	"fmt"
	"io"

	"github.com/sukesh19/huffman/bitstream"
)

// Encode concatenates the codes of seq in input order.
func Encode[S comparable](seq []S, ct *CodeTable[S]) (bitstream.BitString, error) {
	if len(seq) == 0 {
		return bitstream.BitString{}, nil
	}
	if ct == nil {
		return bitstream.BitString{}, fmt.Errorf("%w %v at position 0: nil code table", ErrUnknownSymbol, seq[0])
	}
	w := bitstream.NewWriter()
	for i, s := range seq {
		code, ok := ct.codes[s]
		if !ok {
			return bitstream.BitString{}, fmt.Errorf("%w %v at position %d", ErrUnknownSymbol, s, i)
		}
		if err := w.WriteBitString(code); err != nil {
			return bitstream.BitString{}, err
		}
	}
	return w.BitString()
}

// Decode walks t from the root, one edge per bit, and emits a symbol each
// time a leaf is reached. The stream must end exactly at a symbol boundary.
func Decode[S comparable](stream bitstream.BitString, t *Tree[S]) ([]S, error) {
	if stream.Len() == 0 {
		return []S{}, nil
	}
	if t == nil || len(t.nodes) == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrCorruptTree)
	}

	out := make([]S, 0, stream.Len()/max(t.Depth(), 1))
	r := bitstream.NewReader(stream)
	cur := t.root
	inPath := false
	for {
		bit, err := r.ReadBit()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		next := t.child(cur, bit)
		if next == noChild {
			return nil, fmt.Errorf("%w: no child for bit %d at offset %d", ErrCorruptTree, bit, r.Pos()-1)
		}
		if n := &t.nodes[next]; n.leaf {
			out = append(out, n.symbol)
			cur = t.root
			inPath = false
			continue
		}
		cur = next
		inPath = true
	}

	if inPath {
		return nil, fmt.Errorf("%w: stream ends inside a code after %d symbols", ErrTruncatedStream, len(out))
	}
	return out, nil
}

// RebuildTree reconstructs a decoding tree from a code table alone. Leaves
// of the result are exactly the table's symbols; the nodes carry no weights.
func RebuildTree[S comparable](ct *CodeTable[S]) (*Tree[S], error) {
	if ct == nil || len(ct.entries) == 0 {
		return nil, ErrEmptyInput
	}

	t := &Tree[S]{nodes: make([]treeNode[S], 0, 2*len(ct.entries))}
	t.root = t.newInternal(0, noChild, noChild)
	for _, e := range ct.entries {
		if e.Code.Len() == 0 {
			return nil, fmt.Errorf("%w: empty code for symbol %v", ErrAmbiguousCode, e.Symbol)
		}
		cur := t.root
		for i := 0; i < e.Code.Len(); i++ {
			if t.nodes[cur].leaf {
				return nil, fmt.Errorf("%w: code %s of %v passes through the code of %v", ErrAmbiguousCode, e.Code, e.Symbol, t.nodes[cur].symbol)
			}
			bit := e.Code.Bit(i)
			next := t.child(cur, bit)
			if next == noChild {
				next = t.newInternal(0, noChild, noChild)
				t.setChild(cur, bit, next)
			}
			cur = next
		}

		n := &t.nodes[cur]
		switch {
		case n.leaf:
			return nil, fmt.Errorf("%w: code %s assigned to %v and %v", ErrAmbiguousCode, e.Code, n.symbol, e.Symbol)
		case n.left != noChild || n.right != noChild:
			return nil, fmt.Errorf("%w: code %s of %v is a prefix of another code", ErrAmbiguousCode, e.Code, e.Symbol)
		}
		n.leaf = true
		n.symbol = e.Symbol
	}
	return t, nil
}
