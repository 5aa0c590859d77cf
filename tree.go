package huffman

import (
	"container/heap"
	"fmt"
)

// noChild marks an absent child index.
const noChild int32 = -1

type treeNode[S comparable] struct {
	symbol S
	weight int
	left   int32
	right  int32
	leaf   bool
}

// Tree is a binary prefix tree. Nodes live in a single arena and refer to
// their children by index, so every non-root node has exactly one parent and
// no subtree is shared. A Tree is never modified once built and may be used
// by several goroutines at a time.
//
// A tree over a single symbol is the degenerate shape: an internal root whose
// left child is the only leaf and whose right child is absent. This keeps the
// root from being a leaf, which would have an empty code.
type Tree[S comparable] struct {
	nodes []treeNode[S]
	root  int32
}

func (t *Tree[S]) newLeaf(s S, weight int) int32 {
	t.nodes = append(t.nodes, treeNode[S]{symbol: s, weight: weight, left: noChild, right: noChild, leaf: true})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[S]) newInternal(weight int, left, right int32) int32 {
	t.nodes = append(t.nodes, treeNode[S]{weight: weight, left: left, right: right})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[S]) child(i int32, bit uint8) int32 {
	if bit == 0 {
		return t.nodes[i].left
	}
	return t.nodes[i].right
}

func (t *Tree[S]) setChild(i int32, bit uint8, c int32) {
	if bit == 0 {
		t.nodes[i].left = c
	} else {
		t.nodes[i].right = c
	}
}

// nodeQueue is a min-heap of node indices ordered by weight. Equal weights
// are ordered by index: leaves in first-appearance order come first, then
// internal nodes in the order they were merged.
type nodeQueue[S comparable] struct {
	tree  *Tree[S]
	items []int32
}

func (q *nodeQueue[S]) Len() int { return len(q.items) }

func (q *nodeQueue[S]) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	wa, wb := q.tree.nodes[a].weight, q.tree.nodes[b].weight
	if wa != wb {
		return wa < wb
	}
	return a < b
}

func (q *nodeQueue[S]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue[S]) Push(x any) { q.items = append(q.items, x.(int32)) }

func (q *nodeQueue[S]) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

// BuildTree builds an optimal prefix tree for ft by repeatedly merging the
// two lightest nodes. The lighter node becomes the left child.
func BuildTree[S comparable](ft *FrequencyTable[S]) (*Tree[S], error) {
	if ft == nil || ft.Len() == 0 {
		return nil, ErrEmptyInput
	}

	n := ft.Len()
	t := &Tree[S]{nodes: make([]treeNode[S], 0, 2*n)}
	if n == 1 {
		s := ft.order[0]
		w := ft.counts[s]
		leaf := t.newLeaf(s, w)
		t.root = t.newInternal(w, leaf, noChild)
		return t, nil
	}

	q := &nodeQueue[S]{tree: t, items: make([]int32, 0, n)}
	for _, s := range ft.order {
		q.items = append(q.items, t.newLeaf(s, ft.counts[s]))
	}
	heap.Init(q)

	for q.Len() > 1 {
		left := heap.Pop(q).(int32)
		right := heap.Pop(q).(int32)
		w := t.nodes[left].weight + t.nodes[right].weight
		heap.Push(q, t.newInternal(w, left, right))
	}
	t.root = q.items[0]
	return t, nil
}

// Leaves returns the number of leaf nodes.
func (t *Tree[S]) Leaves() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].leaf {
			n++
		}
	}
	return n
}

// Internal returns the number of internal nodes.
func (t *Tree[S]) Internal() int {
	return len(t.nodes) - t.Leaves()
}

// Weight returns the weight of the root, which for a built tree is the
// length of the counted sequence. Rebuilt trees carry no weights.
func (t *Tree[S]) Weight() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[t.root].weight
}

// Degenerate reports whether t is the single-symbol tree.
func (t *Tree[S]) Degenerate() bool {
	if len(t.nodes) == 0 {
		return false
	}
	r := t.nodes[t.root]
	return !r.leaf && (r.left == noChild) != (r.right == noChild)
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree[S]) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	type frame struct {
		node  int32
		depth int
	}
	deepest := 0
	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.node]
		if n.leaf {
			deepest = max(deepest, f.depth)
			continue
		}
		for _, c := range [2]int32{n.left, n.right} {
			if c != noChild {
				stack = append(stack, frame{c, f.depth + 1})
			}
		}
	}
	return deepest
}

func (t *Tree[S]) String() string {
	return fmt.Sprintf("Tree{leaves: %d, internal: %d, weight: %d, depth: %d}", t.Leaves(), t.Internal(), t.Weight(), t.Depth())
}
