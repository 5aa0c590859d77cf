package huffman

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedTree struct {
	table []byte
	tree  *Tree[rune]
}

// TreeCache keeps recently rebuilt decoding trees so that archives sharing a
// code table, such as those produced by one Model, skip the rebuild. It is
// safe for concurrent use.
type TreeCache struct {
	trees *lru.Cache[uint64, cachedTree]
}

// NewTreeCache creates a cache holding at most size trees.
func NewTreeCache(size int) (*TreeCache, error) {
	trees, err := lru.New[uint64, cachedTree](size)
	if err != nil {
		return nil, fmt.Errorf("tree cache: %w", err)
	}
	return &TreeCache{trees: trees}, nil
}

// Tree returns the decoding tree for ct, rebuilding it on a miss.
func (c *TreeCache) Tree(ct *CodeTable[rune]) (*Tree[rune], error) {
	raw, err := encodeCodeTable(ct)
	if err != nil {
		return nil, err
	}
	key := xxhash.Sum64(raw)
	if hit, ok := c.trees.Get(key); ok && bytes.Equal(hit.table, raw) {
		return hit.tree, nil
	}

	tree, err := RebuildTree(ct)
	if err != nil {
		return nil, err
	}
	c.trees.Add(key, cachedTree{table: raw, tree: tree})
	return tree, nil
}

// Decode is like Archive.Decode but takes the tree from the cache.
func (c *TreeCache) Decode(a *Archive) ([]rune, error) {
	if err := validateArchiveStructure(a); err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}
	if a.SymbolCount == 0 {
		return []rune{}, nil
	}
	tree, err := c.Tree(a.Table)
	if err != nil {
		return nil, err
	}
	return a.decodeWith(tree)
}

// Len returns the number of cached trees.
func (c *TreeCache) Len() int {
	return c.trees.Len()
}
