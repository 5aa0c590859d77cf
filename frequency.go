package huffman

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// minParallelChunk is the smallest partition CountParallel hands to a goroutine.
const minParallelChunk = 4096

// FrequencyTable maps each symbol of a sequence to its number of occurrences.
// Symbols with a zero count are never present. The table remembers the order
// in which symbols first appeared, which fixes the tree builder's tie-break.
type FrequencyTable[S comparable] struct {
	counts map[S]int
	order  []S
}

// Count returns the frequency table of seq. An empty sequence yields an
// empty table.
func Count[S comparable](seq []S) *FrequencyTable[S] {
	ft := &FrequencyTable[S]{counts: make(map[S]int)}
	for _, s := range seq {
		ft.add(s, 1)
	}
	return ft
}

// CountParallel counts seq over up to workers partitions concurrently. The
// result is identical to Count(seq), first-appearance order included.
func CountParallel[S comparable](ctx context.Context, seq []S, workers int) (*FrequencyTable[S], error) {
	if workers <= 1 || len(seq) < 2*minParallelChunk {
		return Count(seq), nil
	}

	chunk := (len(seq) + workers - 1) / workers
	if chunk < minParallelChunk {
		chunk = minParallelChunk
	}
	parts := make([]*FrequencyTable[S], (len(seq)+chunk-1)/chunk)

	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		i := i
		start := i * chunk
		end := min(start+chunk, len(seq))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[i] = Count(seq[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Partitions are merged in input order, so a symbol's first partition
	// decides its position.
	merged := &FrequencyTable[S]{counts: make(map[S]int, parts[0].Len())}
	for _, p := range parts {
		for _, s := range p.order {
			merged.add(s, p.counts[s])
		}
	}
	return merged, nil
}

func (ft *FrequencyTable[S]) add(s S, n int) {
	if _, ok := ft.counts[s]; !ok {
		ft.order = append(ft.order, s)
	}
	ft.counts[s] += n
}

// Len returns the number of distinct symbols.
func (ft *FrequencyTable[S]) Len() int {
	return len(ft.order)
}

// Count returns the number of occurrences of s.
func (ft *FrequencyTable[S]) Count(s S) int {
	return ft.counts[s]
}

// Symbols returns the distinct symbols in order of first appearance.
func (ft *FrequencyTable[S]) Symbols() []S {
	return append([]S(nil), ft.order...)
}

// Total returns the length of the counted sequence.
func (ft *FrequencyTable[S]) Total() int {
	total := 0
	for _, n := range ft.counts {
		total += n
	}
	return total
}
