package rag

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
)

// FlatIndex is an exact nearest-neighbour index using squared Euclidean
// distance over raw coordinates. Search is a full O(n·d) scan.
//
// Build replaces the indexed vectors atomically: concurrent searches see
// either the old snapshot or the new one, never a partial build. A failed
// Build leaves the previous snapshot in place. The zero value is an unbuilt
// index.
type FlatIndex struct {
	snap atomic.Pointer[flatSnapshot]
}

type flatSnapshot struct {
	dim  int
	n    int
	data []float32 // row-major, n*dim
}

// NewFlatIndex builds an index over vectors.
func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	idx := &FlatIndex{}
	if err := idx.Build(vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

// Build indexes a copy of vectors, replacing whatever was indexed before.
func (x *FlatIndex) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		return ErrEmptyCorpus
	}

	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}

	x.snap.Store(&flatSnapshot{dim: dim, n: len(vectors), data: data})
	return nil
}

// Search returns the min(k, Len()) vectors closest to query, nearest first.
// Equal distances are ordered by ascending index.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	s := x.snap.Load()
	if s == nil {
		return nil, ErrIndexNotBuilt
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), s.dim)
	}

	all := make([]Neighbor, s.n)
	for i := 0; i < s.n; i++ {
		all[i] = Neighbor{Index: i, Distance: squaredL2(s.data[i*s.dim:(i+1)*s.dim], query)}
	}

	slices.SortFunc(all, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	if k > s.n {
		k = s.n
	}
	return all[:k:k], nil
}

// Len returns the number of indexed vectors, 0 when unbuilt.
func (x *FlatIndex) Len() int {
	if s := x.snap.Load(); s != nil {
		return s.n
	}
	return 0
}

// Dimension returns the indexed dimensionality, 0 when unbuilt.
func (x *FlatIndex) Dimension() int {
	if s := x.snap.Load(); s != nil {
		return s.dim
	}
	return 0
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
