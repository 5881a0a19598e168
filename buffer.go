package h5obj

// MaxRank is the highest dimensionality a Buffer supports.
const MaxRank = 4

// Number constrains the element types a Buffer can hold.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Buffer is a flat, contiguous N-dimensional container with column-major
// indexing: the first axis varies fastest, so the linear offset of a
// coordinate tuple is sum(coord[i] * product(extent[j], j < i)).
//
// The flat length equals the product of the extents, with one exception:
// Resize adjusts only the flat capacity, so on a rank >= 2 buffer it leaves
// the extents alone and the lengths diverge until the next Reshape. Changing
// the shape goes through Reshape, which re-zeros the contents because the
// old indexing is meaningless under a new shape.
type Buffer[T Number] struct {
	data    []T
	extents []uint64
}

// NewBuffer returns a zero-filled buffer with the given extents.
// The rank (number of extents) must be between 1 and MaxRank.
func NewBuffer[T Number](extents ...uint64) (*Buffer[T], error) {
	if len(extents) < 1 || len(extents) > MaxRank {
		return nil, wrapf(ErrRankMismatch, "buffer rank must be 1..%d, got %d", MaxRank, len(extents))
	}
	b := &Buffer[T]{extents: append([]uint64(nil), extents...)}
	b.data = make([]T, flatLen(b.extents))
	return b, nil
}

// NewVector returns a rank-1 buffer of n elements.
func NewVector[T Number](n uint64) *Buffer[T] {
	b, _ := NewBuffer[T](n)
	return b
}

// NewMatrix returns a rank-2 buffer of m x n elements.
func NewMatrix[T Number](m, n uint64) *Buffer[T] {
	b, _ := NewBuffer[T](m, n)
	return b
}

// NewCube returns a rank-3 buffer of m x n x o elements.
func NewCube[T Number](m, n, o uint64) *Buffer[T] {
	b, _ := NewBuffer[T](m, n, o)
	return b
}

func flatLen(extents []uint64) uint64 {
	total := uint64(1)
	for _, e := range extents {
		total *= e
	}
	return total
}

// Rank returns the number of dimensions.
func (b *Buffer[T]) Rank() int { return len(b.extents) }

// Extent returns the size of dimension i.
func (b *Buffer[T]) Extent(i int) uint64 { return b.extents[i] }

// Extents returns a copy of the per-dimension extents.
func (b *Buffer[T]) Extents() []uint64 {
	return append([]uint64(nil), b.extents...)
}

// Len returns the flat element count.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Data returns the backing flat slice. The first axis varies fastest.
func (b *Buffer[T]) Data() []T { return b.data }

// Index maps a coordinate tuple to its linear offset, or -1 if the tuple has
// the wrong rank or lies outside the extents.
func (b *Buffer[T]) Index(coords ...uint64) int {
	if len(coords) != len(b.extents) {
		return -1
	}
	var off, stride uint64 = 0, 1
	for i, c := range coords {
		if c >= b.extents[i] {
			return -1
		}
		off += c * stride
		stride *= b.extents[i]
	}
	return int(off)
}

// At returns the element at the given coordinates.
// Out-of-range coordinates panic, like slice indexing.
func (b *Buffer[T]) At(coords ...uint64) T {
	idx := b.Index(coords...)
	if idx < 0 {
		panic("h5obj: buffer coordinate out of range")
	}
	return b.data[idx]
}

// Set stores v at the given coordinates.
// Out-of-range coordinates panic, like slice indexing.
func (b *Buffer[T]) Set(v T, coords ...uint64) {
	idx := b.Index(coords...)
	if idx < 0 {
		panic("h5obj: buffer coordinate out of range")
	}
	b.data[idx] = v
}

// Resize adjusts the flat capacity to n elements, preserving existing
// contents up to the overlap of the old and new lengths and zero-filling any
// growth. For rank-1 buffers the extent follows the new length; for higher
// ranks only the flat capacity changes and the extents are left alone, so a
// shape change must go through Reshape instead.
func (b *Buffer[T]) Resize(n uint64) {
	if uint64(len(b.data)) == n {
		return
	}
	next := make([]T, n)
	copy(next, b.data)
	b.data = next
	if len(b.extents) == 1 {
		b.extents[0] = n
	}
}

// Reshape replaces the extents with a new shape of the same rank. Whenever
// the shape actually changes, the whole buffer is re-zeroed: the previous
// multi-dimensional layout has no meaning under the new extents.
func (b *Buffer[T]) Reshape(extents ...uint64) error {
	if len(extents) != len(b.extents) {
		return wrapf(ErrRankMismatch, "reshape rank %d on rank-%d buffer", len(extents), len(b.extents))
	}
	same := true
	for i, e := range extents {
		if b.extents[i] != e {
			same = false
			break
		}
	}
	if same {
		return nil
	}
	b.extents = append(b.extents[:0], extents...)
	b.data = make([]T, flatLen(b.extents))
	return nil
}

// Sum returns the sum over all elements, or zero for an empty buffer.
func (b *Buffer[T]) Sum() T {
	var total T
	for _, v := range b.data {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or zero for an empty buffer.
func (b *Buffer[T]) Mean() T {
	if len(b.data) == 0 {
		return 0
	}
	return b.Sum() / T(len(b.data))
}

// Min returns the smallest element, or zero for an empty buffer.
func (b *Buffer[T]) Min() T {
	if len(b.data) == 0 {
		return 0
	}
	m := b.data[0]
	for _, v := range b.data[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest element, or zero for an empty buffer.
func (b *Buffer[T]) Max() T {
	if len(b.data) == 0 {
		return 0
	}
	m := b.data[0]
	for _, v := range b.data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
