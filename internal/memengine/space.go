package memengine

import (
	"github.com/batchatco/go-thrower"

	"github.com/scigolib/h5obj/engine"
	"github.com/scigolib/h5obj/internal/utils"
)

// elementCount is the throwing form of the overflow-checked extent product.
func elementCount(dims []uint64) uint64 {
	n, err := utils.CountElements(dims)
	thrower.ThrowIfError(err)
	return n
}

// selection returns the per-dimension start and count of a descriptor. With
// no hyperslab applied, the full extent is selected.
func (s *space) selection() (start, count []uint64) {
	if s.start == nil {
		return make([]uint64, len(s.dims)), s.dims
	}
	return s.start, s.count
}

func (s *space) elements() uint64 {
	_, count := s.selection()
	return elementCount(count)
}

// DatasetSpace returns a fresh full-extent descriptor for a dataset.
func (e *Engine) DatasetSpace(ds engine.ID) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(ds, hDataset)
	sp := &space{dims: append([]uint64(nil), h.node.dims...)}
	return e.alloc(&handle{kind: hSpace, space: sp}), nil
}

// CreateSpace builds a descriptor from explicit extents.
func (e *Engine) CreateSpace(dims []uint64) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	if len(dims) == 0 {
		throwf("descriptor needs at least one extent")
	}
	elementCount(dims) // reject zero or overflowing extents
	sp := &space{dims: append([]uint64(nil), dims...)}
	return e.alloc(&handle{kind: hSpace, space: sp}), nil
}

// SelectHyperslab restricts a descriptor to the region start + count.
// Unit stride only.
func (e *Engine) SelectHyperslab(spaceID engine.ID, start, count []uint64) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(spaceID, hSpace)
	sp := h.space
	if len(start) != len(sp.dims) || len(count) != len(sp.dims) {
		throwf("hyperslab rank %d/%d on rank-%d descriptor", len(start), len(count), len(sp.dims))
	}
	for i := range count {
		if count[i] == 0 {
			throwf("hyperslab count is zero in dimension %d", i)
		}
		if start[i]+count[i] > sp.dims[i] {
			throwf("hyperslab out of bounds in dimension %d: %d+%d > %d",
				i, start[i], count[i], sp.dims[i])
		}
	}
	sp.start = append([]uint64(nil), start...)
	sp.count = append([]uint64(nil), count...)
	return nil
}

// SpaceRank returns the number of dimensions of a descriptor.
func (e *Engine) SpaceRank(spaceID engine.ID) (rank int, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(spaceID, hSpace)
	return len(h.space.dims), nil
}

// SpaceDims returns a copy of a descriptor's extents.
func (e *Engine) SpaceDims(spaceID engine.ID) (dims []uint64, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(spaceID, hSpace)
	return append([]uint64(nil), h.space.dims...), nil
}

// SpaceElements returns the number of selected elements of a descriptor.
func (e *Engine) SpaceElements(spaceID engine.ID) (n uint64, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(spaceID, hSpace)
	return h.space.elements(), nil
}

// CloseSpace releases a descriptor identifier.
func (e *Engine) CloseSpace(id engine.ID) error {
	return e.release(id, hSpace)
}

// walkSelection visits every selected element in row-major order, last axis
// fastest, passing its linear offset within the full extent.
func walkSelection(dims, start, count []uint64, visit func(linear uint64)) {
	// Row-major strides of the full extent.
	strides := make([]uint64, len(dims))
	acc := uint64(1)
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= dims[i]
	}

	coord := append([]uint64(nil), start...)
	for {
		var linear uint64
		for i := range coord {
			linear += coord[i] * strides[i]
		}
		visit(linear)

		// Advance the odometer, last dimension fastest.
		i := len(coord) - 1
		for ; i >= 0; i-- {
			coord[i]++
			if coord[i] < start[i]+count[i] {
				break
			}
			coord[i] = start[i]
		}
		if i < 0 {
			return
		}
	}
}

// transfer moves elements between buf and the dataset's backing array along
// the file-space selection. The memory space is only checked for element
// count; the layer above always passes a packed, full-extent memory region.
func (e *Engine) transfer(ds, memSpace, fileSpace engine.ID, buf []float64, write bool) {
	h := e.get(ds, hDataset)
	mem := e.get(memSpace, hSpace).space
	fsp := e.get(fileSpace, hSpace).space

	if len(fsp.dims) != len(h.node.dims) {
		throwf("descriptor rank %d does not match dataset rank %d", len(fsp.dims), len(h.node.dims))
	}
	for i, d := range fsp.dims {
		if d != h.node.dims[i] {
			throwf("descriptor extent %d is %d, dataset has %d", i, d, h.node.dims[i])
		}
	}

	n := fsp.elements()
	if mem.elements() != n {
		throwf("memory region holds %d elements, file selection %d", mem.elements(), n)
	}
	if uint64(len(buf)) < n {
		throwf("buffer holds %d elements, transfer needs %d", len(buf), n)
	}

	start, count := fsp.selection()
	i := 0
	walkSelection(fsp.dims, start, count, func(linear uint64) {
		if write {
			h.node.data[linear] = buf[i]
		} else {
			buf[i] = h.node.data[linear]
		}
		i++
	})
}

// Read copies the file-space selection of a dataset into dst.
func (e *Engine) Read(ds, memSpace, fileSpace engine.ID, dst []float64) (err error) {
	defer thrower.RecoverError(&err)
	e.transfer(ds, memSpace, fileSpace, dst, false)
	return nil
}

// Write copies src over the file-space selection of a dataset.
func (e *Engine) Write(ds, memSpace, fileSpace engine.ID, src []float64) (err error) {
	defer thrower.RecoverError(&err)
	e.transfer(ds, memSpace, fileSpace, src, true)
	return nil
}
