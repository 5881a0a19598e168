package h5obj

import (
	"fmt"

	"github.com/scigolib/h5obj/engine"
)

// Dataset is a resource handle over an N-dimensional grid of fixed-size
// elements. Element class, byte order, size, rank, and extents are queried
// once at open time and are immutable for the lifetime of the handle; they
// are only correct if no other process resizes the underlying object.
//
// All transfers use the fixed native float64 element type. Integer datasets
// are read through the same path at the caller's own risk of truncation.
type Dataset struct {
	object
	class    engine.Class
	order    engine.Order
	typeSize int
	rank     int
	dims     []uint64
	attrs    *Attrs
}

func openDataset(f *File, path string) (*Dataset, error) {
	if path == "" {
		return nil, wrapf(ErrEmptyArgument, "dataset path")
	}

	id, err := f.eng.OpenDataset(f.id, path)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %q: %v", ErrNotFound, path, err)
	}
	if !id.Valid() {
		return nil, wrapf(ErrNotFound, "dataset %q: engine returned identifier %d", path, id)
	}

	// Query the region descriptor and datatype. Any failure here must
	// release the partially acquired descriptor and the dataset identifier
	// before propagating.
	space, err := f.eng.DatasetSpace(id)
	if err != nil || !space.Valid() {
		_ = f.eng.CloseDataset(id)
		return nil, fmt.Errorf("%w: dataspace of %q: %v", ErrEngineFailure, path, err)
	}

	rank, err := f.eng.SpaceRank(space)
	if err != nil {
		_ = f.eng.CloseSpace(space)
		_ = f.eng.CloseDataset(id)
		return nil, fmt.Errorf("%w: rank of %q: %v", ErrEngineFailure, path, err)
	}
	dims, err := f.eng.SpaceDims(space)
	if err != nil {
		_ = f.eng.CloseSpace(space)
		_ = f.eng.CloseDataset(id)
		return nil, fmt.Errorf("%w: extents of %q: %v", ErrEngineFailure, path, err)
	}
	if len(dims) != rank {
		_ = f.eng.CloseSpace(space)
		_ = f.eng.CloseDataset(id)
		return nil, wrapf(ErrEngineFailure, "dataset %q: %d extents for rank %d", path, len(dims), rank)
	}

	dt, err := f.eng.DatasetType(id)
	if err != nil {
		_ = f.eng.CloseSpace(space)
		_ = f.eng.CloseDataset(id)
		return nil, fmt.Errorf("%w: datatype of %q: %v", ErrEngineFailure, path, err)
	}
	_ = f.eng.CloseSpace(space)

	d := &Dataset{
		object:   object{id: id, path: path, typ: TypeDataset, file: f},
		class:    dt.Class,
		order:    dt.Order,
		typeSize: dt.Size,
		rank:     rank,
		dims:     dims,
	}
	d.attrs = &Attrs{parent: &d.object}
	d.token = f.addObject(d)
	return d, nil
}

// Close releases the dataset's engine identifier and deregisters the handle.
// Safe to call more than once.
func (d *Dataset) Close() error {
	if d.id <= 0 {
		return nil
	}
	err := d.file.eng.CloseDataset(d.id)
	d.id = 0
	d.file.removeObject(d.token)
	if err != nil {
		return fmt.Errorf("%w: closing dataset %q: %v", ErrEngineFailure, d.path, err)
	}
	return nil
}

// Attrs returns the attribute store of the dataset.
func (d *Dataset) Attrs() *Attrs { return d.attrs }

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return d.rank }

// Dim returns the extent of dimension i.
func (d *Dataset) Dim(i int) uint64 { return d.dims[i] }

// Dims returns a copy of the per-dimension extents.
func (d *Dataset) Dims() []uint64 {
	return append([]uint64(nil), d.dims...)
}

// Cells returns the total element count, the product of the extents.
func (d *Dataset) Cells() uint64 {
	return flatLen(d.dims)
}

// Size returns the total byte size of the dataset.
func (d *Dataset) Size() uint64 {
	return d.Cells() * uint64(d.typeSize)
}

// TypeSize returns the element size in bytes.
func (d *Dataset) TypeSize() int { return d.typeSize }

// IsInteger reports whether the element class is integer.
func (d *Dataset) IsInteger() bool { return d.class == engine.ClassInteger }

// IsFloat reports whether the element class is floating point.
func (d *Dataset) IsFloat() bool { return d.class == engine.ClassFloat }

// IsLittleEndian reports whether elements are stored little endian.
func (d *Dataset) IsLittleEndian() bool { return d.order == engine.LittleEndian }

// validateSelection checks a count/offset pair against the cached rank and
// extents before any engine resource is acquired.
func (d *Dataset) validateSelection(count, offset []uint64) error {
	if len(count) != d.rank {
		return wrapf(ErrRankMismatch, "selection rank %d on rank-%d dataset %q", len(count), d.rank, d.path)
	}
	if offset != nil && len(offset) != d.rank {
		return wrapf(ErrRankMismatch, "offset rank %d on rank-%d dataset %q", len(offset), d.rank, d.path)
	}
	for i := range count {
		start := uint64(0)
		if offset != nil {
			start = offset[i]
		}
		if count[i] == 0 {
			return wrapf(ErrEngineFailure, "empty selection in dimension %d of %q", i, d.path)
		}
		if start+count[i] > d.dims[i] {
			return wrapf(ErrEngineFailure,
				"selection out of bounds in dimension %d of %q: %d+%d > %d",
				i, d.path, start, count[i], d.dims[i])
		}
	}
	return nil
}

// transfer builds the file-space hyperslab (start = offset or zeros, count
// as given) and a matching full-extent memory space, then issues a single
// element-wise transfer. Every region descriptor acquired along the way is
// released on every path, success or failure.
func (d *Dataset) transfer(buf []float64, count, offset []uint64, write bool) (uint64, error) {
	if d.IsClosed() {
		return 0, wrapf(ErrClosedObject, "dataset %q", d.path)
	}
	if err := d.validateSelection(count, offset); err != nil {
		return 0, err
	}
	n := flatLen(count)
	if uint64(len(buf)) < n {
		return 0, wrapf(ErrEngineFailure, "buffer holds %d elements, selection needs %d", len(buf), n)
	}

	eng := d.file.eng
	fileSpace, err := eng.DatasetSpace(d.id)
	if err != nil || !fileSpace.Valid() {
		return 0, fmt.Errorf("%w: dataspace of %q: %v", ErrEngineFailure, d.path, err)
	}
	if offset != nil {
		if err := eng.SelectHyperslab(fileSpace, offset, count); err != nil {
			_ = eng.CloseSpace(fileSpace)
			return 0, fmt.Errorf("%w: selecting hyperslab in %q: %v", ErrEngineFailure, d.path, err)
		}
	}

	memSpace, err := eng.CreateSpace(count)
	if err != nil || !memSpace.Valid() {
		_ = eng.CloseSpace(fileSpace)
		return 0, fmt.Errorf("%w: creating memory space for %q: %v", ErrEngineFailure, d.path, err)
	}

	if write {
		err = eng.Write(d.id, memSpace, fileSpace, buf[:n])
	} else {
		err = eng.Read(d.id, memSpace, fileSpace, buf[:n])
	}
	_ = eng.CloseSpace(memSpace)
	_ = eng.CloseSpace(fileSpace)
	if err != nil {
		verb := "reading from"
		if write {
			verb = "writing to"
		}
		return 0, fmt.Errorf("%w: %s dataset %q: %v", ErrEngineFailure, verb, d.path, err)
	}
	return n, nil
}

// Read reads count elements starting at the origin into dst.
// Returns the number of elements transferred.
func (d *Dataset) Read(dst []float64, count []uint64) (uint64, error) {
	return d.transfer(dst, count, nil, false)
}

// ReadAt reads count elements starting at offset into dst.
func (d *Dataset) ReadAt(dst []float64, count, offset []uint64) (uint64, error) {
	return d.transfer(dst, count, offset, false)
}

// Write writes count elements from src starting at the origin.
func (d *Dataset) Write(src []float64, count []uint64) (uint64, error) {
	return d.transfer(src, count, nil, true)
}

// WriteAt writes count elements from src starting at offset.
func (d *Dataset) WriteAt(src []float64, count, offset []uint64) (uint64, error) {
	return d.transfer(src, count, offset, true)
}

// Read1D reads len(dst) elements from an assumed rank-1 dataset.
func (d *Dataset) Read1D(dst []float64) (uint64, error) {
	return d.transfer(dst, []uint64{uint64(len(dst))}, nil, false)
}

// Write1D writes len(src) elements to an assumed rank-1 dataset.
func (d *Dataset) Write1D(src []float64) (uint64, error) {
	return d.transfer(src, []uint64{uint64(len(src))}, nil, true)
}

// ReadVector reads the first extent's worth of elements as a rank-1 vector,
// regardless of the dataset's actual rank: on higher ranks it returns the
// first Dim(0) elements of the flat row-major data. This mirrors the
// historical behavior of the layer; use Read for shaped access.
func (d *Dataset) ReadVector() ([]float64, error) {
	if d.IsClosed() {
		return nil, wrapf(ErrClosedObject, "dataset %q", d.path)
	}
	flat := make([]float64, d.Cells())
	if _, err := d.transfer(flat, d.dims, nil, false); err != nil {
		return nil, err
	}
	return flat[:d.dims[0]:d.dims[0]], nil
}

// Read2D reads a single element of a rank-2 dataset. The coordinates are
// transposed: (x, y) selects file offset {y, x}. 2D-grid callers depend on
// this orientation, so it is preserved exactly.
func (d *Dataset) Read2D(x, y uint64) (float64, error) {
	var buf [1]float64
	_, err := d.transfer(buf[:], []uint64{1, 1}, []uint64{y, x}, false)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// At is shorthand for Read2D.
func (d *Dataset) At(x, y uint64) (float64, error) {
	return d.Read2D(x, y)
}

// ReadCube reads the whole dataset into a rank-3 buffer. The dataset's rank
// must be exactly 3. The flat transfer order (last axis fastest) is unpacked
// into the buffer's column-major layout.
func (d *Dataset) ReadCube() (*Buffer[float64], error) {
	if d.IsClosed() {
		return nil, wrapf(ErrClosedObject, "dataset %q", d.path)
	}
	if d.rank != 3 {
		return nil, wrapf(ErrRankMismatch, "cube read on rank-%d dataset %q", d.rank, d.path)
	}

	flat := make([]float64, d.Cells())
	if _, err := d.transfer(flat, d.dims, nil, false); err != nil {
		return nil, err
	}

	cube := NewCube[float64](d.dims[0], d.dims[1], d.dims[2])
	i := 0
	for x := uint64(0); x < d.dims[0]; x++ {
		for y := uint64(0); y < d.dims[1]; y++ {
			for z := uint64(0); z < d.dims[2]; z++ {
				cube.Set(flat[i], x, y, z)
				i++
			}
		}
	}
	return cube, nil
}

// WriteCube writes a rank-3 buffer over the whole dataset, the inverse of
// ReadCube. The buffer's extents must match the dataset's.
func (d *Dataset) WriteCube(cube *Buffer[float64]) error {
	if d.IsClosed() {
		return wrapf(ErrClosedObject, "dataset %q", d.path)
	}
	if d.rank != 3 || cube.Rank() != 3 {
		return wrapf(ErrRankMismatch, "cube write on rank-%d dataset %q with rank-%d buffer",
			d.rank, d.path, cube.Rank())
	}
	for i := 0; i < 3; i++ {
		if cube.Extent(i) != d.dims[i] {
			return wrapf(ErrRankMismatch, "cube extent %d is %d, dataset %q has %d",
				i, cube.Extent(i), d.path, d.dims[i])
		}
	}

	flat := make([]float64, d.Cells())
	i := 0
	for x := uint64(0); x < d.dims[0]; x++ {
		for y := uint64(0); y < d.dims[1]; y++ {
			for z := uint64(0); z < d.dims[2]; z++ {
				flat[i] = cube.At(x, y, z)
				i++
			}
		}
	}
	_, err := d.transfer(flat, d.dims, nil, true)
	return err
}
