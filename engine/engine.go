// Package engine defines the capability interface through which the h5obj
// layer consumes a hierarchical, handle-based storage engine. The engine's
// on-disk layout, chunk storage, and compression are its own business; this
// package only describes what the layer calls and checks.
//
// Every call returns an engine-native identifier or status. Identifiers that
// are not positive and statuses that are non-nil both denote failure, and
// the layer checks them at every call site.
package engine

// ID is an opaque engine handle. Values <= 0 are invalid.
type ID int64

// Valid reports whether the identifier refers to a live engine resource.
func (id ID) Valid() bool { return id > 0 }

// Class is the element datatype class of a dataset or attribute.
type Class int

const (
	ClassInteger Class = iota
	ClassFloat
	ClassString
)

// Order is the stored byte order of a datatype.
type Order int

const (
	LittleEndian Order = iota
	BigEndian
)

// Kind classifies a child of a group during enumeration.
type Kind int

const (
	KindUnknown Kind = iota
	KindGroup
	KindDataset
	KindNamedType
)

// Datatype describes the element type of a dataset or attribute.
type Datatype struct {
	Class Class
	Order Order
	Size  int // element size in bytes
}

// Predefined native datatypes used by the layer's single-numeric-type policy.
var (
	NativeInt32  = Datatype{Class: ClassInteger, Order: LittleEndian, Size: 4}
	NativeInt64  = Datatype{Class: ClassInteger, Order: LittleEndian, Size: 8}
	NativeFloat  = Datatype{Class: ClassFloat, Order: LittleEndian, Size: 4}
	NativeDouble = Datatype{Class: ClassFloat, Order: LittleEndian, Size: 8}
)

// NativeString returns a fixed-length string datatype of the given byte size.
func NativeString(size int) Datatype {
	return Datatype{Class: ClassString, Order: LittleEndian, Size: size}
}

// Engine is the storage capability surface consumed by the layer.
//
// Engines are handle-based and single-threaded: the caller serializes all
// access, and the engine performs no lifetime tracking of its own. Closing a
// file does not invalidate outstanding object handles; the layer above is
// responsible for cascading teardown.
type Engine interface {
	// Files.
	CreateFile(path string) (ID, error)
	OpenFile(path string, readOnly bool) (ID, error)
	CloseFile(id ID) error

	// Groups and datasets, addressed by absolute slash-separated paths.
	OpenGroup(file ID, path string) (ID, error)
	CreateGroup(file ID, path string) (ID, error)
	CloseGroup(id ID) error
	OpenDataset(file ID, path string) (ID, error)
	CreateDataset(file ID, path string, dims []uint64) (ID, error)
	CloseDataset(id ID) error

	// Link and child enumeration over a group handle.
	DeleteLink(obj ID, name string) error
	Children(obj ID) ([]string, error)
	ChildKind(obj ID, name string) (Kind, error)

	// Region descriptors. DatasetSpace returns a fresh descriptor covering
	// the dataset's full extent; CreateSpace builds one from explicit
	// extents. SelectHyperslab restricts a descriptor to offset + count.
	DatasetSpace(ds ID) (ID, error)
	CreateSpace(dims []uint64) (ID, error)
	SelectHyperslab(space ID, start, count []uint64) error
	SpaceRank(space ID) (int, error)
	SpaceDims(space ID) ([]uint64, error)
	SpaceElements(space ID) (uint64, error)
	CloseSpace(id ID) error

	// Element datatype of a dataset.
	DatasetType(ds ID) (Datatype, error)

	// Element transfer between a memory region and a file region, using the
	// fixed native float64 element type. The memory space must describe
	// exactly as many elements as the file-space selection.
	Read(ds, memSpace, fileSpace ID, dst []float64) error
	Write(ds, memSpace, fileSpace ID, src []float64) error

	// Named attributes on a group or dataset.
	AttrNames(obj ID) ([]string, error)
	OpenAttr(obj ID, name string) (ID, error)
	CreateAttr(obj ID, name string, dt Datatype, space ID) (ID, error)
	CloseAttr(id ID) error
	AttrType(a ID) (Datatype, error)
	AttrSpace(a ID) (ID, error)
	AttrRead(a ID, dst []float64) error
	AttrWrite(a ID, src []float64) error
	AttrReadRaw(a ID, dst []byte) error
	AttrWriteRaw(a ID, src []byte) error
}
