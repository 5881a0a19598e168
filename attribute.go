package h5obj

import (
	"bytes"
	"fmt"

	"github.com/scigolib/h5obj/engine"
	"github.com/scigolib/h5obj/internal/utils"
)

// Attrs is the attribute store of a Group or Dataset: a thin capability
// object referencing its parent handle. It owns no engine resources itself
// and is valid exactly as long as the parent is. Every Attribute it produces
// is a fresh, independently closable handle.
type Attrs struct {
	parent *object
}

func (a *Attrs) engine() engine.Engine { return a.parent.file.eng }

// Names enumerates the attribute names on the parent object.
func (a *Attrs) Names() ([]string, error) {
	if a.parent.IsClosed() {
		return nil, wrapf(ErrClosedObject, "object %q", a.parent.path)
	}
	names, err := a.engine().AttrNames(a.parent.id)
	if err != nil {
		return nil, fmt.Errorf("%w: iterating attributes of %q: %v", ErrEngineFailure, a.parent.path, err)
	}
	return names, nil
}

// Has reports whether an attribute with the given name exists. There is no
// direct existence probe; this is a linear scan over Names.
func (a *Attrs) Has(name string) bool {
	if name == "" {
		return false
	}
	names, err := a.Names()
	if err != nil {
		return false
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Attribute opens the named attribute as a fresh handle. Multiple handles
// for the same name are independent views, not aliases.
func (a *Attrs) Attribute(name string) (*Attribute, error) {
	return newAttribute(a, name)
}

// createValue builds a region descriptor, creates the attribute, writes the
// numeric value(s), and releases the descriptor and the attribute
// identifier. Every identifier acquired before a failure is released before
// the error propagates.
func (a *Attrs) createValue(name string, dt engine.Datatype, values []float64, dims []uint64) error {
	if name == "" {
		return wrapf(ErrEmptyArgument, "attribute name")
	}
	if a.parent.IsClosed() {
		return wrapf(ErrClosedObject, "object %q", a.parent.path)
	}

	eng := a.engine()
	space, err := eng.CreateSpace(dims)
	if err != nil || !space.Valid() {
		return fmt.Errorf("%w: creating dataspace for attribute %q: %v", ErrEngineFailure, name, err)
	}
	attr, err := eng.CreateAttr(a.parent.id, name, dt, space)
	if err != nil || !attr.Valid() {
		_ = eng.CloseSpace(space)
		return fmt.Errorf("%w: creating attribute %q on %q: %v", ErrEngineFailure, name, a.parent.path, err)
	}
	err = eng.AttrWrite(attr, values)
	_ = eng.CloseSpace(space)
	_ = eng.CloseAttr(attr)
	if err != nil {
		return fmt.Errorf("%w: writing attribute %q: %v", ErrEngineFailure, name, err)
	}
	return nil
}

// CreateInt creates a scalar 32-bit integer attribute.
func (a *Attrs) CreateInt(name string, value int32) error {
	return a.createValue(name, engine.NativeInt32, []float64{float64(value)}, []uint64{1})
}

// CreateLong creates a scalar 64-bit integer attribute.
func (a *Attrs) CreateLong(name string, value int64) error {
	return a.createValue(name, engine.NativeInt64, []float64{float64(value)}, []uint64{1})
}

// CreateFloat creates a scalar 32-bit float attribute.
func (a *Attrs) CreateFloat(name string, value float32) error {
	return a.createValue(name, engine.NativeFloat, []float64{float64(value)}, []uint64{1})
}

// CreateDouble creates a scalar 64-bit float attribute.
func (a *Attrs) CreateDouble(name string, value float64) error {
	return a.createValue(name, engine.NativeDouble, []float64{value}, []uint64{1})
}

// CreateIntArray creates a rank-1 32-bit integer array attribute.
func (a *Attrs) CreateIntArray(name string, values []int32) error {
	widened := make([]float64, len(values))
	for i, v := range values {
		widened[i] = float64(v)
	}
	return a.createValue(name, engine.NativeInt32, widened, []uint64{uint64(len(values))})
}

// CreateDoubleArray creates a rank-1 64-bit float array attribute.
func (a *Attrs) CreateDoubleArray(name string, values []float64) error {
	return a.createValue(name, engine.NativeDouble,
		append([]float64(nil), values...), []uint64{uint64(len(values))})
}

// CreateString creates a fixed-length string attribute whose stored size is
// the byte length of value.
func (a *Attrs) CreateString(name, value string) error {
	if name == "" {
		return wrapf(ErrEmptyArgument, "attribute name")
	}
	if a.parent.IsClosed() {
		return wrapf(ErrClosedObject, "object %q", a.parent.path)
	}

	eng := a.engine()
	space, err := eng.CreateSpace([]uint64{1})
	if err != nil || !space.Valid() {
		return fmt.Errorf("%w: creating dataspace for attribute %q: %v", ErrEngineFailure, name, err)
	}
	attr, err := eng.CreateAttr(a.parent.id, name, engine.NativeString(len(value)), space)
	if err != nil || !attr.Valid() {
		_ = eng.CloseSpace(space)
		return fmt.Errorf("%w: creating attribute %q on %q: %v", ErrEngineFailure, name, a.parent.path, err)
	}
	err = eng.AttrWriteRaw(attr, []byte(value))
	_ = eng.CloseSpace(space)
	_ = eng.CloseAttr(attr)
	if err != nil {
		return fmt.Errorf("%w: writing attribute %q: %v", ErrEngineFailure, name, err)
	}
	return nil
}

// ReadDouble reads a scalar attribute as float64. It never returns an
// error: on any failure the sentinel -1 and false are returned.
func (a *Attrs) ReadDouble(name string) (float64, bool) {
	if name == "" || a.parent.IsClosed() {
		return -1, false
	}
	eng := a.engine()
	id, err := eng.OpenAttr(a.parent.id, name)
	if err != nil || !id.Valid() {
		return -1, false
	}
	var buf [1]float64
	err = eng.AttrRead(id, buf[:])
	_ = eng.CloseAttr(id)
	if err != nil {
		return -1, false
	}
	return buf[0], true
}

// ReadInt reads a scalar attribute as int32, narrowing through the
// double-precision read.
func (a *Attrs) ReadInt(name string) (int32, bool) {
	v, ok := a.ReadDouble(name)
	return int32(v), ok
}

// ReadLong reads a scalar attribute as int64, narrowing through the
// double-precision read.
func (a *Attrs) ReadLong(name string) (int64, bool) {
	v, ok := a.ReadDouble(name)
	return int64(v), ok
}

// ReadFloat reads a scalar attribute as float32, narrowing through the
// double-precision read.
func (a *Attrs) ReadFloat(name string) (float32, bool) {
	v, ok := a.ReadDouble(name)
	return float32(v), ok
}

// ReadString reads a fixed-length string attribute. The buffer is sized as
// the stored type size times the product of all extent dimensions, and the
// result is truncated at the first NUL. Multi-dimensional string attributes
// are only handled to that extent, a known limitation. Returns "" and false
// on any failure, with all partially acquired identifiers released.
func (a *Attrs) ReadString(name string) (string, bool) {
	if name == "" || a.parent.IsClosed() {
		return "", false
	}
	eng := a.engine()

	id, err := eng.OpenAttr(a.parent.id, name)
	if err != nil || !id.Valid() {
		return "", false
	}
	dt, err := eng.AttrType(id)
	if err != nil {
		_ = eng.CloseAttr(id)
		return "", false
	}
	space, err := eng.AttrSpace(id)
	if err != nil || !space.Valid() {
		_ = eng.CloseAttr(id)
		return "", false
	}
	dims, err := eng.SpaceDims(space)
	if err != nil {
		_ = eng.CloseSpace(space)
		_ = eng.CloseAttr(id)
		return "", false
	}

	total := uint64(dt.Size)
	for _, d := range dims {
		total *= d
	}
	buf := utils.GetBuffer(int(total))
	defer utils.ReleaseBuffer(buf)

	err = eng.AttrReadRaw(id, buf)
	_ = eng.CloseSpace(space)
	_ = eng.CloseAttr(id)
	if err != nil {
		return "", false
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), true
}

// ReadDoubleArray reads an array attribute as float64, sized by the
// attribute's element count. Returns nil and false on any failure, never a
// non-nil result together with false.
func (a *Attrs) ReadDoubleArray(name string) ([]float64, bool) {
	if name == "" || a.parent.IsClosed() {
		return nil, false
	}
	eng := a.engine()

	id, err := eng.OpenAttr(a.parent.id, name)
	if err != nil || !id.Valid() {
		return nil, false
	}
	space, err := eng.AttrSpace(id)
	if err != nil || !space.Valid() {
		_ = eng.CloseAttr(id)
		return nil, false
	}
	n, err := eng.SpaceElements(space)
	if err != nil {
		_ = eng.CloseSpace(space)
		_ = eng.CloseAttr(id)
		return nil, false
	}

	out := make([]float64, n)
	err = eng.AttrRead(id, out)
	_ = eng.CloseSpace(space)
	_ = eng.CloseAttr(id)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Attribute is a resource handle over a named attribute. It holds no engine
// resource exclusively: the identifier is (re)opened lazily against the
// parent's identifier and the name, and Close only releases that transient
// identifier.
type Attribute struct {
	object
	name   string
	parent *object
}

func newAttribute(store *Attrs, name string) (*Attribute, error) {
	if name == "" {
		return nil, wrapf(ErrEmptyArgument, "attribute name")
	}
	if store.parent.IsClosed() {
		return nil, wrapf(ErrClosedObject, "object %q", store.parent.path)
	}

	at := &Attribute{
		object: object{path: store.parent.path, typ: TypeAttribute, file: store.parent.file},
		name:   name,
		parent: store.parent,
	}
	if err := at.open(); err != nil {
		return nil, err
	}
	return at, nil
}

// open (re)acquires the attribute identifier and re-registers the handle
// with the File, so cascading teardown always reaches a live attribute.
// Opening an already open attribute has no effect.
func (a *Attribute) open() error {
	if a.id > 0 {
		return nil
	}
	if a.parent.IsClosed() {
		return wrapf(ErrClosedObject, "parent of attribute %q", a.name)
	}
	id, err := a.file.eng.OpenAttr(a.parent.id, a.name)
	if err != nil {
		return fmt.Errorf("%w: attribute %q on %q: %v", ErrNotFound, a.name, a.parent.path, err)
	}
	if !id.Valid() {
		return wrapf(ErrNotFound, "attribute %q on %q: engine returned identifier %d", a.name, a.parent.path, id)
	}
	a.id = id
	a.token = a.file.addObject(a)
	return nil
}

// Close releases the transient attribute identifier and deregisters the
// handle. Safe to call more than once.
func (a *Attribute) Close() error {
	if a.id <= 0 {
		return nil
	}
	err := a.file.eng.CloseAttr(a.id)
	a.id = 0
	a.file.removeObject(a.token)
	if err != nil {
		return fmt.Errorf("%w: closing attribute %q: %v", ErrEngineFailure, a.name, err)
	}
	return nil
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.name }

func (a *Attribute) readScalar() (float64, error) {
	if err := a.open(); err != nil {
		return 0, err
	}
	var buf [1]float64
	if err := a.file.eng.AttrRead(a.id, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: reading attribute %q: %v", ErrEngineFailure, a.name, err)
	}
	return buf[0], nil
}

// ReadDouble reads the attribute's scalar value as float64.
func (a *Attribute) ReadDouble() (float64, error) {
	return a.readScalar()
}

// ReadFloat reads the attribute's scalar value as float32.
func (a *Attribute) ReadFloat() (float32, error) {
	v, err := a.readScalar()
	return float32(v), err
}

// ReadInt reads the attribute's scalar value as int32.
func (a *Attribute) ReadInt() (int32, error) {
	v, err := a.readScalar()
	return int32(v), err
}

// ReadLong reads the attribute's scalar value as int64.
func (a *Attribute) ReadLong() (int64, error) {
	v, err := a.readScalar()
	return int64(v), err
}
