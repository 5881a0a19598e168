package memengine

import (
	"github.com/batchatco/go-thrower"

	"github.com/scigolib/h5obj/engine"
)

func (n *node) attribute(name string) *attr {
	for _, a := range n.attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

// AttrNames enumerates the attribute names of a group or dataset in
// creation order.
func (e *Engine) AttrNames(obj engine.ID) (names []string, err error) {
	defer thrower.RecoverError(&err)
	h := e.getObject(obj)
	names = make([]string, 0, len(h.node.attrs))
	for _, a := range h.node.attrs {
		names = append(names, a.name)
	}
	return names, nil
}

// OpenAttr opens the named attribute of a group or dataset.
func (e *Engine) OpenAttr(obj engine.ID, name string) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.getObject(obj)
	a := h.node.attribute(name)
	if a == nil {
		throwf("object %q has no attribute %q", h.node.name, name)
	}
	return e.alloc(&handle{kind: hAttr, attr: a}), nil
}

// CreateAttr creates an attribute with the given datatype and the extents of
// the region descriptor. String attributes allocate a raw byte payload of
// the datatype size per element; numeric ones a float64 per element.
func (e *Engine) CreateAttr(obj engine.ID, name string, dt engine.Datatype, spaceID engine.ID) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.getObject(obj)
	sp := e.get(spaceID, hSpace).space
	if name == "" {
		throwf("empty attribute name")
	}
	if h.node.attribute(name) != nil {
		throwf("object %q already has attribute %q", h.node.name, name)
	}

	n := elementCount(sp.dims)
	a := &attr{
		name: name,
		dt:   dt,
		dims: append([]uint64(nil), sp.dims...),
	}
	if dt.Class == engine.ClassString {
		a.raw = make([]byte, n*uint64(dt.Size))
	} else {
		a.num = make([]float64, n)
	}
	h.node.attrs = append(h.node.attrs, a)
	return e.alloc(&handle{kind: hAttr, attr: a}), nil
}

// CloseAttr releases an attribute identifier.
func (e *Engine) CloseAttr(id engine.ID) error {
	return e.release(id, hAttr)
}

// AttrType returns the datatype of an attribute.
func (e *Engine) AttrType(a engine.ID) (dt engine.Datatype, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	return h.attr.dt, nil
}

// AttrSpace returns a fresh full-extent descriptor for an attribute.
func (e *Engine) AttrSpace(a engine.ID) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	sp := &space{dims: append([]uint64(nil), h.attr.dims...)}
	return e.alloc(&handle{kind: hSpace, space: sp}), nil
}

// AttrRead copies the numeric payload of an attribute into dst.
func (e *Engine) AttrRead(a engine.ID, dst []float64) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	if h.attr.num == nil {
		throwf("attribute %q is not numeric", h.attr.name)
	}
	if len(dst) < len(h.attr.num) {
		throwf("buffer holds %d elements, attribute %q has %d", len(dst), h.attr.name, len(h.attr.num))
	}
	copy(dst, h.attr.num)
	return nil
}

// AttrWrite copies src over the numeric payload of an attribute.
func (e *Engine) AttrWrite(a engine.ID, src []float64) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	if h.attr.num == nil {
		throwf("attribute %q is not numeric", h.attr.name)
	}
	if len(src) != len(h.attr.num) {
		throwf("attribute %q holds %d elements, got %d", h.attr.name, len(h.attr.num), len(src))
	}
	copy(h.attr.num, src)
	return nil
}

// AttrReadRaw copies the raw byte payload of an attribute into dst.
func (e *Engine) AttrReadRaw(a engine.ID, dst []byte) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	if h.attr.raw == nil {
		throwf("attribute %q has no raw payload", h.attr.name)
	}
	if len(dst) < len(h.attr.raw) {
		throwf("buffer holds %d bytes, attribute %q has %d", len(dst), h.attr.name, len(h.attr.raw))
	}
	copy(dst, h.attr.raw)
	return nil
}

// AttrWriteRaw copies src over the raw byte payload of an attribute.
func (e *Engine) AttrWriteRaw(a engine.ID, src []byte) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(a, hAttr)
	if h.attr.raw == nil {
		throwf("attribute %q has no raw payload", h.attr.name)
	}
	if len(src) > len(h.attr.raw) {
		throwf("attribute %q holds %d bytes, got %d", h.attr.name, len(h.attr.raw), len(src))
	}
	copy(h.attr.raw, src)
	return nil
}
