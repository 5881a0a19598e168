// Package memengine is an in-memory storage engine behind the engine
// capability interface. The object tree lives on the heap; a snapshot of the
// tree is persisted to the file path on close so that files survive a
// close/reopen cycle.
//
// Error handling uses panic/recover through the thrower package: internal
// helpers throw, every exported method recovers into its error return.
package memengine

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-thrower"

	"github.com/scigolib/h5obj/engine"
)

type kind int

const (
	hFile kind = iota
	hGroup
	hDataset
	hSpace
	hAttr
)

func (k kind) String() string {
	switch k {
	case hFile:
		return "file"
	case hGroup:
		return "group"
	case hDataset:
		return "dataset"
	case hSpace:
		return "space"
	case hAttr:
		return "attribute"
	}
	return "unknown"
}

// node is a vertex of the object tree: a group with ordered children, or a
// dataset with a flat row-major element array.
type node struct {
	name     string
	dataset  bool
	children []*node // groups only, creation order
	dims     []uint64
	dt       engine.Datatype
	data     []float64 // datasets only, row-major, last axis fastest
	attrs    []*attr
}

type attr struct {
	name string
	dt   engine.Datatype
	dims []uint64
	num  []float64 // numeric payload
	raw  []byte    // string payload
}

type file struct {
	path     string
	readOnly bool
	root     *node
}

// space is a region descriptor: full extents plus an optional hyperslab
// selection. A nil start means the full extent is selected.
type space struct {
	dims  []uint64
	start []uint64
	count []uint64
}

// handle is one entry of the identifier table. Exactly one of the payload
// fields is set, matching the kind.
type handle struct {
	kind  kind
	file  *file
	node  *node
	attr  *attr
	space *space
}

// Engine implements engine.Engine over heap-allocated object trees.
// It is single-threaded, like every engine behind the capability interface.
type Engine struct {
	handles map[engine.ID]*handle
	nextID  engine.ID
}

// New returns an empty engine with no open handles.
func New() *Engine {
	return &Engine{handles: make(map[engine.ID]*handle)}
}

func throwf(format string, args ...interface{}) {
	thrower.Throw(fmt.Errorf(format, args...))
}

func (e *Engine) alloc(h *handle) engine.ID {
	e.nextID++
	e.handles[e.nextID] = h
	return e.nextID
}

// get resolves an identifier to a handle of the expected kind, throwing on a
// stale identifier or a kind mismatch.
func (e *Engine) get(id engine.ID, k kind) *handle {
	h, ok := e.handles[id]
	if !ok {
		throwf("identifier %d is not open", id)
	}
	if h.kind != k {
		throwf("identifier %d is a %s, not a %s", id, h.kind, k)
	}
	return h
}

// getObject resolves an identifier that may be a group or a dataset.
func (e *Engine) getObject(id engine.ID) *handle {
	h, ok := e.handles[id]
	if !ok {
		throwf("identifier %d is not open", id)
	}
	if h.kind != hGroup && h.kind != hDataset {
		throwf("identifier %d is a %s, not a group or dataset", id, h.kind)
	}
	return h
}

func (e *Engine) release(id engine.ID, k kind) (err error) {
	defer thrower.RecoverError(&err)
	e.get(id, k)
	delete(e.handles, id)
	return nil
}

// splitPath turns an absolute slash-separated path into its segments.
// "/" yields no segments.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// lookup walks an absolute path from the root, throwing on a missing
// segment or on traversal through a dataset.
func lookup(root *node, path string) *node {
	cur := root
	for _, seg := range splitPath(path) {
		if cur.dataset {
			throwf("path %q traverses dataset %q", path, cur.name)
		}
		next := cur.child(seg)
		if next == nil {
			throwf("path %q: no such object %q", path, seg)
		}
		cur = next
	}
	return cur
}

// resolveParent splits a path into its parent node and leaf name. The parent
// must already exist and be a group.
func resolveParent(root *node, path string) (*node, string) {
	segs := splitPath(path)
	if len(segs) == 0 {
		throwf("path %q has no leaf name", path)
	}
	parent := root
	for _, seg := range segs[:len(segs)-1] {
		next := parent.child(seg)
		if next == nil {
			throwf("path %q: no such group %q", path, seg)
		}
		if next.dataset {
			throwf("path %q traverses dataset %q", path, seg)
		}
		parent = next
	}
	return parent, segs[len(segs)-1]
}

// CreateFile creates an empty object tree for path and writes its first
// snapshot, so the path exists on disk immediately.
func (e *Engine) CreateFile(path string) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	if path == "" {
		throwf("empty file path")
	}
	f := &file{path: path, root: &node{name: "/"}}
	if werr := writeSnapshot(f); werr != nil {
		thrower.Throw(werr)
	}
	return e.alloc(&handle{kind: hFile, file: f}), nil
}

// OpenFile loads the snapshot at path into a fresh object tree.
func (e *Engine) OpenFile(path string, readOnly bool) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	if path == "" {
		throwf("empty file path")
	}
	root, lerr := loadSnapshot(path)
	if lerr != nil {
		thrower.Throw(lerr)
	}
	f := &file{path: path, readOnly: readOnly, root: root}
	return e.alloc(&handle{kind: hFile, file: f}), nil
}

// CloseFile releases the file identifier, writing a snapshot first unless
// the file was opened read-only. Outstanding object handles stay usable;
// the layer above cascades their teardown.
func (e *Engine) CloseFile(id engine.ID) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(id, hFile)
	if !h.file.readOnly {
		if werr := writeSnapshot(h.file); werr != nil {
			delete(e.handles, id)
			thrower.Throw(werr)
		}
	}
	delete(e.handles, id)
	return nil
}

// OpenGroup opens the group at an absolute path within the file.
func (e *Engine) OpenGroup(fileID engine.ID, path string) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(fileID, hFile)
	n := lookup(h.file.root, path)
	if n.dataset {
		throwf("path %q is a dataset, not a group", path)
	}
	return e.alloc(&handle{kind: hGroup, node: n}), nil
}

// CreateGroup creates a group at an absolute path. The parent must exist and
// the leaf name must be free.
func (e *Engine) CreateGroup(fileID engine.ID, path string) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(fileID, hFile)
	if h.file.readOnly {
		throwf("file %q is read-only", h.file.path)
	}
	parent, name := resolveParent(h.file.root, path)
	if parent.child(name) != nil {
		throwf("path %q already exists", path)
	}
	n := &node{name: name}
	parent.children = append(parent.children, n)
	return e.alloc(&handle{kind: hGroup, node: n}), nil
}

// CloseGroup releases a group identifier.
func (e *Engine) CloseGroup(id engine.ID) error {
	return e.release(id, hGroup)
}

// OpenDataset opens the dataset at an absolute path within the file.
func (e *Engine) OpenDataset(fileID engine.ID, path string) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(fileID, hFile)
	n := lookup(h.file.root, path)
	if !n.dataset {
		throwf("path %q is a group, not a dataset", path)
	}
	return e.alloc(&handle{kind: hDataset, node: n}), nil
}

// CreateDataset creates a dataset with the given extents at an absolute
// path. Elements are native float64, zero-initialized.
func (e *Engine) CreateDataset(fileID engine.ID, path string, dims []uint64) (id engine.ID, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(fileID, hFile)
	if h.file.readOnly {
		throwf("file %q is read-only", h.file.path)
	}
	if len(dims) == 0 {
		throwf("dataset %q needs at least one extent", path)
	}
	n := elementCount(dims)
	parent, name := resolveParent(h.file.root, path)
	if parent.child(name) != nil {
		throwf("path %q already exists", path)
	}
	ds := &node{
		name:    name,
		dataset: true,
		dims:    append([]uint64(nil), dims...),
		dt:      engine.NativeDouble,
		data:    make([]float64, n),
	}
	parent.children = append(parent.children, ds)
	return e.alloc(&handle{kind: hDataset, node: ds}), nil
}

// CloseDataset releases a dataset identifier.
func (e *Engine) CloseDataset(id engine.ID) error {
	return e.release(id, hDataset)
}

// DatasetType returns the element datatype of a dataset.
func (e *Engine) DatasetType(ds engine.ID) (dt engine.Datatype, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(ds, hDataset)
	return h.node.dt, nil
}

// DeleteLink unlinks the named child of a group. The subtree becomes
// unreachable; outstanding handles into it stay valid until closed.
func (e *Engine) DeleteLink(obj engine.ID, name string) (err error) {
	defer thrower.RecoverError(&err)
	h := e.get(obj, hGroup)
	for i, c := range h.node.children {
		if c.name == name {
			h.node.children = append(h.node.children[:i], h.node.children[i+1:]...)
			return nil
		}
	}
	throwf("group %q has no child %q", h.node.name, name)
	return nil
}

// Children enumerates the immediate child names of a group in creation
// order.
func (e *Engine) Children(obj engine.ID) (names []string, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(obj, hGroup)
	names = make([]string, 0, len(h.node.children))
	for _, c := range h.node.children {
		names = append(names, c.name)
	}
	return names, nil
}

// ChildKind classifies the named child of a group.
func (e *Engine) ChildKind(obj engine.ID, name string) (k engine.Kind, err error) {
	defer thrower.RecoverError(&err)
	h := e.get(obj, hGroup)
	c := h.node.child(name)
	if c == nil {
		throwf("group %q has no child %q", h.node.name, name)
	}
	if c.dataset {
		return engine.KindDataset, nil
	}
	return engine.KindGroup, nil
}
