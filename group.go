package h5obj

import (
	"fmt"

	"github.com/scigolib/h5obj/engine"
)

// Group is a resource handle over a storage group. It resolves relative
// child paths against its own absolute path and acts as a factory for child
// groups and datasets.
type Group struct {
	object
	attrs *Attrs
}

// openGroup opens the group at an absolute path. The pinned root group is
// opened with register=false and never enters the registry.
func openGroup(f *File, path string, register bool) (*Group, error) {
	if path == "" {
		return nil, wrapf(ErrEmptyArgument, "group path")
	}

	id, err := f.eng.OpenGroup(f.id, path)
	if err != nil {
		return nil, fmt.Errorf("%w: group %q: %v", ErrNotFound, path, err)
	}
	if !id.Valid() {
		return nil, wrapf(ErrNotFound, "group %q: engine returned identifier %d", path, id)
	}

	g := &Group{object: object{id: id, path: path, typ: TypeGroup, file: f}}
	g.attrs = &Attrs{parent: &g.object}
	if register {
		g.token = f.addObject(g)
	}
	return g, nil
}

// Close releases the group's engine identifier and deregisters the handle.
// Safe to call more than once.
func (g *Group) Close() error {
	if g.id <= 0 {
		return nil
	}
	err := g.file.eng.CloseGroup(g.id)
	g.id = 0
	g.file.removeObject(g.token)
	if err != nil {
		return fmt.Errorf("%w: closing group %q: %v", ErrEngineFailure, g.path, err)
	}
	return nil
}

// Attrs returns the attribute store of the group. The store is valid exactly
// as long as the group handle is.
func (g *Group) Attrs() *Attrs { return g.attrs }

// relativePath resolves a child name against this group. A name starting
// with the path separator is absolute and returned unchanged; anything else
// is appended to the group's path normalized to end in exactly one
// separator.
func (g *Group) relativePath(name string) string {
	if name == "" {
		return g.groupPath()
	}
	if name[0] == '/' {
		return name
	}
	return g.groupPath() + name
}

// Group opens a child group by relative or absolute path.
func (g *Group) Group(name string) (*Group, error) {
	if g.IsClosed() {
		return nil, wrapf(ErrClosedObject, "group %q", g.path)
	}
	return g.file.Group(g.relativePath(name))
}

// Dataset opens a child dataset by relative or absolute path.
func (g *Group) Dataset(name string) (*Dataset, error) {
	if g.IsClosed() {
		return nil, wrapf(ErrClosedObject, "group %q", g.path)
	}
	return g.file.Dataset(g.relativePath(name))
}

// CreateGroup creates and opens a child group by relative or absolute path.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if name == "" {
		return nil, wrapf(ErrEmptyArgument, "group name")
	}
	if g.IsClosed() {
		return nil, wrapf(ErrClosedObject, "group %q", g.path)
	}
	return g.file.CreateGroup(g.relativePath(name))
}

// CreateDataset creates and opens a child dataset by relative or absolute
// path, with the given per-dimension extents.
func (g *Group) CreateDataset(name string, extents []uint64) (*Dataset, error) {
	if name == "" {
		return nil, wrapf(ErrEmptyArgument, "dataset name")
	}
	if g.IsClosed() {
		return nil, wrapf(ErrClosedObject, "group %q", g.path)
	}
	return g.file.CreateDataset(g.relativePath(name), extents)
}

// ItemNames enumerates the immediate children of the group whose type is in
// filter. A child whose type query is inconclusive is skipped; a failure of
// the enumeration itself is an engine failure.
func (g *Group) ItemNames(filter Type) ([]string, error) {
	if g.IsClosed() {
		return nil, wrapf(ErrClosedObject, "group %q", g.path)
	}

	names, err := g.file.eng.Children(g.id)
	if err != nil {
		return nil, fmt.Errorf("%w: iterating group %q: %v", ErrEngineFailure, g.path, err)
	}

	var out []string
	for _, name := range names {
		kind, err := g.file.eng.ChildKind(g.id, name)
		if err != nil {
			continue
		}
		var t Type
		switch kind {
		case engine.KindGroup:
			t = TypeGroup
		case engine.KindDataset:
			t = TypeDataset
		case engine.KindNamedType:
			t = TypeAttribute
		default:
			continue
		}
		if t&filter != 0 {
			out = append(out, name)
		}
	}
	return out, nil
}

// SubGroups returns the names of all immediate child groups.
func (g *Group) SubGroups() ([]string, error) {
	return g.ItemNames(TypeGroup)
}

// SubDatasets returns the names of all immediate child datasets.
func (g *Group) SubDatasets() ([]string, error) {
	return g.ItemNames(TypeDataset)
}

// DeleteLink removes the named child link from the group. The underlying
// storage is reclaimed by the engine, not by this layer.
func (g *Group) DeleteLink(name string) error {
	if name == "" {
		return wrapf(ErrEmptyArgument, "link name")
	}
	if g.IsClosed() {
		return wrapf(ErrClosedObject, "group %q", g.path)
	}
	if err := g.file.eng.DeleteLink(g.id, name); err != nil {
		return fmt.Errorf("%w: deleting link %q in group %q: %v", ErrEngineFailure, name, g.path, err)
	}
	return nil
}
