// Package h5obj is a resource-lifecycle and I/O-shaping layer over a
// hierarchical, handle-based scientific storage engine. The engine itself is
// consumed through the capability interface in package engine; this layer
// owns the ownership graph (files, groups, datasets, attributes), cascades
// teardown from a File to every handle opened beneath it, and translates
// between flat strided buffers and on-disk region selections.
//
// Everything here is single-threaded and blocking. Callers sharing a File
// across goroutines must serialize access externally.
package h5obj

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/h5obj/engine"
	"github.com/scigolib/h5obj/internal/memengine"
)

// closer is what the File's registry tracks: any handle that can be
// force-closed during cascading teardown.
type closer interface {
	Close() error
}

// File owns a storage-engine file identifier, the pinned root group, and the
// registry of every live handle opened beneath it. Closing the File destroys
// all outstanding handles before releasing the file identifier.
type File struct {
	eng     engine.Engine
	id      engine.ID
	path    string
	root    *Group
	objects map[uint64]closer
	nextTok uint64
}

// Open opens the file at path against the default engine, creating it if it
// does not exist. readOnly opens an existing file without write intent.
func Open(path string, readOnly bool) (*File, error) {
	return OpenWith(memengine.New(), path, readOnly)
}

// OpenWith opens the file at path against an explicit storage engine.
// The file is created if the path does not exist yet.
func OpenWith(eng engine.Engine, path string, readOnly bool) (*File, error) {
	if path == "" {
		return nil, wrapf(ErrEmptyArgument, "filename")
	}

	var (
		id  engine.ID
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		id, err = eng.OpenFile(path, readOnly)
	} else {
		id, err = eng.CreateFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening file %q: %v", ErrEngineFailure, path, err)
	}
	if !id.Valid() {
		return nil, wrapf(ErrEngineFailure, "opening file %q: engine returned identifier %d", path, id)
	}

	f := &File{
		eng:     eng,
		id:      id,
		path:    path,
		objects: make(map[uint64]closer),
	}

	// The root group is opened eagerly and pinned: it never enters the
	// registry and cannot be closed by callers independently of the File.
	root, err := openGroup(f, "/", false)
	if err != nil {
		_ = eng.CloseFile(id)
		return nil, err
	}
	f.root = root

	log.WithFields(logrus.Fields{"path": path, "readOnly": readOnly}).Debug("file opened")
	return f, nil
}

// Root returns the pinned root group.
func (f *File) Root() *Group { return f.root }

// Pathname returns the path the file was opened with.
func (f *File) Pathname() string { return f.path }

// Filename returns only the base name of the file.
func (f *File) Filename() string {
	idx := strings.LastIndexByte(f.path, '/')
	if idx < 0 {
		return f.path
	}
	return f.path[idx+1:]
}

// IsClosed reports whether the file identifier has been released.
func (f *File) IsClosed() bool { return f.id <= 0 }

// LiveObjects returns the number of handles currently tracked by the
// registry. The pinned root group is never counted.
func (f *File) LiveObjects() int { return len(f.objects) }

// addObject registers a handle and returns its registry token. Registration
// happens exactly once, in the handle constructors, so no duplicate probe is
// needed.
func (f *File) addObject(obj closer) uint64 {
	f.nextTok++
	f.objects[f.nextTok] = obj
	return f.nextTok
}

// removeObject drops a handle from the registry. Removing a token that is
// absent (already removed during cascading close) or zero (the pinned root)
// is a no-op.
func (f *File) removeObject(token uint64) {
	delete(f.objects, token)
}

// Close destroys every live handle below the file and then releases the file
// identifier. It iterates a defensive copy of the registry, since each
// handle's Close deregisters itself and mutates the live map. Safe to call
// more than once.
func (f *File) Close() error {
	live := make([]closer, 0, len(f.objects))
	for _, obj := range f.objects {
		live = append(live, obj)
	}
	for _, obj := range live {
		_ = obj.Close()
	}
	f.objects = make(map[uint64]closer)

	if f.root != nil {
		_ = f.root.Close() // token zero, deregistration is a no-op
		f.root = nil
	}

	var err error
	if f.id > 0 {
		err = f.eng.CloseFile(f.id)
		log.WithField("path", f.path).Debug("file closed")
	}
	f.id = 0
	if err != nil {
		return wrapf(ErrEngineFailure, "closing file %q: %v", f.path, err)
	}
	return nil
}

// Group opens the group at the given absolute path. The handle registers
// itself with the file and is destroyed when the file closes, if not before.
func (f *File) Group(path string) (*Group, error) {
	if f.IsClosed() {
		return nil, wrapf(ErrClosedObject, "file %q", f.path)
	}
	return openGroup(f, path, true)
}

// Dataset opens the dataset at the given absolute path.
func (f *File) Dataset(path string) (*Dataset, error) {
	if f.IsClosed() {
		return nil, wrapf(ErrClosedObject, "file %q", f.path)
	}
	return openDataset(f, path)
}

// CreateGroup creates a group at the given path and opens it. A relative
// name becomes a child of the root. The engine-level create handle is closed
// immediately and the group is reopened through the normal factory, so there
// is a single code path for opening an existing child.
func (f *File) CreateGroup(path string) (*Group, error) {
	if path == "" {
		return nil, wrapf(ErrEmptyArgument, "group name")
	}
	if f.IsClosed() {
		return nil, wrapf(ErrClosedObject, "file %q", f.path)
	}
	if path[0] != '/' {
		path = "/" + path
	}

	id, err := f.eng.CreateGroup(f.id, path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating group %q: %v", ErrEngineFailure, path, err)
	}
	if !id.Valid() {
		return nil, wrapf(ErrEngineFailure, "creating group %q: engine returned identifier %d", path, id)
	}
	if err := f.eng.CloseGroup(id); err != nil {
		return nil, fmt.Errorf("%w: closing group %q after creation: %v", ErrEngineFailure, path, err)
	}

	log.WithField("path", path).Debug("group created")
	return f.Group(path)
}

// CreateDataset creates a dataset with the given per-dimension extents at
// the given path and opens it. A relative name becomes a child of the root.
// Elements are stored with the fixed native float64 datatype.
func (f *File) CreateDataset(path string, extents []uint64) (*Dataset, error) {
	if path == "" {
		return nil, wrapf(ErrEmptyArgument, "dataset name")
	}
	if len(extents) == 0 {
		return nil, wrapf(ErrRankMismatch, "dataset %q needs at least one extent", path)
	}
	if f.IsClosed() {
		return nil, wrapf(ErrClosedObject, "file %q", f.path)
	}
	if path[0] != '/' {
		path = "/" + path
	}

	id, err := f.eng.CreateDataset(f.id, path, extents)
	if err != nil {
		return nil, fmt.Errorf("%w: creating dataset %q: %v", ErrEngineFailure, path, err)
	}
	if !id.Valid() {
		return nil, wrapf(ErrEngineFailure, "creating dataset %q: engine returned identifier %d", path, id)
	}
	if err := f.eng.CloseDataset(id); err != nil {
		return nil, fmt.Errorf("%w: closing dataset %q after creation: %v", ErrEngineFailure, path, err)
	}

	log.WithFields(logrus.Fields{"path": path, "extents": extents}).Debug("dataset created")
	return f.Dataset(path)
}
