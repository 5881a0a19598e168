package h5obj

import (
	"strings"

	"github.com/scigolib/h5obj/engine"
)

// Type is the bitmask type tag of a resource handle.
type Type int

const (
	TypeGroup     Type = 0x1
	TypeDataset   Type = 0x2
	TypeAttribute Type = 0x4
	TypeAll       Type = 0xFFFF
)

// object is the base of every resource handle: an engine identifier, the
// absolute slash-separated path, the type tag, and a non-owning back
// reference to the File that tracks the handle. A handle whose identifier is
// no longer positive rejects all operations.
type object struct {
	id    engine.ID
	path  string
	typ   Type
	file  *File
	token uint64 // registry key; zero for the pinned root group
}

// IsClosed reports whether the handle's identifier has been released.
func (o *object) IsClosed() bool { return o.id <= 0 }

// IsOpened reports whether the handle is live.
func (o *object) IsOpened() bool { return o.id > 0 }

// Path returns the absolute path of the object inside the file.
func (o *object) Path() string { return o.path }

// Name returns the last path component.
func (o *object) Name() string {
	return baseName(o.path)
}

// Type returns the bitmask type tag.
func (o *object) Type() Type { return o.typ }

// IsGroup reports whether the handle is a group.
func (o *object) IsGroup() bool { return o.typ&TypeGroup != 0 }

// IsDataset reports whether the handle is a dataset.
func (o *object) IsDataset() bool { return o.typ&TypeDataset != 0 }

// IsAttribute reports whether the handle is an attribute.
func (o *object) IsAttribute() bool { return o.typ&TypeAttribute != 0 }

// groupPath returns the object's group path normalized to end in exactly one
// separator, suitable for resolving relative child names against.
func (o *object) groupPath() string {
	p := o.path
	if o.typ&TypeGroup == 0 {
		idx := strings.LastIndexByte(p, '/')
		if idx < 0 {
			return "/"
		}
		p = p[:idx]
	}
	if p == "" || p[len(p)-1] != '/' {
		p += "/"
	}
	return p
}

func baseName(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}
