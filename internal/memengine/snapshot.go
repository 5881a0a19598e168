package memengine

import (
	"encoding/gob"
	"os"

	"github.com/scigolib/h5obj/engine"
	"github.com/scigolib/h5obj/internal/utils"
)

// Snapshots are the persistence format: the whole object tree encoded with
// encoding/gob, which round-trips float64 payloads bit for bit. The snapshot
// types mirror the tree with exported fields only.

type snapType struct {
	Class int
	Order int
	Size  int
}

type snapAttr struct {
	Name string
	Type snapType
	Dims []uint64
	Num  []float64
	Raw  []byte
}

type snapNode struct {
	Name     string
	Dataset  bool
	Dims     []uint64
	Type     snapType
	Data     []float64
	Attrs    []snapAttr
	Children []*snapNode
}

func thawType(t snapType) engine.Datatype {
	return engine.Datatype{
		Class: engine.Class(t.Class),
		Order: engine.Order(t.Order),
		Size:  t.Size,
	}
}

func freezeNode(n *node) *snapNode {
	s := &snapNode{
		Name:    n.name,
		Dataset: n.dataset,
		Dims:    n.dims,
		Type:    snapType{Class: int(n.dt.Class), Order: int(n.dt.Order), Size: n.dt.Size},
		Data:    n.data,
	}
	for _, a := range n.attrs {
		s.Attrs = append(s.Attrs, snapAttr{
			Name: a.name,
			Type: snapType{Class: int(a.dt.Class), Order: int(a.dt.Order), Size: a.dt.Size},
			Dims: a.dims,
			Num:  a.num,
			Raw:  a.raw,
		})
	}
	for _, c := range n.children {
		s.Children = append(s.Children, freezeNode(c))
	}
	return s
}

func thawNode(s *snapNode) *node {
	n := &node{
		name:    s.Name,
		dataset: s.Dataset,
		dims:    s.Dims,
		dt:      thawType(s.Type),
		data:    s.Data,
	}
	for _, a := range s.Attrs {
		n.attrs = append(n.attrs, &attr{
			name: a.Name,
			dt:   thawType(a.Type),
			dims: a.Dims,
			num:  a.Num,
			raw:  a.Raw,
		})
	}
	for _, c := range s.Children {
		n.children = append(n.children, thawNode(c))
	}
	return n
}

func writeSnapshot(f *file) error {
	out, err := os.Create(f.path)
	if err != nil {
		return utils.WrapError("creating snapshot file", err)
	}
	if err := gob.NewEncoder(out).Encode(freezeNode(f.root)); err != nil {
		_ = out.Close()
		return utils.WrapError("encoding snapshot", err)
	}
	if err := out.Close(); err != nil {
		return utils.WrapError("closing snapshot file", err)
	}
	return nil
}

func loadSnapshot(path string) (*node, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapError("opening snapshot file", err)
	}
	defer in.Close()

	var s snapNode
	if err := gob.NewDecoder(in).Decode(&s); err != nil {
		return nil, utils.WrapError("decoding snapshot", err)
	}
	return thawNode(&s), nil
}
