package memengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5obj/engine"
)

func newTestFile(t *testing.T) (*Engine, engine.ID, string) {
	t.Helper()
	e := New()
	path := filepath.Join(t.TempDir(), "test.snap")
	id, err := e.CreateFile(path)
	require.NoError(t, err)
	require.True(t, id.Valid())
	return e, id, path
}

func TestCreateFileTouchesDisk(t *testing.T) {
	_, _, path := newTestFile(t)
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestStaleIdentifiersRejected(t *testing.T) {
	e, fid, _ := newTestFile(t)

	gid, err := e.OpenGroup(fid, "/")
	require.NoError(t, err)
	require.NoError(t, e.CloseGroup(gid))
	require.Error(t, e.CloseGroup(gid), "double release must fail")

	// Kind mismatch: a file identifier is not a group.
	require.Error(t, e.CloseGroup(fid))
	_, err = e.Children(fid)
	require.Error(t, err)
}

func TestGroupTree(t *testing.T) {
	e, fid, _ := newTestFile(t)

	ga, err := e.CreateGroup(fid, "/a")
	require.NoError(t, err)
	_, err = e.CreateGroup(fid, "/a/b")
	require.NoError(t, err)
	_, err = e.CreateDataset(fid, "/a/d", []uint64{2, 2})
	require.NoError(t, err)

	names, err := e.Children(ga)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "d"}, names, "children keep creation order")

	k, err := e.ChildKind(ga, "b")
	require.NoError(t, err)
	require.Equal(t, engine.KindGroup, k)
	k, err = e.ChildKind(ga, "d")
	require.NoError(t, err)
	require.Equal(t, engine.KindDataset, k)
	_, err = e.ChildKind(ga, "nope")
	require.Error(t, err)

	// Creating over an existing name or under a missing parent fails.
	_, err = e.CreateGroup(fid, "/a")
	require.Error(t, err)
	_, err = e.CreateGroup(fid, "/missing/x")
	require.Error(t, err)

	// A dataset path is not a group and cannot be traversed.
	_, err = e.OpenGroup(fid, "/a/d")
	require.Error(t, err)
	_, err = e.OpenDataset(fid, "/a/b")
	require.Error(t, err)
	_, err = e.OpenGroup(fid, "/a/d/x")
	require.Error(t, err)
}

func TestDeleteLink(t *testing.T) {
	e, fid, _ := newTestFile(t)

	root, err := e.OpenGroup(fid, "/")
	require.NoError(t, err)
	_, err = e.CreateGroup(fid, "/gone")
	require.NoError(t, err)

	require.NoError(t, e.DeleteLink(root, "gone"))
	require.Error(t, e.DeleteLink(root, "gone"))
	_, err = e.OpenGroup(fid, "/gone")
	require.Error(t, err)
}

func TestTransferFullExtent(t *testing.T) {
	e, fid, _ := newTestFile(t)

	ds, err := e.CreateDataset(fid, "/m", []uint64{2, 3})
	require.NoError(t, err)

	dt, err := e.DatasetType(ds)
	require.NoError(t, err)
	require.Equal(t, engine.NativeDouble, dt)

	fileSpace, err := e.DatasetSpace(ds)
	require.NoError(t, err)
	memSpace, err := e.CreateSpace([]uint64{2, 3})
	require.NoError(t, err)

	src := []float64{1, 2, 3, 4, 5, 6}
	require.NoError(t, e.Write(ds, memSpace, fileSpace, src))

	dst := make([]float64, 6)
	require.NoError(t, e.Read(ds, memSpace, fileSpace, dst))
	require.Equal(t, src, dst)

	require.NoError(t, e.CloseSpace(memSpace))
	require.NoError(t, e.CloseSpace(fileSpace))
}

// The selection walk is row-major with the last axis fastest, so a hyperslab
// of a 2D grid reads contiguous row fragments.
func TestTransferHyperslab(t *testing.T) {
	e, fid, _ := newTestFile(t)

	ds, err := e.CreateDataset(fid, "/m", []uint64{3, 4})
	require.NoError(t, err)

	full, err := e.DatasetSpace(ds)
	require.NoError(t, err)
	fullMem, err := e.CreateSpace([]uint64{3, 4})
	require.NoError(t, err)
	src := make([]float64, 12)
	for i := range src {
		src[i] = float64(i)
	}
	require.NoError(t, e.Write(ds, fullMem, full, src))
	require.NoError(t, e.CloseSpace(full))
	require.NoError(t, e.CloseSpace(fullMem))

	slab, err := e.DatasetSpace(ds)
	require.NoError(t, err)
	require.NoError(t, e.SelectHyperslab(slab, []uint64{1, 1}, []uint64{2, 2}))
	n, err := e.SpaceElements(slab)
	require.NoError(t, err)
	require.Equal(t, uint64(4), n)

	mem, err := e.CreateSpace([]uint64{2, 2})
	require.NoError(t, err)
	dst := make([]float64, 4)
	require.NoError(t, e.Read(ds, mem, slab, dst))
	require.Equal(t, []float64{5, 6, 9, 10}, dst)

	// Mismatched element counts are rejected.
	small, err := e.CreateSpace([]uint64{3})
	require.NoError(t, err)
	require.Error(t, e.Read(ds, small, slab, dst))

	// Out-of-bounds selections are rejected up front.
	require.Error(t, e.SelectHyperslab(slab, []uint64{2, 2}, []uint64{2, 3}))
	require.Error(t, e.SelectHyperslab(slab, []uint64{0}, []uint64{1}))
}

func TestSpaceQueries(t *testing.T) {
	e, _, _ := newTestFile(t)

	sp, err := e.CreateSpace([]uint64{4, 5})
	require.NoError(t, err)

	rank, err := e.SpaceRank(sp)
	require.NoError(t, err)
	require.Equal(t, 2, rank)

	dims, err := e.SpaceDims(sp)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 5}, dims)

	n, err := e.SpaceElements(sp)
	require.NoError(t, err)
	require.Equal(t, uint64(20), n)

	_, err = e.CreateSpace(nil)
	require.Error(t, err)
	_, err = e.CreateSpace([]uint64{0, 3})
	require.Error(t, err, "zero extents are rejected")
}

func TestAttributeLifecycle(t *testing.T) {
	e, fid, _ := newTestFile(t)

	root, err := e.OpenGroup(fid, "/")
	require.NoError(t, err)

	sp, err := e.CreateSpace([]uint64{3})
	require.NoError(t, err)
	a, err := e.CreateAttr(root, "w", engine.NativeDouble, sp)
	require.NoError(t, err)
	require.NoError(t, e.CloseSpace(sp))

	require.NoError(t, e.AttrWrite(a, []float64{1, 2, 3}))
	got := make([]float64, 3)
	require.NoError(t, e.AttrRead(a, got))
	require.Equal(t, []float64{1, 2, 3}, got)
	require.NoError(t, e.CloseAttr(a))

	names, err := e.AttrNames(root)
	require.NoError(t, err)
	require.Equal(t, []string{"w"}, names)

	reopened, err := e.OpenAttr(root, "w")
	require.NoError(t, err)
	dt, err := e.AttrType(reopened)
	require.NoError(t, err)
	require.Equal(t, engine.NativeDouble, dt)

	asp, err := e.AttrSpace(reopened)
	require.NoError(t, err)
	dims, err := e.SpaceDims(asp)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, dims)
	require.NoError(t, e.CloseSpace(asp))
	require.NoError(t, e.CloseAttr(reopened))

	_, err = e.OpenAttr(root, "missing")
	require.Error(t, err)
}

func TestStringAttributePayload(t *testing.T) {
	e, fid, _ := newTestFile(t)

	root, err := e.OpenGroup(fid, "/")
	require.NoError(t, err)
	sp, err := e.CreateSpace([]uint64{1})
	require.NoError(t, err)
	a, err := e.CreateAttr(root, "s", engine.NativeString(5), sp)
	require.NoError(t, err)

	require.NoError(t, e.AttrWriteRaw(a, []byte("hello")))
	buf := make([]byte, 5)
	require.NoError(t, e.AttrReadRaw(a, buf))
	require.Equal(t, "hello", string(buf))

	// Raw and numeric channels do not mix.
	require.Error(t, e.AttrWrite(a, []float64{1}))
	require.Error(t, e.AttrRead(a, make([]float64, 1)))
}

func TestSnapshotRoundTrip(t *testing.T) {
	e, fid, path := newTestFile(t)

	_, err := e.CreateGroup(fid, "/g")
	require.NoError(t, err)
	ds, err := e.CreateDataset(fid, "/g/d", []uint64{2, 2})
	require.NoError(t, err)

	fileSpace, err := e.DatasetSpace(ds)
	require.NoError(t, err)
	memSpace, err := e.CreateSpace([]uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, e.Write(ds, memSpace, fileSpace, []float64{0.1, -2.5, 1e300, 4}))

	g, err := e.OpenGroup(fid, "/g")
	require.NoError(t, err)
	asp, err := e.CreateSpace([]uint64{1})
	require.NoError(t, err)
	a, err := e.CreateAttr(g, "version", engine.NativeInt32, asp)
	require.NoError(t, err)
	require.NoError(t, e.AttrWrite(a, []float64{7}))

	require.NoError(t, e.CloseFile(fid))

	// A fresh engine must see the identical tree from the snapshot.
	e2 := New()
	fid2, err := e2.OpenFile(path, true)
	require.NoError(t, err)

	ds2, err := e2.OpenDataset(fid2, "/g/d")
	require.NoError(t, err)
	fs2, err := e2.DatasetSpace(ds2)
	require.NoError(t, err)
	ms2, err := e2.CreateSpace([]uint64{2, 2})
	require.NoError(t, err)
	got := make([]float64, 4)
	require.NoError(t, e2.Read(ds2, ms2, fs2, got))
	require.Equal(t, []float64{0.1, -2.5, 1e300, 4}, got, "payload must survive bit for bit")

	g2, err := e2.OpenGroup(fid2, "/g")
	require.NoError(t, err)
	a2, err := e2.OpenAttr(g2, "version")
	require.NoError(t, err)
	v := make([]float64, 1)
	require.NoError(t, e2.AttrRead(a2, v))
	require.Equal(t, 7.0, v[0])
}

func TestReadOnlyFileRejectsWrites(t *testing.T) {
	e, fid, path := newTestFile(t)
	require.NoError(t, e.CloseFile(fid))

	ro, err := e.OpenFile(path, true)
	require.NoError(t, err)

	_, err = e.CreateGroup(ro, "/g")
	require.Error(t, err)
	_, err = e.CreateDataset(ro, "/d", []uint64{1})
	require.Error(t, err)
	require.NoError(t, e.CloseFile(ro))
}

func TestOpenFileMissingPath(t *testing.T) {
	e := New()
	_, err := e.OpenFile(filepath.Join(t.TempDir(), "absent.snap"), true)
	require.Error(t, err)
	_, err = e.OpenFile("", false)
	require.Error(t, err)
	_, err = e.CreateFile("")
	require.Error(t, err)
}
