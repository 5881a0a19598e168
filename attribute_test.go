package h5obj

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttrsScalarRoundTrip(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	g, err := f.CreateGroup("g")
	require.NoError(t, err)
	attrs := g.Attrs()

	require.False(t, attrs.Has("answer"))
	require.NoError(t, attrs.CreateInt("answer", 42))
	require.True(t, attrs.Has("answer"))

	require.False(t, attrs.Has("big"))
	require.NoError(t, attrs.CreateLong("big", 1<<40))
	require.True(t, attrs.Has("big"))

	require.False(t, attrs.Has("ratio"))
	require.NoError(t, attrs.CreateFloat("ratio", 0.5))
	require.True(t, attrs.Has("ratio"))

	require.False(t, attrs.Has("pi"))
	require.NoError(t, attrs.CreateDouble("pi", 3.25))
	require.True(t, attrs.Has("pi"))

	i, ok := attrs.ReadInt("answer")
	require.True(t, ok)
	require.Equal(t, int32(42), i)

	l, ok := attrs.ReadLong("big")
	require.True(t, ok)
	require.Equal(t, int64(1<<40), l)

	fl, ok := attrs.ReadFloat("ratio")
	require.True(t, ok)
	require.Equal(t, float32(0.5), fl)

	d, ok := attrs.ReadDouble("pi")
	require.True(t, ok)
	require.Equal(t, 3.25, d)
}

func TestAttrsOnDataset(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	ds, err := f.CreateDataset("d", []uint64{3})
	require.NoError(t, err)
	require.NoError(t, ds.Attrs().CreateDouble("scale", 2.5))

	v, ok := ds.Attrs().ReadDouble("scale")
	require.True(t, ok)
	require.Equal(t, 2.5, v)
}

func TestAttrsMissingReadsReturnFalse(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	attrs := f.Root().Attrs()

	v, ok := attrs.ReadDouble("nope")
	require.False(t, ok)
	require.Equal(t, -1.0, v)

	i, ok := attrs.ReadInt("nope")
	require.False(t, ok)
	require.Equal(t, int32(-1), i)

	s, ok := attrs.ReadString("nope")
	require.False(t, ok)
	require.Empty(t, s)

	arr, ok := attrs.ReadDoubleArray("nope")
	require.False(t, ok)
	require.Nil(t, arr)
}

func TestAttrsStringRoundTrip(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	attrs := f.Root().Attrs()

	tests := []struct {
		name  string
		value string
	}{
		{name: "short", value: "hello"},
		{name: "with spaces", value: "a b c"},
		{name: "long", value: strings.Repeat("x", 4096)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, attrs.CreateString(tt.name, tt.value))
			got, ok := attrs.ReadString(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.value, got, "stored string must be byte-identical")
		})
	}
}

func TestAttrsArrayRoundTrip(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	attrs := f.Root().Attrs()

	want := []float64{1.5, -2.25, 1e9, 0}
	require.NoError(t, attrs.CreateDoubleArray("weights", want))
	got, ok := attrs.ReadDoubleArray("weights")
	require.True(t, ok)
	require.Equal(t, want, got)

	require.NoError(t, attrs.CreateIntArray("counts", []int32{1, 2, 3}))
	counts, ok := attrs.ReadDoubleArray("counts")
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, counts)
}

func TestAttrsNamesAndValidation(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	attrs := f.Root().Attrs()
	require.NoError(t, attrs.CreateInt("a", 1))
	require.NoError(t, attrs.CreateInt("b", 2))

	names, err := attrs.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)

	require.ErrorIs(t, attrs.CreateInt("", 0), ErrEmptyArgument)
	require.ErrorIs(t, attrs.CreateString("", "x"), ErrEmptyArgument)
	require.False(t, attrs.Has(""))

	// Creating a duplicate is an engine-level failure.
	require.ErrorIs(t, attrs.CreateInt("a", 9), ErrEngineFailure)
}

func TestAttrsPersistAcrossReopen(t *testing.T) {
	path := tempFile(t)

	f, err := Open(path, false)
	require.NoError(t, err)
	g, err := f.CreateGroup("run")
	require.NoError(t, err)
	require.NoError(t, g.Attrs().CreateDouble("dt", 0.001))
	require.NoError(t, g.Attrs().CreateString("tag", "baseline"))
	require.NoError(t, f.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer func() { require.NoError(t, ro.Close()) }()

	g2, err := ro.Group("/run")
	require.NoError(t, err)
	dt, ok := g2.Attrs().ReadDouble("dt")
	require.True(t, ok)
	require.Equal(t, 0.001, dt)
	tag, ok := g2.Attrs().ReadString("tag")
	require.True(t, ok)
	require.Equal(t, "baseline", tag)
}

func TestAttributeHandle(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	attrs := f.Root().Attrs()
	require.NoError(t, attrs.CreateDouble("x", 1.5))

	at, err := attrs.Attribute("x")
	require.NoError(t, err)
	require.Equal(t, "x", at.Name())
	require.True(t, at.IsAttribute())
	require.Equal(t, 1, f.LiveObjects())

	v, err := at.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.5, v)

	i, err := at.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int32(1), i)

	require.NoError(t, at.Close())
	require.Equal(t, 0, f.LiveObjects())
	require.NoError(t, at.Close())

	// A closed handle reopens lazily on the next read and rejoins the
	// registry.
	v, err = at.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
	require.Equal(t, 1, f.LiveObjects())

	_, err = attrs.Attribute("missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = attrs.Attribute("")
	require.ErrorIs(t, err, ErrEmptyArgument)
}

// A lazily reopened attribute must be reachable by the file's cascading
// close, like any other live handle.
func TestFileCloseReachesReopenedAttribute(t *testing.T) {
	f, err := Open(tempFile(t), false)
	require.NoError(t, err)

	attrs := f.Root().Attrs()
	require.NoError(t, attrs.CreateDouble("x", 1.5))

	at, err := attrs.Attribute("x")
	require.NoError(t, err)
	require.NoError(t, at.Close())
	require.Equal(t, 0, f.LiveObjects())

	v, err := at.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
	require.Equal(t, 1, f.LiveObjects())

	require.NoError(t, f.Close())
	require.True(t, at.IsClosed(), "file close must force-close every live handle")
	require.Equal(t, 0, f.LiveObjects())
}
