package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBuffer(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "small buffer within pool capacity", size: 1024},
		{name: "exact pool default size", size: 4096},
		{name: "larger than pool capacity", size: 8192},
		{name: "zero size", size: 0},
		{name: "single byte", size: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetBuffer(tt.size)
			require.NotNil(t, buf)
			require.Equal(t, tt.size, len(buf), "buffer length should match requested size")
			require.GreaterOrEqual(t, cap(buf), tt.size)
			ReleaseBuffer(buf)
		})
	}
}

func TestBufferReuse(t *testing.T) {
	buf := GetBuffer(64)
	for i := range buf {
		buf[i] = 0xFF
	}
	ReleaseBuffer(buf)

	// A reused buffer comes back with the requested length regardless of
	// prior contents.
	again := GetBuffer(32)
	require.Equal(t, 32, len(again))
	ReleaseBuffer(again)
}
