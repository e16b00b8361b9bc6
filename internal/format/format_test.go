package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		h    Header
	}{
		{name: "zero", h: Header{Size: 0, Next: 0}},
		{name: "head block", h: Header{Size: HeaderSize, Next: 0}},
		{name: "typical block", h: Header{Size: 80, Next: 160}},
		{name: "max values", h: Header{Size: ^uint64(0), Next: ^uint64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Encode(tt.h)
			require.Len(t, buf, HeaderSize)

			got := Decode(buf[:])
			require.Equal(t, tt.h, got)
		})
	}
}

func TestEncodeIsBigEndian(t *testing.T) {
	buf := Encode(Header{Size: 1, Next: 0})
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, buf[0:8])
}

func TestConstants(t *testing.T) {
	require.Equal(t, uint64(8388608), uint64(VolSize))
	require.Equal(t, uint64(16), MarkLen)
	require.Equal(t, MarkLen, AllocatableStart)
	require.Equal(t, uint64(VolSize)-MarkLen, AllocatableSize)
	require.Equal(t, "neondb", FileExt)
	require.Len(t, Mark, int(MarkLen))
}
