package crtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	h := NewHeader(PortSetpoint, 2)
	require.Equal(t, Header(0x3e), h)
	require.Equal(t, PortSetpoint, h.Port())
	require.Equal(t, Channel(2), h.Channel())

	h = NewHeader(PortLink, 3)
	require.Equal(t, Header(0xff), h)
	require.Equal(t, PortLink, h.Port())
	require.Equal(t, Channel(3), h.Channel())

	require.Equal(t, Port(0x0a), Header(0xa1).Port())
	require.Equal(t, Channel(1), Header(0xa1).Channel())
}

func TestChecksum(t *testing.T) {
	testCases := []struct {
		name   string
		header Header
		data   []byte
		expect byte
	}{
		{"no data", 0x03, nil, 0x03},
		{"small data", 0x03, []byte{1, 2, 3}, 0x0c},
		{"wrap to zero", 0xff, nil, 0x00},
		{"wrap", 0xfe, []byte{1}, 0x01},
		{"large sum", 0xff, []byte{0xff, 0xff, 0xff}, 0x03},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Checksum(tc.header, tc.data))
		})
	}
}

func TestSumStep(t *testing.T) {
	require.Equal(t, byte(0), SumStep(0, 0))
	require.Equal(t, byte(0xfe), SumStep(0, 0xfe))
	require.Equal(t, byte(0), SumStep(0, 0xff))
	require.Equal(t, byte(0), SumStep(0xfe, 1))
	require.Equal(t, byte(0xfd), SumStep(0xfe, 0xfe))
}

func TestNewPacket(t *testing.T) {
	p, err := NewPacket(0x03, []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, byte(3), p.Size)
	require.Equal(t, []byte{1, 2, 3}, p.Payload())
	require.True(t, p.IsValid())

	p, err = NewPacket(0x03, make([]byte, MaxDataSize))
	require.NoError(t, err)
	require.Equal(t, byte(MaxDataSize), p.Size)

	_, err = NewPacket(0x03, make([]byte, MaxDataSize+1))
	require.Equal(t, ErrPayloadTooLarge, err)

	require.False(t, (&Packet{Size: MaxDataSize + 1}).IsValid())
}

func TestPacketBytes(t *testing.T) {
	full := make([]byte, MaxDataSize)
	for i := range full {
		full[i] = byte(i + 1)
	}
	fullFrame := append([]byte{0xaa, 0xaa, 0x10, 30}, full...)
	fullFrame = append(fullFrame, Checksum(0x10, full))

	testCases := []struct {
		name   string
		header Header
		data   []byte
		expect []byte
	}{
		{"no data", 0x03, nil, []byte{0xaa, 0xaa, 0x03, 0x00, 0x03}},
		{"small data", 0x03, []byte{1, 2, 3}, []byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c}},
		{"max data", 0x10, full, fullFrame},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPacket(tc.header, tc.data)
			require.NoError(t, err)
			require.Equal(t, tc.expect, p.Bytes())
			require.Len(t, p.Bytes(), int(p.Size)+FrameOverhead)
			var buf bytes.Buffer
			n, err := p.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)
		})
	}
}

func TestDecodeFrame(t *testing.T) {
	p, err := DecodeFrame([]byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c})
	require.NoError(t, err)
	require.Equal(t, Header(0x03), p.Header)
	require.Equal(t, []byte{1, 2, 3}, p.Payload())

	testCases := []struct {
		name   string
		frame  []byte
		expect error
	}{
		{"short", []byte{0xaa, 0xaa, 0x03, 0x00}, ErrMalformedFrame},
		{"bad start", []byte{0xaa, 0xab, 0x03, 0x00, 0x03}, ErrMalformedFrame},
		{"truncated", []byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 0x0c}, ErrMalformedFrame},
		{"trailing", []byte{0xaa, 0xaa, 0x03, 0x00, 0x03, 0x00}, ErrMalformedFrame},
		{"oversize", []byte{0xaa, 0xaa, 0x03, 31, 0x22}, ErrPayloadTooLarge},
		{"checksum", []byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0d}, ErrChecksum},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame(tc.frame)
			require.Equal(t, tc.expect, err)
		})
	}
}
