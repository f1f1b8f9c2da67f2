package crtp

import "io"

const (
	// MaxDataSize is the largest payload a packet carries.
	MaxDataSize = 30
	// StartByte is sent twice in front of every frame.
	StartByte byte = 0xAA
	// FrameOverhead is the number of frame bytes besides the payload.
	FrameOverhead = 5
	// MaxFrameSize is the size of a frame carrying MaxDataSize bytes.
	MaxFrameSize = MaxDataSize + FrameOverhead
)

// Port is the 4-bit destination port of a packet.
type Port byte

// Channel is the 2-bit channel within a port.
type Channel byte

// Well-known ports.
const (
	PortConsole  Port = 0x00
	PortParam    Port = 0x02
	PortSetpoint Port = 0x03
	PortMem      Port = 0x04
	PortLog      Port = 0x05
	PortPosition Port = 0x06
	PortPlatform Port = 0x0D
	PortLink     Port = 0x0F
)

// Header is the first byte of a packet.
type Header byte

// NewHeader composes a header from port and channel.
func NewHeader(port Port, channel Channel) Header {
	var link byte = 3
	return Header(((byte(port) & 0x0f) << 4) |
		((link & 0x03) << 2) |
		(byte(channel) & 0x03))
}

// Port extracts the port.
func (h Header) Port() Port {
	return Port((byte(h) >> 4) & 0x0f)
}

// Channel extracts the channel.
func (h Header) Channel() Channel {
	return Channel(byte(h) & 0x03)
}

// Packet is a single CRTP packet.
type Packet struct {
	Header Header
	Size   byte
	Data   [MaxDataSize]byte
}

// NewPacket creates a packet with a copy of data.
func NewPacket(header Header, data []byte) (*Packet, error) {
	if len(data) > MaxDataSize {
		return nil, ErrPayloadTooLarge
	}
	p := &Packet{Header: header, Size: byte(len(data))}
	copy(p.Data[:], data)
	return p, nil
}

// Payload returns the valid data bytes.
func (p *Packet) Payload() []byte {
	return p.Data[:p.Size]
}

// IsValid checks size is within bounds.
func (p *Packet) IsValid() bool {
	return p.Size <= MaxDataSize
}

// Checksum calculates the frame checksum of the packet.
func (p *Packet) Checksum() byte {
	return Checksum(p.Header, p.Payload())
}

// Bytes returns the encoded frame.
func (p *Packet) Bytes() []byte {
	data := p.Payload()
	b := make([]byte, len(data)+FrameOverhead)
	b[0], b[1], b[2], b[3] = StartByte, StartByte, byte(p.Header), p.Size
	copy(b[4:], data)
	b[len(b)-1] = p.Checksum()
	return b
}

// WriteTo writes the encoded frame.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// Checksum calculates (header + size + sum(data)) mod 255.
func Checksum(header Header, data []byte) byte {
	sum := SumStep(0, byte(header))
	sum = SumStep(sum, byte(len(data)))
	for _, b := range data {
		sum = SumStep(sum, b)
	}
	return sum
}

// SumStep folds one byte into a running checksum.
func SumStep(sum, b byte) byte {
	return byte((int(sum) + int(b)) % 0xff)
}

// DecodeFrame decodes exactly one complete frame.
func DecodeFrame(b []byte) (*Packet, error) {
	if len(b) < FrameOverhead || b[0] != StartByte || b[1] != StartByte {
		return nil, ErrMalformedFrame
	}
	size := int(b[3])
	if size > MaxDataSize {
		return nil, ErrPayloadTooLarge
	}
	if len(b) != size+FrameOverhead {
		return nil, ErrMalformedFrame
	}
	p, _ := NewPacket(Header(b[2]), b[4:4+size])
	if p.Checksum() != b[len(b)-1] {
		return nil, ErrChecksum
	}
	return p, nil
}
