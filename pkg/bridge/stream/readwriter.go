// Package stream carries frames over a byte stream such as TCP.
package stream

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// ErrFrameTooLarge indicates a length prefix above crtp.MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// ReadWriter implements bridge.PacketReadWriter.
// Each frame is prefixed by its length as a 2-byte little-endian value.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements bridge.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint16
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > crtp.MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, frame)
	return frame, err
}

// WritePacket implements bridge.PacketWriter. The prefix and frame go out
// in a single write.
func (p *ReadWriter) WritePacket(frame []byte) error {
	if len(frame) > crtp.MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 2+len(frame))
	binary.LittleEndian.PutUint16(buf, uint16(len(frame)))
	copy(buf[2:], frame)
	_, err := p.ReadWriter.Write(buf)
	return err
}

// Close closes the underlying stream if possible.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
