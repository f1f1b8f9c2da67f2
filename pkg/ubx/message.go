package ubx

import (
	"encoding/binary"
	"io"
)

// Sync characters starting every message.
const (
	SyncChar1 byte = 0xb5
	SyncChar2 byte = 0x62
)

// MaxPayloadSize is the largest payload the length field can express.
const MaxPayloadSize = 0xffff

// ClassID combines message class (high byte) and id (low byte).
type ClassID uint16

// Known messages.
const (
	NavPVTClassID ClassID = 0x0107
	CfgPrtClassID ClassID = 0x0600
	CfgMsgClassID ClassID = 0x0601
)

// Class gets the message class.
func (c ClassID) Class() byte { return byte(c >> 8) }

// ID gets the message id.
func (c ClassID) ID() byte { return byte(c) }

// Message is a single UBX message.
type Message struct {
	Class   byte
	ID      byte
	Payload []byte
	CkA     byte
	CkB     byte
}

// NewMessage creates a message with its checksum filled in.
func NewMessage(classID ClassID, payload []byte) (*Message, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	m := &Message{Class: classID.Class(), ID: classID.ID(), Payload: payload}
	m.CkA, m.CkB = m.Checksum()
	return m, nil
}

// ClassID gets the combined class and id.
func (m *Message) ClassID() ClassID {
	return ClassID(uint16(m.Class)<<8 | uint16(m.ID))
}

// Checksum calculates the checksum of the message content.
func (m *Message) Checksum() (a, b byte) {
	var head [4]byte
	head[0], head[1] = m.Class, m.ID
	binary.LittleEndian.PutUint16(head[2:], uint16(len(m.Payload)))
	a, b = fletcher(0, 0, head[:])
	return fletcher(a, b, m.Payload)
}

// ChecksumValid compares the received checksum with the content.
func (m *Message) ChecksumValid() bool {
	a, b := m.Checksum()
	return a == m.CkA && b == m.CkB
}

// Bytes encodes the message with its current checksum bytes.
func (m *Message) Bytes() []byte {
	b := make([]byte, len(m.Payload)+8)
	b[0], b[1], b[2], b[3] = SyncChar1, SyncChar2, m.Class, m.ID
	binary.LittleEndian.PutUint16(b[4:], uint16(len(m.Payload)))
	copy(b[6:], m.Payload)
	b[len(b)-2], b[len(b)-1] = m.CkA, m.CkB
	return b
}

func fletcher(a, b byte, data []byte) (byte, byte) {
	for _, c := range data {
		a += c
		b += a
	}
	return a, b
}

// Reader decodes messages from a byte stream.
type Reader struct {
	r          io.ByteReader
	maxPayload int
}

// NewReader creates a Reader. Messages announcing a payload longer than
// maxPayload are skipped.
func NewReader(r io.ByteReader, maxPayload int) *Reader {
	return &Reader{r: r, maxPayload: maxPayload}
}

// ReadMessage skips bytes until a complete message is read.
// The checksum bytes are stored but not verified.
func (r *Reader) ReadMessage() (*Message, error) {
	var head [4]byte
	for {
		c, err := r.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c != SyncChar1 {
			continue
		}
		if c, err = r.r.ReadByte(); err != nil {
			return nil, err
		}
		if c != SyncChar2 {
			continue
		}
		if err = r.read(head[:]); err != nil {
			return nil, err
		}
		size := int(binary.LittleEndian.Uint16(head[2:]))
		if size > r.maxPayload {
			continue
		}
		m := &Message{Class: head[0], ID: head[1], Payload: make([]byte, size)}
		if err = r.read(m.Payload); err != nil {
			return nil, err
		}
		if m.CkA, err = r.r.ReadByte(); err != nil {
			return nil, err
		}
		if m.CkB, err = r.r.ReadByte(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (r *Reader) read(p []byte) (err error) {
	for i := range p {
		if p[i], err = r.r.ReadByte(); err != nil {
			return
		}
	}
	return
}
