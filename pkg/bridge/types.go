package bridge

import (
	"context"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// PacketReader reads encoded frames.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes encoded frames.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes encoded frames.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Link is the part of the link facade used by the bridge.
type Link interface {
	SendPacket(pkt *crtp.Packet) error
	ReceivePacketContext(ctx context.Context) (*crtp.Packet, error)
}

// Publisher publishes a payload on a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}
