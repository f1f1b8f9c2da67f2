package uart

import (
	"context"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// LinkOperations is the contract offered to the CRTP protocol layer.
type LinkOperations interface {
	SetEnable(enable bool) error
	SendPacket(pkt *crtp.Packet) error
	ReceivePacket() (*crtp.Packet, error)
}

// Link exposes a driver as LinkOperations.
type Link struct {
	driver *Driver
}

// Link returns the link facade of the driver.
func (d *Driver) Link() *Link {
	return &Link{driver: d}
}

// SetEnable implements LinkOperations. It has no effect.
func (l *Link) SetEnable(enable bool) error {
	return nil
}

// SendPacket implements LinkOperations.
func (l *Link) SendPacket(pkt *crtp.Packet) error {
	return l.driver.SendPacket(pkt)
}

// ReceivePacket implements LinkOperations. It waits forever.
func (l *Link) ReceivePacket() (*crtp.Packet, error) {
	return l.driver.ReceivePacket(context.Background())
}

// ReceivePacketContext is ReceivePacket with cancellation for hosts that
// need to shut the link down.
func (l *Link) ReceivePacketContext(ctx context.Context) (*crtp.Packet, error) {
	return l.driver.ReceivePacket(ctx)
}
