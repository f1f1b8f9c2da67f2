package uart

import (
	"context"
	"sync"
	"time"

	"github.com/Ffreasy/crazyflie-firmware/pkg/ubx"
)

// DefaultGPSMaxPayload is the largest UBX payload accepted by GPSConsumer.
const DefaultGPSMaxPayload = 100

// GPSConsumer configures a u-blox receiver and decodes its UBX messages.
// The UBX checksum is read but not verified before the payload is used.
type GPSConsumer struct {
	// MaxPayload skips messages with longer payloads.
	MaxPayload int
	// Setup is sent once with polled writes before decoding starts.
	Setup []*ubx.Message
	// SetupInterval separates consecutive setup messages.
	SetupInterval time.Duration
	// OnMessage is called for every framed message.
	OnMessage func(*ubx.Message)

	lock   sync.RWMutex
	fix    ubx.NavPVT
	hasFix bool
}

// NewGPSConsumer creates a GPSConsumer switching UART1 of the receiver to
// UBX output at 9600 baud with NAV-PVT enabled.
func NewGPSConsumer() *GPSConsumer {
	return &GPSConsumer{
		MaxPayload: DefaultGPSMaxPayload,
		Setup: []*ubx.Message{
			ubx.NewCfgPrt(ubx.PortUART1, 9600, ubx.ProtoUBX|ubx.ProtoNMEA|ubx.ProtoRTCM, ubx.ProtoUBX),
			ubx.NewCfgMsg(ubx.NavPVTClassID, [6]byte{0, 1, 0, 0, 0, 0}),
		},
		SetupInterval: time.Second,
	}
}

// ConsumeFrames implements FrameConsumer.
func (c *GPSConsumer) ConsumeFrames(ctx context.Context, d *Driver) error {
	if err := sleepContext(ctx, d.config.StartDelay); err != nil {
		return err
	}
	for n, msg := range c.Setup {
		if n > 0 {
			if err := sleepContext(ctx, c.SetupInterval); err != nil {
				return err
			}
		}
		d.SendData(msg.Bytes())
	}

	maxPayload := c.MaxPayload
	if maxPayload <= 0 {
		maxPayload = DefaultGPSMaxPayload
	}
	r := ubx.NewReader(&byteSource{ctx: ctx, queue: d.rxQueue}, maxPayload)
	for {
		msg, err := r.ReadMessage()
		if err != nil {
			return err
		}
		if msg.ClassID() == ubx.NavPVTClassID {
			if pvt, err := ubx.DecodeNavPVT(msg); err == nil {
				c.lock.Lock()
				c.fix, c.hasFix = *pvt, true
				c.lock.Unlock()
			}
		}
		if fn := c.OnMessage; fn != nil {
			fn(msg)
		}
	}
}

// Fix returns the last NAV-PVT solution, if any.
func (c *GPSConsumer) Fix() (ubx.NavPVT, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.fix, c.hasFix
}
