// Package websocket carries frames as binary websocket messages.
package websocket

import (
	"context"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge"
)

// ReadWriter implements bridge.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements bridge.PacketReader.
func (p *ReadWriter) ReadPacket() (frame []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &frame)
	return
}

// WritePacket implements bridge.PacketWriter.
func (p *ReadWriter) WritePacket(frame []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), frame)
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Handler attaches every websocket client to b until the client leaves
// or ctx is done.
func Handler(ctx context.Context, b *bridge.Bridge) websocket.Handler {
	return func(conn *websocket.Conn) {
		name := "ws:" + conn.Request().RemoteAddr
		err := b.Attach(name, New(conn)).Run(ctx)
		glog.V(2).Infof("%s: %v", name, err)
	}
}
