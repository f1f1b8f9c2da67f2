package mqtt

import (
	"context"
	"io"
)

// Topics used by ReadWriter relative to the queue prefix.
const (
	TopicRx = "crtp/rx"
	TopicTx = "crtp/tx"
)

// ReadWriter implements bridge.PacketReadWriter.
// Frames published on SubTopic are read, written frames go to PubTopic.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
}

// NewPacketReadWriter creates the ReadWriter with the bridge convention:
// frames from the link are published on crtp/rx and frames for the link
// are read from crtp/tx.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		SubTopic: TopicTx,
		PubTopic: TopicRx,
		packetCh: make(chan []byte, 4),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ReadPacket implements bridge.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case frame := <-p.packetCh:
		return frame, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements bridge.PacketWriter.
func (p *ReadWriter) WritePacket(frame []byte) error {
	return p.Queue.Publish(p.PubTopic, frame)
}

// Run implements framework.Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	defer close(p.done)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}
