package uart

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
)

// FrameConsumer is the body of the receive task. Exactly one consumer
// drains the raw-byte queue of a driver.
type FrameConsumer interface {
	ConsumeFrames(ctx context.Context, d *Driver) error
}

// CRTPConsumer runs the receive framing engine and queues validated packets.
type CRTPConsumer struct {
	parser Parser
}

// ConsumeFrames implements FrameConsumer.
func (c *CRTPConsumer) ConsumeFrames(ctx context.Context, d *Driver) error {
	c.parser.Reset()
	for {
		var pr ParseResult
		b, err := d.rxQueue.Pop(ctx, d.config.RxTimeout)
		switch err {
		case nil:
			pr = c.parser.Parse(b)
		case ErrTimeout:
			pr = c.parser.Timeout()
		default:
			return err
		}
		switch pr.Drop {
		case DropOversize:
			d.stats.add(&d.stats.Oversize)
			glog.V(4).Info("crtp: size byte out of range, resync")
		case DropChecksum:
			d.stats.add(&d.stats.BadChecksum)
			glog.V(4).Info("crtp: checksum mismatch, frame dropped")
		case DropTimeout:
			d.stats.add(&d.stats.Timeouts)
			glog.V(4).Info("crtp: idle timeout mid-frame, resync")
		}
		if pr.Packet != nil {
			d.deliver(pr.Packet)
		}
	}
}

// State gets the framing engine state. It is only meaningful while the
// consumer is not running.
func (c *CRTPConsumer) State() RxState {
	return c.parser.State()
}

// ConsoleConsumer forwards raw bytes to a text console while the upper
// link reports connected. Bytes arriving while disconnected are discarded.
type ConsoleConsumer struct {
	Console   io.Writer
	Connected func() bool
}

// ConsumeFrames implements FrameConsumer.
func (c *ConsoleConsumer) ConsumeFrames(ctx context.Context, d *Driver) error {
	if err := sleepContext(ctx, d.config.StartDelay); err != nil {
		return err
	}
	buf := make([]byte, 1)
	for {
		b, err := d.rxQueue.Pop(ctx, WaitForever)
		if err != nil {
			return err
		}
		if c.Connected != nil && !c.Connected() {
			continue
		}
		buf[0] = b
		if _, err = c.Console.Write(buf); err != nil {
			glog.Warningf("console write error: %v", err)
		}
	}
}

// byteSource adapts the raw-byte queue to io.ByteReader, waiting forever.
type byteSource struct {
	ctx   context.Context
	queue *ByteQueue
}

func (s *byteSource) ReadByte() (byte, error) {
	return s.queue.Pop(s.ctx, WaitForever)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
