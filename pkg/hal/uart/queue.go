package uart

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// WaitForever makes Pop wait without a timeout.
const WaitForever time.Duration = -1

// ByteQueue is a bounded FIFO of raw bytes. The receive interrupt is the
// only producer and the receive task is the only consumer.
type ByteQueue struct {
	ch chan byte
}

// NewByteQueue creates a ByteQueue holding up to size bytes.
func NewByteQueue(size int) *ByteQueue {
	return &ByteQueue{ch: make(chan byte, size)}
}

// PushFromISR enqueues without blocking. It returns false if the queue is
// full and the byte was dropped.
func (q *ByteQueue) PushFromISR(b byte) bool {
	select {
	case q.ch <- b:
		return true
	default:
		return false
	}
}

// Pop dequeues the oldest byte, waiting up to timeout.
// It returns ErrTimeout when the wait expires.
func (q *ByteQueue) Pop(ctx context.Context, timeout time.Duration) (byte, error) {
	select {
	case b := <-q.ch:
		return b, nil
	default:
	}
	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case b := <-q.ch:
		return b, nil
	case <-expired:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Len returns the number of queued bytes.
func (q *ByteQueue) Len() int {
	return len(q.ch)
}

// PacketQueue is a bounded FIFO of validated packets.
type PacketQueue struct {
	ch chan crtp.Packet
}

// NewPacketQueue creates a PacketQueue holding up to size packets.
func NewPacketQueue(size int) *PacketQueue {
	return &PacketQueue{ch: make(chan crtp.Packet, size)}
}

// TryPush enqueues a copy of pkt without blocking.
// It returns false if the queue is full and the packet was dropped.
func (q *PacketQueue) TryPush(pkt *crtp.Packet) bool {
	select {
	case q.ch <- *pkt:
		return true
	default:
		return false
	}
}

// Pop waits for the oldest packet.
func (q *PacketQueue) Pop(ctx context.Context) (*crtp.Packet, error) {
	select {
	case pkt := <-q.ch:
		return &pkt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued packets.
func (q *PacketQueue) Len() int {
	return len(q.ch)
}

// Semaphore is a binary semaphore given from interrupt context and taken
// by a single waiting task. It starts empty.
type Semaphore struct {
	ch      chan struct{}
	waiters int32
}

// NewSemaphore creates an empty Semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// GiveFromISR signals the semaphore without blocking. Giving an already
// given semaphore has no effect. The result hints whether a waiting task
// is woken by this call.
func (s *Semaphore) GiveFromISR() (woken bool) {
	select {
	case s.ch <- struct{}{}:
		return atomic.LoadInt32(&s.waiters) > 0
	default:
		return false
	}
}

// Take blocks until the semaphore is given.
func (s *Semaphore) Take() {
	atomic.AddInt32(&s.waiters, 1)
	<-s.ch
	atomic.AddInt32(&s.waiters, -1)
}
