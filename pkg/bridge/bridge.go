package bridge

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// Bridge pumps packets between a link and attached transports.
type Bridge struct {
	link Link

	sendLock  sync.Mutex
	portsLock sync.RWMutex
	ports     map[*Port]struct{}
	closed    int32
}

// New creates a Bridge on link.
func New(link Link) *Bridge {
	return &Bridge{link: link, ports: make(map[*Port]struct{})}
}

// Send sends a packet on the link. Concurrent calls are serialized as the
// link allows a single pending send.
func (b *Bridge) Send(pkt *crtp.Packet) error {
	if atomic.LoadInt32(&b.closed) != 0 {
		return ErrLinkClosed
	}
	b.sendLock.Lock()
	defer b.sendLock.Unlock()
	return b.link.SendPacket(pkt)
}

// Attach adds a transport. The returned Port must be run to forward
// frames from the transport to the link.
func (b *Bridge) Attach(name string, rw PacketReadWriter) *Port {
	p := &Port{bridge: b, rw: rw, name: name}
	b.portsLock.Lock()
	b.ports[p] = struct{}{}
	b.portsLock.Unlock()
	glog.V(2).Infof("bridge: attached %s", name)
	return p
}

// Ports returns the number of attached transports.
func (b *Bridge) Ports() int {
	b.portsLock.RLock()
	defer b.portsLock.RUnlock()
	return len(b.ports)
}

// Run implements framework.Runnable. It forwards packets received on the
// link to all transports until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	defer atomic.StoreInt32(&b.closed, 1)
	for {
		pkt, err := b.link.ReceivePacketContext(ctx)
		if err != nil {
			return err
		}
		b.broadcast(pkt)
	}
}

func (b *Bridge) broadcast(pkt *crtp.Packet) {
	frame := pkt.Bytes()
	b.portsLock.RLock()
	ports := make([]*Port, 0, len(b.ports))
	for p := range b.ports {
		ports = append(ports, p)
	}
	b.portsLock.RUnlock()
	for _, p := range ports {
		if err := p.rw.WritePacket(frame); err != nil {
			glog.Warningf("bridge: write to %s failed: %v", p.name, err)
			b.detach(p)
			p.Close()
		}
	}
}

func (b *Bridge) detach(p *Port) {
	b.portsLock.Lock()
	_, ok := b.ports[p]
	delete(b.ports, p)
	b.portsLock.Unlock()
	if ok {
		glog.V(2).Infof("bridge: detached %s", p.name)
	}
}

// Port is a transport attached to a Bridge.
type Port struct {
	bridge *Bridge
	rw     PacketReadWriter
	name   string
}

// Name implements framework.Named.
func (p *Port) Name() string {
	return p.name
}

// Run implements framework.Runnable. Malformed frames are dropped.
// The transport is detached and closed when Run returns.
func (p *Port) Run(ctx context.Context) error {
	defer p.bridge.detach(p)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-done:
		}
	}()
	for {
		frame, err := p.rw.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		pkt, err := crtp.DecodeFrame(frame)
		if err != nil {
			glog.V(2).Infof("bridge: %s: drop frame: %v", p.name, err)
			continue
		}
		if err = p.bridge.Send(pkt); err != nil {
			return err
		}
	}
}

// Close closes the transport if possible.
func (p *Port) Close() error {
	if closer, ok := p.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
