package uart

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
	"github.com/stretchr/testify/require"
)

// testPeripheral records transmitted bytes and raises the transmit-empty
// interrupt from its own goroutine while it is enabled.
type testPeripheral struct {
	lock    sync.Mutex
	written []byte
	txeIE   bool
	rxData  byte
	kick    chan struct{}
}

func newTestPeripheral() *testPeripheral {
	return &testPeripheral{kick: make(chan struct{}, 1)}
}

func (p *testPeripheral) WriteData(b byte) {
	p.lock.Lock()
	p.written = append(p.written, b)
	p.lock.Unlock()
}

func (p *testPeripheral) ReadData() byte {
	return p.rxData
}

func (p *testPeripheral) TxEmpty() bool {
	return true
}

func (p *testPeripheral) EnableTxEmptyInterrupt(enable bool) {
	p.lock.Lock()
	p.txeIE = enable
	p.lock.Unlock()
	if enable {
		select {
		case p.kick <- struct{}{}:
		default:
		}
	}
}

func (p *testPeripheral) txEmptyEnabled() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.txeIE
}

func (p *testPeripheral) take() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	b := p.written
	p.written = nil
	return b
}

func (p *testPeripheral) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.written)
}

func (p *testPeripheral) run(ctx context.Context, h InterruptHandler) {
	for {
		if p.txEmptyEnabled() {
			h.Interrupt(IRQTxEmpty)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-p.kick:
		}
	}
}

// inject raises receive interrupts. It must not overlap with run.
func (p *testPeripheral) inject(h InterruptHandler, data ...byte) {
	for _, b := range data {
		p.rxData = b
		h.Interrupt(IRQRxReady)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func receiveWithin(t *testing.T, d *Driver, timeout time.Duration) *crtp.Packet {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	pkt, err := d.ReceivePacket(ctx)
	require.NoError(t, err)
	return pkt
}

func TestDriverDefaults(t *testing.T) {
	var none *Driver
	require.False(t, none.Initialized())

	d := NewDriver(newTestPeripheral(), nil, Config{})
	require.True(t, d.Initialized())
	conf := d.Config()
	require.Equal(t, 1024, conf.RxQueueSize)
	require.Equal(t, 2, conf.PacketQueueSize)
	require.Equal(t, time.Second, conf.RxTimeout)
	require.IsType(t, &CRTPConsumer{}, d.consumer)
}

func TestSendPacket(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx, d)

	for size := 0; size <= crtp.MaxDataSize; size++ {
		pkt, err := crtp.NewPacket(crtp.NewHeader(crtp.PortSetpoint, 0), seqBytes(0xe0, size))
		require.NoError(t, err)
		require.NoError(t, d.SendPacket(pkt))
		require.Equalf(t, pkt.Bytes(), p.take(), "size %d", size)
		require.False(t, p.txEmptyEnabled())
	}
	require.Equal(t, uint32(crtp.MaxDataSize+1), d.Stats().TxFrames)
}

func TestSendPacketExample(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx, d)

	pkt, err := crtp.NewPacket(0x03, []byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, d.SendPacket(pkt))
	require.Equal(t, []byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c}, p.take())
}

func TestSendPacketInvalid(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	err := d.SendPacket(&crtp.Packet{Header: 0x03, Size: crtp.MaxDataSize + 1})
	require.Equal(t, crtp.ErrPayloadTooLarge, err)
	require.Empty(t, p.take())
	require.False(t, p.txEmptyEnabled())
}

func TestTxStateChecksumSlot(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	pkt, _ := crtp.NewPacket(0x03, []byte{1, 2, 3})

	go d.SendPacket(pkt)
	waitFor(t, p.txEmptyEnabled)
	tx := &d.tx
	require.Equal(t, 8, tx.length)
	require.Equal(t, 7, tx.crcIndex)
	require.Equal(t, byte(0), tx.buf[tx.crcIndex])

	sums := []byte{0x03, 0x06, 0x07, 0x09, 0x0c, 0x0c, 0x0c}
	for _, sum := range sums {
		d.Interrupt(IRQTxEmpty)
		require.Equal(t, sum, tx.buf[tx.crcIndex])
	}
	require.True(t, p.txEmptyEnabled())
	d.Interrupt(IRQTxEmpty)
	require.False(t, p.txEmptyEnabled())
	require.Equal(t, []byte{0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c}, p.take())
}

func TestReceivePacket(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	p.inject(d, 0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c)
	pkt := receiveWithin(t, d, time.Second)
	require.Equal(t, crtp.Header(0x03), pkt.Header)
	require.Equal(t, []byte{1, 2, 3}, pkt.Payload())

	p.inject(d, 0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0d)
	p.inject(d, 0xaa, 0xaa, 0x03, 31)
	p.inject(d, 0xaa, 0xaa, 0x13, 0x01, 0x07, 0x1b)
	pkt = receiveWithin(t, d, time.Second)
	require.Equal(t, crtp.Header(0x13), pkt.Header)
	require.Equal(t, []byte{7}, pkt.Payload())

	waitFor(t, func() bool { return d.Stats().Frames == 2 })
	stats := d.Stats()
	require.Equal(t, uint32(1), stats.BadChecksum)
	require.Equal(t, uint32(1), stats.Oversize)
	require.Equal(t, uint32(8+8+4+6), stats.RxBytes)
}

func TestPacketQueueOverflow(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for n := byte(1); n <= 3; n++ {
		pkt, _ := crtp.NewPacket(crtp.Header(n), []byte{n})
		p.inject(d, pkt.Bytes()...)
	}
	waitFor(t, func() bool {
		s := d.Stats()
		return s.Frames+s.PacketDrops == 3
	})
	require.Equal(t, uint32(1), d.Stats().PacketDrops)
	require.Equal(t, crtp.Header(1), receiveWithin(t, d, time.Second).Header)
	require.Equal(t, crtp.Header(2), receiveWithin(t, d, time.Second).Header)
}

func TestRawQueueOverflow(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{RxQueueSize: 4})
	p.inject(d, 1, 2, 3, 4, 5, 6)
	stats := d.Stats()
	require.Equal(t, uint32(4), stats.RxBytes)
	require.Equal(t, uint32(2), stats.RxDropped)
}

func TestReceiveTimeoutResync(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{RxTimeout: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	p.inject(d, 0xaa, 0xaa, 0x03, 0x03, 1)
	waitFor(t, func() bool { return d.Stats().Timeouts == 1 })
	p.inject(d, 0xaa, 0xaa, 0x03, 0x03, 1, 2, 3, 0x0c)
	pkt := receiveWithin(t, d, time.Second)
	require.Equal(t, []byte{1, 2, 3}, pkt.Payload())
	require.Equal(t, uint32(1), d.Stats().Timeouts)
}

func TestRunStopsOnCancel(t *testing.T) {
	d := NewDriver(newTestPeripheral(), nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Run didn't stop")
	}
}

func TestSendData(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	d.SendData([]byte("hello"))
	require.Equal(t, byte('!'), d.Putchar('!'))
	require.Equal(t, []byte("hello!"), p.take())
	require.False(t, p.txEmptyEnabled())
}

type testDMA struct {
	busy    int32
	started [][]byte
}

func (d *testDMA) Busy() bool {
	return atomic.AddInt32(&d.busy, -1) >= 0
}

func (d *testDMA) Start(buf []byte) error {
	d.started = append(d.started, append([]byte(nil), buf...))
	return nil
}

func TestSendDataDMA(t *testing.T) {
	d := NewDriver(newTestPeripheral(), nil, Config{})
	require.Equal(t, ErrDMANotInitialized, d.SendDataDMA([]byte{1}))

	dma := &testDMA{busy: 3}
	d = NewDriver(newTestPeripheral(), nil, Config{DMA: dma})
	require.NoError(t, d.SendDataDMA([]byte{1, 2, 3}))
	require.True(t, atomic.LoadInt32(&dma.busy) < 0)
	require.Equal(t, [][]byte{{1, 2, 3}}, dma.started)

	require.Equal(t, ErrDataTooLarge, d.SendDataDMA(make([]byte, SendBufferSize+1)))
	require.NoError(t, d.SendDataDMA(make([]byte, SendBufferSize)))
	require.Len(t, dma.started, 2)
	require.Len(t, dma.started[1], SendBufferSize)
}

func TestLink(t *testing.T) {
	p := newTestPeripheral()
	d := NewDriver(p, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx, d)
	go d.Run(ctx)

	var link LinkOperations = d.Link()
	require.NoError(t, link.SetEnable(true))
	require.NoError(t, link.SetEnable(false))

	pkt, _ := crtp.NewPacket(crtp.NewHeader(crtp.PortConsole, 0), []byte("hi"))
	require.NoError(t, link.SendPacket(pkt))
	require.Equal(t, pkt.Bytes(), p.take())

	// run only raises transmit interrupts, so receive injection is safe here.
	p.inject(d, pkt.Bytes()...)
	got, err := link.ReceivePacket()
	require.NoError(t, err)
	require.Equal(t, pkt, got)

	rctx, rcancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer rcancel()
	_, err = d.Link().ReceivePacketContext(rctx)
	require.Equal(t, context.DeadlineExceeded, err)
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestConsoleConsumer(t *testing.T) {
	var connected int32
	checked := make(chan bool, 16)
	out := &syncBuffer{}
	consumer := &ConsoleConsumer{
		Console: out,
		Connected: func() bool {
			c := atomic.LoadInt32(&connected) != 0
			checked <- c
			return c
		},
	}
	p := newTestPeripheral()
	d := NewDriver(p, consumer, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	p.inject(d, 'x')
	require.False(t, <-checked)
	atomic.StoreInt32(&connected, 1)
	p.inject(d, 'o', 'k')
	require.True(t, <-checked)
	require.True(t, <-checked)
	waitFor(t, func() bool { return out.String() == "ok" })
}

func TestConsoleConsumerStartDelay(t *testing.T) {
	out := &syncBuffer{}
	p := newTestPeripheral()
	d := NewDriver(p, &ConsoleConsumer{Console: out}, Config{StartDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	p.inject(d, 'x')
	time.Sleep(10 * time.Millisecond)
	require.Empty(t, out.String())
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
