package uart

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
)

// SendBufferSize is the capacity of the shared send buffer.
const SendBufferSize = 64

// Peripheral is the UART data path seen by the driver. Register setup
// (clocks, pins, baud rate) is done before the driver is created.
type Peripheral interface {
	// WriteData loads a byte into the transmit data register.
	WriteData(b byte)
	// ReadData reads the received byte from the data register.
	ReadData() byte
	// TxEmpty reports whether the transmit data register is empty.
	TxEmpty() bool
	// EnableTxEmptyInterrupt enables or disables the transmit-empty interrupt.
	EnableTxEmptyInterrupt(enable bool)
}

// DMA is a bulk transmit channel reading straight from a memory buffer.
type DMA interface {
	// Busy reports whether a transfer is in progress.
	Busy() bool
	// Start begins transferring buf. buf must stay untouched until Busy
	// reports false.
	Start(buf []byte) error
}

// IRQStatus is a set of pending interrupt conditions.
type IRQStatus uint8

const (
	// IRQTxEmpty means the transmit data register is empty.
	IRQTxEmpty IRQStatus = 1 << iota
	// IRQRxReady means a received byte is ready.
	IRQRxReady
)

// InterruptHandler is invoked by a peripheral in interrupt context.
// Calls must not overlap.
type InterruptHandler interface {
	Interrupt(status IRQStatus) (woken bool)
}

// Config defines driver tunables.
type Config struct {
	// RxQueueSize is the capacity of the raw-byte queue.
	RxQueueSize int
	// PacketQueueSize is the capacity of the validated packet queue.
	PacketQueueSize int
	// RxTimeout resets the framing engine when no byte arrives in time.
	RxTimeout time.Duration
	// StartDelay is waited by the GPS and console consumers before they start.
	StartDelay time.Duration
	// DMA is the optional bulk transmit channel.
	DMA DMA
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		RxQueueSize:     1024,
		PacketQueueSize: 2,
		RxTimeout:       1000 * time.Millisecond,
		StartDelay:      2 * time.Second,
	}
}

// txState is the interrupt-driven transmit progress. It is written by
// SendPacket before the transmit-empty interrupt is enabled and then only
// by the interrupt until the completion semaphore is given.
type txState struct {
	buf      [SendBufferSize]byte
	index    int
	length   int
	crcIndex int
}

// step shifts out one byte and returns true once the frame is complete.
// The checksum slot accumulates the byte after the one just sent, so it
// holds the full sum when its own turn comes.
func (t *txState) step(p Peripheral) (done bool) {
	if t.index >= t.length {
		return true
	}
	p.WriteData(t.buf[t.index])
	t.index++
	if t.index > 1 && t.index < t.length-1 {
		t.buf[t.crcIndex] = crtp.SumStep(t.buf[t.crcIndex], t.buf[t.index])
	}
	return false
}

// Driver is the CRTP link over one UART peripheral.
type Driver struct {
	config   Config
	periph   Peripheral
	consumer FrameConsumer

	rxQueue     *ByteQueue
	packetQueue *PacketQueue
	sendDone    *Semaphore

	tx    txState
	stats Stats
	ready int32
}

// NewDriver creates a driver on an initialized peripheral.
// A nil consumer selects the CRTP framing engine.
func NewDriver(periph Peripheral, consumer FrameConsumer, conf Config) *Driver {
	def := DefaultConfig()
	if conf.RxQueueSize <= 0 {
		conf.RxQueueSize = def.RxQueueSize
	}
	if conf.PacketQueueSize <= 0 {
		conf.PacketQueueSize = def.PacketQueueSize
	}
	if conf.RxTimeout <= 0 {
		conf.RxTimeout = def.RxTimeout
	}
	if consumer == nil {
		consumer = &CRTPConsumer{}
	}
	d := &Driver{
		config:      conf,
		periph:      periph,
		consumer:    consumer,
		rxQueue:     NewByteQueue(conf.RxQueueSize),
		packetQueue: NewPacketQueue(conf.PacketQueueSize),
		sendDone:    NewSemaphore(),
	}
	atomic.StoreInt32(&d.ready, 1)
	return d
}

// Initialized reports whether the driver finished initialization.
func (d *Driver) Initialized() bool {
	return d != nil && atomic.LoadInt32(&d.ready) != 0
}

// Config returns the effective configuration.
func (d *Driver) Config() Config {
	return d.config
}

// Stats returns a snapshot of the counters.
func (d *Driver) Stats() Stats {
	return d.stats.snapshot()
}

// Run runs the receive task until ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	return d.consumer.ConsumeFrames(ctx, d)
}

// Interrupt implements InterruptHandler.
func (d *Driver) Interrupt(status IRQStatus) (woken bool) {
	if status&IRQTxEmpty != 0 {
		if d.tx.step(d.periph) {
			d.periph.EnableTxEmptyInterrupt(false)
			d.stats.add(&d.stats.TxFrames)
			woken = d.sendDone.GiveFromISR()
		}
	}
	if status&IRQRxReady != 0 {
		if d.rxQueue.PushFromISR(d.periph.ReadData()) {
			d.stats.add(&d.stats.RxBytes)
		} else {
			d.stats.add(&d.stats.RxDropped)
		}
	}
	return
}

// SendPacket transmits one frame and blocks until its last byte has been
// handed to the peripheral. There is no timeout. Calls must not overlap.
func (d *Driver) SendPacket(pkt *crtp.Packet) error {
	if !pkt.IsValid() {
		return crtp.ErrPayloadTooLarge
	}
	t := &d.tx
	t.buf[0], t.buf[1] = crtp.StartByte, crtp.StartByte
	t.buf[2], t.buf[3] = byte(pkt.Header), pkt.Size
	copy(t.buf[4:], pkt.Payload())
	t.index = 1
	t.length = int(pkt.Size) + crtp.FrameOverhead
	t.crcIndex = t.length - 1
	t.buf[t.crcIndex] = 0

	d.periph.WriteData(t.buf[0])
	d.periph.EnableTxEmptyInterrupt(true)
	d.sendDone.Take()
	return nil
}

// ReceivePacket waits for the next validated packet.
func (d *Driver) ReceivePacket(ctx context.Context) (*crtp.Packet, error) {
	return d.packetQueue.Pop(ctx)
}

// SendData writes raw bytes by polling the transmit-empty flag.
// It doesn't use interrupts and must not overlap with SendPacket.
func (d *Driver) SendData(data []byte) {
	for _, b := range data {
		for !d.periph.TxEmpty() {
			runtime.Gosched()
		}
		d.periph.WriteData(b)
	}
}

// Putchar writes a single raw byte.
func (d *Driver) Putchar(c byte) byte {
	d.SendData([]byte{c})
	return c
}

// SendDataDMA starts a bulk transfer of data from the send buffer.
// It waits for a previous DMA transfer to finish but doesn't wait for the
// new one. It must never be called while a SendPacket is pending.
func (d *Driver) SendDataDMA(data []byte) error {
	dma := d.config.DMA
	if dma == nil {
		return ErrDMANotInitialized
	}
	if len(data) > len(d.tx.buf) {
		return ErrDataTooLarge
	}
	for dma.Busy() {
		runtime.Gosched()
	}
	n := copy(d.tx.buf[:], data)
	return dma.Start(d.tx.buf[:n])
}

func (d *Driver) deliver(pkt *crtp.Packet) {
	if d.packetQueue.TryPush(pkt) {
		d.stats.add(&d.stats.Frames)
	} else {
		d.stats.add(&d.stats.PacketDrops)
	}
}
