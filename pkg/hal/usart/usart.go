// Package usart models a UART peripheral on top of a byte line.
//
// The model owns a single interrupt line: one goroutine shifts transmit
// bytes out to the line and raises transmit-empty and receive-ready
// interrupts on the attached handler, so handler calls never overlap.
package usart

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/uart"
)

var (
	// ErrDMABusy indicates a DMA transfer is already in progress.
	ErrDMABusy = errors.New("dma busy")
	// ErrNoHandler indicates Run was called before Attach.
	ErrNoHandler = errors.New("no interrupt handler attached")
)

// rxFIFODepth is the number of received bytes held before an overrun.
const rxFIFODepth = 64

// USART implements uart.Peripheral and uart.DMA over an io.ReadWriter.
type USART struct {
	line    io.ReadWriter
	handler uart.InterruptHandler

	lock    sync.Mutex
	dr      byte
	txFull  bool
	rdr     byte
	txeIE   bool
	dmaBuf  []byte
	dmaPos  int
	dmaBusy bool

	kick chan struct{}
	rxCh chan byte
}

// New creates a USART on line.
func New(line io.ReadWriter) *USART {
	return &USART{
		line: line,
		kick: make(chan struct{}, 1),
		rxCh: make(chan byte, rxFIFODepth),
	}
}

// Attach connects the interrupt handler. It must be called before Run.
func (u *USART) Attach(h uart.InterruptHandler) {
	u.handler = h
}

// WriteData implements uart.Peripheral.
func (u *USART) WriteData(b byte) {
	u.lock.Lock()
	u.dr, u.txFull = b, true
	u.lock.Unlock()
	u.wake()
}

// ReadData implements uart.Peripheral.
func (u *USART) ReadData() byte {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.rdr
}

// TxEmpty implements uart.Peripheral.
func (u *USART) TxEmpty() bool {
	u.lock.Lock()
	defer u.lock.Unlock()
	return !u.txFull
}

// EnableTxEmptyInterrupt implements uart.Peripheral.
func (u *USART) EnableTxEmptyInterrupt(enable bool) {
	u.lock.Lock()
	u.txeIE = enable
	u.lock.Unlock()
	u.wake()
}

// Busy implements uart.DMA.
func (u *USART) Busy() bool {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.dmaBusy
}

// Start implements uart.DMA. The buffer is read while the transfer runs.
func (u *USART) Start(buf []byte) error {
	u.lock.Lock()
	if u.dmaBusy {
		u.lock.Unlock()
		return ErrDMABusy
	}
	if len(buf) > 0 {
		u.dmaBuf, u.dmaPos, u.dmaBusy = buf, 0, true
	}
	u.lock.Unlock()
	u.wake()
	return nil
}

// Close closes the line if possible.
func (u *USART) Close() error {
	if closer, ok := u.line.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run drives the line and raises interrupts until ctx is canceled or the
// line fails. When ctx is canceled the line is closed, which also stops
// the goroutine blocked reading it.
func (u *USART) Run(ctx context.Context) error {
	if u.handler == nil {
		return ErrNoHandler
	}
	errCh := make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go u.readLoop(subCtx, errCh)
	for {
		dmaActive, err := u.shift()
		if err != nil {
			return err
		}
		var status uart.IRQStatus
		select {
		case b := <-u.rxCh:
			u.latch(b)
			status |= uart.IRQRxReady
		default:
		}
		if u.txEmptyPending() {
			status |= uart.IRQTxEmpty
		}
		if status != 0 {
			u.handler.Interrupt(status)
			continue
		}
		if dmaActive {
			continue
		}
		select {
		case <-ctx.Done():
			u.Close()
			return ctx.Err()
		case err := <-errCh:
			return err
		case b := <-u.rxCh:
			u.latch(b)
			u.handler.Interrupt(uart.IRQRxReady)
		case <-u.kick:
		}
	}
}

func (u *USART) readLoop(ctx context.Context, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := u.line.Read(buf)
		if err != nil {
			glog.V(2).Infof("usart: line read stopped: %v", err)
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case u.rxCh <- buf[0]:
		case <-ctx.Done():
			return
		default:
			glog.V(2).Info("usart: receive overrun")
		}
	}
}

// shift moves the transmit data register, or the next DMA byte, to the line.
// It reports whether a DMA transfer still has bytes to send.
func (u *USART) shift() (dmaActive bool, err error) {
	u.lock.Lock()
	var b byte
	var out bool
	if u.txFull {
		b, out, u.txFull = u.dr, true, false
	} else if u.dmaBusy {
		b, out = u.dmaBuf[u.dmaPos], true
		if u.dmaPos++; u.dmaPos >= len(u.dmaBuf) {
			u.dmaBuf, u.dmaBusy = nil, false
		}
	}
	dmaActive = u.dmaBusy
	u.lock.Unlock()
	if out {
		_, err = u.line.Write([]byte{b})
	}
	return
}

func (u *USART) latch(b byte) {
	u.lock.Lock()
	u.rdr = b
	u.lock.Unlock()
}

func (u *USART) txEmptyPending() bool {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.txeIE && !u.txFull
}

func (u *USART) wake() {
	select {
	case u.kick <- struct{}{}:
	default:
	}
}
