package uart

import "sync/atomic"

// Stats holds driver counters since creation.
type Stats struct {
	// Interrupt side
	RxBytes   uint32 // bytes pushed into the raw-byte queue
	RxDropped uint32 // bytes dropped because the raw-byte queue was full

	// Receive framing
	Frames      uint32 // packets validated and queued
	BadChecksum uint32 // frames dropped on checksum mismatch
	Oversize    uint32 // frames dropped on a size byte above the maximum
	PacketDrops uint32 // validated packets dropped because the packet queue was full
	Timeouts    uint32 // frames abandoned by the idle timeout

	// Transmit
	TxFrames uint32 // frames fully shifted out
}

func (s *Stats) add(counter *uint32) {
	atomic.AddUint32(counter, 1)
}

func (s *Stats) snapshot() Stats {
	return Stats{
		RxBytes:     atomic.LoadUint32(&s.RxBytes),
		RxDropped:   atomic.LoadUint32(&s.RxDropped),
		Frames:      atomic.LoadUint32(&s.Frames),
		BadChecksum: atomic.LoadUint32(&s.BadChecksum),
		Oversize:    atomic.LoadUint32(&s.Oversize),
		PacketDrops: atomic.LoadUint32(&s.PacketDrops),
		Timeouts:    atomic.LoadUint32(&s.Timeouts),
		TxFrames:    atomic.LoadUint32(&s.TxFrames),
	}
}
