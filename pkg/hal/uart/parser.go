package uart

import "github.com/Ffreasy/crazyflie-firmware/pkg/crtp"

// RxState is the state of the receive framing engine.
type RxState int

const (
	// AwaitFirstStart waits for the first start byte.
	AwaitFirstStart RxState = iota
	// AwaitSecondStart waits for the second start byte.
	AwaitSecondStart
	// AwaitHeader waits for the packet header.
	AwaitHeader
	// AwaitSize waits for the payload size.
	AwaitSize
	// AwaitData waits for payload bytes.
	AwaitData
	// AwaitChecksum waits for the checksum byte.
	AwaitChecksum
)

var rxStateNames = [...]string{
	AwaitFirstStart:  "AwaitFirstStart",
	AwaitSecondStart: "AwaitSecondStart",
	AwaitHeader:      "AwaitHeader",
	AwaitSize:        "AwaitSize",
	AwaitData:        "AwaitData",
	AwaitChecksum:    "AwaitChecksum",
}

func (s RxState) String() string {
	if s >= 0 && int(s) < len(rxStateNames) {
		return rxStateNames[s]
	}
	return "RxState(?)"
}

// DropReason tells why a frame in flight was abandoned.
type DropReason int

const (
	// DropNone means nothing was dropped.
	DropNone DropReason = iota
	// DropOversize means the size byte exceeded crtp.MaxDataSize.
	DropOversize
	// DropChecksum means the checksum didn't match.
	DropChecksum
	// DropTimeout means the idle timeout expired mid-frame.
	DropTimeout
)

// ParseResult is the outcome of one parsing step.
type ParseResult struct {
	State  RxState
	Packet *crtp.Packet
	Drop   DropReason
}

// Parser recovers CRTP frames from a byte stream one byte at a time.
// The zero value waits for the first start byte.
type Parser struct {
	state  RxState
	packet crtp.Packet
	index  byte
	sum    byte
}

// State gets the current state.
func (p *Parser) State() RxState {
	return p.state
}

// Reset drops any frame in flight.
func (p *Parser) Reset() {
	p.state = AwaitFirstStart
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Packet, pr.Drop = p.parseByte(b)
	pr.State = p.state
	return
}

// Timeout notifies the parser that no byte arrived within the idle timeout.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != AwaitFirstStart {
		pr.Drop = DropTimeout
	}
	p.state = AwaitFirstStart
	pr.State = p.state
	return
}

func (p *Parser) parseByte(b byte) (*crtp.Packet, DropReason) {
	switch p.state {
	case AwaitFirstStart:
		if b == crtp.StartByte {
			p.state = AwaitSecondStart
		}
	case AwaitSecondStart:
		if b == crtp.StartByte {
			p.state = AwaitHeader
		} else {
			p.state = AwaitFirstStart
		}
	case AwaitHeader:
		p.packet = crtp.Packet{Header: crtp.Header(b)}
		p.sum = crtp.SumStep(0, b)
		p.state = AwaitSize
	case AwaitSize:
		if b > crtp.MaxDataSize {
			p.state = AwaitFirstStart
			return nil, DropOversize
		}
		p.packet.Size = b
		p.sum = crtp.SumStep(p.sum, b)
		p.index = 0
		if b == 0 {
			p.state = AwaitChecksum
		} else {
			p.state = AwaitData
		}
	case AwaitData:
		p.packet.Data[p.index] = b
		p.sum = crtp.SumStep(p.sum, b)
		p.index++
		if p.index == p.packet.Size {
			p.state = AwaitChecksum
		}
	case AwaitChecksum:
		p.state = AwaitFirstStart
		if b != p.sum {
			return nil, DropChecksum
		}
		pkt := p.packet
		return &pkt, DropNone
	}
	return nil, DropNone
}
