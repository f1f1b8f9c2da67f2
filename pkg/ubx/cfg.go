package ubx

import "encoding/binary"

// Port identifiers used in configuration messages.
const (
	PortDDC   byte = 0
	PortUART1 byte = 1
	PortUART2 byte = 2
	PortUSB   byte = 3
	PortSPI   byte = 4
)

// Protocol mask bits for CFG-PRT.
const (
	ProtoUBX  uint16 = 0x0001
	ProtoNMEA uint16 = 0x0002
	ProtoRTCM uint16 = 0x0004
)

// ModeUART8N1 is the CFG-PRT mode for 8 data bits, no parity, 1 stop bit.
const ModeUART8N1 uint32 = 0x000008d0

// NewCfgPrt creates a CFG-PRT message configuring a UART port.
func NewCfgPrt(port byte, baud uint32, inProto, outProto uint16) *Message {
	payload := make([]byte, 20)
	payload[0] = port
	binary.LittleEndian.PutUint32(payload[4:], ModeUART8N1)
	binary.LittleEndian.PutUint32(payload[8:], baud)
	binary.LittleEndian.PutUint16(payload[12:], inProto)
	binary.LittleEndian.PutUint16(payload[14:], outProto)
	m, _ := NewMessage(CfgPrtClassID, payload)
	return m
}

// NewCfgMsg creates a CFG-MSG message setting the output rate of msg on
// each of the six ports.
func NewCfgMsg(msg ClassID, rates [6]byte) *Message {
	payload := make([]byte, 8)
	payload[0], payload[1] = msg.Class(), msg.ID()
	copy(payload[2:], rates[:])
	m, _ := NewMessage(CfgMsgClassID, payload)
	return m
}
