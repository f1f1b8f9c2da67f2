// Package uart provides the CRTP link over an interrupt-driven UART.
package uart

// The driver bridges two execution contexts. Interrupt context is entered
// through Driver.Interrupt, invoked by the peripheral on transmit-empty and
// receive-ready conditions. Task context is everything else: the receive
// task running a FrameConsumer, and callers of the Link operations.
//
// Contexts only share the bounded queues and the completion semaphore:
//
//	receive ISR --ByteQueue--> FrameConsumer --PacketQueue--> Link.ReceivePacket
//	Link.SendPacket --(send buffer, TXE interrupt)--> transmit ISR --Semaphore--> Link.SendPacket
//
// Interrupt context never blocks: a full queue drops the byte or packet.
// The link is best-effort. Framing errors and drops only show in Stats.
// The checksum is a sum mod 255, so a corrupted byte is caught unless it
// flips between 0x00 and 0xff, which adds the same value mod 255.
//
// Sends are not serialized internally. Callers of SendPacket must ensure
// only one send is in flight. SendDataDMA shares the send buffer and must
// never be called while an interrupt-driven send is pending.
