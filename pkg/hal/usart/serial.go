package usart

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the link speed used by the CRTP UART.
const DefaultBaudRate = 9600

// OpenSerial opens a serial port in 8N1 mode and wraps it in a USART.
func OpenSerial(name string, baud int) (*USART, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %v", name, err)
	}
	return New(port), nil
}
