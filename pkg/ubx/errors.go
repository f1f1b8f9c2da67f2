package ubx

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates the payload doesn't fit in a message.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrShortPayload indicates the payload is shorter than the message layout.
	ErrShortPayload = errors.New("short payload")
)

// UnexpectedMessageError is returned when decoding the wrong message type.
type UnexpectedMessageError struct {
	Want ClassID
	Got  ClassID
}

// Error implements error.
func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("unexpected message %04x, want %04x", uint16(e.Got), uint16(e.Want))
}
