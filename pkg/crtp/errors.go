package crtp

import "errors"

var (
	// ErrPayloadTooLarge indicates the data doesn't fit in one packet.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrMalformedFrame indicates a frame with bad start bytes or length.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrChecksum indicates a frame with a checksum mismatch.
	ErrChecksum = errors.New("checksum mismatch")
)
