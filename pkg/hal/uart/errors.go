package uart

import "errors"

var (
	// ErrTimeout indicates no byte arrived within the wait period.
	ErrTimeout = errors.New("timeout")
	// ErrDMANotInitialized indicates the driver has no DMA channel.
	ErrDMANotInitialized = errors.New("dma not initialized")
	// ErrDataTooLarge indicates the data doesn't fit in the send buffer.
	ErrDataTooLarge = errors.New("data too large for send buffer")
)
