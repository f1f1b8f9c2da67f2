// Package crtp provides the CRTP packet model and its serial frame format.
package crtp

// CRTP packets travel over the UART link wrapped in a frame:
//
//	0xAA 0xAA <header> <size> <data...> <checksum>
//
// The checksum is the sum of header, size and data bytes modulo 255.
// Start markers and the checksum byte itself are not covered.
// The frame format carries no sequence numbers and no acknowledgements:
// a frame is either delivered intact or silently dropped.
