// Package ubx decodes and encodes u-blox binary protocol messages.
//
// A message on the wire is
//
//	0xB5 0x62 <class> <id> <length:2 LE> <payload> <ck_a> <ck_b>
//
// where ck_a/ck_b is an 8-bit Fletcher checksum over class, id, length
// and payload. Reader does not verify it; callers that care use
// Message.ChecksumValid.
package ubx
