// Package bridge connects a CRTP link to host-side transports.
//
// Packets received on the link are encoded as serial frames and written to
// every attached transport. Frames read from a transport are decoded and
// sent on the link one at a time.
package bridge
