package bridge

import "errors"

var (
	// ErrLinkClosed indicates the bridge stopped receiving from the link.
	ErrLinkClosed = errors.New("link closed")
)
