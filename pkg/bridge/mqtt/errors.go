package mqtt

import "errors"

var (
	// ErrPublishTimeout indicates the broker didn't acknowledge in time.
	ErrPublishTimeout = errors.New("publish timeout")
)
