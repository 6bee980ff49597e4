package xex

import "github.com/pkg/errors"

var (
	// ErrBadMagic marks a buffer whose first four bytes are not "XEX2".
	ErrBadMagic = errors.New("not a XEX2 image, bad magic")

	// ErrTruncated marks a declared record count or out-of-line payload
	// that extends past the end of the buffer.
	ErrTruncated = errors.New("data extends past end of image")
)
