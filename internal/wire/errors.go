package wire

import "errors"

// ErrFraming covers every fatal-for-the-connection decoding failure:
// length prefix outside the legal range, unrecognized type, a
// (type, length) mismatch, or a truncated frame.
var ErrFraming = errors.New("wire: framing error")

// ErrFrameTooLarge is returned when a length prefix exceeds
// MaxFrameLength, before any buffer is allocated to hold it.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum length")
