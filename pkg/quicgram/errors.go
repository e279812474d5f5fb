package quicgram

import (
    "fmt"
)

// EncodeError reports that the codec failed to serialize an outbound value.
// Nothing was transmitted.
type EncodeError struct{ Err error }

func (e *EncodeError) Error() string { return "quicgram: encode: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports that a received datagram could not be reconstructed
// into the requested value. The datagram is consumed regardless.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "quicgram: decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// MessageTooLargeError reports an outbound payload exceeding the configured
// maximum, detected before any I/O.
type MessageTooLargeError struct {
    Size  int
    Limit int
}

func (e *MessageTooLargeError) Error() string {
    return fmt.Sprintf("quicgram: message too large: %d bytes exceeds maximum datagram size %d", e.Size, e.Limit)
}
