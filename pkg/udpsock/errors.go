package udpsock

import (
    "fmt"
)

// EncodeError reports that the codec failed to serialize an outbound value.
// Nothing was written to the socket.
type EncodeError struct{ Err error }

func (e *EncodeError) Error() string { return "udpsock: encode: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports that a received datagram could not be reconstructed
// into the requested value. The datagram is consumed regardless; the next
// receive sees the next datagram.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "udpsock: decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// MessageTooLargeError reports an outbound payload exceeding the configured
// maximum datagram size. It is detected before any I/O, so no partial or
// truncated datagram is ever sent.
type MessageTooLargeError struct {
    Size  int // encoded payload length
    Limit int // configured maximum datagram size
}

func (e *MessageTooLargeError) Error() string {
    return fmt.Sprintf("udpsock: message too large: %d bytes exceeds maximum datagram size %d", e.Size, e.Limit)
}
