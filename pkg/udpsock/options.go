package udpsock

import (
    "go.uber.org/zap"

    "udpkit/pkg/codec"
)

// Option customizes a Socket at construction time.
type Option func(*Socket)

// WithCodec selects the codec used for all sends and receives on the socket.
// Both endpoints must use the same codec. Default: codec.JSON().
func WithCodec(c codec.Codec) Option {
    return func(s *Socket) {
        if c != nil { s.codec = c }
    }
}

// WithMaxDatagramSize caps the encoded size of outbound messages and bounds
// the receive scratch buffer. Inbound datagrams larger than this are
// truncated by the OS before this layer sees them.
// Default: DefaultMaxDatagramSize.
func WithMaxDatagramSize(n int) Option {
    return func(s *Socket) {
        if n > 0 { s.maxSize = n }
    }
}

// WithLogger attaches a zap logger for debug-level send/receive tracing.
// Default: no logging.
func WithLogger(log *zap.Logger) Option {
    return func(s *Socket) {
        if log != nil { s.log = log }
    }
}
