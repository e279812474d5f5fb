// Package udpsock provides a typed datagram socket: structured values go in,
// single UDP datagrams come out, and vice versa. Serialization is delegated
// to a pluggable codec (see udpkit/pkg/codec); the socket adds no framing,
// length prefix, or header of its own, so one datagram always carries exactly
// one encoded value.
//
// Key concepts:
//   - Socket: owning wrapper around one bound *net.UDPConn with typed
//     Send/Recv operations and a configurable maximum datagram size
//   - Codec: the external capability that converts values to payload bytes
//   - Scratch buffer: pooled storage holding one received datagram before
//     decoding; each in-flight receive owns its buffer exclusively
//
// The socket never retries and never swallows errors. Encode, size-limit,
// and decode failures are reported with dedicated error types; socket I/O
// errors are passed through from the net package. No error is fatal to the
// Socket: after any failure it remains usable for further calls.
package udpsock
