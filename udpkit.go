// Package udpkit glues configuration to typed datagram sockets.
//
// The library proper lives in the subpackages: udpkit/pkg/udpsock (typed UDP
// sockets), udpkit/pkg/quicgram (the same contract over QUIC datagrams) and
// udpkit/pkg/codec (the serialization boundary). This package only builds
// configured sockets.
package udpkit

import (
    "fmt"
    "net"

    "go.uber.org/zap"

    "udpkit/pkg/codec"
    "udpkit/pkg/config"
    "udpkit/pkg/udpsock"
)

// Open binds a typed datagram socket according to cfg: listen address,
// codec by content type, maximum datagram size, and optional kernel buffer
// sizes. A nil logger disables tracing.
func Open(cfg config.SocketConfig, log *zap.Logger) (*udpsock.Socket, error) {
    reg := codec.NewRegistry()
    if cb, err := codec.CBOR(); err == nil {
        reg.Register(cb)
    }
    c := reg.Get(cfg.Codec)
    if c == nil {
        return nil, fmt.Errorf("udpkit: unknown codec: %q", cfg.Codec)
    }

    laddr, err := net.ResolveUDPAddr("udp", cfg.Listen)
    if err != nil { return nil, err }
    conn, err := net.ListenUDP("udp", laddr)
    if err != nil { return nil, err }
    if cfg.ReadBufferBytes > 0 {
        if err := conn.SetReadBuffer(cfg.ReadBufferBytes); err != nil {
            conn.Close()
            return nil, fmt.Errorf("udpkit: set read buffer: %w", err)
        }
    }
    if cfg.WriteBufferBytes > 0 {
        if err := conn.SetWriteBuffer(cfg.WriteBufferBytes); err != nil {
            conn.Close()
            return nil, fmt.Errorf("udpkit: set write buffer: %w", err)
        }
    }

    opts := []udpsock.Option{
        udpsock.WithCodec(c),
        udpsock.WithMaxDatagramSize(cfg.MaxDatagramSize),
    }
    if log != nil {
        opts = append(opts, udpsock.WithLogger(log))
    }
    return udpsock.New(conn, opts...), nil
}
