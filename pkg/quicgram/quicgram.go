// Package quicgram carries the same typed one-value-per-datagram contract as
// udpkit/pkg/udpsock over QUIC unreliable datagrams (RFC 9221). Compared to
// plain UDP it adds an encrypted, authenticated session while keeping
// datagram semantics: no retransmission, no ordering, no fragmentation.
package quicgram

import (
    "context"
    "crypto/rand"
    "crypto/rsa"
    "crypto/tls"
    "crypto/x509"
    "math/big"
    "net"
    "time"

    quicgo "github.com/quic-go/quic-go"
    "go.uber.org/zap"

    "udpkit/pkg/codec"
)

// ALPN is the application protocol identifier both endpoints must offer.
const ALPN = "udpkit"

// DefaultMaxDatagramSize caps outbound payloads before the QUIC layer's own
// per-path limit applies. QUIC datagrams are bounded by the path MTU, so the
// effective limit is usually much lower than for UDP sockets.
const DefaultMaxDatagramSize = 64 * 1024

// Option customizes a Conn at establishment time.
type Option func(*Conn)

// WithCodec selects the codec used on the connection. Default: codec.JSON().
func WithCodec(c codec.Codec) Option {
    return func(cn *Conn) {
        if c != nil { cn.codec = c }
    }
}

// WithMaxDatagramSize caps the encoded size of outbound messages.
// Default: DefaultMaxDatagramSize.
func WithMaxDatagramSize(n int) Option {
    return func(cn *Conn) {
        if n > 0 { cn.maxSize = n }
    }
}

// WithLogger attaches a zap logger for debug-level tracing.
func WithLogger(log *zap.Logger) Option {
    return func(cn *Conn) {
        if log != nil { cn.log = log }
    }
}

// Conn is a typed datagram channel over one QUIC connection.
type Conn struct {
    qc      quicgo.Connection
    codec   codec.Codec
    maxSize int
    log     *zap.Logger
}

func newConn(qc quicgo.Connection, opts []Option) *Conn {
    cn := &Conn{qc: qc, codec: codec.Default(), maxSize: DefaultMaxDatagramSize, log: zap.NewNop()}
    for _, o := range opts { o(cn) }
    return cn
}

// Listener accepts inbound typed datagram connections.
type Listener struct {
    l    *quicgo.Listener
    opts []Option
}

// Listen starts a QUIC listener on addr. A nil tlsConf gets an ephemeral
// self-signed certificate, suitable for tests and closed deployments only.
func Listen(addr string, tlsConf *tls.Config, opts ...Option) (*Listener, error) {
    if tlsConf == nil {
        var err error
        tlsConf, err = SelfSignedTLS()
        if err != nil { return nil, err }
    }
    l, err := quicgo.ListenAddr(addr, tlsConf, &quicgo.Config{EnableDatagrams: true})
    if err != nil { return nil, err }
    return &Listener{l: l, opts: opts}, nil
}

// Accept blocks until an inbound connection completes its handshake or ctx
// is done.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
    qc, err := l.l.Accept(ctx)
    if err != nil { return nil, err }
    return newConn(qc, l.opts), nil
}

// Addr returns the local listening address.
func (l *Listener) Addr() net.Addr { return l.l.Addr() }

// Close stops the listener and unblocks Accept.
func (l *Listener) Close() error { return l.l.Close() }

// Dial establishes a typed datagram connection to addr. A nil tlsConf skips
// certificate verification, matching the listener's self-signed default;
// production callers should supply their own configuration.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, opts ...Option) (*Conn, error) {
    if tlsConf == nil {
        tlsConf = &tls.Config{
            InsecureSkipVerify: true,
            NextProtos:         []string{ALPN},
            MinVersion:         tls.VersionTLS13,
        }
    }
    qc, err := quicgo.DialAddr(ctx, addr, tlsConf, &quicgo.Config{EnableDatagrams: true})
    if err != nil { return nil, err }
    return newConn(qc, opts), nil
}

// Send encodes v and transmits it as one unreliable QUIC datagram. The error
// contract matches udpsock: *EncodeError on codec failure,
// *MessageTooLargeError before any I/O when the payload exceeds the
// configured maximum, and transport errors passed through (including the
// QUIC layer's own too-large rejection when the payload exceeds the current
// path limit).
func (c *Conn) Send(ctx context.Context, v any) error {
    if err := ctx.Err(); err != nil { return err }
    payload, err := c.codec.Marshal(v)
    if err != nil { return &EncodeError{Err: err} }
    if len(payload) > c.maxSize {
        return &MessageTooLargeError{Size: len(payload), Limit: c.maxSize}
    }
    if err := c.qc.SendDatagram(payload); err != nil { return err }
    c.log.Debug("datagram sent", zap.Int("bytes", len(payload)))
    return nil
}

// Recv blocks until one datagram arrives, then decodes it into v. Decode
// failures are reported as *DecodeError; the datagram is consumed either
// way.
func (c *Conn) Recv(ctx context.Context, v any) error {
    payload, err := c.qc.ReceiveDatagram(ctx)
    if err != nil { return err }
    if err := c.codec.Unmarshal(payload, v); err != nil {
        return &DecodeError{Err: err}
    }
    c.log.Debug("datagram received", zap.Int("bytes", len(payload)))
    return nil
}

// LocalAddr returns the local connection address.
func (c *Conn) LocalAddr() net.Addr { return c.qc.LocalAddr() }

// RemoteAddr returns the peer's connection address.
func (c *Conn) RemoteAddr() net.Addr { return c.qc.RemoteAddr() }

// Close terminates the QUIC connection.
func (c *Conn) Close() error { return c.qc.CloseWithError(0, "") }

// SelfSignedTLS builds a server TLS config with a short-lived self-signed
// certificate for local or test use.
func SelfSignedTLS() (*tls.Config, error) {
    cert, err := selfSignedCert()
    if err != nil { return nil, err }
    return &tls.Config{
        Certificates: []tls.Certificate{cert},
        NextProtos:   []string{ALPN},
        MinVersion:   tls.VersionTLS13,
    }, nil
}

func selfSignedCert() (tls.Certificate, error) {
    priv, err := rsa.GenerateKey(rand.Reader, 2048)
    if err != nil { return tls.Certificate{}, err }
    tmpl := x509.Certificate{
        SerialNumber: big.NewInt(time.Now().UnixNano()),
        NotBefore:    time.Now().Add(-time.Minute),
        NotAfter:     time.Now().Add(24 * time.Hour),
        KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
        ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
        DNSNames:     []string{"localhost"},
    }
    der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
    if err != nil { return tls.Certificate{}, err }
    return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
