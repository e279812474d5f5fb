package udpsock

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net"
    "sync"
    "time"

    "go.uber.org/zap"

    "udpkit/pkg/codec"
)

// DefaultMaxDatagramSize is the default cap on outbound payloads and the
// default receive scratch buffer size. 64 KiB covers the largest payload a
// UDP datagram can carry (65507 bytes over IPv4), so the default never
// truncates a legal inbound datagram.
const DefaultMaxDatagramSize = 64 * 1024

// aLongTimeAgo is a non-zero past instant used to force blocked I/O to
// return when a context is cancelled.
var aLongTimeAgo = time.Unix(1, 0)

// Socket is a typed datagram socket. It owns one *net.UDPConn and exchanges
// structured values with peers, one encoded value per datagram.
//
// A Socket may be shared across goroutines for concurrent sends and
// receives. It holds no session state: after any error it remains usable.
type Socket struct {
    conn    *net.UDPConn
    codec   codec.Codec
    maxSize int
    bufs    sync.Pool
    rd      *deadlineGate
    wr      *deadlineGate
    log     *zap.Logger
}

// Bind creates a Socket listening on the given local address
// (e.g. "127.0.0.1:0"). Messages are sent with SendTo.
func Bind(addr string, opts ...Option) (*Socket, error) {
    laddr, err := net.ResolveUDPAddr("udp", addr)
    if err != nil { return nil, err }
    c, err := net.ListenUDP("udp", laddr)
    if err != nil { return nil, err }
    return New(c, opts...), nil
}

// Dial creates a Socket connected to the given remote address. Messages are
// sent with Send and only datagrams from that peer are received.
func Dial(addr string, opts ...Option) (*Socket, error) {
    raddr, err := net.ResolveUDPAddr("udp", addr)
    if err != nil { return nil, err }
    c, err := net.DialUDP("udp", nil, raddr)
    if err != nil { return nil, err }
    return New(c, opts...), nil
}

// New wraps an already bound or connected *net.UDPConn. The Socket takes
// ownership of the conn; Close releases it.
func New(conn *net.UDPConn, opts ...Option) *Socket {
    s := &Socket{
        conn:    conn,
        codec:   codec.Default(),
        maxSize: DefaultMaxDatagramSize,
        rd:      newDeadlineGate(),
        wr:      newDeadlineGate(),
        log:     zap.NewNop(),
    }
    for _, o := range opts { o(s) }
    s.bufs.New = func() any {
        b := make([]byte, s.maxSize)
        return &b
    }
    return s
}

// LocalAddr returns the socket's bound local address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// RemoteAddr returns the connected peer address, or nil for bound sockets.
func (s *Socket) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// MaxDatagramSize returns the configured maximum datagram size.
func (s *Socket) MaxDatagramSize() int { return s.maxSize }

// Close releases the underlying socket. In-flight sends and receives are
// unblocked with an error.
func (s *Socket) Close() error { return s.conn.Close() }

// Send encodes v and transmits it as one datagram to the connected peer.
// It fails with *EncodeError if the codec rejects v, with
// *MessageTooLargeError before any I/O if the encoded payload exceeds the
// configured maximum, and passes socket errors through. On every failure
// path nothing is transmitted.
func (s *Socket) Send(ctx context.Context, v any) error {
    return s.send(ctx, v, nil)
}

// SendTo is Send for unconnected sockets: the datagram goes to addr.
func (s *Socket) SendTo(ctx context.Context, v any, addr *net.UDPAddr) error {
    return s.send(ctx, v, addr)
}

func (s *Socket) send(ctx context.Context, v any, to *net.UDPAddr) error {
    payload, err := s.codec.Marshal(v)
    if err != nil { return &EncodeError{Err: err} }
    if len(payload) > s.maxSize {
        return &MessageTooLargeError{Size: len(payload), Limit: s.maxSize}
    }

    stop, err := s.watch(ctx, s.wr, s.conn.SetWriteDeadline)
    if err != nil { return err }
    var n int
    for {
        gen := s.wr.generation()
        if to != nil {
            n, err = s.conn.WriteToUDP(payload, to)
        } else {
            n, err = s.conn.Write(payload)
        }
        if s.retryAfterSiblingCancel(ctx, err, gen, s.wr, s.conn.SetWriteDeadline) { continue }
        break
    }
    if err = stop(err); err != nil { return err }
    if n != len(payload) {
        // Datagram semantics are all-or-nothing per call.
        return fmt.Errorf("udpsock: short datagram write (%d of %d bytes): %w", n, len(payload), io.ErrShortWrite)
    }
    s.log.Debug("datagram sent", zap.Int("bytes", n))
    return nil
}

// Recv blocks until one datagram arrives, then decodes it into v (which
// must be a pointer). Decode failures are reported as *DecodeError; the
// datagram is consumed either way, so a subsequent Recv sees the next one.
// A zero-length datagram is valid input and is handed to the codec as an
// empty byte slice.
//
// An inbound datagram larger than the configured maximum is truncated by
// the OS to the scratch buffer; this layer cannot distinguish truncation
// from a short legitimate message, which usually surfaces as *DecodeError.
func (s *Socket) Recv(ctx context.Context, v any) error {
    _, err := s.RecvFrom(ctx, v)
    return err
}

// RecvFrom is Recv plus the sender's address. On *DecodeError the sender
// address is still returned when known.
func (s *Socket) RecvFrom(ctx context.Context, v any) (*net.UDPAddr, error) {
    bp := s.bufs.Get().(*[]byte)
    defer s.bufs.Put(bp)
    buf := *bp

    stop, err := s.watch(ctx, s.rd, s.conn.SetReadDeadline)
    if err != nil { return nil, err }
    var n int
    var from *net.UDPAddr
    for {
        gen := s.rd.generation()
        n, from, err = s.conn.ReadFromUDP(buf)
        if s.retryAfterSiblingCancel(ctx, err, gen, s.rd, s.conn.SetReadDeadline) { continue }
        break
    }
    if err = stop(err); err != nil { return nil, err }

    // Decode only the received prefix; the rest of the scratch buffer is
    // stale bytes from earlier datagrams.
    if err := s.codec.Unmarshal(buf[:n], v); err != nil {
        return from, &DecodeError{Err: err}
    }
    s.log.Debug("datagram received", zap.Int("bytes", n), zap.Stringer("from", from))
    return from, nil
}

// retryAfterSiblingCancel reports whether a blocking call should retry:
// cancelling one call forces a past deadline on the shared conn, which also
// unblocks every sibling blocked in the same direction with a spurious
// timeout. A sibling whose own ctx is still live waits for the cancellation
// to unwind, restores the deadline, and retries.
func (s *Socket) retryAfterSiblingCancel(ctx context.Context, opErr error, gen uint64, g *deadlineGate, setDeadline func(time.Time) error) bool {
    if opErr == nil || ctx.Err() != nil { return false }
    var nerr net.Error
    if !errors.As(opErr, &nerr) || !nerr.Timeout() { return false }
    if g.generation() == gen { return false } // deadline not forced by a cancel
    return g.settle(ctx, setDeadline)
}

// watch arms context cancellation for one blocking socket call: when ctx is
// done it forces a past deadline through the gate so the call returns, and
// the returned stop func maps the resulting timeout to ctx's error and
// restores the socket for later calls. Cancellation is safe to retry: a
// cancelled call neither transmits nor consumes a datagram.
func (s *Socket) watch(ctx context.Context, g *deadlineGate, setDeadline func(time.Time) error) (stop func(error) error, err error) {
    if err := ctx.Err(); err != nil { return nil, err }
    if ctx.Done() == nil {
        return func(opErr error) error { return opErr }, nil
    }
    done := make(chan struct{})
    exited := make(chan struct{})
    fired := false
    go func() {
        defer close(exited)
        select {
        case <-ctx.Done():
            g.force(setDeadline)
            fired = true
        case <-done:
        }
    }()
    return func(opErr error) error {
        close(done)
        <-exited
        if fired {
            g.release(setDeadline)
            if opErr == nil {
                // The call won the race and completed; honor its result.
                return nil
            }
            return ctx.Err()
        }
        return opErr
    }, nil
}

// deadlineGate coordinates cancellation across calls sharing one direction
// of the socket. The conn has a single read and a single write deadline, so
// forcing one into the past to unblock a cancelled call disturbs every
// sibling blocked on the same direction; the gate counts in-flight
// cancellations so siblings can wait them out and uncancelled calls restore
// the deadline exactly once.
type deadlineGate struct {
    mu        sync.Mutex
    cond      *sync.Cond
    cancelled int    // cancellations forced but not yet unwound
    gen       uint64 // bumped on every forced deadline
}

func newDeadlineGate() *deadlineGate {
    g := &deadlineGate{}
    g.cond = sync.NewCond(&g.mu)
    return g
}

func (g *deadlineGate) generation() uint64 {
    g.mu.Lock()
    defer g.mu.Unlock()
    return g.gen
}

// force is called by a watcher whose context fired.
func (g *deadlineGate) force(setDeadline func(time.Time) error) {
    g.mu.Lock()
    g.cancelled++
    g.gen++
    _ = setDeadline(aLongTimeAgo)
    g.cond.Broadcast()
    g.mu.Unlock()
}

// release unwinds one forced cancellation; the last one out clears the
// deadline so the socket stays usable.
func (g *deadlineGate) release(setDeadline func(time.Time) error) {
    g.mu.Lock()
    g.cancelled--
    if g.cancelled == 0 { _ = setDeadline(time.Time{}) }
    g.cond.Broadcast()
    g.mu.Unlock()
}

// settle blocks until no cancellation is in flight, then restores the
// deadline for a retry. It reports false when ctx itself fired meanwhile,
// in which case the caller surfaces its own cancellation instead.
func (g *deadlineGate) settle(ctx context.Context, setDeadline func(time.Time) error) bool {
    g.mu.Lock()
    defer g.mu.Unlock()
    for g.cancelled > 0 && ctx.Err() == nil {
        g.cond.Wait()
    }
    if ctx.Err() != nil { return false }
    _ = setDeadline(time.Time{})
    return true
}
