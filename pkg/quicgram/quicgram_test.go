package quicgram

import (
    "context"
    "errors"
    "testing"
    "time"
)

type testMessage struct {
    ID   int    `json:"id"`
    Data string `json:"data"`
}

func connPair(t *testing.T, opts ...Option) (*Conn, *Conn) {
    t.Helper()
    l, err := Listen("127.0.0.1:0", nil, opts...)
    if err != nil { t.Fatalf("listen: %v", err) }
    t.Cleanup(func() { l.Close() })

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    t.Cleanup(cancel)

    dialErr := make(chan error, 1)
    var client *Conn
    go func() {
        var err error
        client, err = Dial(ctx, l.Addr().String(), nil, opts...)
        dialErr <- err
    }()

    server, err := l.Accept(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    t.Cleanup(func() { server.Close() })
    if err := <-dialErr; err != nil { t.Fatalf("dial: %v", err) }
    t.Cleanup(func() { client.Close() })
    return client, server
}

func TestDatagramRoundTrip(t *testing.T) {
    client, server := connPair(t)

    msg := testMessage{ID: 1, Data: "hello"}
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    if err := client.Send(ctx, &msg); err != nil { t.Fatalf("send: %v", err) }
    var got testMessage
    if err := server.Recv(ctx, &got); err != nil { t.Fatalf("recv: %v", err) }
    if got != msg { t.Fatalf("roundtrip mismatch: %#v", got) }

    // And the other direction over the same connection.
    reply := testMessage{ID: 2, Data: "echo"}
    if err := server.Send(ctx, &reply); err != nil { t.Fatalf("send reply: %v", err) }
    var gotReply testMessage
    if err := client.Recv(ctx, &gotReply); err != nil { t.Fatalf("recv reply: %v", err) }
    if gotReply != reply { t.Fatalf("reply mismatch: %#v", gotReply) }
}

func TestMessageTooLargeBeforeIO(t *testing.T) {
    client, server := connPair(t, WithMaxDatagramSize(16))

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    err := client.Send(ctx, "012345678901234") // 17 bytes once JSON-quoted
    var tooLarge *MessageTooLargeError
    if !errors.As(err, &tooLarge) { t.Fatalf("want MessageTooLargeError, got %v", err) }

    rctx, rcancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
    defer rcancel()
    var none string
    if err := server.Recv(rctx, &none); !errors.Is(err, context.DeadlineExceeded) {
        t.Fatalf("expected empty receive queue, got %v", err)
    }
}

func TestRecvCancellation(t *testing.T) {
    client, server := connPair(t)

    ctx, cancel := context.WithCancel(context.Background())
    errCh := make(chan error, 1)
    go func() {
        var got testMessage
        errCh <- server.Recv(ctx, &got)
    }()
    time.Sleep(50 * time.Millisecond)
    cancel()

    select {
    case err := <-errCh:
        if !errors.Is(err, context.Canceled) { t.Fatalf("want context.Canceled, got %v", err) }
    case <-time.After(5 * time.Second):
        t.Fatalf("cancelled Recv did not return")
    }

    // Connection still usable after the cancelled receive.
    sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer scancel()
    if err := client.Send(sctx, &testMessage{ID: 3, Data: "later"}); err != nil { t.Fatalf("send: %v", err) }
    var got testMessage
    if err := server.Recv(sctx, &got); err != nil { t.Fatalf("recv after cancel: %v", err) }
    if got.ID != 3 { t.Fatalf("roundtrip mismatch: %#v", got) }
}
