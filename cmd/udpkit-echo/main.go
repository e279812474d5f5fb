package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"udpkit"
	"udpkit/pkg/config"
	"udpkit/pkg/observability"
	"udpkit/pkg/udpsock"
)

type echoMessage struct {
	Seq    int       `json:"seq"`
	Data   string    `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

func main() {
	cfgPath := flag.String("config", "", "path to udpkit yaml config (optional)")
	serve := flag.Bool("serve", false, "run as echo server")
	addr := flag.String("addr", "127.0.0.1:7777", "server address (client mode)")
	message := flag.String("message", "hello udpkit", "message to send (client mode)")
	count := flag.Int("count", 1, "number of round trips (client mode)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-operation timeout")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fatalf("setup logger: %v", err)
	}
	defer logger.Sync()

	if *serve {
		runServer(cfg, logger)
		return
	}
	runClient(cfg, logger, *addr, *message, *count, *timeout)
}

func runServer(cfg *config.Config, logger *zap.Logger) {
	sock, err := udpkit.Open(cfg.Socket, logger)
	if err != nil {
		fatalf("open socket: %v", err)
	}
	defer sock.Close()
	logger.Info("echo server listening", zap.Stringer("addr", sock.LocalAddr()))

	for {
		var msg echoMessage
		from, err := sock.RecvFrom(context.Background(), &msg)
		if err != nil {
			var decErr *udpsock.DecodeError
			if errors.As(err, &decErr) {
				logger.Warn("undecodable datagram", zap.Stringer("from", from), zap.Error(err))
				continue
			}
			fatalf("recv: %v", err)
		}
		logger.Info("echoing", zap.Int("seq", msg.Seq), zap.Stringer("from", from))
		if err := sock.SendTo(context.Background(), &msg, from); err != nil {
			logger.Warn("echo send failed", zap.Stringer("to", from), zap.Error(err))
		}
	}
}

func runClient(cfg *config.Config, logger *zap.Logger, addr, message string, count int, timeout time.Duration) {
	target, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		fatalf("resolve %s: %v", addr, err)
	}
	local := cfg.Socket
	local.Listen = "127.0.0.1:0"
	sock, err := udpkit.Open(local, logger)
	if err != nil {
		fatalf("open socket: %v", err)
	}
	defer sock.Close()

	for seq := 1; seq <= count; seq++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		msg := echoMessage{Seq: seq, Data: message, SentAt: time.Now()}
		if err := sock.SendTo(ctx, &msg, target); err != nil {
			fatalf("send: %v", err)
		}
		var reply echoMessage
		if err := sock.Recv(ctx, &reply); err != nil {
			fatalf("recv: %v", err)
		}
		cancel()
		logger.Info("reply",
			zap.Int("seq", reply.Seq),
			zap.String("data", reply.Data),
			zap.Duration("rtt", time.Since(reply.SentAt)))
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
