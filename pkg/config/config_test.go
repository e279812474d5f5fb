package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestDefaults(t *testing.T) {
    cfg, err := Load("")
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Socket.MaxDatagramSize != 64*1024 {
        t.Fatalf("default max_datagram_size: %d", cfg.Socket.MaxDatagramSize)
    }
    if cfg.Socket.Codec != "application/json" {
        t.Fatalf("default codec: %q", cfg.Socket.Codec)
    }
    if cfg.Log.Level != "info" { t.Fatalf("default log level: %q", cfg.Log.Level) }
}

func TestLoadFile(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "udpkit.yaml")
    data := []byte("socket:\n  listen: \"127.0.0.1:9999\"\n  max_datagram_size: 1400\n  codec: application/cbor\nlog:\n  level: debug\n")
    if err := os.WriteFile(path, data, 0o644); err != nil { t.Fatalf("write: %v", err) }

    cfg, err := Load(path)
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Socket.Listen != "127.0.0.1:9999" { t.Fatalf("listen: %q", cfg.Socket.Listen) }
    if cfg.Socket.MaxDatagramSize != 1400 { t.Fatalf("max_datagram_size: %d", cfg.Socket.MaxDatagramSize) }
    if cfg.Socket.Codec != "application/cbor" { t.Fatalf("codec: %q", cfg.Socket.Codec) }
    if cfg.Log.Level != "debug" { t.Fatalf("log level: %q", cfg.Log.Level) }
}

func TestEnvOverride(t *testing.T) {
    t.Setenv("UDPKIT_SOCKET_MAX_DATAGRAM_SIZE", "2048")
    cfg, err := Load("")
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Socket.MaxDatagramSize != 2048 {
        t.Fatalf("env override ignored: %d", cfg.Socket.MaxDatagramSize)
    }
}

func TestValidateRejectsBadValues(t *testing.T) {
    dir := t.TempDir()

    badLevel := filepath.Join(dir, "lvl.yaml")
    if err := os.WriteFile(badLevel, []byte("log:\n  level: loud\n"), 0o644); err != nil { t.Fatalf("write: %v", err) }
    if _, err := Load(badLevel); err == nil { t.Fatalf("expected error for bad log.level") }

    badCodec := filepath.Join(dir, "codec.yaml")
    if err := os.WriteFile(badCodec, []byte("socket:\n  codec: application/x-bincode\n"), 0o644); err != nil { t.Fatalf("write: %v", err) }
    if _, err := Load(badCodec); err == nil { t.Fatalf("expected error for unknown codec") }

    badSize := filepath.Join(dir, "size.yaml")
    if err := os.WriteFile(badSize, []byte("socket:\n  max_datagram_size: -1\n"), 0o644); err != nil { t.Fatalf("write: %v", err) }
    if _, err := Load(badSize); err == nil { t.Fatalf("expected error for negative size") }
}
