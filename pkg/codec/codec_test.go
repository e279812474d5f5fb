package codec

import (
    "testing"

    "google.golang.org/protobuf/types/known/structpb"
)

func TestJSONCodec(t *testing.T) {
    c := JSON()
    in := map[string]any{"id": 1, "data": "hello"}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out map[string]any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out["id"].(float64) != 1 || out["data"].(string) != "hello" {
        t.Fatalf("roundtrip mismatch: %#v", out)
    }
}

func TestCBORCodec(t *testing.T) {
    c, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    in := map[string]any{"n": 42}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out map[string]any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if int(out["n"].(uint64)) != 42 && int(out["n"].(float64)) != 42 { // decoder may choose num type
        t.Fatalf("roundtrip mismatch: %#v", out)
    }
}

func TestProtoCodec(t *testing.T) {
    c := Proto()
    s, err := structpb.NewStruct(map[string]any{"k": "v"})
    if err != nil { t.Fatalf("struct: %v", err) }
    b, err := c.Marshal(s)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out structpb.Struct
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out.Fields["k"].GetStringValue() != "v" { t.Fatalf("roundtrip mismatch") }
}

func TestProtoCodecRejectsNonMessage(t *testing.T) {
    c := Proto()
    if _, err := c.Marshal(42); err == nil { t.Fatalf("expected marshal error for non-message") }
    var n int
    if err := c.Unmarshal([]byte{0x08, 0x01}, &n); err == nil { t.Fatalf("expected unmarshal error for non-message") }
}

func TestRegistryLookup(t *testing.T) {
    r := NewRegistry()
    if r.Get("application/json") == nil { t.Fatalf("json not registered") }
    if r.Get("application/x-protobuf") == nil { t.Fatalf("proto not registered") }
    if r.Get("application/cbor") != nil { t.Fatalf("cbor should require explicit registration") }
    cb, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    r.Register(cb)
    if r.Get("application/cbor") == nil { t.Fatalf("cbor not registered after Register") }
}
