package codec

import (
    "encoding/json"
)

type jsonCodec struct{}

// JSON returns the standard library JSON codec (RFC 8259): human-readable
// and schema-free, at the cost of payload size. It is the default socket
// codec. Content-Type: application/json
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
