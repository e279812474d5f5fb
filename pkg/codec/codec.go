// Package codec defines the serialization boundary for typed datagram
// sockets. A Codec turns a structured value into the byte payload of one
// datagram and back; the transport layers treat it as an opaque, fallible
// pair of functions and add no framing of their own.
package codec

// Codec marshals typed messages into datagram payloads.
// Implementations should be deterministic and safe for cross-host exchange;
// both endpoints must agree on the codec and on compatible type schemas.
type Codec interface {
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Default returns the codec used by sockets when none is configured: JSON.
// It is the only built-in with no initialization error path.
func Default() Codec { return JSON() }

// Registry maps content type aliases to codecs, so a codec choice can come
// from configuration as a plain string.
type Registry struct{ byType map[string]Codec }

// NewRegistry constructs a registry preloaded with the built-in codecs that
// don't require initialization: JSON and Protobuf.
// CBOR can be added explicitly via Register(CBOR()).
func NewRegistry() *Registry {
    r := &Registry{byType: make(map[string]Codec)}
    r.Register(JSON())
    r.Register(Proto())
    return r
}

// Register adds a codec, replacing any previous codec with the same content type.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }
