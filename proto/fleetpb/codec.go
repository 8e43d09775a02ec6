package fleetpb

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype both sides of a fleet connection use.
// The server picks the codec from the request's content-type, so clients must
// dial with DialOption() (or pass grpc.CallContentSubtype per call).
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                             { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// DialOption makes every call on the connection use the fleet codec.
func DialOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName))
}
