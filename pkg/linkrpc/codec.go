package linkrpc

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the connector service.
const CodecName = "linkpb"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals connector messages in the protobuf binary format of
// connector.proto.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("linkrpc: cannot marshal %T", v)
	}
	return m.marshalWire(nil), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("linkrpc: cannot unmarshal into %T", v)
	}
	return m.unmarshalWire(data)
}

func (Codec) Name() string {
	return CodecName
}

// callOptions makes every connector call use Codec while leaving caller
// supplied options in place.
func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
