package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype every breeze connection negotiates; bodies
// travel as "application/grpc+json".
const Name = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec marshals RPC bodies as JSON. Services exchange plain structs, so no
// generated message machinery is involved on either side of the wire.
type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (codec) Name() string { return Name }
