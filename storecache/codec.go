package storecache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Davincible/rx-utils/jsonutil"
)

// Codec turns cached values into the text stored in an entry's "val" field.
type Codec interface {
	Marshal(v any) (string, error)
	Unmarshal(data string, out any) error
}

// JSONCodec stores values as JSON text. It is the default.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) (string, error) {
	return jsonutil.Encode(v)
}

func (JSONCodec) Unmarshal(data string, out any) error {
	return json.Unmarshal([]byte(data), out)
}

// MsgpackCodec stores values as base64 encoded MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding msgpack (%T): %w", v, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (MsgpackCodec) Unmarshal(data string, out any) error {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decoding base64: %w", err)
	}
	return msgpack.Unmarshal(b, out)
}

var (
	_ Codec = JSONCodec{}
	_ Codec = MsgpackCodec{}
)
