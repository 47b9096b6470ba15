package dump

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoder serializes documents.
type Encoder interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON writes indented JSON when Indent is set.
type JSON struct {
	Indent string
}

var _ Encoder = JSON{}

func (e JSON) Encode(v any) ([]byte, error) {
	if e.Indent != "" {
		return json.MarshalIndent(v, "", e.Indent)
	}
	return json.Marshal(v)
}

func (JSON) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type MsgPack struct{}

var _ Encoder = MsgPack{}

func (MsgPack) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgPack) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// Lookup returns the encoder for a format name: json or msgpack.
func Lookup(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSON{Indent: "  "}, nil
	case "msgpack":
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("dump: unknown format %q", format)
	}
}
