package protocol

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
)

// NewGet assembles a GET message requesting paths.
func NewGet(msgID string, paths []string) *uspmsg.Msg {
	return newGet(msgID, uspmsg.MsgTypeGet, paths)
}

func newGet(msgID string, msgType uspmsg.MsgType, paths []string) *uspmsg.Msg {
	return &uspmsg.Msg{
		Header: &uspmsg.Header{MsgID: msgID, MsgType: msgType},
		Body: &uspmsg.Request{
			ReqType: &uspmsg.Get{ParamPaths: append([]string(nil), paths...)},
		},
	}
}

// BuildGet returns the encoded Get message. msgType is written as given and
// not checked against the body; empty ids and empty path lists are legal.
func BuildGet(msgID string, msgType uspmsg.MsgType, paths []string) []byte {
	out := uspmsg.Marshal(newGet(msgID, msgType, paths))
	log.Debug().
		Str("msg_id", msgID).
		Stringer("msg_type", msgType).
		Int("paths", len(paths)).
		Int("bytes", len(out)).
		Msg("protocol.BuildGet")
	return out
}

// BuildMessage pairs body with a header whose type is derived from the body
// kind, so header and body cannot disagree.
func BuildMessage(msgID string, body uspmsg.Body) (*uspmsg.Msg, error) {
	if isNilBody(body) {
		return nil, ErrBodyNotSet
	}
	msgType, ok := uspmsg.MsgTypeOf(body)
	if !ok {
		return nil, ErrUnsupportedBody
	}
	return &uspmsg.Msg{
		Header: &uspmsg.Header{MsgID: msgID, MsgType: msgType},
		Body:   body,
	}, nil
}

// CheckMessageType reports whether msg carries both parts and whether the
// header type matches the body kind. Bodies without a Go model pass.
func CheckMessageType(msg *uspmsg.Msg) error {
	if msg == nil || msg.Header == nil {
		return ErrHeaderNotSet
	}
	if isNilBody(msg.Body) {
		return ErrBodyNotSet
	}
	want, ok := uspmsg.MsgTypeOf(msg.Body)
	if !ok {
		return nil
	}
	if msg.Header.MsgType != want {
		log.Error().
			Str("msg_id", msg.Header.MsgID).
			Stringer("header", msg.Header.MsgType).
			Stringer("body", want).
			Msg("protocol.CheckMessageType mismatch")
		return MessageTypeError{Header: msg.Header.MsgType.String(), Body: want.String()}
	}
	return nil
}

// EncodeMessage encodes a message for transmission; both header and body
// are required.
func EncodeMessage(msg *uspmsg.Msg) ([]byte, error) {
	if msg == nil || msg.Header == nil {
		return nil, ErrHeaderNotSet
	}
	if isNilBody(msg.Body) {
		return nil, ErrBodyNotSet
	}
	return uspmsg.Marshal(msg), nil
}

func isNilBody(body uspmsg.Body) bool {
	switch v := body.(type) {
	case nil:
		return true
	case *uspmsg.Request:
		return v == nil
	case *uspmsg.Response:
		return v == nil
	case *uspmsg.Error:
		return v == nil
	}
	return false
}
