package protocol

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
	"github.com/danmuck/uspkit/internal/protocol/usprecord"
)

const (
	kindRecord  = "record"
	kindMessage = "msg"
)

// DecodeRecord decodes wire bytes into a Record. Only wire-format
// well-formedness is checked.
func DecodeRecord(b []byte) (*usprecord.Record, error) {
	rec, err := usprecord.Unmarshal(b)
	if err != nil {
		log.Error().Err(err).Int("bytes", len(b)).Msg("protocol.DecodeRecord")
		return nil, &DecodeError{Kind: kindRecord, Err: err}
	}
	return rec, nil
}

// ExtractPayload returns the opaque payload of rec. Session context payload
// segments are concatenated in order.
func ExtractPayload(rec *usprecord.Record) ([]byte, error) {
	if rec == nil {
		return nil, ErrRecordTypeNotSet
	}
	switch rt := rec.RecordType.(type) {
	case *usprecord.NoSessionContext:
		if rt != nil {
			return rt.Payload, nil
		}
	case *usprecord.SessionContext:
		if rt != nil {
			return rt.Joined(), nil
		}
	}
	return nil, ErrRecordTypeNotSet
}

// DecodeMessage decodes wire bytes into a Msg. The header type is not
// checked against the body; see CheckMessageType.
func DecodeMessage(b []byte) (*uspmsg.Msg, error) {
	msg, err := uspmsg.Unmarshal(b)
	if err != nil {
		log.Error().Err(err).Int("bytes", len(b)).Msg("protocol.DecodeMessage")
		return nil, &DecodeError{Kind: kindMessage, Err: err}
	}
	return msg, nil
}

// Open decodes a record and the message carried in its payload.
func Open(b []byte) (*usprecord.Record, *uspmsg.Msg, error) {
	rec, err := DecodeRecord(b)
	if err != nil {
		return nil, nil, err
	}
	payload, err := ExtractPayload(rec)
	if err != nil {
		return rec, nil, err
	}
	msg, err := DecodeMessage(payload)
	if err != nil {
		return rec, nil, err
	}
	log.Debug().
		Str("to_id", rec.ToID).
		Str("from_id", rec.FromID).
		Int("payload_bytes", len(payload)).
		Msg("protocol.Open")
	return rec, msg, nil
}
