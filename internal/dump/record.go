package dump

import (
	"errors"
	"fmt"

	"github.com/danmuck/uspkit/internal/protocol/usprecord"
)

var (
	ErrUnknownEnum      = errors.New("dump: unknown enum name")
	ErrAmbiguousVariant = errors.New("dump: more than one variant set")
)

type RecordDoc struct {
	Version          string               `json:"version" msgpack:"version"`
	ToID             string               `json:"to_id" msgpack:"to_id"`
	FromID           string               `json:"from_id" msgpack:"from_id"`
	PayloadSecurity  string               `json:"payload_security" msgpack:"payload_security"`
	MacSignature     []byte               `json:"mac_signature,omitempty" msgpack:"mac_signature,omitempty"`
	SenderCert       []byte               `json:"sender_cert,omitempty" msgpack:"sender_cert,omitempty"`
	NoSessionContext *NoSessionContextDoc `json:"no_session_context,omitempty" msgpack:"no_session_context,omitempty"`
	SessionContext   *SessionContextDoc   `json:"session_context,omitempty" msgpack:"session_context,omitempty"`
}

type NoSessionContextDoc struct {
	Payload []byte `json:"payload" msgpack:"payload"`
}

type SessionContextDoc struct {
	SessionID          uint64   `json:"session_id" msgpack:"session_id"`
	SequenceID         uint64   `json:"sequence_id" msgpack:"sequence_id"`
	ExpectedID         uint64   `json:"expected_id" msgpack:"expected_id"`
	RetransmitID       uint64   `json:"retransmit_id,omitempty" msgpack:"retransmit_id,omitempty"`
	PayloadSARState    string   `json:"payload_sar_state" msgpack:"payload_sar_state"`
	PayloadrecSARState string   `json:"payloadrec_sar_state" msgpack:"payloadrec_sar_state"`
	Payload            [][]byte `json:"payload" msgpack:"payload"`
}

// FromRecord copies r into a document. Byte slices are shared with r. A nil
// r yields the zero document.
func FromRecord(r *usprecord.Record) RecordDoc {
	if r == nil {
		return RecordDoc{}
	}
	doc := RecordDoc{
		Version:         r.Version,
		ToID:            r.ToID,
		FromID:          r.FromID,
		PayloadSecurity: r.PayloadSecurity.String(),
		MacSignature:    r.MacSignature,
		SenderCert:      r.SenderCert,
	}
	switch rt := r.RecordType.(type) {
	case *usprecord.NoSessionContext:
		if rt != nil {
			doc.NoSessionContext = &NoSessionContextDoc{Payload: rt.Payload}
		}
	case *usprecord.SessionContext:
		if rt != nil {
			doc.SessionContext = &SessionContextDoc{
				SessionID:          rt.SessionID,
				SequenceID:         rt.SequenceID,
				ExpectedID:         rt.ExpectedID,
				RetransmitID:       rt.RetransmitID,
				PayloadSARState:    rt.PayloadSARState.String(),
				PayloadrecSARState: rt.PayloadrecSARState.String(),
				Payload:            rt.Payload,
			}
		}
	}
	return doc
}

// Record converts the document back into a Record.
func (d RecordDoc) Record() (*usprecord.Record, error) {
	sec, ok := usprecord.ParsePayloadSecurity(d.PayloadSecurity)
	if !ok {
		return nil, fmt.Errorf("%w: payload_security %q", ErrUnknownEnum, d.PayloadSecurity)
	}
	r := &usprecord.Record{
		Version:         d.Version,
		ToID:            d.ToID,
		FromID:          d.FromID,
		PayloadSecurity: sec,
		MacSignature:    d.MacSignature,
		SenderCert:      d.SenderCert,
	}
	if d.NoSessionContext != nil && d.SessionContext != nil {
		return nil, fmt.Errorf("%w: record type", ErrAmbiguousVariant)
	}
	if d.NoSessionContext != nil {
		r.RecordType = &usprecord.NoSessionContext{Payload: d.NoSessionContext.Payload}
	}
	if sc := d.SessionContext; sc != nil {
		sar, ok := usprecord.ParseSARState(sc.PayloadSARState)
		if !ok {
			return nil, fmt.Errorf("%w: payload_sar_state %q", ErrUnknownEnum, sc.PayloadSARState)
		}
		recSar, ok := usprecord.ParseSARState(sc.PayloadrecSARState)
		if !ok {
			return nil, fmt.Errorf("%w: payloadrec_sar_state %q", ErrUnknownEnum, sc.PayloadrecSARState)
		}
		r.RecordType = &usprecord.SessionContext{
			SessionID:          sc.SessionID,
			SequenceID:         sc.SequenceID,
			ExpectedID:         sc.ExpectedID,
			RetransmitID:       sc.RetransmitID,
			PayloadSARState:    sar,
			PayloadrecSARState: recSar,
			Payload:            sc.Payload,
		}
	}
	return r, nil
}
