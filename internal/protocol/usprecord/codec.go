package usprecord

import (
	"fmt"

	"github.com/danmuck/uspkit/internal/protocol/wire"
)

// Marshal returns the canonical wire encoding of r.
func Marshal(r *Record) []byte {
	if r == nil {
		return nil
	}
	var b []byte
	b = wire.AppendString(b, fieldVersion, r.Version)
	b = wire.AppendString(b, fieldToID, r.ToID)
	b = wire.AppendString(b, fieldFromID, r.FromID)
	b = wire.AppendEnum(b, fieldPayloadSecurity, int32(r.PayloadSecurity))
	b = wire.AppendBytes(b, fieldMacSignature, r.MacSignature)
	b = wire.AppendBytes(b, fieldSenderCert, r.SenderCert)
	if r.RecordType != nil {
		b = wire.AppendMessage(b, r.RecordType.recordField(), r.RecordType.appendRecordType(nil))
	}
	return b
}

func (n *NoSessionContext) appendRecordType(b []byte) []byte {
	if n == nil {
		return b
	}
	return wire.AppendBytes(b, fieldNSCPayload, n.Payload)
}

func (s *SessionContext) appendRecordType(b []byte) []byte {
	if s == nil {
		return b
	}
	b = wire.AppendUint64(b, fieldSCSessionID, s.SessionID)
	b = wire.AppendUint64(b, fieldSCSequenceID, s.SequenceID)
	b = wire.AppendUint64(b, fieldSCExpectedID, s.ExpectedID)
	b = wire.AppendUint64(b, fieldSCRetransmitID, s.RetransmitID)
	b = wire.AppendEnum(b, fieldSCPayloadSARState, int32(s.PayloadSARState))
	b = wire.AppendEnum(b, fieldSCPayloadrecSARState, int32(s.PayloadrecSARState))
	return wire.AppendRepeatedBytes(b, fieldSCPayload, s.Payload)
}

// Unmarshal decodes a Record. Unknown fields, including record types this
// package does not model, are skipped. A record type repeated on the wire is
// merged; a different record type replaces it.
func Unmarshal(b []byte) (*Record, error) {
	r := &Record{}
	var recordType wire.Embedded
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldVersion:
			r.Version, err = f.Text()
		case fieldToID:
			r.ToID, err = f.Text()
		case fieldFromID:
			r.FromID, err = f.Text()
		case fieldPayloadSecurity:
			var v int32
			v, err = f.Enum()
			r.PayloadSecurity = PayloadSecurity(v)
		case fieldMacSignature:
			r.MacSignature, err = f.Message()
		case fieldSenderCert:
			r.SenderCert, err = f.Message()
		case fieldNoSessionContext, fieldSessionContext:
			err = recordType.Add(f)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("usprecord: %w", err)
	}

	if recordType.Set {
		switch recordType.Num {
		case fieldNoSessionContext:
			if r.RecordType, err = unmarshalNoSessionContext(recordType.Raw); err != nil {
				return nil, fmt.Errorf("usprecord: no_session_context: %w", err)
			}
		case fieldSessionContext:
			if r.RecordType, err = unmarshalSessionContext(recordType.Raw); err != nil {
				return nil, fmt.Errorf("usprecord: session_context: %w", err)
			}
		}
	}
	return r, nil
}

func unmarshalNoSessionContext(b []byte) (*NoSessionContext, error) {
	n := &NoSessionContext{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		if f.Num == fieldNSCPayload {
			n.Payload, err = f.Message()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func unmarshalSessionContext(b []byte) (*SessionContext, error) {
	s := &SessionContext{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldSCSessionID:
			s.SessionID, err = f.Uint64()
		case fieldSCSequenceID:
			s.SequenceID, err = f.Uint64()
		case fieldSCExpectedID:
			s.ExpectedID, err = f.Uint64()
		case fieldSCRetransmitID:
			s.RetransmitID, err = f.Uint64()
		case fieldSCPayloadSARState:
			var v int32
			v, err = f.Enum()
			s.PayloadSARState = SARState(v)
		case fieldSCPayloadrecSARState:
			var v int32
			v, err = f.Enum()
			s.PayloadrecSARState = SARState(v)
		case fieldSCPayload:
			var p []byte
			if p, err = f.Message(); err == nil {
				s.Payload = append(s.Payload, p)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
