// Package usprecord holds the USP 1.1 record schema (usp-record-1-1.proto)
// and its wire encoding. The record payload is opaque to this package.
package usprecord

import (
	"bytes"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/danmuck/uspkit/internal/protocol/wire"
)

type PayloadSecurity int32

const (
	PayloadSecurityPlaintext PayloadSecurity = 0
	PayloadSecurityTLS12     PayloadSecurity = 1
)

func (s PayloadSecurity) String() string {
	switch s {
	case PayloadSecurityPlaintext:
		return "PLAINTEXT"
	case PayloadSecurityTLS12:
		return "TLS12"
	default:
		return wire.EnumString("PayloadSecurity", int32(s))
	}
}

// ParsePayloadSecurity accepts the proto enum name, case-insensitive, or
// the PayloadSecurity(N) form String uses for values without a name.
func ParsePayloadSecurity(s string) (PayloadSecurity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PLAINTEXT":
		return PayloadSecurityPlaintext, true
	case "TLS12":
		return PayloadSecurityTLS12, true
	default:
		v, ok := wire.ParseEnumNumber("PayloadSecurity", s)
		return PayloadSecurity(v), ok
	}
}

// SARState is the segmentation and reassembly state of a session context
// payload.
type SARState int32

const (
	SARStateNone      SARState = 0
	SARStateBegin     SARState = 1
	SARStateInProcess SARState = 2
	SARStateComplete  SARState = 3
)

func (s SARState) String() string {
	switch s {
	case SARStateNone:
		return "NONE"
	case SARStateBegin:
		return "BEGIN"
	case SARStateInProcess:
		return "INPROCESS"
	case SARStateComplete:
		return "COMPLETE"
	default:
		return wire.EnumString("SARState", int32(s))
	}
}

// ParseSARState accepts the proto enum name, case-insensitive, or the
// SARState(N) form.
func ParseSARState(s string) (SARState, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return SARStateNone, true
	case "BEGIN":
		return SARStateBegin, true
	case "INPROCESS":
		return SARStateInProcess, true
	case "COMPLETE":
		return SARStateComplete, true
	default:
		v, ok := wire.ParseEnumNumber("SARState", s)
		return SARState(v), ok
	}
}

const (
	fieldVersion          protowire.Number = 1
	fieldToID             protowire.Number = 2
	fieldFromID           protowire.Number = 3
	fieldPayloadSecurity  protowire.Number = 4
	fieldMacSignature     protowire.Number = 5
	fieldSenderCert       protowire.Number = 6
	fieldNoSessionContext protowire.Number = 7
	fieldSessionContext   protowire.Number = 8
)

// Record is the USP record envelope.
type Record struct {
	Version         string
	ToID            string
	FromID          string
	PayloadSecurity PayloadSecurity
	MacSignature    []byte
	SenderCert      []byte
	RecordType      RecordType
}

// RecordType is one of *NoSessionContext or *SessionContext.
type RecordType interface {
	recordField() protowire.Number
	appendRecordType(b []byte) []byte
	cloneRecordType() RecordType
}

// NoSessionContext carries one complete, standalone encoded message.
type NoSessionContext struct {
	Payload []byte
}

const fieldNSCPayload protowire.Number = 1

type SessionContext struct {
	SessionID          uint64
	SequenceID         uint64
	ExpectedID         uint64
	RetransmitID       uint64
	PayloadSARState    SARState
	PayloadrecSARState SARState
	Payload            [][]byte
}

const (
	fieldSCSessionID          protowire.Number = 1
	fieldSCSequenceID         protowire.Number = 2
	fieldSCExpectedID         protowire.Number = 3
	fieldSCRetransmitID       protowire.Number = 4
	fieldSCPayloadSARState    protowire.Number = 5
	fieldSCPayloadrecSARState protowire.Number = 6
	fieldSCPayload            protowire.Number = 7
)

func (*NoSessionContext) recordField() protowire.Number { return fieldNoSessionContext }
func (*SessionContext) recordField() protowire.Number   { return fieldSessionContext }

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.MacSignature = cloneBytes(r.MacSignature)
	out.SenderCert = cloneBytes(r.SenderCert)
	if r.RecordType != nil {
		out.RecordType = r.RecordType.cloneRecordType()
	}
	return &out
}

func (n *NoSessionContext) cloneRecordType() RecordType {
	if n == nil {
		return (*NoSessionContext)(nil)
	}
	return &NoSessionContext{Payload: cloneBytes(n.Payload)}
}

func (s *SessionContext) cloneRecordType() RecordType {
	if s == nil {
		return (*SessionContext)(nil)
	}
	out := *s
	if s.Payload != nil {
		out.Payload = make([][]byte, len(s.Payload))
		for i, p := range s.Payload {
			out.Payload[i] = cloneBytes(p)
		}
	}
	return &out
}

// Joined returns the payload segments concatenated in order.
func (s *SessionContext) Joined() []byte {
	if s == nil {
		return nil
	}
	return bytes.Join(s.Payload, nil)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}
