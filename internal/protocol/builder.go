package protocol

import (
	"bytes"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
	"github.com/danmuck/uspkit/internal/protocol/usprecord"
)

// Builder holds the record fields that stay constant across many records.
// It is immutable after NewBuilder and safe for concurrent use.
type Builder struct {
	version      string
	fromID       string
	security     usprecord.PayloadSecurity
	macSignature []byte
	senderCert   []byte
}

// NewBuilder never fails. mac and cert are copied.
func NewBuilder(
	version string,
	fromID string,
	security usprecord.PayloadSecurity,
	mac []byte,
	cert []byte,
) *Builder {
	return &Builder{
		version:      version,
		fromID:       fromID,
		security:     security,
		macSignature: bytes.Clone(mac),
		senderCert:   bytes.Clone(cert),
	}
}

func (b *Builder) Version() string                            { return b.version }
func (b *Builder) FromID() string                             { return b.fromID }
func (b *Builder) PayloadSecurity() usprecord.PayloadSecurity { return b.security }

// Draft starts one record construction attempt. Each Draft is owned by a
// single caller; nothing set on it is visible to other drafts.
func (b *Builder) Draft() *Draft {
	return &Draft{builder: b}
}

// EncodeRecord sets both per-record fields on a fresh draft and encodes it.
// A nil rt yields ErrRecordTypeNotSet.
func (b *Builder) EncodeRecord(toID string, rt usprecord.RecordType) ([]byte, error) {
	d := b.Draft()
	d.SetToID(toID)
	d.SetRecordType(rt)
	return d.Encode()
}

// BuildRecord is EncodeRecord without the final encoding step.
func (b *Builder) BuildRecord(toID string, rt usprecord.RecordType) (*usprecord.Record, error) {
	d := b.Draft()
	d.SetToID(toID)
	d.SetRecordType(rt)
	return d.Record()
}

// Get builds a GET message addressed to toID, using toID as the message id,
// and wraps it in a no-session-context record.
func (b *Builder) Get(toID string, paths []string) ([]byte, error) {
	payload := BuildGet(toID, uspmsg.MsgTypeGet, paths)
	return b.EncodeRecord(toID, &usprecord.NoSessionContext{Payload: payload})
}

// Draft is the mutable per-record state of a Builder.
type Draft struct {
	builder    *Builder
	toID       string
	toIDSet    bool
	recordType usprecord.RecordType
}

// SetToID overwrites any previous recipient. An empty id counts as set.
func (d *Draft) SetToID(toID string) {
	d.toID = toID
	d.toIDSet = true
}

// SetRecordType overwrites any previous record type. Setting nil clears it.
func (d *Draft) SetRecordType(rt usprecord.RecordType) {
	d.recordType = rt
}

// Validate checks to_id before record type; the first failure is returned.
func (d *Draft) Validate() error {
	if !d.toIDSet {
		log.Error().Str("from_id", d.builder.fromID).Msg("protocol.Validate to_id not set")
		return ErrToIDNotSet
	}
	if isNilRecordType(d.recordType) {
		log.Error().
			Str("from_id", d.builder.fromID).
			Str("to_id", d.toID).
			Msg("protocol.Validate record type not set")
		return ErrRecordTypeNotSet
	}
	return nil
}

// Record validates the draft and assembles a new Record that shares no
// memory with the builder or the draft.
func (d *Draft) Record() (*usprecord.Record, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rec := &usprecord.Record{
		Version:         d.builder.version,
		ToID:            d.toID,
		FromID:          d.builder.fromID,
		PayloadSecurity: d.builder.security,
		MacSignature:    d.builder.macSignature,
		SenderCert:      d.builder.senderCert,
		RecordType:      d.recordType,
	}
	return rec.Clone(), nil
}

// Encode validates the draft and returns the encoded record.
func (d *Draft) Encode() ([]byte, error) {
	rec, err := d.Record()
	if err != nil {
		return nil, err
	}
	out := usprecord.Marshal(rec)
	log.Debug().
		Str("to_id", rec.ToID).
		Str("from_id", rec.FromID).
		Stringer("payload_security", rec.PayloadSecurity).
		Int("bytes", len(out)).
		Msg("protocol.EncodeRecord")
	return out, nil
}

func isNilRecordType(rt usprecord.RecordType) bool {
	switch v := rt.(type) {
	case nil:
		return true
	case *usprecord.NoSessionContext:
		return v == nil
	case *usprecord.SessionContext:
		return v == nil
	}
	return false
}
