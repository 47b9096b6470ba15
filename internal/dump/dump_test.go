package dump

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
	"github.com/danmuck/uspkit/internal/protocol/usprecord"
	"github.com/danmuck/uspkit/internal/testutil/testlog"
)

func sampleRecord() *usprecord.Record {
	return &usprecord.Record{
		Version:         "1.1",
		ToID:            "proto::agent",
		FromID:          "proto::controller",
		PayloadSecurity: usprecord.PayloadSecurityTLS12,
		MacSignature:    []byte{0xde, 0xad},
		RecordType: &usprecord.SessionContext{
			SessionID:          7,
			SequenceID:         2,
			ExpectedID:         3,
			PayloadSARState:    usprecord.SARStateBegin,
			PayloadrecSARState: usprecord.SARStateInProcess,
			Payload:            [][]byte{{0x01}, {0x02, 0x03}},
		},
	}
}

func sampleMsg() *uspmsg.Msg {
	return &uspmsg.Msg{
		Header: &uspmsg.Header{MsgID: "42", MsgType: uspmsg.MsgTypeGetResp},
		Body: &uspmsg.Response{RespType: &uspmsg.GetResp{
			ReqPathResults: []uspmsg.RequestedPathResult{{
				RequestedPath: "Device.DeviceInfo.",
				ResolvedPathResults: []uspmsg.ResolvedPathResult{{
					ResolvedPath: "Device.DeviceInfo.",
					ResultParams: map[string]string{"SerialNumber": "abc", "Manufacturer": "x"},
				}},
			}},
		}},
	}
}

func TestRecordDocRoundTrip(t *testing.T) {
	testlog.Start(t)
	want := usprecord.Marshal(sampleRecord())
	for _, format := range []string{"json", "msgpack"} {
		enc, err := Lookup(format)
		if err != nil {
			t.Fatalf("lookup %s: %v", format, err)
		}
		data, err := enc.Encode(FromRecord(sampleRecord()))
		if err != nil {
			t.Fatalf("%s encode: %v", format, err)
		}
		var doc RecordDoc
		if err := enc.Decode(data, &doc); err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		rec, err := doc.Record()
		if err != nil {
			t.Fatalf("%s record: %v", format, err)
		}
		if got := usprecord.Marshal(rec); !bytes.Equal(got, want) {
			t.Fatalf("%s round trip mismatch: got %x want %x", format, got, want)
		}
	}
}

func TestRecordDocJSONUsesEnumNames(t *testing.T) {
	testlog.Start(t)
	data, err := JSON{}.Encode(FromRecord(sampleRecord()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, want := range []string{`"payload_security":"TLS12"`, `"payload_sar_state":"BEGIN"`, `"payloadrec_sar_state":"INPROCESS"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("json %s missing %s", data, want)
		}
	}
}

func TestMsgDocRoundTrip(t *testing.T) {
	testlog.Start(t)
	msgs := []*uspmsg.Msg{
		sampleMsg(),
		{
			Header: &uspmsg.Header{MsgID: "1", MsgType: uspmsg.MsgTypeGet},
			Body:   &uspmsg.Request{ReqType: &uspmsg.Get{ParamPaths: []string{"Device.", "Device.LocalAgent."}}},
		},
		{
			Header: &uspmsg.Header{MsgID: "e", MsgType: uspmsg.MsgTypeError},
			Body: &uspmsg.Error{ErrCode: 7000, ErrMsg: "failed", ParamErrs: []uspmsg.ParamError{
				{ParamPath: "Device.X", ErrCode: 7026, ErrMsg: "invalid path"},
			}},
		},
		{
			Header: &uspmsg.Header{MsgID: "u", MsgType: uspmsg.MsgTypeSet},
			Body:   &uspmsg.Request{ReqType: &uspmsg.UnknownReq{Field: 3, Raw: []byte{0x08, 0x01}}},
		},
	}
	for _, m := range msgs {
		want := uspmsg.Marshal(m)
		for _, format := range []string{"json", "msgpack"} {
			enc, err := Lookup(format)
			if err != nil {
				t.Fatalf("lookup %s: %v", format, err)
			}
			data, err := enc.Encode(FromMsg(m))
			if err != nil {
				t.Fatalf("%s encode: %v", format, err)
			}
			var doc MsgDoc
			if err := enc.Decode(data, &doc); err != nil {
				t.Fatalf("%s decode: %v", format, err)
			}
			got, err := doc.Msg()
			if err != nil {
				t.Fatalf("%s msg: %v", format, err)
			}
			if b := uspmsg.Marshal(got); !bytes.Equal(b, want) {
				t.Fatalf("%s msg %q mismatch: got %x want %x", format, m.Header.MsgID, b, want)
			}
		}
	}
}

func TestLookupUnknownFormat(t *testing.T) {
	testlog.Start(t)
	if _, err := Lookup("yaml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := Lookup(" JSON "); err != nil {
		t.Fatalf("lookup is case insensitive: %v", err)
	}
}

func TestDocRejectsAmbiguousVariants(t *testing.T) {
	testlog.Start(t)
	rec := RecordDoc{
		PayloadSecurity:  "PLAINTEXT",
		NoSessionContext: &NoSessionContextDoc{},
		SessionContext:   &SessionContextDoc{PayloadSARState: "NONE", PayloadrecSARState: "NONE"},
	}
	if _, err := rec.Record(); !errors.Is(err, ErrAmbiguousVariant) {
		t.Fatalf("record err = %v, want ErrAmbiguousVariant", err)
	}

	msg := MsgDoc{Request: &RequestDoc{Get: &GetDoc{}}, Error: &ErrorDoc{}}
	if _, err := msg.Msg(); !errors.Is(err, ErrAmbiguousVariant) {
		t.Fatalf("msg err = %v, want ErrAmbiguousVariant", err)
	}

	req := MsgDoc{Request: &RequestDoc{Get: &GetDoc{}, GetSupportedProtocol: &GetSupportedProtocolDoc{}}}
	if _, err := req.Msg(); !errors.Is(err, ErrAmbiguousVariant) {
		t.Fatalf("request err = %v, want ErrAmbiguousVariant", err)
	}
}

func TestDocRejectsUnknownEnum(t *testing.T) {
	testlog.Start(t)
	if _, err := (RecordDoc{PayloadSecurity: "TLS13"}).Record(); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("record err = %v, want ErrUnknownEnum", err)
	}
	doc := MsgDoc{Header: &HeaderDoc{MsgID: "1", MsgType: "NOPE"}}
	if _, err := doc.Msg(); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("msg err = %v, want ErrUnknownEnum", err)
	}
}

func TestFingerprintStable(t *testing.T) {
	testlog.Start(t)
	data := usprecord.Marshal(sampleRecord())
	a := Fingerprint(data)
	b := Fingerprint(bytes.Clone(data))
	if a == "" || a != b {
		t.Fatalf("fingerprint unstable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "bafk") {
		t.Fatalf("fingerprint %q is not a raw CIDv1", a)
	}
	if Fingerprint([]byte{0x00}) == a {
		t.Fatalf("different inputs share a fingerprint")
	}
}

func TestFromNilIsZeroDoc(t *testing.T) {
	testlog.Start(t)
	if doc := FromMsg(nil); doc.Header != nil || doc.Request != nil || doc.Response != nil || doc.Error != nil {
		t.Fatalf("expected zero msg doc, got %+v", doc)
	}
	if doc := FromRecord(nil); doc.ToID != "" || doc.NoSessionContext != nil || doc.SessionContext != nil {
		t.Fatalf("expected zero record doc, got %+v", doc)
	}
	doc := FromMsg(&uspmsg.Msg{Body: &uspmsg.Request{ReqType: (*uspmsg.Get)(nil)}})
	if doc.Request == nil || doc.Request.Get != nil {
		t.Fatalf("typed nil get must leave the request empty: %+v", doc.Request)
	}
}

func TestDocKeepsUnnamedEnumValues(t *testing.T) {
	testlog.Start(t)
	m := &uspmsg.Msg{
		Header: &uspmsg.Header{MsgID: "n", MsgType: uspmsg.MsgType(19)},
		Body:   &uspmsg.Request{ReqType: &uspmsg.Get{ParamPaths: []string{"Device."}}},
	}
	got, err := FromMsg(m).Msg()
	if err != nil {
		t.Fatalf("msg: %v", err)
	}
	if !bytes.Equal(uspmsg.Marshal(got), uspmsg.Marshal(m)) {
		t.Fatalf("unnamed msg_type lost: %+v", got.Header)
	}

	rec := &usprecord.Record{
		PayloadSecurity: usprecord.PayloadSecurity(3),
		RecordType:      &usprecord.SessionContext{PayloadSARState: usprecord.SARState(9)},
	}
	back, err := FromRecord(rec).Record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !bytes.Equal(usprecord.Marshal(back), usprecord.Marshal(rec)) {
		t.Fatalf("unnamed enums lost: %+v", back)
	}
}
