package uspmsg

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/uspkit/internal/protocol/wire"
	"github.com/danmuck/uspkit/internal/testutil/testlog"
)

func TestMarshalGetGoldenBytes(t *testing.T) {
	testlog.Start(t)
	m := &Msg{
		Header: &Header{MsgID: "1", MsgType: MsgTypeGet},
		Body:   &Request{ReqType: &Get{ParamPaths: []string{"a"}}},
	}
	want := []byte{
		0x0a, 0x05, 0x0a, 0x01, '1', 0x10, 0x01, // header
		0x12, 0x07, 0x0a, 0x05, 0x0a, 0x03, 0x0a, 0x01, 'a', // body.request.get
	}
	got := Marshal(m)
	if !bytes.Equal(got, want) {
		t.Fatalf("golden mismatch:\n got=%x\nwant=%x", got, want)
	}
}

func TestGetRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := &Msg{
		Header: &Header{MsgID: "device123", MsgType: MsgTypeGet},
		Body:   &Request{ReqType: &Get{ParamPaths: []string{"Device.DeviceInfo.", "Device.LocalAgent.EndpointID"}}},
	}
	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestGetEmptyPathsKeepsVariant(t *testing.T) {
	testlog.Start(t)
	in := &Msg{
		Header: &Header{MsgID: "x", MsgType: MsgTypeGet},
		Body:   &Request{ReqType: &Get{}},
	}
	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	req, ok := out.Body.(*Request)
	if !ok {
		t.Fatalf("expected *Request, got %T", out.Body)
	}
	get, ok := req.ReqType.(*Get)
	if !ok {
		t.Fatalf("expected *Get, got %T", req.ReqType)
	}
	if len(get.ParamPaths) != 0 {
		t.Fatalf("expected zero paths, got %v", get.ParamPaths)
	}
}

func TestGetRespRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := &Msg{
		Header: &Header{MsgID: "req-7", MsgType: MsgTypeGetResp},
		Body: &Response{RespType: &GetResp{ReqPathResults: []RequestedPathResult{
			{
				RequestedPath: "Device.DeviceInfo.",
				ResolvedPathResults: []ResolvedPathResult{{
					ResolvedPath: "Device.DeviceInfo.",
					ResultParams: map[string]string{"SoftwareVersion": "1.2.3", "Manufacturer": "acme"},
				}},
			},
			{RequestedPath: "Device.Nope.", ErrCode: 7026, ErrMsg: "invalid path"},
		}}},
	}
	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestResultParamsEncodeDeterministic(t *testing.T) {
	testlog.Start(t)
	params := map[string]string{}
	for _, k := range []string{"z", "a", "m", "b", "y"} {
		params[k] = k + "-value"
	}
	m := &Msg{Body: &Response{RespType: &GetResp{ReqPathResults: []RequestedPathResult{{
		ResolvedPathResults: []ResolvedPathResult{{ResultParams: params}},
	}}}}}
	first := Marshal(m)
	for i := 0; i < 20; i++ {
		if !bytes.Equal(first, Marshal(m)) {
			t.Fatalf("encoding is not deterministic")
		}
	}
}

func TestErrorBodyRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := &Msg{
		Header: &Header{MsgID: "e1", MsgType: MsgTypeError},
		Body: &Error{
			ErrCode: 7004,
			ErrMsg:  "invalid arguments",
			ParamErrs: []ParamError{
				{ParamPath: "Device.X", ErrCode: 7026, ErrMsg: "invalid path"},
			},
		},
	}
	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestGetSupportedProtocolRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, in := range []*Msg{
		{
			Header: &Header{MsgID: "p1", MsgType: MsgTypeGetSupportedProto},
			Body:   &Request{ReqType: &GetSupportedProtocol{ControllerSupportedProtocolVersions: "1.0,1.1"}},
		},
		{
			Header: &Header{MsgID: "p1", MsgType: MsgTypeGetSupportedProtoResp},
			Body:   &Response{RespType: &GetSupportedProtocolResp{AgentSupportedProtocolVersions: "1.1"}},
		},
	} {
		out, err := Unmarshal(Marshal(in))
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
		}
	}
}

func TestUnknownRequestSurvivesReencode(t *testing.T) {
	testlog.Start(t)
	// Request.set (field 4) carrying an arbitrary payload
	raw := wire.AppendString(nil, 1, "allow_partial?")
	in := &Msg{
		Header: &Header{MsgID: "s1", MsgType: MsgTypeSet},
		Body:   &Request{ReqType: &UnknownReq{Field: 4, Raw: raw}},
	}
	encoded := Marshal(in)
	out, err := Unmarshal(encoded)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	req := out.Body.(*Request)
	unk, ok := req.ReqType.(*UnknownReq)
	if !ok {
		t.Fatalf("expected *UnknownReq, got %T", req.ReqType)
	}
	if unk.Field != 4 || !bytes.Equal(unk.Raw, raw) {
		t.Fatalf("unknown request not preserved: %+v", unk)
	}
	if !bytes.Equal(Marshal(out), encoded) {
		t.Fatalf("re-encode changed bytes")
	}
	if _, ok := MsgTypeOf(out.Body); ok {
		t.Fatalf("unknown request must not map to a message type")
	}
}

func TestUnmarshalMissingPartsDecodeAsNil(t *testing.T) {
	testlog.Start(t)
	out, err := Unmarshal(nil)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Header != nil || out.Body != nil {
		t.Fatalf("expected empty message, got %+v", out)
	}
}

func TestUnmarshalTruncatedIsMalformed(t *testing.T) {
	testlog.Start(t)
	b := Marshal(&Msg{
		Header: &Header{MsgID: "device123", MsgType: MsgTypeGet},
		Body:   &Request{ReqType: &Get{ParamPaths: []string{"example.path"}}},
	})
	_, err := Unmarshal(b[:len(b)-3])
	if !errors.Is(err, wire.ErrMalformed) {
		t.Fatalf("expected wire.ErrMalformed, got %v", err)
	}
}

func TestUnmarshalHeaderWrongWireType(t *testing.T) {
	testlog.Start(t)
	// header as varint
	_, err := Unmarshal([]byte{0x08, 0x01})
	if !errors.Is(err, wire.ErrWireTypeMismatch) {
		t.Fatalf("expected wire.ErrWireTypeMismatch, got %v", err)
	}
}

func TestMsgTypeOf(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		body Body
		want MsgType
		ok   bool
	}{
		{&Request{ReqType: &Get{}}, MsgTypeGet, true},
		{&Request{ReqType: &GetSupportedProtocol{}}, MsgTypeGetSupportedProto, true},
		{&Response{RespType: &GetResp{}}, MsgTypeGetResp, true},
		{&Response{RespType: &GetSupportedProtocolResp{}}, MsgTypeGetSupportedProtoResp, true},
		{&Error{}, MsgTypeError, true},
		{&Request{}, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := MsgTypeOf(tc.body)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("MsgTypeOf(%T)=%v,%v want %v,%v", tc.body, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMsgTypeStringAndParse(t *testing.T) {
	testlog.Start(t)
	if MsgTypeGet.String() != "GET" {
		t.Fatalf("unexpected name %q", MsgTypeGet.String())
	}
	if MsgType(99).String() != "MsgType(99)" {
		t.Fatalf("unexpected name %q", MsgType(99).String())
	}
	got, ok := ParseMsgType(" get_resp ")
	if !ok || got != MsgTypeGetResp {
		t.Fatalf("parse: %v %v", got, ok)
	}
	if _, ok := ParseMsgType("bogus"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestUnmarshalMergesRepeatedHeader(t *testing.T) {
	testlog.Start(t)
	b := Marshal(&Msg{Header: &Header{MsgID: "device123"}})
	b = append(b, Marshal(&Msg{Header: &Header{MsgType: MsgTypeGet}})...)

	out, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := &Header{MsgID: "device123", MsgType: MsgTypeGet}
	if !reflect.DeepEqual(out.Header, want) {
		t.Fatalf("header = %+v, want %+v", out.Header, want)
	}
}

func TestUnmarshalMergesRepeatedGet(t *testing.T) {
	testlog.Start(t)
	b := Marshal(&Msg{Body: &Request{ReqType: &Get{ParamPaths: []string{"a"}}}})
	b = append(b, Marshal(&Msg{Body: &Request{ReqType: &Get{ParamPaths: []string{"b"}}}})...)

	out, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	get, ok := out.Body.(*Request).ReqType.(*Get)
	if !ok {
		t.Fatalf("expected get, got %T", out.Body.(*Request).ReqType)
	}
	if !reflect.DeepEqual(get.ParamPaths, []string{"a", "b"}) {
		t.Fatalf("paths = %v", get.ParamPaths)
	}
}

func TestUnmarshalOtherRequestKindReplaces(t *testing.T) {
	testlog.Start(t)
	b := Marshal(&Msg{Body: &Request{ReqType: &Get{ParamPaths: []string{"a"}}}})
	b = append(b, Marshal(&Msg{Body: &Request{ReqType: &GetSupportedProtocol{ControllerSupportedProtocolVersions: "1.1"}}})...)

	out, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	gsp, ok := out.Body.(*Request).ReqType.(*GetSupportedProtocol)
	if !ok || gsp.ControllerSupportedProtocolVersions != "1.1" {
		t.Fatalf("expected get_supported_protocol to replace get, got %+v", out.Body.(*Request).ReqType)
	}
}

func TestUnmarshalOtherBodyKindReplaces(t *testing.T) {
	testlog.Start(t)
	b := Marshal(&Msg{Body: &Request{ReqType: &Get{ParamPaths: []string{"a"}}}})
	b = append(b, Marshal(&Msg{Body: &Error{ErrCode: 7000}})...)

	out, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e, ok := out.Body.(*Error); !ok || e.ErrCode != 7000 {
		t.Fatalf("expected error body, got %+v", out.Body)
	}
}

func TestMarshalSkipsTypedNilKinds(t *testing.T) {
	testlog.Start(t)
	want := Marshal(&Msg{Body: &Request{}})
	cases := []ReqType{(*UnknownReq)(nil), (*Get)(nil), (*GetSupportedProtocol)(nil)}
	for _, rt := range cases {
		if got := Marshal(&Msg{Body: &Request{ReqType: rt}}); !bytes.Equal(got, want) {
			t.Fatalf("%T: got %x want %x", rt, got, want)
		}
	}
	wantResp := Marshal(&Msg{Body: &Response{}})
	for _, rt := range []RespType{(*UnknownResp)(nil), (*GetResp)(nil), (*GetSupportedProtocolResp)(nil)} {
		if got := Marshal(&Msg{Body: &Response{RespType: rt}}); !bytes.Equal(got, wantResp) {
			t.Fatalf("%T: got %x want %x", rt, got, wantResp)
		}
	}
}

func TestParseMsgTypeAcceptsUnnamedValues(t *testing.T) {
	testlog.Start(t)
	got, ok := ParseMsgType(MsgType(19).String())
	if !ok || got != MsgType(19) {
		t.Fatalf("parse %q: %v %v", MsgType(19).String(), got, ok)
	}
	if _, ok := ParseMsgType("MsgType(x)"); ok {
		t.Fatalf("expected parse failure")
	}
}
