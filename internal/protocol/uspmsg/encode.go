package uspmsg

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/danmuck/uspkit/internal/protocol/wire"
)

// Marshal returns the canonical wire encoding of m: fields in field-number
// order, proto3 defaults omitted, map entries sorted by key.
func Marshal(m *Msg) []byte {
	if m == nil {
		return nil
	}
	var b []byte
	if m.Header != nil {
		b = wire.AppendMessage(b, fieldMsgHeader, m.Header.appendHeader(nil))
	}
	if m.Body != nil {
		var body []byte
		body = wire.AppendMessage(body, m.Body.bodyField(), m.Body.appendBody(nil))
		b = wire.AppendMessage(b, fieldMsgBody, body)
	}
	return b
}

func (h *Header) appendHeader(b []byte) []byte {
	b = wire.AppendString(b, fieldHeaderMsgID, h.MsgID)
	return wire.AppendEnum(b, fieldHeaderMsgType, int32(h.MsgType))
}

func (r *Request) appendBody(b []byte) []byte {
	if r == nil || nilReqType(r.ReqType) {
		return b
	}
	return wire.AppendMessage(b, r.ReqType.reqField(), r.ReqType.appendReq(nil))
}

func (r *Response) appendBody(b []byte) []byte {
	if r == nil || nilRespType(r.RespType) {
		return b
	}
	return wire.AppendMessage(b, r.RespType.respField(), r.RespType.appendResp(nil))
}

func (e *Error) appendBody(b []byte) []byte {
	if e == nil {
		return b
	}
	b = wire.AppendFixed32(b, fieldErrorErrCode, e.ErrCode)
	b = wire.AppendString(b, fieldErrorErrMsg, e.ErrMsg)
	for _, pe := range e.ParamErrs {
		b = wire.AppendMessage(b, fieldErrorParamErrs, pe.appendParamError(nil))
	}
	return b
}

func (pe ParamError) appendParamError(b []byte) []byte {
	b = wire.AppendString(b, fieldParamErrPath, pe.ParamPath)
	b = wire.AppendFixed32(b, fieldParamErrErrCode, pe.ErrCode)
	return wire.AppendString(b, fieldParamErrErrMsg, pe.ErrMsg)
}

func (g *Get) appendReq(b []byte) []byte {
	if g == nil {
		return b
	}
	return wire.AppendRepeatedString(b, fieldGetParamPaths, g.ParamPaths)
}

func (g *GetSupportedProtocol) appendReq(b []byte) []byte {
	if g == nil {
		return b
	}
	return wire.AppendString(b, fieldGSPControllerVersions, g.ControllerSupportedProtocolVersions)
}

func (u *UnknownReq) appendReq(b []byte) []byte {
	if u == nil {
		return b
	}
	return append(b, u.Raw...)
}

func (g *GetResp) appendResp(b []byte) []byte {
	if g == nil {
		return b
	}
	for _, r := range g.ReqPathResults {
		b = wire.AppendMessage(b, fieldGetRespReqPathResults, r.appendResult(nil))
	}
	return b
}

func (r RequestedPathResult) appendResult(b []byte) []byte {
	b = wire.AppendString(b, fieldRPRRequestedPath, r.RequestedPath)
	b = wire.AppendFixed32(b, fieldRPRErrCode, r.ErrCode)
	b = wire.AppendString(b, fieldRPRErrMsg, r.ErrMsg)
	for _, res := range r.ResolvedPathResults {
		b = wire.AppendMessage(b, fieldRPRResolvedPathResults, res.appendResolved(nil))
	}
	return b
}

func (r ResolvedPathResult) appendResolved(b []byte) []byte {
	b = wire.AppendString(b, fieldResolvedPath, r.ResolvedPath)
	keys := make([]string, 0, len(r.ResultParams))
	for k := range r.ResultParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// map entries always carry both key and value
		var entry []byte
		entry = protowire.AppendTag(entry, fieldMapKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, fieldMapValue, protowire.BytesType)
		entry = protowire.AppendString(entry, r.ResultParams[k])
		b = wire.AppendMessage(b, fieldResultParams, entry)
	}
	return b
}

func (g *GetSupportedProtocolResp) appendResp(b []byte) []byte {
	if g == nil {
		return b
	}
	return wire.AppendString(b, fieldGSPRespAgentVersions, g.AgentSupportedProtocolVersions)
}

func (u *UnknownResp) appendResp(b []byte) []byte {
	if u == nil {
		return b
	}
	return append(b, u.Raw...)
}

// Typed nil kinds are unset and leave the wrapper empty.
func nilReqType(rt ReqType) bool {
	switch v := rt.(type) {
	case nil:
		return true
	case *Get:
		return v == nil
	case *GetSupportedProtocol:
		return v == nil
	case *UnknownReq:
		return v == nil
	}
	return false
}

func nilRespType(rt RespType) bool {
	switch v := rt.(type) {
	case nil:
		return true
	case *GetResp:
		return v == nil
	case *GetSupportedProtocolResp:
		return v == nil
	case *UnknownResp:
		return v == nil
	}
	return false
}
