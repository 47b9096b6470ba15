package uspmsg

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/danmuck/uspkit/internal/protocol/wire"
)

// Unmarshal decodes a Msg. Unknown fields are skipped. Repeated occurrences
// of a singular message field are merged; a later oneof member replaces an
// earlier one. A body without a selected kind decodes as a nil Body.
func Unmarshal(b []byte) (*Msg, error) {
	var header, body wire.Embedded
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case fieldMsgHeader:
			return header.Add(f)
		case fieldMsgBody:
			return body.Add(f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("uspmsg: %w", err)
	}

	m := &Msg{}
	if header.Set {
		if m.Header, err = unmarshalHeader(header.Raw); err != nil {
			return nil, fmt.Errorf("uspmsg: header: %w", err)
		}
	}
	if body.Set {
		if m.Body, err = unmarshalBody(body.Raw); err != nil {
			return nil, fmt.Errorf("uspmsg: body: %w", err)
		}
	}
	return m, nil
}

func unmarshalHeader(b []byte) (*Header, error) {
	h := &Header{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldHeaderMsgID:
			h.MsgID, err = f.Text()
		case fieldHeaderMsgType:
			var v int32
			v, err = f.Enum()
			h.MsgType = MsgType(v)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func unmarshalBody(b []byte) (Body, error) {
	var kind wire.Embedded
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case fieldBodyRequest, fieldBodyResponse, fieldBodyError:
			return kind.Add(f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !kind.Set {
		return nil, nil
	}
	switch kind.Num {
	case fieldBodyRequest:
		return decodeNested(kind.Raw, "request", unmarshalRequest)
	case fieldBodyResponse:
		return decodeNested(kind.Raw, "response", unmarshalResponse)
	default:
		return decodeNested(kind.Raw, "error", unmarshalError)
	}
}

func decodeNested[T any](raw []byte, name string, fn func([]byte) (T, error)) (T, error) {
	v, err := fn(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// decodeField decodes one occurrence of a repeated message field.
func decodeField[T any](f wire.Field, name string, fn func([]byte) (T, error)) (T, error) {
	raw, err := f.Message()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return decodeNested(raw, name, fn)
}

func unmarshalRequest(b []byte) (Body, error) {
	var kind wire.Embedded
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case fieldReqGet, fieldReqGetSupportedProtocol:
			return kind.Add(f)
		}
		// every request kind is a message; anything else is an unknown field
		if f.Type == protowire.BytesType {
			return kind.Add(f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req := &Request{}
	if !kind.Set {
		return req, nil
	}
	switch kind.Num {
	case fieldReqGet:
		req.ReqType, err = decodeNested(kind.Raw, "get", unmarshalGet)
	case fieldReqGetSupportedProtocol:
		req.ReqType, err = decodeNested(kind.Raw, "get_supported_protocol", unmarshalGetSupportedProtocol)
	default:
		req.ReqType = &UnknownReq{Field: kind.Num, Raw: kind.Raw}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func unmarshalGet(b []byte) (*Get, error) {
	g := &Get{}
	err := wire.Walk(b, func(f wire.Field) error {
		if f.Num != fieldGetParamPaths {
			return nil
		}
		p, err := f.Text()
		if err != nil {
			return err
		}
		g.ParamPaths = append(g.ParamPaths, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func unmarshalGetSupportedProtocol(b []byte) (*GetSupportedProtocol, error) {
	g := &GetSupportedProtocol{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		if f.Num == fieldGSPControllerVersions {
			g.ControllerSupportedProtocolVersions, err = f.Text()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func unmarshalResponse(b []byte) (Body, error) {
	var kind wire.Embedded
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case fieldRespGetResp, fieldRespGetSupportedProtocolResp:
			return kind.Add(f)
		}
		if f.Type == protowire.BytesType {
			return kind.Add(f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &Response{}
	if !kind.Set {
		return resp, nil
	}
	switch kind.Num {
	case fieldRespGetResp:
		resp.RespType, err = decodeNested(kind.Raw, "get_resp", unmarshalGetResp)
	case fieldRespGetSupportedProtocolResp:
		resp.RespType, err = decodeNested(kind.Raw, "get_supported_protocol_resp", unmarshalGetSupportedProtocolResp)
	default:
		resp.RespType = &UnknownResp{Field: kind.Num, Raw: kind.Raw}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func unmarshalGetResp(b []byte) (*GetResp, error) {
	g := &GetResp{}
	err := wire.Walk(b, func(f wire.Field) error {
		if f.Num != fieldGetRespReqPathResults {
			return nil
		}
		r, err := decodeField(f, "req_path_results", unmarshalRequestedPathResult)
		if err != nil {
			return err
		}
		g.ReqPathResults = append(g.ReqPathResults, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func unmarshalRequestedPathResult(b []byte) (RequestedPathResult, error) {
	var r RequestedPathResult
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldRPRRequestedPath:
			r.RequestedPath, err = f.Text()
		case fieldRPRErrCode:
			r.ErrCode, err = f.Fixed32()
		case fieldRPRErrMsg:
			r.ErrMsg, err = f.Text()
		case fieldRPRResolvedPathResults:
			var res ResolvedPathResult
			res, err = decodeField(f, "resolved_path_results", unmarshalResolvedPathResult)
			if err == nil {
				r.ResolvedPathResults = append(r.ResolvedPathResults, res)
			}
		}
		return err
	})
	return r, err
}

func unmarshalResolvedPathResult(b []byte) (ResolvedPathResult, error) {
	var r ResolvedPathResult
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldResolvedPath:
			r.ResolvedPath, err = f.Text()
		case fieldResultParams:
			var (
				raw  []byte
				k, v string
			)
			if raw, err = f.Message(); err != nil {
				return err
			}
			if k, v, err = unmarshalMapEntry(raw); err != nil {
				return fmt.Errorf("result_params: %w", err)
			}
			if r.ResultParams == nil {
				r.ResultParams = make(map[string]string)
			}
			r.ResultParams[k] = v
		}
		return err
	})
	return r, err
}

func unmarshalMapEntry(b []byte) (key, value string, err error) {
	err = wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldMapKey:
			key, err = f.Text()
		case fieldMapValue:
			value, err = f.Text()
		}
		return err
	})
	return key, value, err
}

func unmarshalGetSupportedProtocolResp(b []byte) (*GetSupportedProtocolResp, error) {
	g := &GetSupportedProtocolResp{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		if f.Num == fieldGSPRespAgentVersions {
			g.AgentSupportedProtocolVersions, err = f.Text()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func unmarshalError(b []byte) (Body, error) {
	e := &Error{}
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldErrorErrCode:
			e.ErrCode, err = f.Fixed32()
		case fieldErrorErrMsg:
			e.ErrMsg, err = f.Text()
		case fieldErrorParamErrs:
			var pe ParamError
			pe, err = decodeField(f, "param_errs", unmarshalParamError)
			if err == nil {
				e.ParamErrs = append(e.ParamErrs, pe)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func unmarshalParamError(b []byte) (ParamError, error) {
	var pe ParamError
	err := wire.Walk(b, func(f wire.Field) (err error) {
		switch f.Num {
		case fieldParamErrPath:
			pe.ParamPath, err = f.Text()
		case fieldParamErrErrCode:
			pe.ErrCode, err = f.Fixed32()
		case fieldParamErrErrMsg:
			pe.ErrMsg, err = f.Text()
		}
		return err
	})
	return pe, err
}
