package dump

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
)

// MsgDoc mirrors uspmsg.Msg. At most one of Request, Response and Error is
// set.
type MsgDoc struct {
	Header   *HeaderDoc   `json:"header,omitempty" msgpack:"header,omitempty"`
	Request  *RequestDoc  `json:"request,omitempty" msgpack:"request,omitempty"`
	Response *ResponseDoc `json:"response,omitempty" msgpack:"response,omitempty"`
	Error    *ErrorDoc    `json:"error,omitempty" msgpack:"error,omitempty"`
}

type HeaderDoc struct {
	MsgID   string `json:"msg_id" msgpack:"msg_id"`
	MsgType string `json:"msg_type" msgpack:"msg_type"`
}

type RequestDoc struct {
	Get                  *GetDoc                  `json:"get,omitempty" msgpack:"get,omitempty"`
	GetSupportedProtocol *GetSupportedProtocolDoc `json:"get_supported_protocol,omitempty" msgpack:"get_supported_protocol,omitempty"`
	Unknown              *UnknownDoc              `json:"unknown,omitempty" msgpack:"unknown,omitempty"`
}

type GetDoc struct {
	ParamPaths []string `json:"param_paths" msgpack:"param_paths"`
}

type GetSupportedProtocolDoc struct {
	ControllerSupportedProtocolVersions string `json:"controller_supported_protocol_versions" msgpack:"controller_supported_protocol_versions"`
}

// UnknownDoc holds a request or response kind without a Go model.
type UnknownDoc struct {
	Field int32  `json:"field" msgpack:"field"`
	Raw   []byte `json:"raw" msgpack:"raw"`
}

type ResponseDoc struct {
	GetResp                  *GetRespDoc                  `json:"get_resp,omitempty" msgpack:"get_resp,omitempty"`
	GetSupportedProtocolResp *GetSupportedProtocolRespDoc `json:"get_supported_protocol_resp,omitempty" msgpack:"get_supported_protocol_resp,omitempty"`
	Unknown                  *UnknownDoc                  `json:"unknown,omitempty" msgpack:"unknown,omitempty"`
}

type GetRespDoc struct {
	ReqPathResults []RequestedPathResultDoc `json:"req_path_results" msgpack:"req_path_results"`
}

type RequestedPathResultDoc struct {
	RequestedPath       string                  `json:"requested_path" msgpack:"requested_path"`
	ErrCode             uint32                  `json:"err_code,omitempty" msgpack:"err_code,omitempty"`
	ErrMsg              string                  `json:"err_msg,omitempty" msgpack:"err_msg,omitempty"`
	ResolvedPathResults []ResolvedPathResultDoc `json:"resolved_path_results,omitempty" msgpack:"resolved_path_results,omitempty"`
}

type ResolvedPathResultDoc struct {
	ResolvedPath string            `json:"resolved_path" msgpack:"resolved_path"`
	ResultParams map[string]string `json:"result_params,omitempty" msgpack:"result_params,omitempty"`
}

type GetSupportedProtocolRespDoc struct {
	AgentSupportedProtocolVersions string `json:"agent_supported_protocol_versions" msgpack:"agent_supported_protocol_versions"`
}

type ErrorDoc struct {
	ErrCode   uint32          `json:"err_code" msgpack:"err_code"`
	ErrMsg    string          `json:"err_msg" msgpack:"err_msg"`
	ParamErrs []ParamErrorDoc `json:"param_errs,omitempty" msgpack:"param_errs,omitempty"`
}

type ParamErrorDoc struct {
	ParamPath string `json:"param_path" msgpack:"param_path"`
	ErrCode   uint32 `json:"err_code" msgpack:"err_code"`
	ErrMsg    string `json:"err_msg" msgpack:"err_msg"`
}

// FromMsg copies m into a document. A nil m yields the zero document.
func FromMsg(m *uspmsg.Msg) MsgDoc {
	var doc MsgDoc
	if m == nil {
		return doc
	}
	if m.Header != nil {
		doc.Header = &HeaderDoc{MsgID: m.Header.MsgID, MsgType: m.Header.MsgType.String()}
	}
	switch body := m.Body.(type) {
	case *uspmsg.Request:
		if body != nil {
			doc.Request = fromRequest(body)
		}
	case *uspmsg.Response:
		if body != nil {
			doc.Response = fromResponse(body)
		}
	case *uspmsg.Error:
		if body != nil {
			doc.Error = fromError(body)
		}
	}
	return doc
}

func fromRequest(r *uspmsg.Request) *RequestDoc {
	doc := &RequestDoc{}
	switch req := r.ReqType.(type) {
	case *uspmsg.Get:
		if req == nil {
			break
		}
		doc.Get = &GetDoc{ParamPaths: req.ParamPaths}
	case *uspmsg.GetSupportedProtocol:
		if req == nil {
			break
		}
		doc.GetSupportedProtocol = &GetSupportedProtocolDoc{
			ControllerSupportedProtocolVersions: req.ControllerSupportedProtocolVersions,
		}
	case *uspmsg.UnknownReq:
		if req == nil {
			break
		}
		doc.Unknown = &UnknownDoc{Field: int32(req.Field), Raw: req.Raw}
	}
	return doc
}

func fromResponse(r *uspmsg.Response) *ResponseDoc {
	doc := &ResponseDoc{}
	switch resp := r.RespType.(type) {
	case *uspmsg.GetResp:
		if resp == nil {
			break
		}
		out := &GetRespDoc{}
		for _, rpr := range resp.ReqPathResults {
			res := RequestedPathResultDoc{
				RequestedPath: rpr.RequestedPath,
				ErrCode:       rpr.ErrCode,
				ErrMsg:        rpr.ErrMsg,
			}
			for _, rr := range rpr.ResolvedPathResults {
				res.ResolvedPathResults = append(res.ResolvedPathResults, ResolvedPathResultDoc{
					ResolvedPath: rr.ResolvedPath,
					ResultParams: rr.ResultParams,
				})
			}
			out.ReqPathResults = append(out.ReqPathResults, res)
		}
		doc.GetResp = out
	case *uspmsg.GetSupportedProtocolResp:
		if resp == nil {
			break
		}
		doc.GetSupportedProtocolResp = &GetSupportedProtocolRespDoc{
			AgentSupportedProtocolVersions: resp.AgentSupportedProtocolVersions,
		}
	case *uspmsg.UnknownResp:
		if resp == nil {
			break
		}
		doc.Unknown = &UnknownDoc{Field: int32(resp.Field), Raw: resp.Raw}
	}
	return doc
}

func fromError(e *uspmsg.Error) *ErrorDoc {
	doc := &ErrorDoc{ErrCode: e.ErrCode, ErrMsg: e.ErrMsg}
	for _, pe := range e.ParamErrs {
		doc.ParamErrs = append(doc.ParamErrs, ParamErrorDoc{
			ParamPath: pe.ParamPath,
			ErrCode:   pe.ErrCode,
			ErrMsg:    pe.ErrMsg,
		})
	}
	return doc
}

// Msg converts the document back into a Msg.
func (d MsgDoc) Msg() (*uspmsg.Msg, error) {
	m := &uspmsg.Msg{}
	if d.Header != nil {
		t, ok := uspmsg.ParseMsgType(d.Header.MsgType)
		if !ok {
			return nil, fmt.Errorf("%w: msg_type %q", ErrUnknownEnum, d.Header.MsgType)
		}
		m.Header = &uspmsg.Header{MsgID: d.Header.MsgID, MsgType: t}
	}

	set := 0
	if d.Request != nil {
		set++
		req, err := d.Request.request()
		if err != nil {
			return nil, err
		}
		m.Body = req
	}
	if d.Response != nil {
		set++
		m.Body = d.Response.response()
	}
	if d.Error != nil {
		set++
		m.Body = d.Error.toError()
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: body", ErrAmbiguousVariant)
	}
	return m, nil
}

func (d *RequestDoc) request() (*uspmsg.Request, error) {
	r := &uspmsg.Request{}
	set := 0
	if d.Get != nil {
		set++
		r.ReqType = &uspmsg.Get{ParamPaths: d.Get.ParamPaths}
	}
	if d.GetSupportedProtocol != nil {
		set++
		r.ReqType = &uspmsg.GetSupportedProtocol{
			ControllerSupportedProtocolVersions: d.GetSupportedProtocol.ControllerSupportedProtocolVersions,
		}
	}
	if d.Unknown != nil {
		set++
		r.ReqType = &uspmsg.UnknownReq{Field: protowire.Number(d.Unknown.Field), Raw: d.Unknown.Raw}
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: request", ErrAmbiguousVariant)
	}
	return r, nil
}

func (d *ResponseDoc) response() *uspmsg.Response {
	r := &uspmsg.Response{}
	switch {
	case d.GetResp != nil:
		out := &uspmsg.GetResp{}
		for _, rpr := range d.GetResp.ReqPathResults {
			res := uspmsg.RequestedPathResult{
				RequestedPath: rpr.RequestedPath,
				ErrCode:       rpr.ErrCode,
				ErrMsg:        rpr.ErrMsg,
			}
			for _, rr := range rpr.ResolvedPathResults {
				res.ResolvedPathResults = append(res.ResolvedPathResults, uspmsg.ResolvedPathResult{
					ResolvedPath: rr.ResolvedPath,
					ResultParams: rr.ResultParams,
				})
			}
			out.ReqPathResults = append(out.ReqPathResults, res)
		}
		r.RespType = out
	case d.GetSupportedProtocolResp != nil:
		r.RespType = &uspmsg.GetSupportedProtocolResp{
			AgentSupportedProtocolVersions: d.GetSupportedProtocolResp.AgentSupportedProtocolVersions,
		}
	case d.Unknown != nil:
		r.RespType = &uspmsg.UnknownResp{Field: protowire.Number(d.Unknown.Field), Raw: d.Unknown.Raw}
	}
	return r
}

func (d *ErrorDoc) toError() *uspmsg.Error {
	e := &uspmsg.Error{ErrCode: d.ErrCode, ErrMsg: d.ErrMsg}
	for _, pe := range d.ParamErrs {
		e.ParamErrs = append(e.ParamErrs, uspmsg.ParamError{
			ParamPath: pe.ParamPath,
			ErrCode:   pe.ErrCode,
			ErrMsg:    pe.ErrMsg,
		})
	}
	return e
}
