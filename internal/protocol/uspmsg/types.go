package uspmsg

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/danmuck/uspkit/internal/protocol/wire"
)

// MsgType is Header.MsgType.
type MsgType int32

const (
	MsgTypeError                 MsgType = 0
	MsgTypeGet                   MsgType = 1
	MsgTypeGetResp               MsgType = 2
	MsgTypeNotify                MsgType = 3
	MsgTypeSet                   MsgType = 4
	MsgTypeSetResp               MsgType = 5
	MsgTypeOperate               MsgType = 6
	MsgTypeOperateResp           MsgType = 7
	MsgTypeAdd                   MsgType = 8
	MsgTypeAddResp               MsgType = 9
	MsgTypeDelete                MsgType = 10
	MsgTypeDeleteResp            MsgType = 11
	MsgTypeGetSupportedDM        MsgType = 12
	MsgTypeGetSupportedDMResp    MsgType = 13
	MsgTypeGetInstances          MsgType = 14
	MsgTypeGetInstancesResp      MsgType = 15
	MsgTypeNotifyResp            MsgType = 16
	MsgTypeGetSupportedProto     MsgType = 17
	MsgTypeGetSupportedProtoResp MsgType = 18
)

var msgTypeNames = map[MsgType]string{
	MsgTypeError:                 "ERROR",
	MsgTypeGet:                   "GET",
	MsgTypeGetResp:               "GET_RESP",
	MsgTypeNotify:                "NOTIFY",
	MsgTypeSet:                   "SET",
	MsgTypeSetResp:               "SET_RESP",
	MsgTypeOperate:               "OPERATE",
	MsgTypeOperateResp:           "OPERATE_RESP",
	MsgTypeAdd:                   "ADD",
	MsgTypeAddResp:               "ADD_RESP",
	MsgTypeDelete:                "DELETE",
	MsgTypeDeleteResp:            "DELETE_RESP",
	MsgTypeGetSupportedDM:        "GET_SUPPORTED_DM",
	MsgTypeGetSupportedDMResp:    "GET_SUPPORTED_DM_RESP",
	MsgTypeGetInstances:          "GET_INSTANCES",
	MsgTypeGetInstancesResp:      "GET_INSTANCES_RESP",
	MsgTypeNotifyResp:            "NOTIFY_RESP",
	MsgTypeGetSupportedProto:     "GET_SUPPORTED_PROTO",
	MsgTypeGetSupportedProtoResp: "GET_SUPPORTED_PROTO_RESP",
}

func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return wire.EnumString("MsgType", int32(t))
}

// ParseMsgType accepts the proto enum name, case-insensitive, or the
// MsgType(N) form String uses for values without a name.
func ParseMsgType(s string) (MsgType, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range msgTypeNames {
		if name == upper {
			return t, true
		}
	}
	v, ok := wire.ParseEnumNumber("MsgType", s)
	return MsgType(v), ok
}

// Header field numbers.
const (
	fieldHeaderMsgID   protowire.Number = 1
	fieldHeaderMsgType protowire.Number = 2
)

type Header struct {
	MsgID   string
	MsgType MsgType
}

// Msg field numbers.
const (
	fieldMsgHeader protowire.Number = 1
	fieldMsgBody   protowire.Number = 2
)

// Msg is the top level USP message. Header and Body may be nil at the type
// level; a transmittable message carries both.
type Msg struct {
	Header *Header
	Body   Body
}

// Body is one of *Request, *Response or *Error.
type Body interface {
	bodyField() protowire.Number
	appendBody(b []byte) []byte
}

const (
	fieldBodyRequest  protowire.Number = 1
	fieldBodyResponse protowire.Number = 2
	fieldBodyError    protowire.Number = 3
)

// Request wraps exactly one request kind. A nil ReqType encodes as an empty
// request.
type Request struct {
	ReqType ReqType
}

// ReqType is one of *Get, *GetSupportedProtocol or *UnknownReq.
type ReqType interface {
	reqField() protowire.Number
	appendReq(b []byte) []byte
}

const (
	fieldReqGet                  protowire.Number = 1
	fieldReqGetSupportedProtocol protowire.Number = 9
)

// Get requests the values of the given parameter paths.
type Get struct {
	ParamPaths []string
}

const fieldGetParamPaths protowire.Number = 1

type GetSupportedProtocol struct {
	ControllerSupportedProtocolVersions string
}

const fieldGSPControllerVersions protowire.Number = 1

// UnknownReq is a request kind without a Go model. Raw is the encoded
// body of field Field inside Request.
type UnknownReq struct {
	Field protowire.Number
	Raw   []byte
}

// Response wraps exactly one response kind.
type Response struct {
	RespType RespType
}

// RespType is one of *GetResp, *GetSupportedProtocolResp or *UnknownResp.
type RespType interface {
	respField() protowire.Number
	appendResp(b []byte) []byte
}

const (
	fieldRespGetResp                  protowire.Number = 1
	fieldRespGetSupportedProtocolResp protowire.Number = 9
)

type GetResp struct {
	ReqPathResults []RequestedPathResult
}

const fieldGetRespReqPathResults protowire.Number = 1

type RequestedPathResult struct {
	RequestedPath       string
	ErrCode             uint32
	ErrMsg              string
	ResolvedPathResults []ResolvedPathResult
}

const (
	fieldRPRRequestedPath       protowire.Number = 1
	fieldRPRErrCode             protowire.Number = 2
	fieldRPRErrMsg              protowire.Number = 3
	fieldRPRResolvedPathResults protowire.Number = 4
)

type ResolvedPathResult struct {
	ResolvedPath string
	ResultParams map[string]string
}

const (
	fieldResolvedPath protowire.Number = 1
	fieldResultParams protowire.Number = 2

	fieldMapKey   protowire.Number = 1
	fieldMapValue protowire.Number = 2
)

type GetSupportedProtocolResp struct {
	AgentSupportedProtocolVersions string
}

const fieldGSPRespAgentVersions protowire.Number = 1

type UnknownResp struct {
	Field protowire.Number
	Raw   []byte
}

// Error is the USP Error body.
type Error struct {
	ErrCode   uint32
	ErrMsg    string
	ParamErrs []ParamError
}

const (
	fieldErrorErrCode   protowire.Number = 1
	fieldErrorErrMsg    protowire.Number = 2
	fieldErrorParamErrs protowire.Number = 3
)

type ParamError struct {
	ParamPath string
	ErrCode   uint32
	ErrMsg    string
}

const (
	fieldParamErrPath    protowire.Number = 1
	fieldParamErrErrCode protowire.Number = 2
	fieldParamErrErrMsg  protowire.Number = 3
)

func (*Request) bodyField() protowire.Number  { return fieldBodyRequest }
func (*Response) bodyField() protowire.Number { return fieldBodyResponse }
func (*Error) bodyField() protowire.Number    { return fieldBodyError }

func (*Get) reqField() protowire.Number                  { return fieldReqGet }
func (*GetSupportedProtocol) reqField() protowire.Number { return fieldReqGetSupportedProtocol }
func (u *UnknownReq) reqField() protowire.Number {
	if u == nil {
		return 0
	}
	return u.Field
}

func (*GetResp) respField() protowire.Number                  { return fieldRespGetResp }
func (*GetSupportedProtocolResp) respField() protowire.Number { return fieldRespGetSupportedProtocolResp }
func (u *UnknownResp) respField() protowire.Number {
	if u == nil {
		return 0
	}
	return u.Field
}

// MsgTypeOf returns the header type that matches body. ok is false for nil
// bodies and for kinds without a Go model.
func MsgTypeOf(body Body) (t MsgType, ok bool) {
	switch v := body.(type) {
	case *Request:
		if v == nil {
			return 0, false
		}
		switch v.ReqType.(type) {
		case *Get:
			return MsgTypeGet, true
		case *GetSupportedProtocol:
			return MsgTypeGetSupportedProto, true
		}
	case *Response:
		if v == nil {
			return 0, false
		}
		switch v.RespType.(type) {
		case *GetResp:
			return MsgTypeGetResp, true
		case *GetSupportedProtocolResp:
			return MsgTypeGetSupportedProtoResp, true
		}
	case *Error:
		if v != nil {
			return MsgTypeError, true
		}
	}
	return 0, false
}
