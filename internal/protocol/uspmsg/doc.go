// Package uspmsg holds the USP 1.1 message schema (usp-msg-1-1.proto) as Go
// types together with their protobuf wire encoding.
//
// Oneof groups are modeled as closed sum types: Body is one of *Request,
// *Response or *Error, and each request/response wrapper carries exactly one
// kind. Kinds this package does not model are kept as raw bytes so they
// survive a decode/encode cycle.
package uspmsg
