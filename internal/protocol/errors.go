package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrToIDNotSet          = errors.New("protocol: to_id must be set before building the record")
	ErrRecordTypeNotSet    = errors.New("protocol: record type must be set before building the record")
	ErrHeaderNotSet        = errors.New("protocol: message header not set")
	ErrBodyNotSet          = errors.New("protocol: message body not set")
	ErrMessageTypeMismatch = errors.New("protocol: message type mismatch")
	ErrUnsupportedBody     = errors.New("protocol: body kind has no message type")
)

// DecodeError reports bytes that do not conform to the record or message
// schema. Err is the schema decoder's failure.
type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MessageTypeError details an ErrMessageTypeMismatch.
type MessageTypeError struct {
	Header string
	Body   string
}

func (e MessageTypeError) Error() string {
	return fmt.Sprintf("protocol: message type mismatch: header=%s body=%s", e.Header, e.Body)
}

func (e MessageTypeError) Unwrap() error {
	return ErrMessageTypeMismatch
}
