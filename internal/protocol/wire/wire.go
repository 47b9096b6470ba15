package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformed        = errors.New("wire: malformed field")
	ErrWireTypeMismatch = errors.New("wire: wire type mismatch")
	ErrInvalidUTF8      = errors.New("wire: invalid utf-8 string")
)

// Field is one decoded protobuf field. Only the value matching Type is set.
type Field struct {
	Num  protowire.Number
	Type protowire.Type

	varint  uint64
	fixed32 uint32
	bytes   []byte
}

// AppendString appends a string field, omitting the proto3 default.
func AppendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// AppendRepeatedString appends one element per value, empty strings included.
func AppendRepeatedString(b []byte, num protowire.Number, vs []string) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

// AppendBytes appends a bytes field, omitting the proto3 default.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func AppendRepeatedBytes(b []byte, num protowire.Number, vs [][]byte) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b
}

// AppendMessage appends an embedded message. It is always written so that an
// empty oneof member stays selected on the wire.
func AppendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func AppendEnum(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func AppendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendFixed32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, v)
}

// Walk decodes every field in buf in order and hands it to fn. Bytes values
// are copied so callers may retain them.
func Walk(buf []byte, fn func(Field) error) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		buf = buf[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(buf)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(buf)
		case protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(buf)
			if n >= 0 {
				f.bytes = make([]byte, len(v))
				copy(f.bytes, v)
			}
		default:
			// fixed64 and groups are never used by USP
			n = protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			buf = buf[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		buf = buf[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) expect(typ protowire.Type) error {
	if f.Type != typ {
		return fmt.Errorf("%w: field %d: got %d want %d", ErrWireTypeMismatch, f.Num, f.Type, typ)
	}
	return nil
}

// Text returns the field as a proto3 string.
func (f Field) Text() (string, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return "", err
	}
	if !utf8.Valid(f.bytes) {
		return "", fmt.Errorf("%w: field %d", ErrInvalidUTF8, f.Num)
	}
	return string(f.bytes), nil
}

// Message returns the raw bytes of an embedded message or bytes field.
func (f Field) Message() ([]byte, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	return f.bytes, nil
}

func (f Field) Enum() (int32, error) {
	if err := f.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	return int32(f.varint), nil
}

func (f Field) Uint64() (uint64, error) {
	if err := f.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	return f.varint, nil
}

func (f Field) Fixed32() (uint32, error) {
	if err := f.expect(protowire.Fixed32Type); err != nil {
		return 0, err
	}
	return f.fixed32, nil
}

// Embedded collects the occurrences of a singular embedded message, or of a
// oneof whose members are all messages. Repeats of the same field are
// concatenated, which decodes as a proto3 merge. A different field number
// replaces what was collected.
type Embedded struct {
	Num protowire.Number
	Raw []byte
	Set bool
}

func (e *Embedded) Add(f Field) error {
	raw, err := f.Message()
	if err != nil {
		return err
	}
	if !e.Set || e.Num != f.Num {
		e.Raw = nil
	}
	e.Num = f.Num
	e.Raw = append(e.Raw, raw...)
	e.Set = true
	return nil
}

// EnumString formats an enum value that has no name as Type(N).
func EnumString(typeName string, v int32) string {
	return typeName + "(" + strconv.Itoa(int(v)) + ")"
}

// ParseEnumNumber reads the Type(N) form written by EnumString, or a bare
// decimal number.
func ParseEnumNumber(typeName, s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, typeName+"("); ok {
		s, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}
