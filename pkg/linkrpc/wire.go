package linkrpc

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every message of connector.proto. The
// encoding is the protobuf binary format, field numbers as in the schema.
type wireMessage interface {
	marshalWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

// encoder appends fields, skipping proto3 default values.
type encoder struct {
	b []byte
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeBool(v))
}

func (e *encoder) int64(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	e.optionalInt64(num, v)
}

// optionalInt64 always writes the field so presence survives a zero value.
func (e *encoder) optionalInt64(num protowire.Number, v int64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(v))
}

func (e *encoder) fixed64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, v)
}

func (e *encoder) double(num protowire.Number, v float64) {
	e.fixed64(num, math.Float64bits(v))
}

func (e *encoder) message(num protowire.Number, m wireMessage) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, m.marshalWire(nil))
}

// appendRepeated writes every element; nil elements go out as empty messages.
func appendRepeated[T any, P interface {
	*T
	wireMessage
}](e *encoder, num protowire.Number, ms []P) {
	for _, m := range ms {
		if m == nil {
			m = P(new(T))
		}
		e.message(num, m)
	}
}

// field is one decoded field. Accessors record a wire type mismatch in err.
type field struct {
	num protowire.Number
	typ protowire.Type
	val []byte
	err error
}

func (f *field) expect(typ protowire.Type) bool {
	if f.typ == typ {
		return true
	}
	if f.err == nil {
		f.err = fmt.Errorf("linkrpc: field %d has wire type %d, want %d", f.num, f.typ, typ)
	}
	return false
}

func (f *field) raw() []byte {
	if !f.expect(protowire.BytesType) {
		return nil
	}
	v, _ := protowire.ConsumeBytes(f.val)
	return v
}

func (f *field) string() string {
	return string(f.raw())
}

func (f *field) bytes() []byte {
	v := f.raw()
	if len(v) == 0 {
		return nil
	}
	return append([]byte(nil), v...)
}

func (f *field) varint() uint64 {
	if !f.expect(protowire.VarintType) {
		return 0
	}
	v, _ := protowire.ConsumeVarint(f.val)
	return v
}

func (f *field) int64() int64 {
	return int64(f.varint())
}

func (f *field) bool() bool {
	return protowire.DecodeBool(f.varint())
}

func (f *field) fixed64() uint64 {
	if !f.expect(protowire.Fixed64Type) {
		return 0
	}
	v, _ := protowire.ConsumeFixed64(f.val)
	return v
}

func (f *field) double() float64 {
	return math.Float64frombits(f.fixed64())
}

func (f *field) message(m wireMessage) {
	raw := f.raw()
	if f.err != nil {
		return
	}
	if err := m.unmarshalWire(raw); err != nil {
		f.err = err
	}
}

func decodeMessage[T any, P interface {
	*T
	wireMessage
}](f *field) P {
	m := P(new(T))
	f.message(m)
	return m
}

// readFields calls fn for every field of b in order. Unknown fields are
// skipped by leaving them unhandled in fn.
func readFields(b []byte, fn func(f *field)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		f := field{num: num, typ: typ, val: b[:n]}
		fn(&f)
		if f.err != nil {
			return f.err
		}
		b = b[n:]
	}
	return nil
}
