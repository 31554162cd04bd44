// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of tensorflow.TensorProto.
const (
	fieldDtype         protowire.Number = 1
	fieldTensorShape   protowire.Number = 2
	fieldVersionNumber protowire.Number = 3
	fieldTensorContent protowire.Number = 4
	fieldFloatVal      protowire.Number = 5
	fieldDoubleVal     protowire.Number = 6
	fieldIntVal        protowire.Number = 7
	fieldStringVal     protowire.Number = 8
	fieldScomplexVal   protowire.Number = 9
	fieldInt64Val      protowire.Number = 10
	fieldBoolVal       protowire.Number = 11
	fieldDcomplexVal   protowire.Number = 12
	fieldHalfVal       protowire.Number = 13
	fieldUint32Val     protowire.Number = 16
	fieldUint64Val     protowire.Number = 17
)

// MarshalBinary encodes tp in protocol buffers binary format.
// It satisfies encoding.BinaryMarshaler interface.
func (tp *TensorProto) MarshalBinary() ([]byte, error) {
	return tp.AppendBinary(nil), nil
}

// AppendBinary appends the protocol buffers encoding of tp to b.
//
// Fields are written in field number order, repeated scalars packed.
// The shape is always written, so that a scalar is distinguishable
// from a tensor of unknown rank.
func (tp *TensorProto) AppendBinary(b []byte) []byte {
	if tp.Dtype != 0 {
		b = protowire.AppendTag(b, fieldDtype, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(tp.Dtype))
	}
	b = protowire.AppendTag(b, fieldTensorShape, protowire.BytesType)
	b = protowire.AppendBytes(b, tp.TensorShape.AppendBinary(nil))
	if tp.VersionNumber != 0 {
		b = protowire.AppendTag(b, fieldVersionNumber, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(tp.VersionNumber))
	}
	if len(tp.TensorContent) > 0 {
		b = protowire.AppendTag(b, fieldTensorContent, protowire.BytesType)
		b = protowire.AppendBytes(b, tp.TensorContent)
	}
	b = appendPacked(b, fieldFloatVal, tp.FloatVal, appendFloat32)
	b = appendPacked(b, fieldDoubleVal, tp.DoubleVal, appendFloat64)
	b = appendPacked(b, fieldIntVal, tp.IntVal, appendInt32)
	for _, s := range tp.StringVal {
		b = protowire.AppendTag(b, fieldStringVal, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	b = appendPacked(b, fieldScomplexVal, tp.ScomplexVal, appendFloat32)
	b = appendPacked(b, fieldInt64Val, tp.Int64Val, appendInt64)
	b = appendPacked(b, fieldBoolVal, tp.BoolVal, appendBool)
	b = appendPacked(b, fieldDcomplexVal, tp.DcomplexVal, appendFloat64)
	b = appendPacked(b, fieldHalfVal, tp.HalfVal, appendInt32)
	b = appendPacked(b, fieldUint32Val, tp.Uint32Val, appendUint32)
	b = appendPacked(b, fieldUint64Val, tp.Uint64Val, appendUint64)
	return b
}

func appendPacked[T any](b []byte, num protowire.Number, vals []T, appendOne func([]byte, T) []byte) []byte {
	if len(vals) == 0 {
		return b
	}
	var p []byte
	for _, v := range vals {
		p = appendOne(p, v)
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, p)
}

func appendFloat32(b []byte, v float32) []byte { return protowire.AppendFixed32(b, math.Float32bits(v)) }
func appendFloat64(b []byte, v float64) []byte { return protowire.AppendFixed64(b, math.Float64bits(v)) }
func appendInt32(b []byte, v int32) []byte     { return protowire.AppendVarint(b, uint64(v)) }
func appendInt64(b []byte, v int64) []byte     { return protowire.AppendVarint(b, uint64(v)) }
func appendUint32(b []byte, v uint32) []byte   { return protowire.AppendVarint(b, uint64(v)) }
func appendUint64(b []byte, v uint64) []byte   { return protowire.AppendVarint(b, v) }
func appendBool(b []byte, v bool) []byte       { return protowire.AppendVarint(b, protowire.EncodeBool(v)) }

// UnmarshalBinary decodes tp from protocol buffers binary format.
// Repeated scalars are accepted both packed and unpacked. Unknown fields
// are skipped.
// It satisfies encoding.BinaryUnmarshaler interface.
func (tp *TensorProto) UnmarshalBinary(b []byte) error {
	*tp = TensorProto{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tensor proto: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldDtype && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			tp.Dtype = int32(v)
		case num == fieldTensorShape && typ == protowire.BytesType:
			var v []byte
			if v, n = protowire.ConsumeBytes(b); n >= 0 {
				if err := tp.TensorShape.UnmarshalBinary(v); err != nil {
					return err
				}
			}
		case num == fieldVersionNumber && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			tp.VersionNumber = int32(v)
		case num == fieldTensorContent && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			tp.TensorContent = append([]byte(nil), v...)
		case num == fieldStringVal && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			tp.StringVal = append(tp.StringVal, append([]byte{}, v...))
		case num == fieldFloatVal && isRepeated(typ, protowire.Fixed32Type):
			tp.FloatVal, n = consumeRepeated(tp.FloatVal, b, typ, consumeFloat32)
		case num == fieldDoubleVal && isRepeated(typ, protowire.Fixed64Type):
			tp.DoubleVal, n = consumeRepeated(tp.DoubleVal, b, typ, consumeFloat64)
		case num == fieldIntVal && isRepeated(typ, protowire.VarintType):
			tp.IntVal, n = consumeRepeated(tp.IntVal, b, typ, consumeInt32)
		case num == fieldScomplexVal && isRepeated(typ, protowire.Fixed32Type):
			tp.ScomplexVal, n = consumeRepeated(tp.ScomplexVal, b, typ, consumeFloat32)
		case num == fieldInt64Val && isRepeated(typ, protowire.VarintType):
			tp.Int64Val, n = consumeRepeated(tp.Int64Val, b, typ, consumeInt64)
		case num == fieldBoolVal && isRepeated(typ, protowire.VarintType):
			tp.BoolVal, n = consumeRepeated(tp.BoolVal, b, typ, consumeBool)
		case num == fieldDcomplexVal && isRepeated(typ, protowire.Fixed64Type):
			tp.DcomplexVal, n = consumeRepeated(tp.DcomplexVal, b, typ, consumeFloat64)
		case num == fieldHalfVal && isRepeated(typ, protowire.VarintType):
			tp.HalfVal, n = consumeRepeated(tp.HalfVal, b, typ, consumeInt32)
		case num == fieldUint32Val && isRepeated(typ, protowire.VarintType):
			tp.Uint32Val, n = consumeRepeated(tp.Uint32Val, b, typ, consumeUint32)
		case num == fieldUint64Val && isRepeated(typ, protowire.VarintType):
			tp.Uint64Val, n = consumeRepeated(tp.Uint64Val, b, typ, consumeUint64)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("invalid tensor proto field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func isRepeated(typ, elem protowire.Type) bool {
	return typ == elem || typ == protowire.BytesType
}

// consumeRepeated appends to dst the values of a repeated scalar field,
// either packed (typ is BytesType) or a single unpacked value.
// It returns the number of bytes consumed from b, or a negative value
// on error.
func consumeRepeated[T any](dst []T, b []byte, typ protowire.Type, read func([]byte) (T, int)) ([]T, int) {
	if typ != protowire.BytesType {
		v, n := read(b)
		if n < 0 {
			return dst, n
		}
		return append(dst, v), n
	}
	p, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return dst, n
	}
	for len(p) > 0 {
		v, m := read(p)
		if m < 0 {
			return dst, m
		}
		dst = append(dst, v)
		p = p[m:]
	}
	return dst, n
}

func consumeFloat32(b []byte) (float32, int) {
	v, n := protowire.ConsumeFixed32(b)
	return math.Float32frombits(v), n
}

func consumeFloat64(b []byte) (float64, int) {
	v, n := protowire.ConsumeFixed64(b)
	return math.Float64frombits(v), n
}

func consumeInt32(b []byte) (int32, int) {
	v, n := protowire.ConsumeVarint(b)
	return int32(v), n
}

func consumeInt64(b []byte) (int64, int) {
	v, n := protowire.ConsumeVarint(b)
	return int64(v), n
}

func consumeUint32(b []byte) (uint32, int) {
	v, n := protowire.ConsumeVarint(b)
	return uint32(v), n
}

func consumeUint64(b []byte) (uint64, int) {
	return protowire.ConsumeVarint(b)
}

func consumeBool(b []byte) (bool, int) {
	v, n := protowire.ConsumeVarint(b)
	return protowire.DecodeBool(v), n
}
