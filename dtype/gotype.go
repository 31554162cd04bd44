// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtype

import (
	"fmt"
	"math/bits"
	"reflect"

	"github.com/nlpodyssey/tensorproto/float16"
)

var (
	// dTypeToGoType maps each wire-compatible base type to the Go type
	// used to store its elements. Quantized types share the storage of
	// their unquantized counterpart.
	dTypeToGoType = [...]reflect.Type{
		Float:      reflect.TypeOf(float32(0)),
		Double:     reflect.TypeOf(float64(0)),
		Int32:      reflect.TypeOf(int32(0)),
		UInt8:      reflect.TypeOf(uint8(0)),
		Int16:      reflect.TypeOf(int16(0)),
		Int8:       reflect.TypeOf(int8(0)),
		String:     reflect.TypeOf(""),
		Complex64:  reflect.TypeOf(complex64(0)),
		Int64:      reflect.TypeOf(int64(0)),
		Bool:       reflect.TypeOf(false),
		QInt8:      reflect.TypeOf(int8(0)),
		QUInt8:     reflect.TypeOf(uint8(0)),
		QInt32:     reflect.TypeOf(int32(0)),
		BFloat16:   reflect.TypeOf(float16.BF16(0)),
		QInt16:     reflect.TypeOf(int16(0)),
		QUInt16:    reflect.TypeOf(uint16(0)),
		UInt16:     reflect.TypeOf(uint16(0)),
		Complex128: reflect.TypeOf(complex128(0)),
		Half:       reflect.TypeOf(float16.F16(0)),
		Resource:   nil,
		Variant:    nil,
		UInt32:     reflect.TypeOf(uint32(0)),
		UInt64:     reflect.TypeOf(uint64(0)),
	}
	goTypeToDType = map[reflect.Type]DType{
		reflect.TypeOf(false):           Bool,
		reflect.TypeOf(int8(0)):         Int8,
		reflect.TypeOf(int16(0)):        Int16,
		reflect.TypeOf(int32(0)):        Int32,
		reflect.TypeOf(int64(0)):        Int64,
		reflect.TypeOf(uint8(0)):        UInt8,
		reflect.TypeOf(uint16(0)):       UInt16,
		reflect.TypeOf(uint32(0)):       UInt32,
		reflect.TypeOf(uint64(0)):       UInt64,
		reflect.TypeOf(float16.F16(0)):  Half,
		reflect.TypeOf(float16.BF16(0)): BFloat16,
		reflect.TypeOf(float32(0)):      Float,
		reflect.TypeOf(float64(0)):      Double,
		reflect.TypeOf(complex64(0)):    Complex64,
		reflect.TypeOf(complex128(0)):   Complex128,
		reflect.TypeOf(""):              String,
		reflect.TypeOf([]byte(nil)):     String,
		reflect.TypeOf(int(0)):          platformInt(),
		reflect.TypeOf(uint(0)):         platformUint(),
	}
)

func platformInt() DType {
	if bits.UintSize == 32 {
		return Int32
	}
	return Int64
}

func platformUint() DType {
	if bits.UintSize == 32 {
		return UInt32
	}
	return UInt64
}

// StorageType returns the Go type used to store one element of dt,
// or nil if dt is invalid or has no storage representation (resource
// and variant handles).
//
// Quantized types report the storage of their unquantized counterpart:
// for example, QInt8 is stored as int8. Only the type code records the
// quantization semantics.
func (dt DType) StorageType() reflect.Type {
	if dt.Validate() != nil {
		return nil
	}
	return dTypeToGoType[dt.Base()]
}

// FromGoType returns the DType whose elements are natively represented
// by t. Go int and uint map to the 64-bit (or 32-bit, depending on the
// platform) fixed-width types, and []byte maps to String.
func FromGoType(t reflect.Type) (DType, error) {
	if t == nil {
		return Invalid, fmt.Errorf("%w <nil>", ErrUnrecognizedType)
	}
	dt, ok := goTypeToDType[t]
	if !ok {
		return Invalid, fmt.Errorf("%w %s", ErrUnrecognizedType, t)
	}
	return dt, nil
}

// Of returns the DType of the elements of data. When data is a slice or
// an array, its element type is resolved, otherwise the type of data
// itself is resolved as a scalar.
func Of(data any) (DType, error) {
	t := reflect.TypeOf(data)
	if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	return FromGoType(t)
}
