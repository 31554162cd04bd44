// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dtype defines the closed set of tensor element types exchanged
// with a TensorFlow Serving endpoint.
//
// A DType value is the wire enum code itself: converting from and to the
// serialized "dtype" field is a validated integer conversion.
package dtype

import (
	"errors"
	"fmt"
)

// DType represents a tensor element data type.
type DType int32

const (
	// Invalid is the explicit "no type" wire sentinel.
	Invalid DType = iota
	// Float represents a 32-bit floating point data type.
	Float
	// Double represents a 64-bit floating point data type.
	Double
	// Int32 represents a 32-bit signed integer data type.
	Int32
	// UInt8 represents an 8-bit unsigned integer data type.
	UInt8
	// Int16 represents a 16-bit signed integer data type.
	Int16
	// Int8 represents an 8-bit signed integer data type.
	Int8
	// String represents a variable-length byte string data type.
	String
	// Complex64 represents a complex data type made of two 32-bit floats.
	Complex64
	// Int64 represents a 64-bit signed integer data type.
	Int64
	// Bool represents a boolean data type.
	Bool
	// QInt8 represents a quantized 8-bit signed integer data type.
	QInt8
	// QUInt8 represents a quantized 8-bit unsigned integer data type.
	QUInt8
	// QInt32 represents a quantized 32-bit signed integer data type.
	QInt32
	// BFloat16 represents a 16-bit brain floating point data type.
	BFloat16
	// QInt16 represents a quantized 16-bit signed integer data type.
	QInt16
	// QUInt16 represents a quantized 16-bit unsigned integer data type.
	QUInt16
	// UInt16 represents a 16-bit unsigned integer data type.
	UInt16
	// Complex128 represents a complex data type made of two 64-bit floats.
	Complex128
	// Half represents a 16-bit half-precision floating point data type.
	Half
	// Resource represents an opaque resource handle.
	Resource
	// Variant represents an arbitrary C++ data type.
	Variant
	// UInt32 represents a 32-bit unsigned integer data type.
	UInt32
	// UInt64 represents a 64-bit unsigned integer data type.
	UInt64

	numBaseTypes = iota
)

// refOffset is added to a base type code to obtain its reference type code.
const refOffset = 100

var (
	// ErrUnrecognizedType is returned when a Go type or a type name
	// has no DType counterpart.
	ErrUnrecognizedType = errors.New("unrecognized data type")
	// ErrInvalidWireCode is returned for the invalid sentinel and for
	// any code outside the known set.
	ErrInvalidWireCode = errors.New("invalid wire type code")
)

var (
	dTypeToString = [...]string{
		Float:      "float32",
		Double:     "float64",
		Int32:      "int32",
		UInt8:      "uint8",
		Int16:      "int16",
		Int8:       "int8",
		String:     "string",
		Complex64:  "complex64",
		Int64:      "int64",
		Bool:       "bool",
		QInt8:      "qint8",
		QUInt8:     "quint8",
		QInt32:     "qint32",
		BFloat16:   "bfloat16",
		QInt16:     "qint16",
		QUInt16:    "quint16",
		UInt16:     "uint16",
		Complex128: "complex128",
		Half:       "float16",
		Resource:   "resource",
		Variant:    "variant",
		UInt32:     "uint32",
		UInt64:     "uint64",
	}
	dTypeToSize = [...]int{
		Float:      4,
		Double:     8,
		Int32:      4,
		UInt8:      1,
		Int16:      2,
		Int8:       1,
		String:     -1,
		Complex64:  8,
		Int64:      8,
		Bool:       1,
		QInt8:      1,
		QUInt8:     1,
		QInt32:     4,
		BFloat16:   2,
		QInt16:     2,
		QUInt16:    2,
		UInt16:     2,
		Complex128: 16,
		Half:       2,
		Resource:   -1,
		Variant:    -1,
		UInt32:     4,
		UInt64:     8,
	}
	// quantizedBase maps each quantized type to the plain integer type
	// sharing its storage.
	quantizedBase = map[DType]DType{
		QInt8:   Int8,
		QUInt8:  UInt8,
		QInt16:  Int16,
		QUInt16: UInt16,
		QInt32:  Int32,
	}
	stringToDType = func() map[string]DType {
		m := make(map[string]DType, 2*numBaseTypes+6)
		for dt := Float; dt < numBaseTypes; dt++ {
			m[dt.String()] = dt
			m[(dt + refOffset).String()] = dt + refOffset
		}
		// Non-canonical aliases.
		m["half"] = Half
		m["half_ref"] = Half + refOffset
		m["float"] = Float
		m["float_ref"] = Float + refOffset
		m["double"] = Double
		m["double_ref"] = Double + refOffset
		return m
	}()
)

// Validate returns an error if the DType is not a known type code,
// otherwise nil.
func (dt DType) Validate() error {
	b := dt
	if b > refOffset {
		b -= refOffset
	}
	if b <= Invalid || b >= numBaseTypes {
		return fmt.Errorf("%w %d", ErrInvalidWireCode, int32(dt))
	}
	return nil
}

// FromWireCode returns the DType identified by a serialized type code.
func FromWireCode(code int32) (DType, error) {
	dt := DType(code)
	if err := dt.Validate(); err != nil {
		return Invalid, err
	}
	return dt, nil
}

// WireCode returns the serialized type code of dt.
func (dt DType) WireCode() int32 {
	return int32(dt)
}

// String returns the canonical name of a DType.
func (dt DType) String() string {
	if err := dt.Validate(); err != nil {
		return fmt.Sprintf("DType(%d)", int32(dt))
	}
	if dt.IsRef() {
		return dTypeToString[dt.Base()] + "_ref"
	}
	return dTypeToString[dt]
}

// Parse returns the DType with the given canonical or alias name.
// Matching is case-sensitive.
func Parse(s string) (DType, error) {
	dt, ok := stringToDType[s]
	if !ok {
		return Invalid, fmt.Errorf("%w %q", ErrUnrecognizedType, s)
	}
	return dt, nil
}

// IsRef reports whether dt is a reference type.
func (dt DType) IsRef() bool {
	return dt > refOffset
}

// Base returns the non-reference type of dt.
func (dt DType) Base() DType {
	if dt.IsRef() {
		return dt - refOffset
	}
	return dt
}

// Size returns the size in bytes of one element of this data type,
// or -1 if the DType value is invalid or has no fixed width.
func (dt DType) Size() int {
	if err := dt.Validate(); err != nil {
		return -1
	}
	return dTypeToSize[dt.Base()]
}

// IsQuantized reports whether dt is one of the quantized integer types.
func (dt DType) IsQuantized() bool {
	_, ok := quantizedBase[dt.Base()]
	return ok
}

// Unquantized returns the plain integer type sharing storage with a
// quantized type. Other types are returned as their Base.
func (dt DType) Unquantized() DType {
	if b, ok := quantizedBase[dt.Base()]; ok {
		return b
	}
	return dt.Base()
}

// IsWireCompatible reports whether values of dt have a representation in
// a tensor proto payload. Resource and variant handles do not.
func (dt DType) IsWireCompatible() bool {
	if dt.Validate() != nil {
		return false
	}
	b := dt.Base()
	return b != Resource && b != Variant
}

// IsFloating reports whether dt is a real floating point type.
func (dt DType) IsFloating() bool {
	switch dt.Base() {
	case Half, BFloat16, Float, Double:
		return true
	}
	return false
}

// IsComplex reports whether dt is a complex type.
func (dt DType) IsComplex() bool {
	b := dt.Base()
	return b == Complex64 || b == Complex128
}

// IsInteger reports whether dt is a non-quantized integer type.
func (dt DType) IsInteger() bool {
	switch dt.Base() {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

// IsUnsigned reports whether values of dt are stored as unsigned integers.
func (dt DType) IsUnsigned() bool {
	switch dt.Unquantized() {
	case UInt8, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

// MarshalJSON satisfies json.Marshaler interface.
func (dt DType) MarshalJSON() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(`"` + dt.String() + `"`), nil
}

// UnmarshalJSON satisfies json.Unmarshaler interface.
func (dt *DType) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q", s)
	}
	v, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q: %w", s, err)
	}
	*dt = v
	return nil
}

// MarshalText satisfies encoding.TextMarshaler interface.
func (dt DType) MarshalText() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(dt.String()), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler interface.
func (dt *DType) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return fmt.Errorf("failed to text-unmarshal DType from value %q: %w", string(b), err)
	}
	*dt = v
	return nil
}
