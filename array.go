// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"
	"reflect"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
	"github.com/nlpodyssey/tensorproto/tensorshape"
)

// An Array is a dense n-dimensional array of values, laid out in
// row-major ("C") order.
//
// For a correctly formed Array, the value of DType and the type of Data
// must match each other, according to the following pairs:
//
//	DType             | Data type
//	------------------+----------------
//	Bool              | []bool
//	UInt8, QUInt8     | []uint8
//	Int8, QInt8       | []int8
//	UInt16, QUInt16   | []uint16
//	Int16, QInt16     | []int16
//	Half              | []float16.F16
//	BFloat16          | []float16.BF16
//	UInt32            | []uint32
//	Int32, QInt32     | []int32
//	Float             | []float32
//	UInt64            | []uint64
//	Int64             | []int64
//	Double            | []float64
//	Complex64         | []complex64
//	Complex128        | []complex128
//	String            | []string
type Array struct {
	dType dtype.DType
	shape []int
	data  any
}

// NewArray returns an Array with the given shape, whose DType is resolved
// from the type of data (see dtype.Of).
//
// For convenience, []int and []uint data are converted to []int64 and
// []uint64 (or their 32-bit counterparts on 32-bit platforms), and
// [][]byte data to []string.
func NewArray(shape []int, data any) (Array, error) {
	dt, err := dtype.Of(data)
	if err != nil {
		return Array{}, err
	}
	return NewTypedArray(dt, shape, data)
}

// NewTypedArray performs validity checks over the given properties and
// returns an Array with those properties if validation succeeds,
// otherwise an error. It must be used for quantized types, whose data is
// stored as plain integers.
//
// Here is an overview of the rules applied for validation:
//   - the dType must be valid and wire-compatible (reference types are
//     replaced by their base type)
//   - an empty or nil shape is allowed (a scalar value is implied)
//   - the shape must not contain negative values
//   - the type of data must match the dType, according to the pairs listed
//     on Array documentation
//   - the number of data elements must match the shape
//
// The given shape is copied. Data is NOT copied, unless a conversion is
// needed (see NewArray).
func NewTypedArray(dType dtype.DType, shape []int, data any) (Array, error) {
	if err := dType.Validate(); err != nil {
		return Array{}, err
	}
	dType = dType.Base()
	if !dType.IsWireCompatible() {
		return Array{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dType)
	}
	data = normalizeData(dType, data)
	dataLen, err := checkTypesAndGetDataLen(dType, data)
	if err != nil {
		return Array{}, err
	}
	shapeSize, err := checkedShapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	if shapeSize != dataLen {
		return Array{}, fmt.Errorf("the size computed from shape (%d) does not match data length (%d)", shapeSize, dataLen)
	}
	return Array{
		dType: dType,
		shape: copyShape(shape),
		data:  data,
	}, nil
}

// Zeros returns an Array of the given type and shape, filled with the
// zero value of its elements.
func Zeros(dType dtype.DType, shape []int) (Array, error) {
	n, err := checkedShapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	t := dType.StorageType()
	if t == nil {
		return Array{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dType)
	}
	data := reflect.MakeSlice(reflect.SliceOf(t), n, n).Interface()
	return Array{dType: dType.Base(), shape: copyShape(shape), data: data}, nil
}

// AsArray converts values to an Array.
//
// Values can be an Array, a Go slice or array of any supported element
// type (nested slices of equal length produce a multi-dimensional Array,
// like [][]float32), or a single scalar value.
func AsArray(values any) (Array, error) {
	switch v := values.(type) {
	case Array:
		return v, nil
	case *Array:
		if v == nil {
			return Array{}, fmt.Errorf("nil array")
		}
		return *v, nil
	}
	if values == nil {
		return Array{}, fmt.Errorf("%w <nil>", ErrUnrecognizedType)
	}
	return arrayFromValue(reflect.ValueOf(values))
}

var bytesType = reflect.TypeOf([]byte(nil))

func arrayFromValue(rv reflect.Value) (Array, error) {
	t := rv.Type()
	if !isNested(t) {
		if _, err := dtype.FromGoType(t); err != nil {
			return Array{}, err
		}
		s := reflect.MakeSlice(reflect.SliceOf(t), 1, 1)
		s.Index(0).Set(rv)
		return NewArray(nil, s.Interface())
	}

	if t.Kind() == reflect.Slice && !isNested(t.Elem()) {
		return NewArray([]int{rv.Len()}, rv.Interface())
	}

	var shape []int
	leaf := t
	for cur := rv; isNested(leaf); leaf = leaf.Elem() {
		shape = append(shape, cur.Len())
		if cur.Len() > 0 && isNested(leaf.Elem()) {
			cur = cur.Index(0)
		}
	}
	if _, err := dtype.FromGoType(leaf); err != nil {
		return Array{}, err
	}
	size, err := checkedShapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	flat := reflect.MakeSlice(reflect.SliceOf(leaf), 0, size)
	flat, err = flatten(flat, rv, shape)
	if err != nil {
		return Array{}, err
	}
	return NewArray(shape, flat.Interface())
}

func isNested(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t != bytesType
}

func flatten(dst, rv reflect.Value, shape []int) (reflect.Value, error) {
	if rv.Len() != shape[0] {
		return dst, fmt.Errorf("ragged nested values: expected length %d, actual %d", shape[0], rv.Len())
	}
	if len(shape) == 1 {
		for i := 0; i < rv.Len(); i++ {
			dst = reflect.Append(dst, rv.Index(i))
		}
		return dst, nil
	}
	var err error
	for i := 0; i < rv.Len(); i++ {
		if dst, err = flatten(dst, rv.Index(i), shape[1:]); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func normalizeData(dt dtype.DType, data any) any {
	switch v := data.(type) {
	case nil:
		if t := dt.StorageType(); t != nil {
			return reflect.MakeSlice(reflect.SliceOf(t), 0, 0).Interface()
		}
	case []int:
		switch native, _ := dtype.Of(v); {
		case native != dt:
		case dt == dtype.Int32:
			return convertSlice[int, int32](v)
		default:
			return convertSlice[int, int64](v)
		}
	case []uint:
		switch native, _ := dtype.Of(v); {
		case native != dt:
		case dt == dtype.UInt32:
			return convertSlice[uint, uint32](v)
		default:
			return convertSlice[uint, uint64](v)
		}
	case [][]byte:
		out := make([]string, len(v))
		for i, b := range v {
			out[i] = string(b)
		}
		return out
	}
	return data
}

func checkedShapeSize(shape []int) (int, error) {
	size := 1
	for _, v := range shape {
		if v < 0 {
			return 0, fmt.Errorf("shape contains a negative value")
		}
		var err error
		if size, err = checkedMul(size, v); err != nil {
			return 0, err
		}
	}
	return size, nil
}

func checkTypesAndGetDataLen(dt dtype.DType, data any) (int, error) {
	switch dt.Unquantized() {
	case dtype.Bool:
		return resolveDataLen[bool](dt, data)
	case dtype.UInt8:
		return resolveDataLen[uint8](dt, data)
	case dtype.Int8:
		return resolveDataLen[int8](dt, data)
	case dtype.UInt16:
		return resolveDataLen[uint16](dt, data)
	case dtype.Int16:
		return resolveDataLen[int16](dt, data)
	case dtype.Half:
		return resolveDataLen[float16.F16](dt, data)
	case dtype.BFloat16:
		return resolveDataLen[float16.BF16](dt, data)
	case dtype.UInt32:
		return resolveDataLen[uint32](dt, data)
	case dtype.Int32:
		return resolveDataLen[int32](dt, data)
	case dtype.Float:
		return resolveDataLen[float32](dt, data)
	case dtype.UInt64:
		return resolveDataLen[uint64](dt, data)
	case dtype.Int64:
		return resolveDataLen[int64](dt, data)
	case dtype.Double:
		return resolveDataLen[float64](dt, data)
	case dtype.Complex64:
		return resolveDataLen[complex64](dt, data)
	case dtype.Complex128:
		return resolveDataLen[complex128](dt, data)
	case dtype.String:
		return resolveDataLen[string](dt, data)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dt)
}

func resolveDataLen[T any](dt dtype.DType, data any) (int, error) {
	y, ok := data.([]T)
	if !ok {
		return 0, fmt.Errorf("expected DType %s to match data type %T, actual data type %T", dt, y, data)
	}
	return len(y), nil
}

// DType returns the data type of the array elements.
func (a Array) DType() dtype.DType {
	return a.dType
}

// The Shape of the array.
//
// If the shape is zero-length, it returns nil, otherwise a new slice
// is allocated and returned (the shape is copied to prevent tampering).
func (a Array) Shape() []int {
	return copyShape(a.shape)
}

// TensorShape returns the shape of the array as a fully defined
// tensorshape.TensorShape.
func (a Array) TensorShape() tensorshape.TensorShape {
	s, _ := tensorshape.Of(a.shape...)
	return s
}

// Len returns the total number of elements.
func (a Array) Len() int {
	if a.data == nil {
		return 0
	}
	return reflect.ValueOf(a.data).Len()
}

// The Data of the array.
// Possible values are documented on the main Array type.
//
// The value returned is NOT a copy: any change to its content will
// affect the Array too.
func (a Array) Data() any {
	return a.data
}

// Values returns the data of the array as a typed slice.
// It fails if T does not match the storage type of the array.
func Values[T any](a Array) ([]T, error) {
	return castSlice[T](a.data)
}

func castSlice[T any](x any) ([]T, error) {
	y, ok := x.([]T)
	if !ok {
		return y, fmt.Errorf("expected data type %T, actual %T", y, x)
	}
	return y, nil
}

func copyShape(shape []int) []int {
	if len(shape) == 0 {
		return nil
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}
