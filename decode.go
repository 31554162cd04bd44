// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
)

// Decode converts a TensorProto to an Array.
//
// The shape must be fully defined. Raw TensorContent must hold exactly
// as many bytes as the shape requires. Value lists are read leniently:
// an empty list produces zero values, and a short list is padded by
// repeating its last value. A list with more values than the shape
// requires is rejected, as is an int_val entry out of range for a
// narrow integer type. A list expanding past the raw content limit fails
// with ErrTensorTooLarge.
func Decode(tp *TensorProto) (Array, error) {
	if tp == nil {
		return Array{}, fmt.Errorf("nil tensor proto")
	}
	dt, err := tp.DataType()
	if err != nil {
		return Array{}, err
	}
	dt = dt.Base()
	if !dt.IsWireCompatible() {
		return Array{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dt)
	}
	shape, err := tp.Shape()
	if err != nil {
		return Array{}, err
	}
	n, err := shape.NumElements()
	if err != nil {
		return Array{}, err
	}
	dims := shape.Dims()

	if len(tp.TensorContent) > 0 {
		if dt.Size() < 0 {
			return Array{}, fmt.Errorf("%w: %s values cannot be read from tensor content", ErrTruncatedPayload, dt)
		}
		return ArrayFromBytes(dt, dims, tp.TensorContent)
	}

	data, err := decodeValueList(tp, dt, n)
	if err != nil {
		return Array{}, err
	}
	return Array{dType: dt, shape: dims, data: data}, nil
}

func decodeValueList(tp *TensorProto, dt dtype.DType, n int) (any, error) {
	if err := checkListSize(dt, n); err != nil {
		return nil, err
	}
	switch dt.Unquantized() {
	case dtype.String:
		v := make([]string, len(tp.StringVal))
		for i, s := range tp.StringVal {
			v[i] = string(s)
		}
		return fillValues(v, n)
	case dtype.Half:
		v := make([]float16.F16, len(tp.HalfVal))
		for i, h := range tp.HalfVal {
			v[i] = float16.F16(uint16(h))
		}
		return fillValues(v, n)
	case dtype.BFloat16:
		v := make([]float16.BF16, len(tp.HalfVal))
		for i, h := range tp.HalfVal {
			v[i] = float16.BF16(uint16(h))
		}
		return fillValues(v, n)
	case dtype.Float:
		return fillValues(tp.FloatVal, n)
	case dtype.Double:
		return fillValues(tp.DoubleVal, n)
	case dtype.Int32:
		return fillValues(tp.IntVal, n)
	case dtype.Int16:
		v, err := narrowIntVal[int16](tp.IntVal, dt)
		if err != nil {
			return nil, err
		}
		return fillValues(v, n)
	case dtype.Int8:
		v, err := narrowIntVal[int8](tp.IntVal, dt)
		if err != nil {
			return nil, err
		}
		return fillValues(v, n)
	case dtype.UInt16:
		v, err := narrowIntVal[uint16](tp.IntVal, dt)
		if err != nil {
			return nil, err
		}
		return fillValues(v, n)
	case dtype.UInt8:
		v, err := narrowIntVal[uint8](tp.IntVal, dt)
		if err != nil {
			return nil, err
		}
		return fillValues(v, n)
	case dtype.Int64:
		return fillValues(tp.Int64Val, n)
	case dtype.UInt32:
		return fillValues(tp.Uint32Val, n)
	case dtype.UInt64:
		return fillValues(tp.Uint64Val, n)
	case dtype.Bool:
		return fillValues(tp.BoolVal, n)
	case dtype.Complex64:
		v := make([]complex64, len(tp.ScomplexVal)/2)
		for i := range v {
			v[i] = complex(tp.ScomplexVal[2*i], tp.ScomplexVal[2*i+1])
		}
		return fillValues(v, n)
	case dtype.Complex128:
		v := make([]complex128, len(tp.DcomplexVal)/2)
		for i := range v {
			v[i] = complex(tp.DcomplexVal[2*i], tp.DcomplexVal[2*i+1])
		}
		return fillValues(v, n)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dt)
}

// checkListSize bounds the memory needed to expand a value list to n
// elements by the raw content limit. String elements count one byte
// each.
func checkListSize(dt dtype.DType, n int) error {
	size := dt.Size()
	if size < 0 {
		size = 1
	}
	b, err := checkedMul(n, size)
	if err != nil || int64(b) >= maxTensorContentSize {
		return fmt.Errorf("%w: %d elements of %s", ErrTensorTooLarge, n, dt)
	}
	return nil
}

// narrowIntVal converts int_val entries to the storage type of dt,
// failing on values which do not fit.
func narrowIntVal[T int8 | int16 | uint8 | uint16](vals []int32, dt dtype.DType) ([]T, error) {
	out := make([]T, len(vals))
	for i, v := range vals {
		out[i] = T(v)
		if int32(out[i]) != v {
			return nil, fmt.Errorf("%w: int_val %d out of range for %s", ErrTypeMismatch, v, dt)
		}
	}
	return out, nil
}

// fillValues returns a new slice of exactly n values, padded by repeating
// the last value of vals, or zero-filled if vals is empty.
func fillValues[T any](vals []T, n int) ([]T, error) {
	if len(vals) > n {
		return nil, fmt.Errorf("%w: %d values for %d elements", ErrTruncatedPayload, len(vals), n)
	}
	out := make([]T, n)
	copy(out, vals)
	if len(vals) > 0 {
		last := vals[len(vals)-1]
		for i := len(vals); i < n; i++ {
			out[i] = last
		}
	}
	return out, nil
}
