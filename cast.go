// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"
	"math"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type number interface {
	integer | ~float32 | ~float64
}

func convertSlice[T, U number](s []T) []U {
	out := make([]U, len(s))
	for i, v := range s {
		out[i] = U(v)
	}
	return out
}

// narrowInt64 converts int64 data to int32 if every value fits.
func narrowInt64(a Array) (Array, bool) {
	v, ok := a.data.([]int64)
	if !ok {
		return a, false
	}
	for _, x := range v {
		if x < math.MinInt32 || x > math.MaxInt32 {
			return a, false
		}
	}
	return Array{dType: dtype.Int32, shape: a.shape, data: convertSlice[int64, int32](v)}, true
}

// realValues is the widest representation of real-valued data. Exactly
// one of its fields is set.
type realValues struct {
	ints   []int64
	uints  []uint64
	floats []float64
}

func (rv realValues) len() int {
	return len(rv.ints) + len(rv.uints) + len(rv.floats)
}

func toRealValues(data any) (realValues, bool) {
	switch v := data.(type) {
	case []int8:
		return realValues{ints: convertSlice[int8, int64](v)}, true
	case []int16:
		return realValues{ints: convertSlice[int16, int64](v)}, true
	case []int32:
		return realValues{ints: convertSlice[int32, int64](v)}, true
	case []int64:
		return realValues{ints: v}, true
	case []uint8:
		return realValues{uints: convertSlice[uint8, uint64](v)}, true
	case []uint16:
		return realValues{uints: convertSlice[uint16, uint64](v)}, true
	case []uint32:
		return realValues{uints: convertSlice[uint32, uint64](v)}, true
	case []uint64:
		return realValues{uints: v}, true
	case []float32:
		return realValues{floats: convertSlice[float32, float64](v)}, true
	case []float64:
		return realValues{floats: v}, true
	case []float16.F16:
		out := make([]float64, len(v))
		for i, h := range v {
			out[i] = float64(h.Float32())
		}
		return realValues{floats: out}, true
	case []float16.BF16:
		out := make([]float64, len(v))
		for i, h := range v {
			out[i] = float64(h.Float32())
		}
		return realValues{floats: out}, true
	}
	return realValues{}, false
}

func (rv realValues) asFloat64() []float64 {
	switch {
	case rv.ints != nil:
		return convertSlice[int64, float64](rv.ints)
	case rv.uints != nil:
		return convertSlice[uint64, float64](rv.uints)
	}
	return rv.floats
}

// castArray converts the values of a to the storage type of dt.
//
// Types sharing the same storage are relabeled without copying. Real values
// may be cast to any real or complex type, as long as each value is
// representable: floating point values cast to integers are truncated
// toward zero. Complex values cannot be cast to real types, and bool or
// string values cannot be cast at all.
func castArray(a Array, dt dtype.DType) (Array, error) {
	if a.dType.StorageType() == dt.StorageType() {
		return Array{dType: dt, shape: a.shape, data: a.data}, nil
	}
	data, err := castData(a.dType, a.data, dt)
	if err != nil {
		return Array{}, err
	}
	return Array{dType: dt, shape: a.shape, data: data}, nil
}

func castData(from dtype.DType, data any, to dtype.DType) (any, error) {
	if from == dtype.Bool || from == dtype.String || to == dtype.Bool || to == dtype.String {
		return nil, fmt.Errorf("%w: cannot cast %s values to %s", ErrTypeMismatch, from, to)
	}
	if from.IsComplex() {
		if !to.IsComplex() {
			return nil, fmt.Errorf("%w: cannot cast %s values to %s", ErrTypeMismatch, from, to)
		}
		return castComplex(data, to)
	}
	rv, ok := toRealValues(data)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected data type %T for %s", ErrTypeMismatch, data, from)
	}
	var out any
	var err error
	switch to.Unquantized() {
	case dtype.Int8:
		out, err = castSigned[int8](rv, 8)
	case dtype.Int16:
		out, err = castSigned[int16](rv, 16)
	case dtype.Int32:
		out, err = castSigned[int32](rv, 32)
	case dtype.Int64:
		out, err = castSigned[int64](rv, 64)
	case dtype.UInt8:
		out, err = castUnsigned[uint8](rv, 8)
	case dtype.UInt16:
		out, err = castUnsigned[uint16](rv, 16)
	case dtype.UInt32:
		out, err = castUnsigned[uint32](rv, 32)
	case dtype.UInt64:
		out, err = castUnsigned[uint64](rv, 64)
	case dtype.Half:
		out, err = castHalf(rv.asFloat64())
	case dtype.BFloat16:
		out, err = castBFloat16(rv.asFloat64())
	case dtype.Float:
		out, err = castFloat32(rv.asFloat64())
	case dtype.Double:
		out = rv.asFloat64()
	case dtype.Complex64:
		var f []float32
		if f, err = castFloat32(rv.asFloat64()); err == nil {
			c := make([]complex64, len(f))
			for i, x := range f {
				c[i] = complex(x, 0)
			}
			out = c
		}
	case dtype.Complex128:
		f := rv.asFloat64()
		c := make([]complex128, len(f))
		for i, x := range f {
			c[i] = complex(x, 0)
		}
		out = c
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, to)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cast %s values to %s: %w", ErrTypeMismatch, from, to, err)
	}
	return out, nil
}

func castSigned[T int8 | int16 | int32 | int64](rv realValues, bits int) ([]T, error) {
	lo := int64(-1) << (bits - 1)
	hi := -(lo + 1)
	out := make([]T, rv.len())
	for i, v := range rv.ints {
		if v < lo || v > hi {
			return nil, fmt.Errorf("value %d out of range", v)
		}
		out[i] = T(v)
	}
	for i, v := range rv.uints {
		if v > uint64(hi) {
			return nil, fmt.Errorf("value %d out of range", v)
		}
		out[i] = T(v)
	}
	limit := math.Ldexp(1, bits-1)
	for i, v := range rv.floats {
		t := math.Trunc(v)
		if math.IsNaN(t) || t < -limit || t >= limit {
			return nil, fmt.Errorf("value %g out of range", v)
		}
		out[i] = T(t)
	}
	return out, nil
}

func castUnsigned[T uint8 | uint16 | uint32 | uint64](rv realValues, bits int) ([]T, error) {
	hi := uint64(math.MaxUint64) >> (64 - bits)
	out := make([]T, rv.len())
	for i, v := range rv.ints {
		if v < 0 || uint64(v) > hi {
			return nil, fmt.Errorf("value %d out of range", v)
		}
		out[i] = T(v)
	}
	for i, v := range rv.uints {
		if v > hi {
			return nil, fmt.Errorf("value %d out of range", v)
		}
		out[i] = T(v)
	}
	limit := math.Ldexp(1, bits)
	for i, v := range rv.floats {
		t := math.Trunc(v)
		if math.IsNaN(t) || t < 0 || t >= limit {
			return nil, fmt.Errorf("value %g out of range", v)
		}
		out[i] = T(t)
	}
	return out, nil
}

func castFloat32(f []float64) ([]float32, error) {
	out := make([]float32, len(f))
	for i, v := range f {
		if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return nil, fmt.Errorf("value %g out of range", v)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func castHalf(f []float64) ([]float16.F16, error) {
	out := make([]float16.F16, len(f))
	for i, v := range f {
		if !math.IsInf(v, 0) && math.Abs(v) > float16.MaxF16 {
			return nil, fmt.Errorf("value %g out of range", v)
		}
		out[i] = float16.F16FromFloat32(float32(v))
	}
	return out, nil
}

func castBFloat16(f []float64) ([]float16.BF16, error) {
	f32, err := castFloat32(f)
	if err != nil {
		return nil, err
	}
	out := make([]float16.BF16, len(f32))
	for i, v := range f32 {
		out[i] = float16.BF16FromFloat32(v)
	}
	return out, nil
}

func castComplex(data any, to dtype.DType) (any, error) {
	switch v := data.(type) {
	case []complex64:
		if to == dtype.Complex64 {
			return v, nil
		}
		out := make([]complex128, len(v))
		for i, c := range v {
			out[i] = complex128(c)
		}
		return out, nil
	case []complex128:
		if to == dtype.Complex128 {
			return v, nil
		}
		out := make([]complex64, len(v))
		for i, c := range v {
			re, im := real(c), imag(c)
			if (!math.IsInf(re, 0) && math.Abs(re) > math.MaxFloat32) ||
				(!math.IsInf(im, 0) && math.Abs(im) > math.MaxFloat32) {
				return nil, fmt.Errorf("%w: value %v out of range for %s", ErrTypeMismatch, c, to)
			}
			out[i] = complex64(c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unexpected data type %T", ErrTypeMismatch, data)
}
