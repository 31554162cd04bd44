// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"math"
	"testing"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastArray(t *testing.T) {
	testCases := []struct {
		name string
		data any
		to   dtype.DType
		want any
	}{
		{"int64 to int8", []int64{-128, 127}, dtype.Int8, []int8{-128, 127}},
		{"int64 to uint64", []int64{0, math.MaxInt64}, dtype.UInt64, []uint64{0, math.MaxInt64}},
		{"uint8 to int16", []uint8{255}, dtype.Int16, []int16{255}},
		{"uint64 to uint32", []uint64{math.MaxUint32}, dtype.UInt32, []uint32{math.MaxUint32}},
		{"float truncated toward zero", []float64{1.9, -1.9, -0.5}, dtype.Int32, []int32{1, -1, 0}},
		{"float to uint8", []float32{255.5, -0.5}, dtype.UInt8, []uint8{255, 0}},
		{"int32 to float32", []int32{-3}, dtype.Float, []float32{-3}},
		{"int8 to float64", []int8{-3}, dtype.Double, []float64{-3}},
		{"float64 to half", []float64{1.5, -2}, dtype.Half, []float16.F16{0x3e00, 0xc000}},
		{"float32 to bfloat16", []float32{1}, dtype.BFloat16, []float16.BF16{0x3f80}},
		{"half to float32", []float16.F16{0x3c00}, dtype.Float, []float32{1}},
		{"infinity kept", []float64{math.Inf(-1)}, dtype.Float, []float32{float32(math.Inf(-1))}},
		{"float64 to complex64", []float64{2}, dtype.Complex64, []complex64{2}},
		{"int64 to complex128", []int64{-1}, dtype.Complex128, []complex128{-1}},
		{"complex64 to complex128", []complex64{1 + 2i}, dtype.Complex128, []complex128{1 + 2i}},
		{"complex128 to complex64", []complex128{1 + 2i}, dtype.Complex64, []complex64{1 + 2i}},
		{"int8 relabeled qint8", []int8{-1}, dtype.QInt8, []int8{-1}},
		{"uint16 relabeled quint16", []uint16{7}, dtype.QUInt16, []uint16{7}},
		{"uint8 to qint32", []uint8{9}, dtype.QInt32, []int32{9}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := AsArray(tc.data)
			require.NoError(t, err)

			c, err := castArray(a, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.to, c.DType())
			assert.Equal(t, a.Shape(), c.Shape())
			assert.Equal(t, tc.want, c.Data())
		})
	}

	errorCases := []struct {
		name string
		data any
		to   dtype.DType
	}{
		{"int8 overflow", []int64{128}, dtype.Int8},
		{"int8 underflow", []int64{-129}, dtype.Int8},
		{"negative to unsigned", []int32{-1}, dtype.UInt8},
		{"uint64 to int64", []uint64{math.MaxUint64}, dtype.Int64},
		{"float out of int32 range", []float64{math.MaxInt32 + 1}, dtype.Int32},
		{"NaN to integer", []float64{math.NaN()}, dtype.Int64},
		{"infinity to integer", []float32{float32(math.Inf(1))}, dtype.UInt16},
		{"float64 out of float32 range", []float64{1e39}, dtype.Float},
		{"float32 out of half range", []float32{70000}, dtype.Half},
		{"complex to real", []complex64{1}, dtype.Float},
		{"complex128 out of complex64 range", []complex128{complex(1e39, 0)}, dtype.Complex64},
		{"bool to integer", []bool{true}, dtype.Int32},
		{"integer to bool", []int32{1}, dtype.Bool},
		{"string to float", []string{"1"}, dtype.Float},
		{"float to string", []float32{1}, dtype.String},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewArray([]int{1}, tc.data)
			require.NoError(t, err)

			_, err = castArray(a, tc.to)
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestNarrowInt64(t *testing.T) {
	a, err := NewArray([]int{3}, []int64{math.MinInt32, 0, math.MaxInt32})
	require.NoError(t, err)

	n, ok := narrowInt64(a)
	assert.True(t, ok)
	assert.Equal(t, dtype.Int32, n.DType())
	assert.Equal(t, []int32{math.MinInt32, 0, math.MaxInt32}, n.Data())

	a, err = NewArray([]int{2}, []int64{0, math.MaxInt32 + 1})
	require.NoError(t, err)

	n, ok = narrowInt64(a)
	assert.False(t, ok)
	assert.Equal(t, a, n)
}
