// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"testing"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commonDefinitions = map[string]struct {
	dType      dtype.DType
	shape      []int
	typedValue any
	bytes      []byte
}{
	"bool": {
		dtype.Bool, []int{2},
		[]bool{false, true},
		[]byte{0x00, 0x01},
	},
	"uint8": {
		dtype.UInt8, []int{2, 2},
		[]uint8{0, 1, 254, 255},
		[]byte{0x00, 0x01, 0xfe, 0xff},
	},
	"int8": {
		dtype.Int8, []int{2, 2},
		[]int8{0, 1, -2, -1},
		[]byte{0x00, 0x01, 0xfe, 0xff},
	},
	"qint8": {
		dtype.QInt8, []int{2},
		[]int8{-128, 127},
		[]byte{0x80, 0x7f},
	},
	"uint16": {
		dtype.UInt16, []int{2, 2},
		[]uint16{0, 1, 65534, 65535},
		[]byte{
			0x00, 0x00 /**/, 0x01, 0x00,
			0xfe, 0xff /**/, 0xff, 0xff,
		},
	},
	"int16": {
		dtype.Int16, []int{2, 2},
		[]int16{0, 1, -2, -1},
		[]byte{
			0x00, 0x00 /**/, 0x01, 0x00,
			0xfe, 0xff /**/, 0xff, 0xff,
		},
	},
	"quint16": {
		dtype.QUInt16, []int{1},
		[]uint16{0x0102},
		[]byte{0x02, 0x01},
	},
	"float16": {
		dtype.Half, []int{2, 2},
		[]float16.F16{0x0001, 0x0203, 0x0405, 0x0607},
		[]byte{
			0x01, 0x00 /**/, 0x03, 0x02,
			0x05, 0x04 /**/, 0x07, 0x06,
		},
	},
	"bfloat16": {
		dtype.BFloat16, []int{2, 2},
		[]float16.BF16{0x0001, 0x0203, 0x0405, 0x0607},
		[]byte{
			0x01, 0x00 /**/, 0x03, 0x02,
			0x05, 0x04 /**/, 0x07, 0x06,
		},
	},
	"uint32": {
		dtype.UInt32, []int{2, 2},
		[]uint32{1, 2, 4294967294, 4294967295},
		[]byte{
			0x01, 0x00, 0x00, 0x00 /**/, 0x02, 0x00, 0x00, 0x00,
			0xfe, 0xff, 0xff, 0xff /**/, 0xff, 0xff, 0xff, 0xff,
		},
	},
	"int32": {
		dtype.Int32, []int{2, 2},
		[]int32{1, 2, -2, -1},
		[]byte{
			0x01, 0x00, 0x00, 0x00 /**/, 0x02, 0x00, 0x00, 0x00,
			0xfe, 0xff, 0xff, 0xff /**/, 0xff, 0xff, 0xff, 0xff,
		},
	},
	"qint32": {
		dtype.QInt32, []int{1},
		[]int32{-2},
		[]byte{0xfe, 0xff, 0xff, 0xff},
	},
	"float32": {
		dtype.Float, []int{2, 2},
		[]float32{1, 2, -1, -2},
		[]byte{
			0x00, 0x00, 0x80, 0x3f /**/, 0x00, 0x00, 0x00, 0x40,
			0x00, 0x00, 0x80, 0xbf /**/, 0x00, 0x00, 0x00, 0xc0,
		},
	},
	"uint64": {
		dtype.UInt64, []int{2, 1},
		[]uint64{1, 18446744073709551615},
		[]byte{
			0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		},
	},
	"int64": {
		dtype.Int64, []int{1, 2},
		[]int64{1, -1},
		[]byte{
			0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		},
	},
	"float64": {
		dtype.Double, []int{2},
		[]float64{1, -1},
		[]byte{
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0xbf,
		},
	},
	"complex64": {
		dtype.Complex64, []int{1},
		[]complex64{complex(1, -2)},
		[]byte{
			0x00, 0x00, 0x80, 0x3f /**/, 0x00, 0x00, 0x00, 0xc0,
		},
	},
	"complex128": {
		dtype.Complex128, []int{1},
		[]complex128{complex(-1, 1)},
		[]byte{
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0xbf,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f,
		},
	},
	"zero data": {
		dtype.UInt8, []int{0},
		[]uint8{},
		[]byte{},
	},
	"no shape scalar": {
		dtype.UInt8, nil,
		[]uint8{42},
		[]byte{42},
	},
}

func TestArray_Bytes(t *testing.T) {
	for name, def := range commonDefinitions {
		t.Run(name, func(t *testing.T) {
			a, err := NewTypedArray(def.dType, def.shape, def.typedValue)
			require.NoError(t, err)

			b, err := a.Bytes()
			require.NoError(t, err)
			assert.Equal(t, def.bytes, b)
		})
	}

	t.Run("string", func(t *testing.T) {
		a, err := NewArray([]int{1}, []string{"foo"})
		require.NoError(t, err)
		_, err = a.Bytes()
		assert.ErrorIs(t, err, ErrUnsupportedElementType)
	})
}

func TestArrayFromBytes(t *testing.T) {
	for name, def := range commonDefinitions {
		t.Run(name, func(t *testing.T) {
			a, err := ArrayFromBytes(def.dType, def.shape, def.bytes)
			require.NoError(t, err)
			assert.Equal(t, def.dType, a.DType())
			assert.Equal(t, copyShape(def.shape), a.Shape())
			assert.Equal(t, def.typedValue, a.Data())
		})
	}

	t.Run("reference type", func(t *testing.T) {
		a, err := ArrayFromBytes(dtype.Int32+100, []int{1}, []byte{1, 0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, dtype.Int32, a.DType())
		assert.Equal(t, []int32{1}, a.Data())
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := ArrayFromBytes(dtype.Int32, []int{2}, []byte{1, 0, 0, 0})
		assert.ErrorIs(t, err, ErrTruncatedPayload)

		_, err = ArrayFromBytes(dtype.Int32, []int{1}, []byte{1, 0, 0, 0, 0})
		assert.ErrorIs(t, err, ErrTruncatedPayload)
	})

	t.Run("string", func(t *testing.T) {
		_, err := ArrayFromBytes(dtype.String, []int{1}, []byte("x"))
		assert.ErrorIs(t, err, ErrUnsupportedElementType)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := ArrayFromBytes(dtype.Invalid, []int{1}, []byte{0})
		assert.ErrorIs(t, err, ErrInvalidWireCode)
	})

	t.Run("data is copied", func(t *testing.T) {
		b := []byte{1, 2}
		a, err := ArrayFromBytes(dtype.UInt8, []int{2}, b)
		require.NoError(t, err)
		b[0] = 42
		assert.Equal(t, []uint8{1, 2}, a.Data())
	})
}
