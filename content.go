// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
)

// Bytes returns the raw content of the array: each element in its fixed
// width little-endian representation, in row-major order. This is the
// layout of a tensor proto "tensor_content".
//
// It fails for String arrays, whose elements have no fixed width.
func (a Array) Bytes() ([]byte, error) {
	size := a.dType.Size()
	if size < 0 {
		return nil, fmt.Errorf("%w: %s elements have no fixed-width representation", ErrUnsupportedElementType, a.dType)
	}
	n, err := checkedMul(a.Len(), size)
	if err != nil {
		return nil, err
	}
	return appendContent(make([]byte, 0, n), a.dType, a.data)
}

// ArrayFromBytes interprets b as the raw content of an array of the given
// type and shape (see Array.Bytes). The length of b must be exactly the
// number of elements times the element size.
func ArrayFromBytes(dType dtype.DType, shape []int, b []byte) (Array, error) {
	if err := dType.Validate(); err != nil {
		return Array{}, err
	}
	dType = dType.Base()
	size := dType.Size()
	if size < 0 {
		return Array{}, fmt.Errorf("%w: %s elements have no fixed-width representation", ErrUnsupportedElementType, dType)
	}
	n, err := checkedShapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	byteSize, err := checkedMul(n, size)
	if err != nil {
		return Array{}, err
	}
	if len(b) != byteSize {
		return Array{}, fmt.Errorf("%w: %d elements of %s need %d bytes, actual %d", ErrTruncatedPayload, n, dType, byteSize, len(b))
	}
	data, err := readContent(dType, b, n)
	if err != nil {
		return Array{}, err
	}
	return Array{dType: dType, shape: copyShape(shape), data: data}, nil
}

func appendContent(b []byte, dt dtype.DType, data any) ([]byte, error) {
	switch dt.Unquantized() {
	case dtype.Bool:
		return appendBoolData(b, data)
	case dtype.UInt8:
		return appendU8Data(b, data)
	case dtype.Int8:
		return appendI8Data(b, data)
	case dtype.UInt16:
		return append16bitData[uint16](b, data)
	case dtype.Int16:
		return append16bitData[int16](b, data)
	case dtype.Half:
		return append16bitData[float16.F16](b, data)
	case dtype.BFloat16:
		return append16bitData[float16.BF16](b, data)
	case dtype.UInt32:
		return append32bitData[uint32](b, data)
	case dtype.Int32:
		return append32bitData[int32](b, data)
	case dtype.Float:
		return appendF32Data(b, data)
	case dtype.UInt64:
		return append64bitData[uint64](b, data)
	case dtype.Int64:
		return append64bitData[int64](b, data)
	case dtype.Double:
		return appendF64Data(b, data)
	case dtype.Complex64:
		return appendC64Data(b, data)
	case dtype.Complex128:
		return appendC128Data(b, data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dt)
}

func appendBoolData(b []byte, data any) ([]byte, error) {
	v, err := castSlice[bool](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		if x {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	}
	return b, nil
}

func appendU8Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[uint8](data)
	if err != nil {
		return nil, err
	}
	return append(b, v...), nil
}

func appendI8Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[int8](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = append(b, byte(x))
	}
	return b, nil
}

func append16bitData[T uint16 | int16 | float16.F16 | float16.BF16](b []byte, data any) ([]byte, error) {
	v, err := castSlice[T](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint16(b, uint16(x))
	}
	return b, nil
}

func append32bitData[T uint32 | int32](b []byte, data any) ([]byte, error) {
	v, err := castSlice[T](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, uint32(x))
	}
	return b, nil
}

func appendF32Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[float32](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(x))
	}
	return b, nil
}

func append64bitData[T uint64 | int64](b []byte, data any) ([]byte, error) {
	v, err := castSlice[T](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint64(b, uint64(x))
	}
	return b, nil
}

func appendF64Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[float64](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(x))
	}
	return b, nil
}

func appendC64Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[complex64](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(real(x)))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(imag(x)))
	}
	return b, nil
}

func appendC128Data(b []byte, data any) ([]byte, error) {
	v, err := castSlice[complex128](data)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(real(x)))
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(imag(x)))
	}
	return b, nil
}

// readContent interprets b as n elements of type dt. The length of b
// must have been validated by the caller.
func readContent(dt dtype.DType, b []byte, n int) (any, error) {
	switch dt.Unquantized() {
	case dtype.Bool:
		return readBoolData(b, n), nil
	case dtype.UInt8:
		out := make([]uint8, n)
		copy(out, b)
		return out, nil
	case dtype.Int8:
		return readI8Data(b, n), nil
	case dtype.UInt16:
		return read16bitData[uint16](b, n), nil
	case dtype.Int16:
		return read16bitData[int16](b, n), nil
	case dtype.Half:
		return read16bitData[float16.F16](b, n), nil
	case dtype.BFloat16:
		return read16bitData[float16.BF16](b, n), nil
	case dtype.UInt32:
		return read32bitData[uint32](b, n), nil
	case dtype.Int32:
		return read32bitData[int32](b, n), nil
	case dtype.Float:
		return readF32Data(b, n), nil
	case dtype.UInt64:
		return read64bitData[uint64](b, n), nil
	case dtype.Int64:
		return read64bitData[int64](b, n), nil
	case dtype.Double:
		return readF64Data(b, n), nil
	case dtype.Complex64:
		return readC64Data(b, n), nil
	case dtype.Complex128:
		return readC128Data(b, n), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dt)
}

func readBoolData(b []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = b[i] != 0
	}
	return out
}

func readI8Data(b []byte, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(b[i])
	}
	return out
}

func read16bitData[T uint16 | int16 | float16.F16 | float16.BF16](b []byte, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

func read32bitData[T uint32 | int32](b []byte, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func readF32Data(b []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func read64bitData[T uint64 | int64](b []byte, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func readF64Data(b []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func readC64Data(b []byte, n int) []complex64 {
	out := make([]complex64, n)
	for i := range out {
		re := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8+4:]))
		out[i] = complex(re, im)
	}
	return out
}

func readC128Data(b []byte, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		re := math.Float64frombits(binary.LittleEndian.Uint64(b[i*16:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[i*16+8:]))
		out[i] = complex(re, im)
	}
	return out
}
