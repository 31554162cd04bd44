// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
)

// maxTensorContentSize is the exclusive upper bound of the raw content
// size of a single tensor.
var maxTensorContentSize int64 = 1 << 31

// Encode converts values to a TensorProto, inferring the element type
// from the Go type of values.
//
// Values can be a *TensorProto, which is returned unchanged, or anything
// accepted by AsArray. Without an explicit type, float64 values are
// narrowed to float32, and int64 (or int) values are narrowed to int32
// when every value fits.
func Encode(values any) (*TensorProto, error) {
	if tp, ok := values.(*TensorProto); ok && tp != nil {
		return tp, nil
	}
	a, err := AsArray(values)
	if err != nil {
		return nil, err
	}
	switch a.dType {
	case dtype.Double:
		v, _ := castSlice[float64](a.data)
		a = Array{dType: dtype.Float, shape: a.shape, data: convertSlice[float64, float32](v)}
	case dtype.Int64:
		a, _ = narrowInt64(a)
	}
	return encodeArray(a)
}

// EncodeAs converts values to a TensorProto of the given element type.
//
// Values are cast to the storage type of dType; values which are not
// representable, or belong to an incompatible category (such as complex
// values cast to a real type), make it fail with ErrTypeMismatch.
// A *TensorProto is returned unchanged.
func EncodeAs(values any, dType dtype.DType) (*TensorProto, error) {
	if tp, ok := values.(*TensorProto); ok && tp != nil {
		return tp, nil
	}
	if err := dType.Validate(); err != nil {
		return nil, err
	}
	dType = dType.Base()
	if !dType.IsWireCompatible() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, dType)
	}
	a, err := AsArray(values)
	if err != nil {
		return nil, err
	}
	if a, err = castArray(a, dType); err != nil {
		return nil, err
	}
	return encodeArray(a)
}

// EncodeAsName is like EncodeAs, resolving the element type from its
// name (see dtype.Parse).
func EncodeAsName(values any, name string) (*TensorProto, error) {
	dt, err := dtype.Parse(name)
	if err != nil {
		return nil, err
	}
	return EncodeAs(values, dt)
}

func encodeArray(a Array) (*TensorProto, error) {
	if !a.dType.IsWireCompatible() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedElementType, a.dType)
	}
	tp := &TensorProto{
		Dtype:       a.dType.WireCode(),
		TensorShape: a.TensorShape().Proto(),
	}
	if usesTensorContent(a.dType) {
		size := int64(a.Len()) * int64(a.dType.Size())
		if size >= maxTensorContentSize {
			return nil, fmt.Errorf("%w: %d bytes of %s content", ErrTensorTooLarge, size, a.dType)
		}
		content, err := a.Bytes()
		if err != nil {
			return nil, err
		}
		tp.TensorContent = content
		return tp, nil
	}
	if err := setValueList(tp, a); err != nil {
		return nil, err
	}
	return tp, nil
}

// usesTensorContent reports whether values of type dt are encoded as raw
// TensorContent. The other types use a value list.
func usesTensorContent(dt dtype.DType) bool {
	switch dt {
	case dtype.Float, dtype.Double,
		dtype.Int8, dtype.Int16, dtype.Int32, dtype.Int64,
		dtype.UInt8, dtype.UInt16, dtype.UInt32, dtype.UInt64,
		dtype.QInt8, dtype.QUInt8, dtype.QInt16, dtype.QUInt16, dtype.QInt32:
		return true
	}
	return false
}

func setValueList(tp *TensorProto, a Array) error {
	switch v := a.data.(type) {
	case []string:
		tp.StringVal = make([][]byte, len(v))
		for i, s := range v {
			tp.StringVal[i] = []byte(s)
		}
	case []bool:
		tp.BoolVal = append(make([]bool, 0, len(v)), v...)
	case []float16.F16:
		tp.HalfVal = make([]int32, len(v))
		for i, h := range v {
			tp.HalfVal[i] = int32(h.Bits())
		}
	case []float16.BF16:
		tp.HalfVal = make([]int32, len(v))
		for i, h := range v {
			tp.HalfVal[i] = int32(h.Bits())
		}
	case []complex64:
		tp.ScomplexVal = make([]float32, 0, 2*len(v))
		for _, c := range v {
			tp.ScomplexVal = append(tp.ScomplexVal, real(c), imag(c))
		}
	case []complex128:
		tp.DcomplexVal = make([]float64, 0, 2*len(v))
		for _, c := range v {
			tp.DcomplexVal = append(tp.DcomplexVal, real(c), imag(c))
		}
	default:
		return fmt.Errorf("%w: no value list for %s data %T", ErrUnsupportedElementType, a.dType, a.data)
	}
	return nil
}
