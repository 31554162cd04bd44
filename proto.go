// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"
	"strings"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/tensorshape"
)

// TensorProto is the serialized form of a tensor exchanged with a model
// server. Its fields and their numbering match the TensorFlow
// "tensorflow.TensorProto" message.
//
// The values are carried either as raw bytes in TensorContent, or in the
// one value list matching Dtype. Encode populates exactly one of them.
type TensorProto struct {
	// Dtype is the wire code of the element type (see dtype.DType).
	Dtype       int32             `json:"dtype"`
	TensorShape tensorshape.Proto `json:"tensor_shape"`
	// VersionNumber is reserved for future format changes; always 0.
	VersionNumber int32 `json:"version_number,omitempty"`

	// TensorContent holds the little-endian fixed-width representation
	// of all values, in row-major order.
	TensorContent []byte `json:"tensor_content,omitempty"`

	// HalfVal holds the raw bits of Half and BFloat16 values.
	HalfVal   []int32   `json:"half_val,omitempty"`
	FloatVal  []float32 `json:"float_val,omitempty"`
	DoubleVal []float64 `json:"double_val,omitempty"`
	// IntVal holds Int32, Int16, Int8, UInt16, UInt8 and quantized values.
	IntVal    []int32  `json:"int_val,omitempty"`
	StringVal [][]byte `json:"string_val,omitempty"`
	// ScomplexVal holds Complex64 values as interleaved (real, imaginary)
	// pairs. DcomplexVal is its Complex128 counterpart.
	ScomplexVal []float32 `json:"scomplex_val,omitempty"`
	Int64Val    []int64   `json:"int64_val,omitempty"`
	BoolVal     []bool    `json:"bool_val,omitempty"`
	DcomplexVal []float64 `json:"dcomplex_val,omitempty"`
	Uint32Val   []uint32  `json:"uint32_val,omitempty"`
	Uint64Val   []uint64  `json:"uint64_val,omitempty"`
}

// DataType returns the element type described by Dtype.
func (tp *TensorProto) DataType() (dtype.DType, error) {
	return dtype.FromWireCode(tp.Dtype)
}

// Shape returns the shape described by TensorShape.
func (tp *TensorProto) Shape() (tensorshape.TensorShape, error) {
	return tensorshape.FromProto(tp.TensorShape)
}

// String returns a short human-readable description of tp, such as
// "float32[2 3] tensor_content:24B". Values are not included.
func (tp *TensorProto) String() string {
	var sb strings.Builder
	if dt, err := tp.DataType(); err == nil {
		sb.WriteString(dt.String())
	} else {
		fmt.Fprintf(&sb, "DType(%d)", tp.Dtype)
	}
	if s, err := tp.Shape(); err == nil {
		sb.WriteString(s.String())
	} else {
		sb.WriteString("[invalid]")
	}
	if len(tp.TensorContent) > 0 {
		fmt.Fprintf(&sb, " tensor_content:%dB", len(tp.TensorContent))
	}
	for _, l := range []struct {
		name string
		n    int
	}{
		{"half_val", len(tp.HalfVal)},
		{"float_val", len(tp.FloatVal)},
		{"double_val", len(tp.DoubleVal)},
		{"int_val", len(tp.IntVal)},
		{"string_val", len(tp.StringVal)},
		{"scomplex_val", len(tp.ScomplexVal)},
		{"int64_val", len(tp.Int64Val)},
		{"bool_val", len(tp.BoolVal)},
		{"dcomplex_val", len(tp.DcomplexVal)},
		{"uint32_val", len(tp.Uint32Val)},
		{"uint64_val", len(tp.Uint64Val)},
	} {
		if l.n > 0 {
			fmt.Fprintf(&sb, " %s:%d", l.name, l.n)
		}
	}
	return sb.String()
}
