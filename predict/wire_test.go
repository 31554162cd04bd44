// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predict

import (
	"encoding"
	"testing"

	"github.com/nlpodyssey/tensorproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ encoding.BinaryMarshaler   = ModelSpec{}
	_ encoding.BinaryUnmarshaler = new(ModelSpec)
	_ encoding.BinaryMarshaler   = new(Request)
	_ encoding.BinaryUnmarshaler = new(Request)
	_ encoding.BinaryMarshaler   = new(Response)
	_ encoding.BinaryUnmarshaler = new(Response)
)

func TestModelSpec_MarshalBinary(t *testing.T) {
	testCases := []struct {
		name string
		spec ModelSpec
		want []byte
	}{
		{"empty", ModelSpec{}, nil},
		{"name", ModelSpec{Name: "m"}, []byte{0x0a, 0x01, 'm'}},
		{
			"version",
			ModelSpec{Name: "m", SignatureName: "s"}.WithVersion(3),
			[]byte{
				0x0a, 0x01, 'm',
				0x12, 0x02, 0x08, 0x03,
				0x1a, 0x01, 's',
			},
		},
		{
			"version zero",
			ModelSpec{}.WithVersion(0),
			[]byte{0x12, 0x00},
		},
		{
			"version label",
			ModelSpec{Name: "m", VersionLabel: "stable"},
			[]byte{
				0x0a, 0x01, 'm',
				0x22, 0x06, 's', 't', 'a', 'b', 'l', 'e',
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.spec.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, tc.want, b)

			var decoded ModelSpec
			require.NoError(t, decoded.UnmarshalBinary(b))
			assert.Equal(t, tc.spec, decoded)
		})
	}
}

func TestRequest_MarshalBinary(t *testing.T) {
	r := NewRequest(ModelSpec{Name: "m"})
	require.NoError(t, r.SetInput("x", []float32{1}))

	b, err := r.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x0a, 0x03, 0x0a, 0x01, 'm', // model_spec
		0x12, 0x13, // inputs entry
		0x0a, 0x01, 'x', // key
		0x12, 0x0e, // value
		0x08, 0x01,
		0x12, 0x04, 0x12, 0x02, 0x08, 0x01,
		0x22, 0x04, 0x00, 0x00, 0x80, 0x3f,
	}, b)

	var decoded Request
	require.NoError(t, decoded.UnmarshalBinary(b))
	assert.Equal(t, r, &decoded)
}

func TestRequest_MarshalBinary_Deterministic(t *testing.T) {
	r := NewRequest(ModelSpec{Name: "m"})
	require.NoError(t, r.SetInputs(map[string]any{
		"c": []int32{3},
		"a": []int32{1},
		"b": []int32{2},
	}))
	r.OutputFilter = []string{"z", "y"}

	first, err := r.MarshalBinary()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := r.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, first, b)
	}

	var decoded Request
	require.NoError(t, decoded.UnmarshalBinary(first))
	assert.Equal(t, r, &decoded)
}

func TestResponse_MarshalBinary(t *testing.T) {
	y, err := tensorproto.Encode([][]string{{"a", "b"}})
	require.NoError(t, err)
	spec := ModelSpec{Name: "m", SignatureName: "serving_default"}.WithVersion(7)
	r := &Response{
		ModelSpec: &spec,
		Outputs:   map[string]*tensorproto.TensorProto{"y": y, "empty": {}},
	}

	b, err := r.MarshalBinary()
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, decoded.UnmarshalBinary(b))
	assert.Equal(t, r, &decoded)

	a, err := decoded.Output("y")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, a.Shape())
	assert.Equal(t, []string{"a", "b"}, a.Data())
}

func TestUnmarshalBinary_SkipsUnknownFields(t *testing.T) {
	b := []byte{
		0x28, 0x05, // field 5: 5
		0x0a, 0x03, 0x0a, 0x01, 'm',
		0x1d, 0x00, 0x00, 0x00, 0x00, // field 3 as fixed32
	}
	var r Request
	require.NoError(t, r.UnmarshalBinary(b))
	assert.Equal(t, Request{ModelSpec: &ModelSpec{Name: "m"}}, r)
}

func TestUnmarshalBinary_MissingMapValue(t *testing.T) {
	b := []byte{0x0a, 0x03, 0x0a, 0x01, 'y'}
	var r Response
	require.NoError(t, r.UnmarshalBinary(b))
	assert.Equal(t, map[string]*tensorproto.TensorProto{"y": {}}, r.Outputs)
}

func TestUnmarshalBinary_Errors(t *testing.T) {
	errorCases := map[string][]byte{
		"truncated tag":         {0x80},
		"truncated model spec":  {0x0a, 0x05, 0x0a},
		"invalid model spec":    {0x0a, 0x02, 0x0a, 0x05},
		"invalid version":       {0x0a, 0x02, 0x12, 0x01},
		"invalid map entry":     {0x12, 0x02, 0x0a, 0x03},
		"invalid tensor":        {0x12, 0x04, 0x12, 0x02, 0x08, 0xff},
		"truncated unknown":     {0x28},
		"truncated filter name": {0x1a, 0x02, 'y'},
	}
	for name, b := range errorCases {
		t.Run(name, func(t *testing.T) {
			var r Request
			assert.Error(t, r.UnmarshalBinary(b))
		})
	}
}
