// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npy

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nlpodyssey/tensorproto"
	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/float16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	testCases := []struct {
		name  string
		shape []int
		data  any
	}{
		{"bool", []int{3}, []bool{true, false, true}},
		{"int8", []int{2}, []int8{-1, 1}},
		{"uint8", []int{2, 2}, []uint8{1, 2, 3, 4}},
		{"int16", []int{1}, []int16{-300}},
		{"uint16", []int{1}, []uint16{65535}},
		{"half", []int{2}, []float16.F16{float16.F16FromFloat32(1.5), float16.F16FromFloat32(-2)}},
		{"int32", []int{2, 1}, []int32{7, -7}},
		{"uint32", []int{1}, []uint32{1 << 31}},
		{"float32", []int{2, 3}, []float32{1, 2, 3, 4, 5, 6}},
		{"int64", []int{1}, []int64{-1 << 40}},
		{"uint64", []int{1}, []uint64{1 << 63}},
		{"float64", []int{2}, []float64{0.1, -0.2}},
		{"complex64", []int{1}, []complex64{complex(1, -2)}},
		{"complex128", []int{2}, []complex128{complex(1, 2), complex(3, 4)}},
		{"scalar", nil, []float32{42}},
		{"empty", []int{0, 3}, []int64{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := tensorproto.NewArray(tc.shape, tc.data)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, a))
			b := buf.Bytes()

			assert.Equal(t, magic, string(b[:6]))
			assert.Equal(t, []byte{1, 0}, b[6:8])
			headerLen := int(binary.LittleEndian.Uint16(b[8:10]))
			assert.Zero(t, (10+headerLen)%headerAlignment)
			assert.Equal(t, byte('\n'), b[10+headerLen-1])

			got, err := Read(bytes.NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, a, got)
		})
	}
}

func TestWrite_Header(t *testing.T) {
	a, err := tensorproto.NewArray([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))

	want := "{'descr': '<f4', 'fortran_order': False, 'shape': (2, 3), }"
	header := buf.Bytes()[10:128]
	assert.Equal(t, want, strings.TrimRight(string(header), " \n"))
	assert.Len(t, buf.Bytes(), 128+6*4)
}

func TestWrite_Quantized(t *testing.T) {
	a, err := tensorproto.NewTypedArray(dtype.QInt8, []int{2}, []int8{-5, 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, dtype.Int8, got.DType())
	assert.Equal(t, []int8{-5, 5}, got.Data())
}

func TestWrite_Unsupported(t *testing.T) {
	testCases := map[string]tensorproto.Array{
		"string":   mustArray(t, []int{1}, []string{"foo"}),
		"bfloat16": mustArray(t, []int{1}, []float16.BF16{float16.BF16FromFloat32(1)}),
	}
	for name, a := range testCases {
		t.Run(name, func(t *testing.T) {
			err := Write(io.Discard, a)
			assert.Error(t, err)
		})
	}
}

func TestRead_Version2(t *testing.T) {
	header := "{'descr': '<i2', 'fortran_order': False, 'shape': (2,), }"
	header += strings.Repeat(" ", 128-12-len(header)-1) + "\n"

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write([]byte{2, 0})
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(header))))
	buf.WriteString(header)
	buf.Write([]byte{0x01, 0x00, 0xff, 0xff})

	a, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, a.Shape())
	assert.Equal(t, []int16{1, -1}, a.Data())
}

func TestRead_Errors(t *testing.T) {
	build := func(header string, data []byte) []byte {
		b := []byte(magic)
		b = append(b, 1, 0)
		b = binary.LittleEndian.AppendUint16(b, uint16(len(header)))
		b = append(b, header...)
		return append(b, data...)
	}

	testCases := []struct {
		name  string
		input []byte
		err   error
		msg   string
	}{
		{"empty", nil, io.EOF, ""},
		{"bad magic", []byte("\x93NUMPZ\x01\x00"), ErrNotNpy, ""},
		{"bad version", []byte(magic + "\x04\x00"), ErrUnsupported, "version 4.0"},
		{"truncated header len", []byte(magic + "\x01\x00\x10"), io.ErrUnexpectedEOF, ""},
		{"truncated header", append([]byte(magic+"\x01\x00\x10\x00"), "{'descr'"...), io.ErrUnexpectedEOF, ""},
		{
			"big endian",
			build("{'descr': '>f4', 'fortran_order': False, 'shape': (1,), }", []byte{0, 0, 0, 0}),
			ErrUnsupported, `">f4"`,
		},
		{
			"string",
			build("{'descr': '<U3', 'fortran_order': False, 'shape': (1,), }", make([]byte, 12)),
			ErrUnsupported, `"<U3"`,
		},
		{
			"fortran order",
			build("{'descr': '<f4', 'fortran_order': True, 'shape': (1, 2), }", make([]byte, 8)),
			ErrUnsupported, "fortran order",
		},
		{
			"truncated data",
			build("{'descr': '<f4', 'fortran_order': False, 'shape': (2,), }", make([]byte, 7)),
			io.ErrUnexpectedEOF, "expected 8 bytes, actual 7",
		},
		{
			"missing shape",
			build("{'descr': '<f4', 'fortran_order': False}", nil),
			nil, "missing shape",
		},
		{
			"negative dimension",
			build("{'descr': '<f4', 'fortran_order': False, 'shape': (-1,), }", nil),
			nil, `invalid dimension "-1"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tc.input))
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
			if tc.msg != "" {
				assert.ErrorContains(t, err, tc.msg)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	testCases := []struct {
		header string
		want   Header
	}{
		{
			"{'descr': '<f8', 'fortran_order': False, 'shape': (), }",
			Header{Descr: "<f8"},
		},
		{
			`{"shape": (4,), "fortran_order": True, "descr": "|u1"}`,
			Header{Descr: "|u1", FortranOrder: true, Shape: []int{4}},
		},
		{
			"{'descr': '<i8', 'fortran_order': False, 'shape': (2L, 3L), }",
			Header{Descr: "<i8", Shape: []int{2, 3}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			h, err := ParseHeader(tc.header)
			require.NoError(t, err)
			assert.Equal(t, tc.want, h)
		})
	}
}

func TestHeader_String(t *testing.T) {
	assert.Equal(t,
		"{'descr': '|b1', 'fortran_order': False, 'shape': (), }",
		Header{Descr: "|b1"}.String())
	assert.Equal(t,
		"{'descr': '<c8', 'fortran_order': True, 'shape': (5,), }",
		Header{Descr: "<c8", FortranOrder: true, Shape: []int{5}}.String())
}

func TestParseDescr(t *testing.T) {
	for _, descr := range []string{"|i1", "<i1", "=i1", "i1"} {
		dt, err := ParseDescr(descr)
		if descr == "i1" {
			assert.ErrorIs(t, err, ErrUnsupported)
			continue
		}
		require.NoError(t, err, descr)
		assert.Equal(t, dtype.Int8, dt, descr)
	}

	_, err := ParseDescr(">i4")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.npy")
	a := mustArray(t, []int{3}, []float64{1, 2, 3})

	require.NoError(t, WriteFile(path, a))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.npy"))
	assert.Error(t, err)
}

func mustArray(t *testing.T, shape []int, data any) tensorproto.Array {
	t.Helper()
	a, err := tensorproto.NewArray(shape, data)
	require.NoError(t, err)
	return a
}
