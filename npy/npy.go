// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package npy reads and writes arrays in the NumPy ".npy" file format
// (versions 1.0 and 2.0).
//
// Only little-endian, C-ordered arrays of fixed-width numeric or boolean
// elements are supported.
package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/nlpodyssey/tensorproto"
	"github.com/nlpodyssey/tensorproto/dtype"
)

var (
	// ErrNotNpy is returned when the input does not start with the
	// .npy magic string.
	ErrNotNpy = errors.New("not a npy file")
	// ErrUnsupported is returned for valid .npy features this package
	// does not handle, such as Fortran order or big-endian data.
	ErrUnsupported = errors.New("unsupported npy content")
)

const magic = "\x93NUMPY"

// headerAlignment is the alignment of the data following the header.
const headerAlignment = 64

var descrToDType = map[string]dtype.DType{
	"|b1":  dtype.Bool,
	"|i1":  dtype.Int8,
	"|u1":  dtype.UInt8,
	"<i2":  dtype.Int16,
	"<u2":  dtype.UInt16,
	"<f2":  dtype.Half,
	"<i4":  dtype.Int32,
	"<u4":  dtype.UInt32,
	"<f4":  dtype.Float,
	"<i8":  dtype.Int64,
	"<u8":  dtype.UInt64,
	"<f8":  dtype.Double,
	"<c8":  dtype.Complex64,
	"<c16": dtype.Complex128,
}

var dTypeToDescr = func() map[dtype.DType]string {
	m := make(map[dtype.DType]string, len(descrToDType))
	for k, v := range descrToDType {
		m[v] = k
	}
	return m
}()

// Descr returns the .npy type descriptor of dt, such as "<f4".
// Quantized types are described by their storage type.
func Descr(dt dtype.DType) (string, error) {
	d, ok := dTypeToDescr[dt.Unquantized()]
	if !ok {
		return "", fmt.Errorf("%w: no descriptor for %s", ErrUnsupported, dt)
	}
	return d, nil
}

// ParseDescr returns the DType of a .npy type descriptor. Single-byte
// types are accepted with any byte order mark.
func ParseDescr(descr string) (dtype.DType, error) {
	if len(descr) == 3 && descr[2] == '1' && strings.ContainsRune("<>=|", rune(descr[0])) {
		descr = "|" + descr[1:]
	}
	dt, ok := descrToDType[descr]
	if !ok {
		return dtype.Invalid, fmt.Errorf("%w: type descriptor %q", ErrUnsupported, descr)
	}
	return dt, nil
}

// Header is the parsed header of a .npy file.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

var (
	descrRE   = regexp.MustCompile(`['"]descr['"]\s*:\s*['"]([^'"]*)['"]`)
	fortranRE = regexp.MustCompile(`['"]fortran_order['"]\s*:\s*(True|False)`)
	shapeRE   = regexp.MustCompile(`['"]shape['"]\s*:\s*\(([^)]*)\)`)
)

// ParseHeader parses the Python dict literal of a .npy header.
func ParseHeader(s string) (Header, error) {
	var h Header
	m := descrRE.FindStringSubmatch(s)
	if m == nil {
		return h, fmt.Errorf("missing descr in header %q", s)
	}
	h.Descr = m[1]

	m = fortranRE.FindStringSubmatch(s)
	if m == nil {
		return h, fmt.Errorf("missing fortran_order in header %q", s)
	}
	h.FortranOrder = m[1] == "True"

	m = shapeRE.FindStringSubmatch(s)
	if m == nil {
		return h, fmt.Errorf("missing shape in header %q", s)
	}
	for _, p := range strings.Split(m[1], ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSuffix(p, "L"))
		if err != nil || v < 0 {
			return h, fmt.Errorf("invalid dimension %q in header %q", p, s)
		}
		h.Shape = append(h.Shape, v)
	}
	return h, nil
}

// String formats h as a Python dict literal, like NumPy does.
func (h Header) String() string {
	var sb strings.Builder
	fortran := "False"
	if h.FortranOrder {
		fortran = "True"
	}
	fmt.Fprintf(&sb, "{'descr': '%s', 'fortran_order': %s, 'shape': (", h.Descr, fortran)
	for i, d := range h.Shape {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	if len(h.Shape) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteString("), }")
	return sb.String()
}

// ReadHeader reads the magic string, version and header of a .npy file,
// leaving r at the beginning of the data.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, fmt.Errorf("read magic: %w", err)
	}
	if string(pre[:6]) != magic {
		return Header{}, ErrNotNpy
	}

	var headerLen int
	switch major := pre[6]; major {
	case 1:
		var hl [2]byte
		if _, err := io.ReadFull(r, hl[:]); err != nil {
			return Header{}, fmt.Errorf("read header len: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(hl[:]))
	case 2, 3:
		var hl [4]byte
		if _, err := io.ReadFull(r, hl[:]); err != nil {
			return Header{}, fmt.Errorf("read header len: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(hl[:]))
	default:
		return Header{}, fmt.Errorf("%w: version %d.%d", ErrUnsupported, major, pre[7])
	}

	header, err := io.ReadAll(io.LimitReader(r, int64(headerLen)))
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) != headerLen {
		return Header{}, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
	}
	return ParseHeader(string(header))
}

// Read reads an array in .npy format from r.
func Read(r io.Reader) (tensorproto.Array, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return tensorproto.Array{}, err
	}
	if h.FortranOrder && len(h.Shape) > 1 {
		return tensorproto.Array{}, fmt.Errorf("%w: fortran order", ErrUnsupported)
	}
	dt, err := ParseDescr(h.Descr)
	if err != nil {
		return tensorproto.Array{}, err
	}

	n := int64(dt.Size())
	for _, d := range h.Shape {
		if d != 0 && n > (1<<62)/int64(d) {
			return tensorproto.Array{}, fmt.Errorf("data size overflows: shape %v", h.Shape)
		}
		n *= int64(d)
	}
	data, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return tensorproto.Array{}, fmt.Errorf("read data: %w", err)
	}
	if int64(len(data)) != n {
		return tensorproto.Array{}, fmt.Errorf("read data: expected %d bytes, actual %d: %w", n, len(data), io.ErrUnexpectedEOF)
	}
	return tensorproto.ArrayFromBytes(dt, h.Shape, data)
}

// Write writes a in .npy format to w. The oldest format version able to
// hold the header is used.
func Write(w io.Writer, a tensorproto.Array) error {
	descr, err := Descr(a.DType())
	if err != nil {
		return err
	}
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	h := Header{Descr: descr, Shape: a.Shape()}

	var buf bytes.Buffer
	buf.WriteString(magic)
	header := h.String()
	// 6 bytes of magic, 2 of version and 2 or 4 of header length
	// precede the header, which ends with a newline.
	if total := pad(10+len(header)+1) - 10; total <= 0xffff {
		buf.Write([]byte{1, 0})
		buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(total)))
		writePadded(&buf, header, total)
	} else {
		total = pad(12+len(header)+1) - 12
		buf.Write([]byte{2, 0})
		buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(total)))
		writePadded(&buf, header, total)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func pad(n int) int {
	return (n + headerAlignment - 1) / headerAlignment * headerAlignment
}

func writePadded(buf *bytes.Buffer, header string, total int) {
	buf.WriteString(header)
	buf.WriteString(strings.Repeat(" ", total-len(header)-1))
	buf.WriteByte('\n')
}

// ReadFile reads an array from the .npy file at path.
func ReadFile(path string) (tensorproto.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return tensorproto.Array{}, err
	}
	defer f.Close()
	a, err := Read(f)
	if err != nil {
		return tensorproto.Array{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// WriteFile writes a to a .npy file at path, creating or truncating it.
func WriteFile(path string, a tensorproto.Array) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return Write(f, a)
}
