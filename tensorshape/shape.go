// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensorshape converts tensor shapes, possibly only partially
// known, from and to their wire representation.
package tensorshape

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownDim is the size of a dimension which is not statically known.
// The same value is used on the wire.
const UnknownDim = -1

// ErrUnknownShape is returned when an operation requires a fully
// defined shape, but the rank or some dimension is unknown.
var ErrUnknownShape = errors.New("unknown shape")

// TensorShape is the shape of a tensor: either an unknown rank, or an
// ordered list of dimension sizes, each of which is a non-negative
// integer or UnknownDim.
//
// The zero value is the shape of a scalar (known rank 0).
type TensorShape struct {
	dims        []int
	unknownRank bool
}

// Unknown returns a shape of unknown rank.
func Unknown() TensorShape {
	return TensorShape{unknownRank: true}
}

// Of returns a shape of known rank with the given dimensions.
// Each value must be >= 0 or UnknownDim.
func Of(dims ...int) (TensorShape, error) {
	for i, d := range dims {
		if d < UnknownDim {
			return TensorShape{}, fmt.Errorf("dimension %d must be >= 0 or unknown, actual %d", i, d)
		}
	}
	return TensorShape{dims: copyDims(dims)}, nil
}

// IsUnknownRank reports whether the rank of the shape is unknown.
func (s TensorShape) IsUnknownRank() bool {
	return s.unknownRank
}

// Rank returns the number of dimensions, and false if the rank is unknown.
func (s TensorShape) Rank() (int, bool) {
	if s.unknownRank {
		return 0, false
	}
	return len(s.dims), true
}

// Dims returns a copy of the dimension sizes, or nil if the rank is
// unknown or zero.
func (s TensorShape) Dims() []int {
	return copyDims(s.dims)
}

// IsFullyDefined reports whether the rank and every dimension are known.
func (s TensorShape) IsFullyDefined() bool {
	if s.unknownRank {
		return false
	}
	for _, d := range s.dims {
		if d == UnknownDim {
			return false
		}
	}
	return true
}

// NumElements returns the product of all dimension sizes.
// A scalar shape has one element.
func (s TensorShape) NumElements() (int, error) {
	if s.unknownRank {
		return 0, fmt.Errorf("%w: rank is unknown", ErrUnknownShape)
	}
	n := 1
	for i, d := range s.dims {
		if d == UnknownDim {
			return 0, fmt.Errorf("%w: dimension %d is unknown", ErrUnknownShape, i)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("number of elements overflows: %s", s)
		}
		n *= d
	}
	return n, nil
}

// Equal reports whether s and o describe the same shape.
func (s TensorShape) Equal(o TensorShape) bool {
	if s.unknownRank || o.unknownRank {
		return s.unknownRank == o.unknownRank
	}
	if len(s.dims) != len(o.dims) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

// String returns a representation such as "[2 ? 3]", or "<unknown>".
func (s TensorShape) String() string {
	if s.unknownRank {
		return "<unknown>"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, d := range s.dims {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if d == UnknownDim {
			sb.WriteByte('?')
		} else {
			sb.WriteString(strconv.Itoa(d))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Proto returns the wire representation of the shape.
func (s TensorShape) Proto() Proto {
	if s.unknownRank {
		return Proto{UnknownRank: true}
	}
	if len(s.dims) == 0 {
		return Proto{}
	}
	dims := make([]Dim, len(s.dims))
	for i, d := range s.dims {
		dims[i] = Dim{Size: int64(d)}
	}
	return Proto{Dim: dims}
}

// FromProto converts a wire shape to a TensorShape. It is the inverse
// of TensorShape.Proto.
func FromProto(p Proto) (TensorShape, error) {
	if p.UnknownRank {
		return Unknown(), nil
	}
	if len(p.Dim) == 0 {
		return TensorShape{}, nil
	}
	dims := make([]int, len(p.Dim))
	for i, d := range p.Dim {
		if d.Size < UnknownDim || d.Size > math.MaxInt {
			return TensorShape{}, fmt.Errorf("invalid size %d for dimension %d", d.Size, i)
		}
		dims[i] = int(d.Size)
	}
	return TensorShape{dims: dims}, nil
}

func copyDims(dims []int) []int {
	if len(dims) == 0 {
		return nil
	}
	s := make([]int, len(dims))
	copy(s, dims)
	return s
}
