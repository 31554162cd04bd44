// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package float16 provides the two 16-bit floating point element types
// carried by tensor protos. Values are kept as raw bits; the wire format
// stores them that way too (see TensorProto half_val).
package float16

import (
	"math"

	x448 "github.com/x448/float16"
)

// F16 is a 16-bit half-precision (IEEE 754 binary16) floating-point value,
// represented as raw bits (uint16).
type F16 uint16

// BF16 is a 16-bit brain floating-point value, represented as raw bits
// (uint16). It is the upper half of a float32.
type BF16 uint16

// MaxF16 is the largest finite value representable by F16.
const MaxF16 = 65504

// F16FromFloat32 converts f to the nearest F16, rounding to nearest even.
// Values out of range become infinities.
func F16FromFloat32(f float32) F16 {
	return F16(x448.Fromfloat32(f).Bits())
}

// Float32 returns the float32 value of h. The conversion is exact.
func (h F16) Float32() float32 {
	return x448.Frombits(uint16(h)).Float32()
}

// Bits returns the IEEE 754 binary16 representation of h.
func (h F16) Bits() uint16 {
	return uint16(h)
}

// IsNaN reports whether h is a NaN.
func (h F16) IsNaN() bool {
	return x448.Frombits(uint16(h)).IsNaN()
}

// BF16FromFloat32 converts f to BF16, rounding to nearest even.
// NaN payloads are preserved as a quiet NaN.
func BF16FromFloat32(f float32) BF16 {
	bits := math.Float32bits(f)
	if f != f {
		return BF16(bits>>16 | 0x0040)
	}
	rounding := uint32(0x7fff) + (bits>>16)&1
	return BF16((bits + rounding) >> 16)
}

// Float32 returns the float32 value of b. The conversion is exact.
func (b BF16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Bits returns the raw 16-bit representation of b.
func (b BF16) Bits() uint16 {
	return uint16(b)
}
