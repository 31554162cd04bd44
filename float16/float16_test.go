// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package float16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestF16(t *testing.T) {
	testCases := []struct {
		f    float32
		bits uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-2, 0xc000},
		{0.5, 0x3800},
		{MaxF16, 0x7bff},
		{float32(math.Inf(1)), 0x7c00},
	}
	for _, tc := range testCases {
		h := F16FromFloat32(tc.f)
		assert.Equal(t, tc.bits, h.Bits(), tc)
		assert.Equal(t, tc.f, h.Float32(), tc)
	}

	assert.True(t, F16(0x7e00).IsNaN())
	assert.False(t, F16(0x3c00).IsNaN())
	assert.Equal(t, uint16(0x7c00), F16FromFloat32(70000).Bits())
}

func TestBF16(t *testing.T) {
	testCases := []struct {
		f    float32
		bits uint16
	}{
		{0, 0x0000},
		{1, 0x3f80},
		{-2, 0xc000},
		{0.5, 0x3f00},
	}
	for _, tc := range testCases {
		b := BF16FromFloat32(tc.f)
		assert.Equal(t, tc.bits, b.Bits(), tc)
		assert.Equal(t, tc.f, b.Float32(), tc)
	}

	assert.True(t, math.IsNaN(float64(BF16FromFloat32(float32(math.NaN())).Float32())))
	// 1 + 2^-8 rounds to even (down to 1), 1 + 3*2^-8 rounds up.
	assert.Equal(t, float32(1), BF16FromFloat32(1+1.0/256).Float32())
	assert.Equal(t, float32(1+4.0/256), BF16FromFloat32(1+3.0/256).Float32())
}
