// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"fmt"
	"math"
)

// checkedMul multiplies a and b and checks for overflow.
// Both values must be non-negative.
func checkedMul(a, b int) (int, error) {
	if a != 0 && b > math.MaxInt/a {
		return 0, fmt.Errorf("multiplication overflow: %d * %d", a, b)
	}
	return a * b, nil
}
