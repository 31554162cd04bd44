// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto_test

import (
	"fmt"
	"log"

	"github.com/nlpodyssey/tensorproto"
	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/tensorshape"
)

func ExampleEncode() {
	tp, err := tensorproto.Encode([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		log.Fatal(err)
	}

	dt, err := tp.DataType()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("dtype = %s (%d)\n", dt, tp.Dtype)
	fmt.Printf("shape = %+v\n", tp.TensorShape.Dim)
	fmt.Printf("tensor_content = % x\n", tp.TensorContent)

	// Output:
	// dtype = float32 (1)
	// shape = [{Size:2 Name:} {Size:2 Name:}]
	// tensor_content = 00 00 80 3f 00 00 00 40 00 00 40 40 00 00 80 40
}

func ExampleEncodeAs() {
	tp, err := tensorproto.EncodeAs([]int{1, 2, 3}, dtype.Int64)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tp)

	_, err = tensorproto.EncodeAs([]int{1, -1}, dtype.UInt8)
	fmt.Println(err)

	// Output:
	// int64[3] tensor_content:24B
	// type mismatch: cannot cast int64 values to uint8: value -1 out of range
}

func ExampleDecode() {
	tp := &tensorproto.TensorProto{
		Dtype:       dtype.String.WireCode(),
		TensorShape: tensorshape.Proto{Dim: []tensorshape.Dim{{Size: 3}}},
		StringVal:   [][]byte{[]byte("x")},
	}
	a, err := tensorproto.Decode(tp)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s %v %q\n", a.DType(), a.Shape(), a.Data())

	shape, err := tensorshape.Of(2, 2)
	if err != nil {
		log.Fatal(err)
	}
	a, err = tensorproto.Decode(&tensorproto.TensorProto{
		Dtype:       dtype.Int32.WireCode(),
		TensorShape: shape.Proto(),
		IntVal:      []int32{1, 2},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s %v %v\n", a.DType(), a.Shape(), a.Data())

	// Output:
	// string [3] ["x" "x" "x"]
	// int32 [2 2] [1 2 2 2]
}
