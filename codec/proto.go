// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"encoding"
	"fmt"
)

type protoCodec struct{}

// Proto returns a protocol buffers binary codec.
// Values must implement encoding.BinaryMarshaler and targets
// encoding.BinaryUnmarshaler, as all messages of this module do.
// Content-Type: application/x-protobuf
func Proto() Codec { return protoCodec{} }

func (protoCodec) ContentType() string { return "application/x-protobuf" }

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("protobuf: value does not implement encoding.BinaryMarshaler: %T", v)
	}
	return m.MarshalBinary()
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	u, ok := v.(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("protobuf: target does not implement encoding.BinaryUnmarshaler: %T", v)
	}
	return u.UnmarshalBinary(data)
}
