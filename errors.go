// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorproto

import (
	"errors"

	"github.com/nlpodyssey/tensorproto/dtype"
	"github.com/nlpodyssey/tensorproto/tensorshape"
)

// Errors returned by Encode and Decode. They are terminal for the call
// which returned them, and are meant to be matched with errors.Is.
var (
	// ErrUnrecognizedType is returned when a Go type or type name has no
	// DType counterpart.
	ErrUnrecognizedType = dtype.ErrUnrecognizedType
	// ErrInvalidWireCode is returned when decoding an unknown dtype code.
	ErrInvalidWireCode = dtype.ErrInvalidWireCode
	// ErrUnknownShape is returned when decoding a tensor whose rank or
	// some dimension is not known.
	ErrUnknownShape = tensorshape.ErrUnknownShape

	// ErrUnsupportedElementType is returned for element types with no
	// payload representation (resource and variant handles).
	ErrUnsupportedElementType = errors.New("unsupported element type")
	// ErrTypeMismatch is returned when values cannot be cast to the
	// requested element type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrTensorTooLarge is returned when the raw content of a tensor would
	// reach the 2 GiB limit of the wire format.
	ErrTensorTooLarge = errors.New("tensor too large")
	// ErrTruncatedPayload is returned when the payload of a tensor does
	// not match the number of elements described by its shape.
	ErrTruncatedPayload = errors.New("truncated payload")
)
