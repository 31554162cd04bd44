// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorshape

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Proto is the wire representation of a tensor shape (TensorShapeProto).
//
// If UnknownRank is true, Dim must be empty. An empty Dim with a known
// rank describes a scalar.
type Proto struct {
	Dim         []Dim `json:"dim,omitempty"`
	UnknownRank bool  `json:"unknown_rank,omitempty"`
}

// Dim is one dimension of a Proto. Size is -1 for an unknown size.
type Dim struct {
	Size int64  `json:"size"`
	Name string `json:"name,omitempty"`
}

// Field numbers of TensorShapeProto and TensorShapeProto.Dim.
const (
	fieldDim         protowire.Number = 2
	fieldUnknownRank protowire.Number = 3

	fieldDimSize protowire.Number = 1
	fieldDimName protowire.Number = 2
)

// MarshalBinary encodes p in protocol buffers binary format.
// It satisfies encoding.BinaryMarshaler interface.
func (p Proto) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(nil), nil
}

// AppendBinary appends the protocol buffers encoding of p to b.
func (p Proto) AppendBinary(b []byte) []byte {
	for _, d := range p.Dim {
		b = protowire.AppendTag(b, fieldDim, protowire.BytesType)
		b = protowire.AppendBytes(b, d.appendBinary(nil))
	}
	if p.UnknownRank {
		b = protowire.AppendTag(b, fieldUnknownRank, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

func (d Dim) appendBinary(b []byte) []byte {
	if d.Size != 0 {
		b = protowire.AppendTag(b, fieldDimSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.Size))
	}
	if d.Name != "" {
		b = protowire.AppendTag(b, fieldDimName, protowire.BytesType)
		b = protowire.AppendString(b, d.Name)
	}
	return b
}

// UnmarshalBinary decodes p from protocol buffers binary format.
// Unknown fields are skipped.
// It satisfies encoding.BinaryUnmarshaler interface.
func (p *Proto) UnmarshalBinary(b []byte) error {
	*p = Proto{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tensor shape: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldDim && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape dim: %w", protowire.ParseError(n))
			}
			var d Dim
			if err := d.unmarshalBinary(v); err != nil {
				return err
			}
			p.Dim = append(p.Dim, d)
			b = b[n:]
		case num == fieldUnknownRank && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape unknown_rank: %w", protowire.ParseError(n))
			}
			p.UnknownRank = protowire.DecodeBool(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func (d *Dim) unmarshalBinary(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tensor shape dim: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldDimSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape dim size: %w", protowire.ParseError(n))
			}
			d.Size = int64(v)
			b = b[n:]
		case num == fieldDimName && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape dim name: %w", protowire.ParseError(n))
			}
			d.Name = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid tensor shape dim field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
