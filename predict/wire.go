// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predict

import (
	"fmt"

	"github.com/nlpodyssey/tensorproto"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of tensorflow.serving.ModelSpec, PredictRequest and
// PredictResponse, and of the entries of their maps.
const (
	fieldSpecName          protowire.Number = 1
	fieldSpecVersion       protowire.Number = 2
	fieldSpecSignatureName protowire.Number = 3
	fieldSpecVersionLabel  protowire.Number = 4

	fieldInt64Value protowire.Number = 1

	fieldRequestModelSpec    protowire.Number = 1
	fieldRequestInputs       protowire.Number = 2
	fieldRequestOutputFilter protowire.Number = 3

	fieldResponseOutputs   protowire.Number = 1
	fieldResponseModelSpec protowire.Number = 2

	fieldEntryKey   protowire.Number = 1
	fieldEntryValue protowire.Number = 2
)

// MarshalBinary encodes s in protocol buffers binary format.
func (s ModelSpec) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(nil), nil
}

// AppendBinary appends the protocol buffers encoding of s to b.
func (s ModelSpec) AppendBinary(b []byte) []byte {
	if s.Name != "" {
		b = protowire.AppendTag(b, fieldSpecName, protowire.BytesType)
		b = protowire.AppendString(b, s.Name)
	}
	if s.Version != nil {
		var v []byte
		if *s.Version != 0 {
			v = protowire.AppendTag(v, fieldInt64Value, protowire.VarintType)
			v = protowire.AppendVarint(v, uint64(*s.Version))
		}
		b = protowire.AppendTag(b, fieldSpecVersion, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	if s.SignatureName != "" {
		b = protowire.AppendTag(b, fieldSpecSignatureName, protowire.BytesType)
		b = protowire.AppendString(b, s.SignatureName)
	}
	if s.VersionLabel != "" {
		b = protowire.AppendTag(b, fieldSpecVersionLabel, protowire.BytesType)
		b = protowire.AppendString(b, s.VersionLabel)
	}
	return b
}

// UnmarshalBinary decodes s from protocol buffers binary format.
func (s *ModelSpec) UnmarshalBinary(b []byte) error {
	*s = ModelSpec{}
	return walkFields(b, "model spec", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldSpecName:
			s.Name = string(v)
		case fieldSpecSignatureName:
			s.SignatureName = string(v)
		case fieldSpecVersionLabel:
			s.VersionLabel = string(v)
		case fieldSpecVersion:
			version, err := unmarshalInt64Value(v)
			if err != nil {
				return 0, err
			}
			s.Version = &version
		}
		return n, nil
	})
}

func unmarshalInt64Value(b []byte) (int64, error) {
	var value int64
	err := walkFields(b, "version", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldInt64Value || typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeVarint(b)
		value = int64(v)
		return n, nil
	})
	return value, err
}

// MarshalBinary encodes r in protocol buffers binary format.
// Inputs are written sorted by name.
func (r *Request) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(nil), nil
}

// AppendBinary appends the protocol buffers encoding of r to b.
func (r *Request) AppendBinary(b []byte) []byte {
	if r.ModelSpec != nil {
		b = protowire.AppendTag(b, fieldRequestModelSpec, protowire.BytesType)
		b = protowire.AppendBytes(b, r.ModelSpec.AppendBinary(nil))
	}
	b = appendTensorMap(b, fieldRequestInputs, r.Inputs)
	for _, name := range r.OutputFilter {
		b = protowire.AppendTag(b, fieldRequestOutputFilter, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	return b
}

// UnmarshalBinary decodes r from protocol buffers binary format.
func (r *Request) UnmarshalBinary(b []byte) error {
	*r = Request{}
	return walkFields(b, "predict request", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldRequestModelSpec:
			r.ModelSpec = new(ModelSpec)
			if err := r.ModelSpec.UnmarshalBinary(v); err != nil {
				return 0, err
			}
		case fieldRequestInputs:
			if r.Inputs == nil {
				r.Inputs = make(map[string]*tensorproto.TensorProto)
			}
			if err := unmarshalTensorMapEntry(v, r.Inputs); err != nil {
				return 0, err
			}
		case fieldRequestOutputFilter:
			r.OutputFilter = append(r.OutputFilter, string(v))
		}
		return n, nil
	})
}

// MarshalBinary encodes r in protocol buffers binary format.
// Outputs are written sorted by name.
func (r *Response) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(nil), nil
}

// AppendBinary appends the protocol buffers encoding of r to b.
func (r *Response) AppendBinary(b []byte) []byte {
	b = appendTensorMap(b, fieldResponseOutputs, r.Outputs)
	if r.ModelSpec != nil {
		b = protowire.AppendTag(b, fieldResponseModelSpec, protowire.BytesType)
		b = protowire.AppendBytes(b, r.ModelSpec.AppendBinary(nil))
	}
	return b
}

// UnmarshalBinary decodes r from protocol buffers binary format.
func (r *Response) UnmarshalBinary(b []byte) error {
	*r = Response{}
	return walkFields(b, "predict response", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldResponseOutputs:
			if r.Outputs == nil {
				r.Outputs = make(map[string]*tensorproto.TensorProto)
			}
			if err := unmarshalTensorMapEntry(v, r.Outputs); err != nil {
				return 0, err
			}
		case fieldResponseModelSpec:
			r.ModelSpec = new(ModelSpec)
			if err := r.ModelSpec.UnmarshalBinary(v); err != nil {
				return 0, err
			}
		}
		return n, nil
	})
}

func appendTensorMap(b []byte, num protowire.Number, m map[string]*tensorproto.TensorProto) []byte {
	for _, name := range sortedKeys(m) {
		var e []byte
		e = protowire.AppendTag(e, fieldEntryKey, protowire.BytesType)
		e = protowire.AppendString(e, name)
		if tp := m[name]; tp != nil {
			e = protowire.AppendTag(e, fieldEntryValue, protowire.BytesType)
			e = protowire.AppendBytes(e, tp.AppendBinary(nil))
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// unmarshalTensorMapEntry decodes a map entry into m. A missing value
// is an empty tensor proto; a repeated key overwrites the previous one.
func unmarshalTensorMapEntry(b []byte, m map[string]*tensorproto.TensorProto) error {
	var key string
	value := new(tensorproto.TensorProto)
	err := walkFields(b, "map entry", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldEntryKey:
			key = string(v)
		case fieldEntryValue:
			if err := value.UnmarshalBinary(v); err != nil {
				return 0, fmt.Errorf("tensor %q: %w", key, err)
			}
		}
		return n, nil
	})
	if err != nil {
		return err
	}
	m[key] = value
	return nil
}

// walkFields calls visit for each field of the message encoded in b.
// The value of the field starts at the beginning of the slice passed to
// visit, which returns the length of the value, or a negative
// protowire error code.
func walkFields(b []byte, msg string, visit func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid %s: %w", msg, protowire.ParseError(n))
		}
		b = b[n:]

		n, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("invalid %s field %d: %w", msg, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
