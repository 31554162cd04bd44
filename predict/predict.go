// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package predict provides the request and response messages of the
// TensorFlow Serving Predict API, whose inputs and outputs are tensor
// protos built by Encode and read by Decode.
//
// Sending the messages is left to the caller.
package predict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nlpodyssey/tensorproto"
	"github.com/nlpodyssey/tensorproto/dtype"
)

var (
	// ErrInvalidRequest is returned by Request.Validate.
	ErrInvalidRequest = errors.New("invalid predict request")
	// ErrOutputNotFound is returned when a response has no output with
	// the requested name.
	ErrOutputNotFound = errors.New("output not found")
)

// ModelSpec identifies the model, and optionally its version and
// signature, a request is addressed to.
//
// At most one of Version and VersionLabel may be set. When neither is
// set, the server picks the latest version.
type ModelSpec struct {
	Name          string `json:"name"`
	Version       *int64 `json:"version,omitempty"`
	VersionLabel  string `json:"version_label,omitempty"`
	SignatureName string `json:"signature_name,omitempty"`
}

// WithVersion returns a copy of s addressing the given version.
func (s ModelSpec) WithVersion(v int64) ModelSpec {
	s.Version = &v
	s.VersionLabel = ""
	return s
}

// Request is a PredictRequest message.
type Request struct {
	ModelSpec *ModelSpec `json:"model_spec,omitempty"`
	// Inputs maps the input names of the signature to their tensors.
	Inputs map[string]*tensorproto.TensorProto `json:"inputs,omitempty"`
	// OutputFilter restricts the outputs returned. All outputs of the
	// signature are returned when empty.
	OutputFilter []string `json:"output_filter,omitempty"`
}

// NewRequest returns an empty Request addressed to spec.
func NewRequest(spec ModelSpec) *Request {
	return &Request{
		ModelSpec: &spec,
		Inputs:    make(map[string]*tensorproto.TensorProto),
	}
}

// SetInput encodes values (see tensorproto.Encode) and sets the result
// as the input with the given name.
func (r *Request) SetInput(name string, values any) error {
	tp, err := tensorproto.Encode(values)
	if err != nil {
		return fmt.Errorf("input %q: %w", name, err)
	}
	r.setInput(name, tp)
	return nil
}

// SetInputAs is like SetInput, encoding values as dType.
func (r *Request) SetInputAs(name string, values any, dType dtype.DType) error {
	tp, err := tensorproto.EncodeAs(values, dType)
	if err != nil {
		return fmt.Errorf("input %q: %w", name, err)
	}
	r.setInput(name, tp)
	return nil
}

// SetInputs calls SetInput for each entry of inputs, in name order. It
// stops at the first error.
func (r *Request) SetInputs(inputs map[string]any) error {
	for _, name := range sortedKeys(inputs) {
		if err := r.SetInput(name, inputs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Request) setInput(name string, tp *tensorproto.TensorProto) {
	if r.Inputs == nil {
		r.Inputs = make(map[string]*tensorproto.TensorProto)
	}
	r.Inputs[name] = tp
}

// Validate reports whether r can be sent as it is.
func (r *Request) Validate() error {
	switch {
	case r.ModelSpec == nil:
		return fmt.Errorf("%w: missing model spec", ErrInvalidRequest)
	case r.ModelSpec.Name == "":
		return fmt.Errorf("%w: missing model name", ErrInvalidRequest)
	case r.ModelSpec.Version != nil && r.ModelSpec.VersionLabel != "":
		return fmt.Errorf("%w: version and version label are mutually exclusive", ErrInvalidRequest)
	case len(r.Inputs) == 0:
		return fmt.Errorf("%w: no inputs", ErrInvalidRequest)
	}
	for _, name := range sortedKeys(r.Inputs) {
		if r.Inputs[name] == nil {
			return fmt.Errorf("%w: nil input %q", ErrInvalidRequest, name)
		}
	}
	return nil
}

// Response is a PredictResponse message.
type Response struct {
	// ModelSpec describes the model which served the request, including
	// the version actually used.
	ModelSpec *ModelSpec                          `json:"model_spec,omitempty"`
	Outputs   map[string]*tensorproto.TensorProto `json:"outputs,omitempty"`
}

// OutputNames returns the names of the outputs, sorted.
func (r *Response) OutputNames() []string {
	return sortedKeys(r.Outputs)
}

// Output decodes the output with the given name.
func (r *Response) Output(name string) (tensorproto.Array, error) {
	tp, ok := r.Outputs[name]
	if !ok || tp == nil {
		return tensorproto.Array{}, fmt.Errorf("%w: %q", ErrOutputNotFound, name)
	}
	a, err := tensorproto.Decode(tp)
	if err != nil {
		return tensorproto.Array{}, fmt.Errorf("output %q: %w", name, err)
	}
	return a, nil
}

// ParseOutputs decodes all the outputs.
func (r *Response) ParseOutputs() (map[string]tensorproto.Array, error) {
	out := make(map[string]tensorproto.Array, len(r.Outputs))
	for _, name := range r.OutputNames() {
		a, err := r.Output(name)
		if err != nil {
			return nil, err
		}
		out[name] = a
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
