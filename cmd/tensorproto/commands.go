// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nlpodyssey/tensorproto"
	"github.com/nlpodyssey/tensorproto/codec"
	"github.com/nlpodyssey/tensorproto/npy"
	"github.com/nlpodyssey/tensorproto/predict"
)

func (a *app) encode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	in := fs.String("in", "", "input .npy file, - for stdin")
	dtypeName := fs.String("dtype", "", "element type of the tensor (default: inferred)")
	format := fs.String("format", "", "output format: proto, json or cbor")
	out := fs.String("out", "-", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("missing -in")
	}

	arr, err := a.readNpy(*in)
	if err != nil {
		return err
	}
	tp, err := encodeArray(arr, *dtypeName)
	if err != nil {
		return err
	}
	if err := a.writeMessage(*out, *format, tp); err != nil {
		return err
	}
	a.log.Info("encoded tensor",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.Stringer("tensor", tp))
	return nil
}

func (a *app) decode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	in := fs.String("in", "", "input tensor proto file, - for stdin")
	format := fs.String("format", "", "input format: proto, json or cbor")
	out := fs.String("out", "", "output .npy file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("missing -in or -out")
	}

	var tp tensorproto.TensorProto
	if err := a.readMessage(*in, *format, &tp); err != nil {
		return err
	}
	arr, err := tensorproto.Decode(&tp)
	if err != nil {
		return err
	}
	if *out == "-" {
		err = npy.Write(a.stdout, arr)
	} else {
		err = npy.WriteFile(*out, arr)
	}
	if err != nil {
		return err
	}
	a.log.Info("decoded tensor",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.Stringer("dtype", arr.DType()),
		zap.Ints("shape", arr.Shape()))
	return nil
}

func (a *app) inspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	in := fs.String("in", "", "input file, - for stdin")
	format := fs.String("format", "", "input format: proto, json or cbor")
	kind := fs.String("kind", "tensor", "message kind: tensor, request or response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("missing -in")
	}

	switch *kind {
	case "tensor":
		var tp tensorproto.TensorProto
		if err := a.readMessage(*in, *format, &tp); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "tensor: %s\n", &tp)
		return printValues(a.stdout, "", &tp)
	case "request":
		var r predict.Request
		if err := a.readMessage(*in, *format, &r); err != nil {
			return err
		}
		printModelSpec(a.stdout, r.ModelSpec)
		for _, name := range sortedNames(r.Inputs) {
			fmt.Fprintf(a.stdout, "input %s: %s\n", name, r.Inputs[name])
		}
		if len(r.OutputFilter) > 0 {
			fmt.Fprintf(a.stdout, "output_filter: %s\n", strings.Join(r.OutputFilter, ", "))
		}
		return nil
	case "response":
		var r predict.Response
		if err := a.readMessage(*in, *format, &r); err != nil {
			return err
		}
		printModelSpec(a.stdout, r.ModelSpec)
		for _, name := range r.OutputNames() {
			tp := r.Outputs[name]
			fmt.Fprintf(a.stdout, "output %s: %s\n", name, tp)
			if err := printValues(a.stdout, "  ", tp); err != nil {
				return fmt.Errorf("output %q: %w", name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown message kind %q", *kind)
}

func (a *app) request(args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	model := fs.String("model", a.cfg.Model.Name, "model name")
	signature := fs.String("signature", a.cfg.Model.SignatureName, "signature name")
	version := fs.Int64("version", a.cfg.Model.Version, "model version, negative for latest")
	label := fs.String("label", a.cfg.Model.VersionLabel, "model version label")
	outputFilter := fs.String("output-filter", "", "comma-separated output names")
	format := fs.String("format", "", "output format: proto, json or cbor")
	out := fs.String("out", "-", "output file, - for stdout")
	inputs := inputFlags{}
	fs.Var(inputs, "input", "input as name=file.npy or name:dtype=file.npy (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	spec := predict.ModelSpec{Name: *model, SignatureName: *signature, VersionLabel: *label}
	if *version >= 0 {
		if *label != "" {
			return errors.New("-version and -label are mutually exclusive")
		}
		spec = spec.WithVersion(*version)
	}
	r := predict.NewRequest(spec)
	for _, name := range sortedNames(inputs) {
		in := inputs[name]
		arr, err := a.readNpy(in.path)
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		tp, err := encodeArray(arr, in.dtype)
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		if err := r.SetInput(name, tp); err != nil {
			return err
		}
	}
	if *outputFilter != "" {
		r.OutputFilter = strings.Split(*outputFilter, ",")
	}
	if err := r.Validate(); err != nil {
		return err
	}

	if err := a.writeMessage(*out, *format, r); err != nil {
		return err
	}
	a.log.Info("built predict request",
		zap.String("model", spec.Name),
		zap.Strings("inputs", sortedNames(r.Inputs)),
		zap.String("out", *out))
	return nil
}

func encodeArray(arr tensorproto.Array, dtypeName string) (*tensorproto.TensorProto, error) {
	if dtypeName == "" {
		return tensorproto.Encode(arr)
	}
	return tensorproto.EncodeAsName(arr, dtypeName)
}

func printModelSpec(w io.Writer, s *predict.ModelSpec) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "model: name=%s", s.Name)
	if s.Version != nil {
		fmt.Fprintf(w, " version=%d", *s.Version)
	}
	if s.VersionLabel != "" {
		fmt.Fprintf(w, " version_label=%s", s.VersionLabel)
	}
	if s.SignatureName != "" {
		fmt.Fprintf(w, " signature=%s", s.SignatureName)
	}
	fmt.Fprintln(w)
}

func printValues(w io.Writer, indent string, tp *tensorproto.TensorProto) error {
	arr, err := tensorproto.Decode(tp)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%svalues: %v\n", indent, arr.Data())
	return nil
}

// inputFlags collects the repeated -input flags of the request command.
type inputFlags map[string]inputFile

type inputFile struct {
	path  string
	dtype string
}

func (f inputFlags) String() string {
	parts := make([]string, 0, len(f))
	for _, name := range sortedNames(f) {
		parts = append(parts, name+"="+f[name].path)
	}
	return strings.Join(parts, ",")
}

func (f inputFlags) Set(s string) error {
	name, path, ok := strings.Cut(s, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("invalid input %q, expected name=file.npy", s)
	}
	name, dt, _ := strings.Cut(name, ":")
	if _, dup := f[name]; dup {
		return fmt.Errorf("duplicate input %q", name)
	}
	f[name] = inputFile{path: path, dtype: dt}
	return nil
}

func (a *app) readNpy(path string) (tensorproto.Array, error) {
	if path == "-" {
		return npy.Read(a.stdin)
	}
	return npy.ReadFile(path)
}

// codecFor resolves the codec from the explicit format, then the file
// extension, then the configured default.
func (a *app) codecFor(format, path string) (codec.Codec, error) {
	if format != "" {
		return a.codecs.Lookup(format)
	}
	if path != "-" {
		if c, err := a.codecs.ForFile(path); err == nil {
			return c, nil
		}
	}
	return a.codecs.Lookup(a.cfg.Output.Format)
}

func (a *app) readMessage(path, format string, v any) error {
	c, err := a.codecFor(format, path)
	if err != nil {
		return err
	}
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if err := c.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (a *app) writeMessage(path, format string, v any) error {
	c, err := a.codecFor(format, path)
	if err != nil {
		return err
	}
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = a.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
