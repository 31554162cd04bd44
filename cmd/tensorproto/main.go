// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tensorproto converts NumPy .npy files to and from TensorFlow
// tensor protos, and builds TensorFlow Serving predict requests.
//
// Usage:
//
//	tensorproto [-config file] encode  -in a.npy [-dtype name] [-format f] [-out t.pb]
//	tensorproto [-config file] decode  -in t.pb [-format f] -out a.npy
//	tensorproto [-config file] inspect -in t.pb [-format f] [-kind tensor|request|response]
//	tensorproto [-config file] request [-model name] [-signature s] [-version n | -label l]
//	                                   -input name=a.npy ... [-output-filter a,b] [-format f] [-out r.pb]
//
// The format is one of proto, json or cbor. When omitted, it is taken from
// the file extension, then from the configuration.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/nlpodyssey/tensorproto/codec"
	"github.com/nlpodyssey/tensorproto/internal/config"
	"github.com/nlpodyssey/tensorproto/internal/observability"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// app holds what the subcommands share.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	codecs *codec.Registry
	stdin  io.Reader
	stdout io.Writer
}

type command func(a *app, args []string) error

var commands = map[string]command{
	"encode":  (*app).encode,
	"decode":  (*app).decode,
	"inspect": (*app).inspect,
	"request": (*app).request,
}

// run is the main entry point; it returns the exit code.
func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("tensorproto", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: tensorproto [-config file] encode|decode|inspect|request [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(fs.Output(), "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	logger, closeLog, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer closeLog()

	cborCodec, err := codec.CBOR()
	if err != nil {
		logger.Error("failed to build cbor codec", zap.Error(err))
		return 1
	}
	codecs := codec.NewRegistry()
	codecs.Register(cborCodec, "cbor", ".cbor")

	a := &app{cfg: cfg, log: logger, codecs: codecs, stdin: stdin, stdout: stdout}
	if err := cmd(a, fs.Args()[1:]); err != nil {
		logger.Error("command failed", zap.String("command", fs.Arg(0)), zap.Error(err))
		return 1
	}
	return 0
}
