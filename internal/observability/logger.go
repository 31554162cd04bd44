// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package observability contains the logging setup of the tensorproto
// command.
package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nlpodyssey/tensorproto/internal/config"
)

// SetupLogger builds a zap.Logger from the provided configuration and sets
// it as the global logger. The returned cleanup func syncs the logger and
// closes the files it opened; the caller should defer it.
func SetupLogger(c config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		if strings.EqualFold(c.Level, "warning") {
			level = zapcore.WarnLevel
		} else {
			level = zapcore.InfoLevel
		}
	}

	encCfg := encoderConfig(c.Development)
	var encoder zapcore.Encoder
	if strings.EqualFold(c.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var (
		cores   []zapcore.Core
		closers []func()
	)
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}
	for _, out := range c.Outputs {
		ws, closeOut, err := writeSyncer(out, c)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, closeOut)
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if c.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	logger := zap.New(zapcore.NewTee(cores...), opts...)
	zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		closeAll()
	}, nil
}

func writeSyncer(out string, c config.LogConfig) (zapcore.WriteSyncer, func(), error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.Lock(os.Stdout), func() {}, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), func() {}, nil
	}

	if c.Rotation.Enable {
		filename := out
		if strings.TrimSpace(c.Rotation.Filename) != "" {
			filename = c.Rotation.Filename
		}
		lj := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    max(c.Rotation.MaxSizeMB, 1),
			MaxBackups: max(c.Rotation.MaxBackups, 1),
			MaxAge:     max(c.Rotation.MaxAgeDays, 1),
			Compress:   c.Rotation.Compress,
		}
		return zapcore.AddSync(lj), func() { _ = lj.Close() }, nil
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("log output %q: %w", out, err)
		}
	}
	ws, closeOut, err := zap.Open(out)
	if err != nil {
		return nil, nil, fmt.Errorf("log output %q: %w", out, err)
	}
	return ws, closeOut, nil
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
	if dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	return zap.NewProductionEncoderConfig()
}
