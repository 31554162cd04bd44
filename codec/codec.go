// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec serializes tensor protos and predict messages in one of
// several formats: protocol buffers binary, JSON or CBOR.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownFormat is returned when no codec is registered under a name.
var ErrUnknownFormat = errors.New("unknown format")

// Codec marshals and unmarshals messages.
// Implementations must be deterministic.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps content types, format names and file extensions to
// codecs.
type Registry struct {
	byName map[string]Codec
}

// NewRegistry returns a registry preloaded with the codecs which need
// no initialization: Proto (also "proto", "pb" and ".pb") and JSON (also
// "json" and ".json").
// CBOR can be added explicitly with Register.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Codec)}
	r.Register(Proto(), "proto", "pb", ".pb")
	r.Register(JSON(), "json", ".json")
	return r
}

// Register adds a codec under its content type and the given aliases.
// Names are case-insensitive. A later registration replaces an earlier
// one with the same name.
func (r *Registry) Register(c Codec, aliases ...string) {
	r.byName[strings.ToLower(c.ContentType())] = c
	for _, a := range aliases {
		r.byName[strings.ToLower(a)] = c
	}
}

// Get returns the codec registered under name, or nil.
func (r *Registry) Get(name string) Codec {
	return r.byName[strings.ToLower(name)]
}

// Lookup is like Get, but fails with ErrUnknownFormat when no codec is
// found.
func (r *Registry) Lookup(name string) (Codec, error) {
	if c := r.Get(name); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, name, strings.Join(r.Names(), ", "))
}

// ForFile returns the codec registered for the extension of path.
func (r *Registry) ForFile(path string) (Codec, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return r.Lookup(ext)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
