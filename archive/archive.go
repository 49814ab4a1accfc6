// Package archive implements a hierarchical, self-describing binary
// serialization format: a stack-machine writer/reader over a sequence of
// named start/end tags and typed value frames, with a registry mapping Go
// types to the functions that (de)serialize their payload bytes.
package archive

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/cespare/xxhash"
)

// State is the archive's stack-machine mode.
type State int

const (
	NotOpen State = iota
	Read
	Write
)

// ErrNotOpen, ErrWrongState and ErrUnknownType are the sentinel errors an
// Archive's methods return; they are distinct from the per-node NodeError
// taxonomy since an Archive is not itself a graph Node.
var (
	ErrNotOpen     = errors.New("archive: not open")
	ErrWrongState  = errors.New("archive: wrong state for operation")
	ErrUnknownType = errors.New("archive: unknown type for deserialize")
	ErrMalformed   = errors.New("archive: malformed frame")
)

// Encoder writes v's payload bytes (not the frame header) to w.
type Encoder func(w io.Writer, v interface{}) error

// Decoder reads size payload bytes from r and reconstructs the value.
type Decoder func(r io.Reader, size int64) (interface{}, error)

type typeEntry struct {
	encode Encoder
	decode Decoder
}

// typeCache maps type names to their registry entry. It also records the
// xxhash of each registered name (nameForHash), but lookup probes the
// name-keyed map directly.
type typeCache struct {
	mu     sync.RWMutex
	byName map[string]typeEntry
	byHash map[uint64]string
}

func newTypeCache() *typeCache {
	return &typeCache{
		byName: make(map[string]typeEntry),
		byHash: make(map[uint64]string),
	}
}

func (c *typeCache) register(name string, enc Encoder, dec Decoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[name] = typeEntry{encode: enc, decode: dec}
	c.byHash[xxhash.Sum64String(name)] = name
}

func (c *typeCache) lookup(name string) (typeEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	return e, ok
}

func (c *typeCache) nameForHash(h uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byHash[h]
	return n, ok
}

// defaultTypes is the process-wide registry of built-in dispatchers
// (string, []byte, bool, int64, float64) available to every Archive.
// Registering a type is a simple "two dispatchers" pattern per type, the
// same shape the source system uses for its serialize/deserialize pair.
var defaultTypes = newTypeCache()

func init() {
	defaultTypes.register("string", encodeString, decodeString)
	defaultTypes.register("[]byte", encodeBytes, decodeBytes)
	defaultTypes.register("bool", encodeBool, decodeBool)
	defaultTypes.register("int64", encodeInt64, decodeInt64)
	defaultTypes.register("float64", encodeFloat64, decodeFloat64)
}

// RegisterType adds a named type's encode/decode pair to the process-wide
// default registry. Archives created after this call see the new type;
// Archives don't snapshot the registry, so this is also safe to call to
// extend an already-open Archive's vocabulary before the next Write.
func RegisterType(name string, enc Encoder, dec Decoder) {
	defaultTypes.register(name, enc, dec)
}

// TypeNameOf returns the registry name archive uses for v's dynamic type,
// falling back to its reflect.Type string when v wasn't registered under
// a shorter alias.
func TypeNameOf(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case []byte:
		return "[]byte"
	case bool:
		return "bool"
	case int64:
		return "int64"
	case float64:
		return "float64"
	default:
		return reflect.TypeOf(v).String()
	}
}

// Archive is a stack-machine serializer: {state, position path, named
// attributes, version, error}. A single Archive is either a Writer or a
// Reader for its lifetime; Close releases the underlying stream.
type Archive struct {
	state State

	w io.Writer
	r io.Reader

	position []string
	attrs    map[string]string
	version  string

	errMsg  string
	errCode int

	closer io.Closer
}

// NewWriter creates an Archive in Write mode over w.
func NewWriter(w io.Writer, version string) *Archive {
	c, _ := w.(io.Closer)
	return &Archive{state: Write, w: w, version: version, attrs: make(map[string]string), closer: c}
}

// NewReader creates an Archive in Read mode over r.
func NewReader(r io.Reader, version string) *Archive {
	c, _ := r.(io.Closer)
	return &Archive{state: Read, r: r, version: version, attrs: make(map[string]string), closer: c}
}

// State returns the archive's current stack-machine state.
func (a *Archive) State() State { return a.state }

// Version returns the archive's version string.
func (a *Archive) Version() string { return a.version }

// Position returns the current node-name path, root first.
func (a *Archive) Position() []string {
	out := make([]string, len(a.position))
	copy(out, a.position)
	return out
}

// SetAttribute stashes a named string attribute alongside the stream
// (e.g. a schema version or a producer identity); it's written/read by
// the caller at a point of its choosing, not auto-framed.
func (a *Archive) SetAttribute(name, value string) { a.attrs[name] = value }

// Attribute returns a named attribute.
func (a *Archive) Attribute(name string) (string, bool) {
	v, ok := a.attrs[name]
	return v, ok
}

// Error returns the archive's last error message and a best-effort code.
func (a *Archive) Error() (string, int) { return a.errMsg, a.errCode }

func (a *Archive) fail(err error) error {
	a.errMsg = err.Error()
	a.errCode = 1
	return err
}

// Close releases the underlying stream, if it implements io.Closer.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Start writes (or, in Read mode, expects and consumes) a start tag named
// name, pushing it onto the position path.
func (a *Archive) Start(name string) error {
	switch a.state {
	case Write:
		if err := writeStartTag(a.w, name); err != nil {
			return a.fail(err)
		}
	case Read:
		got, err := readStartTag(a.r)
		if err != nil {
			return a.fail(err)
		}
		if got != name {
			return a.fail(fmt.Errorf("%w: expected start %q, got %q", ErrMalformed, name, got))
		}
	default:
		return ErrNotOpen
	}
	a.position = append(a.position, name)
	return nil
}

// End writes (or expects) an end tag, popping the position path.
func (a *Archive) End() error {
	if len(a.position) == 0 {
		return a.fail(fmt.Errorf("%w: End without matching Start", ErrMalformed))
	}
	switch a.state {
	case Write:
		if err := writeEndTag(a.w); err != nil {
			return a.fail(err)
		}
	case Read:
		if err := readEndTag(a.r); err != nil {
			return a.fail(err)
		}
	default:
		return ErrNotOpen
	}
	a.position = a.position[:len(a.position)-1]
	return nil
}

// Write serializes name/v as a value frame, dispatching on v's dynamic
// type via the registry.
func (a *Archive) Write(name string, v interface{}) error {
	if a.state != Write {
		return ErrWrongState
	}
	typeName := TypeNameOf(v)
	entry, ok := defaultTypes.lookup(typeName)
	if !ok {
		return a.fail(fmt.Errorf("%w: %s", ErrUnknownType, typeName))
	}

	var body strings.Builder
	if err := entry.encode(&body, v); err != nil {
		return a.fail(err)
	}

	if err := writeValueFrame(a.w, name, typeName, []byte(body.String())); err != nil {
		return a.fail(err)
	}
	return nil
}

// Read reads the next value frame and deserializes it via the registry
// entry matching its embedded type name, returning the frame's own name
// alongside the value so callers can route it.
func (a *Archive) Read() (name string, value interface{}, err error) {
	if a.state != Read {
		return "", nil, ErrWrongState
	}
	fr, err := readValueFrame(a.r)
	if err != nil {
		return "", nil, a.fail(err)
	}
	entry, ok := defaultTypes.lookup(fr.typeName)
	if !ok {
		return fr.name, nil, a.fail(fmt.Errorf("%w: %s", ErrUnknownType, fr.typeName))
	}
	v, err := entry.decode(strings.NewReader(string(fr.payload)), int64(len(fr.payload)))
	if err != nil {
		return fr.name, nil, a.fail(err)
	}
	return fr.name, v, nil
}
