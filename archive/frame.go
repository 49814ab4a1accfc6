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
	"encoding/binary"
	"fmt"
	"io"
)

// Frame size sentinels.
const (
	sizeStart int64 = -1
	sizeEnd   int64 = -2
)

func writeI64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readI64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func writeBytesField(w io.Writer, b []byte) error {
	if err := writeI64(w, int64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytesField(r io.Reader) ([]byte, error) {
	n, err := readI64(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative field length %d", ErrMalformed, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeStartTag writes: size=-1, [name-size][name], size=-1.
func writeStartTag(w io.Writer, name string) error {
	if err := writeI64(w, sizeStart); err != nil {
		return err
	}
	if err := writeBytesField(w, []byte(name)); err != nil {
		return err
	}
	return writeI64(w, sizeStart)
}

// readStartTag reads and validates a start tag, returning the name.
func readStartTag(r io.Reader) (string, error) {
	sz, err := readI64(r)
	if err != nil {
		return "", err
	}
	if sz != sizeStart {
		return "", fmt.Errorf("%w: expected start marker, got size=%d", ErrMalformed, sz)
	}
	name, err := readBytesField(r)
	if err != nil {
		return "", err
	}
	trailing, err := readI64(r)
	if err != nil {
		return "", err
	}
	if trailing != sizeStart {
		return "", fmt.Errorf("%w: unterminated start tag for %q", ErrMalformed, name)
	}
	return string(name), nil
}

// writeEndTag writes: size=-2.
func writeEndTag(w io.Writer) error {
	return writeI64(w, sizeEnd)
}

func readEndTag(r io.Reader) error {
	sz, err := readI64(r)
	if err != nil {
		return err
	}
	if sz != sizeEnd {
		return fmt.Errorf("%w: expected end marker, got size=%d", ErrMalformed, sz)
	}
	return nil
}

// valueFrame is a decoded value frame: its declared name, its payload's
// registered type name, and the opaque type-specific bytes.
type valueFrame struct {
	name     string
	typeName string
	payload  []byte
}

// writeValueFrame writes a size>=0 value frame: leading size (byte count
// of everything between the two size markers), [name-size][name],
// [type-name-size][type-name], payload, trailing size (same value) — the
// trailing copy is what makes the stream backward-scannable: a reader
// positioned at the end of the frame can read the 8 bytes immediately
// before it to learn how far back the frame started.
func writeValueFrame(w io.Writer, name, typeName string, payload []byte) error {
	body := 8 + len(name) + 8 + len(typeName) + len(payload)
	size := int64(body)

	if err := writeI64(w, size); err != nil {
		return err
	}
	if err := writeBytesField(w, []byte(name)); err != nil {
		return err
	}
	if err := writeBytesField(w, []byte(typeName)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return writeI64(w, size)
}

// readValueFrame reads a value frame in forward order.
func readValueFrame(r io.Reader) (valueFrame, error) {
	size, err := readI64(r)
	if err != nil {
		return valueFrame{}, err
	}
	if size < 0 {
		return valueFrame{}, fmt.Errorf("%w: expected value frame, got sentinel size=%d", ErrMalformed, size)
	}

	name, err := readBytesField(r)
	if err != nil {
		return valueFrame{}, err
	}
	typeName, err := readBytesField(r)
	if err != nil {
		return valueFrame{}, err
	}

	headerLen := 8 + len(name) + 8 + len(typeName)
	payloadLen := int(size) - headerLen
	if payloadLen < 0 {
		return valueFrame{}, fmt.Errorf("%w: negative payload length", ErrMalformed)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return valueFrame{}, err
	}

	trailing, err := readI64(r)
	if err != nil {
		return valueFrame{}, err
	}
	if trailing != size {
		return valueFrame{}, fmt.Errorf("%w: leading/trailing size mismatch (%d != %d)", ErrMalformed, size, trailing)
	}

	return valueFrame{name: string(name), typeName: string(typeName), payload: payload}, nil
}

// frameStartOffset computes, given the absolute offset of the byte right
// after a value frame's trailing size field and that trailing size, the
// absolute offset of the frame's leading size field — the arithmetic a
// backward scan performs at every step.
func frameStartOffset(endOffset, trailingSize int64) int64 {
	return endOffset - 8 - trailingSize - 8
}
