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
	"math"
)

func encodeString(w io.Writer, v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("archive: encodeString got %T", v)
	}
	_, err := io.WriteString(w, s)
	return err
}

func decodeString(r io.Reader, size int64) (interface{}, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return string(buf), nil
}

func encodeBytes(w io.Writer, v interface{}) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("archive: encodeBytes got %T", v)
	}
	_, err := w.Write(b)
	return err
}

func decodeBytes(r io.Reader, size int64) (interface{}, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeBool(w io.Writer, v interface{}) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("archive: encodeBool got %T", v)
	}
	var by byte
	if b {
		by = 1
	}
	_, err := w.Write([]byte{by})
	return err
}

func decodeBool(r io.Reader, size int64) (interface{}, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return buf[0] != 0, nil
}

func encodeInt64(w io.Writer, v interface{}) error {
	i, ok := v.(int64)
	if !ok {
		return fmt.Errorf("archive: encodeInt64 got %T", v)
	}
	return writeI64(w, i)
}

func decodeInt64(r io.Reader, size int64) (interface{}, error) {
	return readI64(r)
}

func encodeFloat64(w io.Writer, v interface{}) error {
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("archive: encodeFloat64 got %T", v)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	_, err := w.Write(buf[:])
	return err
}

func decodeFloat64(r io.Reader, size int64) (interface{}, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}
