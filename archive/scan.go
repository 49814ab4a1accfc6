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
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// BackwardScanner reads an archive file end-to-start without a forward
// pass, exploiting the value-frame grammar's trailing size field. It
// memory-maps the file read-only so random access to arbitrary offsets
// near the tail doesn't require buffering the whole stream, which matters
// for archives in the hundreds-of-megabytes range produced by long
// acquisition sessions.
type BackwardScanner struct {
	f    *os.File
	data mmap.MMap
}

// OpenBackwardScanner mmaps path for backward scanning.
func OpenBackwardScanner(path string) (*BackwardScanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &BackwardScanner{f: f, data: data}, nil
}

// Close unmaps and closes the underlying file.
func (s *BackwardScanner) Close() error {
	if err := s.data.Unmap(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// Len returns the archive's total byte length.
func (s *BackwardScanner) Len() int64 { return int64(len(s.data)) }

// PreviousFrame reads the value frame ending at byte offset end (on the
// first call, the end of the last value frame: Len()-8 when the archive
// closes with an end tag; then the value returned by the previous call),
// and returns the frame alongside the offset of its leading size field —
// pass that back in as end to continue scanning toward the start of the
// file. It returns (valueFrame{}, 0, errEOFScan) once end reaches 0, and
// an ErrMalformed error when the 8 bytes before end are not a value
// frame's trailing size (for example a start or end tag).
func (s *BackwardScanner) PreviousFrame(end int64) (valueFrame, int64, error) {
	if end <= 0 {
		return valueFrame{}, 0, errEOFScan
	}
	if end < 8 {
		return valueFrame{}, 0, fmt.Errorf("%w: truncated archive near offset %d", ErrMalformed, end)
	}

	trailing := int64(binary.LittleEndian.Uint64(s.data[end-8 : end]))
	if trailing < 0 {
		return valueFrame{}, 0, fmt.Errorf("%w: expected value frame trailing size at %d", ErrMalformed, end-8)
	}

	start := frameStartOffset(end, trailing)
	if start < 0 || start >= end {
		return valueFrame{}, 0, fmt.Errorf("%w: computed frame start %d out of range ending at %d", ErrMalformed, start, end)
	}

	r := bytes.NewReader(s.data[start:end])
	fr, err := readValueFrame(r)
	if err != nil {
		return valueFrame{}, 0, err
	}

	return fr, start, nil
}

var errEOFScan = fmt.Errorf("archive: backward scan reached start of file")
