// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the input ends inside an element, a sequence, an item or a
	// fragment sequence
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrLengthOverflow is returned when an encoded length does not fit a 32 bit length field
	ErrLengthOverflow = errors.New("encoded length overflows 32 bits")

	// ErrUnsupportedVR is returned when a value cannot be materialized for its VR
	ErrUnsupportedVR = errors.New("unsupported VR")

	// ErrNotDICOM is returned when a file carries neither the DICM signature nor a recognizable
	// data set
	ErrNotDICOM = errors.New("not a DICOM stream")
)

// StructuralError reports a tag found where only an item or a delimitation sentinel is legal
type StructuralError struct {
	Tag Tag

	// Context names the structure being parsed, for instance "sequence" or "fragment sequence"
	Context string

	// Offset is the position of the offending tag in the stream
	Offset int64
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("unexpected tag %v at offset %d in %s", e.Tag, e.Offset, e.Context)
}

// FormatError reports a data set that cannot be encoded
type FormatError struct {
	Tag Tag
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("encoding %v: %v", e.Tag, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
