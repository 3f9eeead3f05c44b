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

import "github.com/rs/zerolog"

// WriteOptions controls how lengths are encoded by a Writer and accounted for by a
// LengthCalculator
type WriteOptions struct {
	// ExplicitLengthSequences writes sequences with a defined length instead of a trailing
	// sequence delimitation item. Sequences with a private tag always get a defined length.
	ExplicitLengthSequences bool `json:"explicitLengthSequences"`

	// ExplicitLengthSequenceItems writes items with a defined length instead of a trailing item
	// delimitation item
	ExplicitLengthSequenceItems bool `json:"explicitLengthSequenceItems"`

	// KeepGroupLengths writes group length elements (gggg,0000). They are dropped otherwise.
	KeepGroupLengths bool `json:"keepGroupLengths"`

	// LargeObjectSize is the value size in bytes above which an element is considered bulk data.
	// It is advisory only and never changes the encoding.
	LargeObjectSize int `json:"largeObjectSize"`
}

// DefaultWriteOptions writes undefined length sequences and items and drops group lengths
var DefaultWriteOptions = WriteOptions{LargeObjectSize: 64 * 1024}

// WriterOption configures a Writer
type WriterOption struct {
	apply func(*Writer)
}

// ExplicitLengths ensures all sequences and sequence items are written with explicit length
var ExplicitLengths = WriterOption{func(w *Writer) {
	w.opts.ExplicitLengthSequences = true
	w.opts.ExplicitLengthSequenceItems = true
}}

// UndefinedLengths ensures all sequences and sequence items are written with undefined length,
// except private sequences which are always written with explicit length
var UndefinedLengths = WriterOption{func(w *Writer) {
	w.opts.ExplicitLengthSequences = false
	w.opts.ExplicitLengthSequenceItems = false
}}

// WithWriterLogger sets the logger of debug events. Writers are silent by default.
func WithWriterLogger(log zerolog.Logger) WriterOption {
	return WriterOption{func(w *Writer) { w.log = log }}
}
