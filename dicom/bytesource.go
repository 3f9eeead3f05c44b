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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Reads issued against the underlying reader of a stream source are between minReadSize and
// maxReadSize bytes. The buffer only grows by what the reader returns, so a declared length
// never decides how much memory is allocated.
const (
	minReadSize = 32 * 1024
	maxReadSize = 1024 * 1024
)

// ByteSource is a cursor over bytes that may not all be available yet.
//
// Bytes arrive either by being pushed with Write, for instance by a network layer, or by being
// pulled from an io.Reader on demand. Require is the only way to ask whether enough bytes are
// present. Every Get method panics when asked for more bytes than Require has guaranteed.
//
// A ByteSource is not safe for concurrent use.
type ByteSource struct {
	buf []byte
	pos int

	// base is the absolute stream position of buf[0]
	base int64

	// mark is -1 until Mark is called
	mark       int64
	milestones []int64
	order      binary.ByteOrder

	r        io.Reader
	finished bool
	err      error
}

// NewByteSource returns a source over data. No further bytes can be added.
func NewByteSource(data []byte, order binary.ByteOrder) *ByteSource {
	return &ByteSource{buf: data, order: order, mark: -1, finished: true}
}

// NewFeedByteSource returns an empty source. Bytes are added with Write and Finish signals that
// no more will come.
func NewFeedByteSource(order binary.ByteOrder) *ByteSource {
	return &ByteSource{order: order, mark: -1}
}

// NewStreamByteSource returns a source that reads from r whenever more bytes are required
func NewStreamByteSource(r io.Reader, order binary.ByteOrder) *ByteSource {
	return &ByteSource{r: r, order: order, mark: -1}
}

// Write appends p to the bytes available to the source. p is copied.
func (s *ByteSource) Write(p []byte) (int, error) {
	if s.finished {
		return 0, fmt.Errorf("writing to a finished byte source")
	}
	s.compact()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Finish marks the end of the input
func (s *ByteSource) Finish() {
	s.finished = true
}

// Err returns the error, other than io.EOF, returned by the underlying reader if any
func (s *ByteSource) Err() error {
	return s.err
}

// compact drops the bytes that can no longer be rewound to. The backing array is never
// overwritten so buffers handed out by GetBuffer stay valid.
func (s *ByteSource) compact() {
	keep := s.pos
	if m := int(s.mark - s.base); m >= 0 && m < keep {
		keep = m
	}
	if keep > 0 {
		s.buf = s.buf[keep:]
		s.pos -= keep
		s.base += int64(keep)
	}
}

// Available is the number of bytes that can be read without suspending
func (s *ByteSource) Available() int {
	return len(s.buf) - s.pos
}

// Require reports whether n bytes can be read right now. A stream source reads from its reader
// until n bytes are buffered or the reader is exhausted. A false return is a suspension point:
// the caller must stop and try again once more bytes may have arrived.
func (s *ByteSource) Require(n int) bool {
	if s.Available() >= n {
		return true
	}
	if s.r == nil || s.finished {
		return false
	}
	s.compact()
	var chunk []byte
	for s.Available() < n && !s.finished {
		size := n - s.Available()
		if size < minReadSize {
			size = minReadSize
		} else if size > maxReadSize {
			size = maxReadSize
		}
		if cap(chunk) < size {
			chunk = make([]byte, size)
		}
		m, err := s.r.Read(chunk[:size])
		s.buf = append(s.buf, chunk[:m]...)
		if err == io.EOF {
			s.finished = true
		} else if err != nil {
			s.err = err
			s.finished = true
		}
	}
	return s.Available() >= n
}

// Finished is true when no more bytes will ever be added to the source
func (s *ByteSource) Finished() bool {
	return s.finished
}

// Exhausted is true when every byte has been read and no more will arrive
func (s *ByteSource) Exhausted() bool {
	if s.Available() > 0 {
		return false
	}
	if !s.finished && s.r != nil {
		s.Require(1)
	}
	return s.finished && s.Available() == 0
}

// Position is the absolute offset of the next byte to be read
func (s *ByteSource) Position() int64 {
	return s.base + int64(s.pos)
}

// Mark records the current position for a later Rewind
func (s *ByteSource) Mark() {
	s.mark = s.Position()
}

// Rewind returns to the position recorded by the last call to Mark
func (s *ByteSource) Rewind() {
	p := int(s.mark - s.base)
	if p < 0 || p > len(s.buf) {
		panic(fmt.Sprintf("dicom: rewind to %d outside of the buffered region", s.mark))
	}
	s.pos = p
}

// PushMilestone starts a region of the next n bytes
func (s *ByteSource) PushMilestone(n uint32) {
	s.milestones = append(s.milestones, s.Position()+int64(n))
}

// PopMilestone ends the innermost region
func (s *ByteSource) PopMilestone() {
	if len(s.milestones) > 0 {
		s.milestones = s.milestones[:len(s.milestones)-1]
	}
}

// HasReachedMilestone is true when the innermost region has been read entirely
func (s *ByteSource) HasReachedMilestone() bool {
	if len(s.milestones) == 0 {
		return false
	}
	return s.Position() >= s.milestones[len(s.milestones)-1]
}

// MilestoneDepth is the number of active regions
func (s *ByteSource) MilestoneDepth() int {
	return len(s.milestones)
}

// Endian returns the byte order used by the multi-byte Get methods
func (s *ByteSource) Endian() binary.ByteOrder {
	return s.order
}

// SetEndian changes the byte order used by the multi-byte Get methods
func (s *ByteSource) SetEndian(order binary.ByteOrder) {
	s.order = order
}

func (s *ByteSource) take(n int) []byte {
	if n < 0 || s.Available() < n {
		panic(fmt.Sprintf("dicom: read of %d bytes with %d available", n, s.Available()))
	}
	b := s.buf[s.pos : s.pos+n : s.pos+n]
	s.pos += n
	return b
}

// GetUint8 reads a byte
func (s *ByteSource) GetUint8() uint8 {
	return s.take(1)[0]
}

// GetUint16 reads an unsigned 16 bit integer
func (s *ByteSource) GetUint16() uint16 {
	return s.order.Uint16(s.take(2))
}

// GetUint32 reads an unsigned 32 bit integer
func (s *ByteSource) GetUint32() uint32 {
	return s.order.Uint32(s.take(4))
}

// GetUint64 reads an unsigned 64 bit integer
func (s *ByteSource) GetUint64() uint64 {
	return s.order.Uint64(s.take(8))
}

// GetInt16 reads a signed 16 bit integer
func (s *ByteSource) GetInt16() int16 {
	return int16(s.GetUint16())
}

// GetInt32 reads a signed 32 bit integer
func (s *ByteSource) GetInt32() int32 {
	return int32(s.GetUint32())
}

// GetInt64 reads a signed 64 bit integer
func (s *ByteSource) GetInt64() int64 {
	return int64(s.GetUint64())
}

// GetFloat32 reads an IEEE 754 single precision value
func (s *ByteSource) GetFloat32() float32 {
	return math.Float32frombits(s.GetUint32())
}

// GetFloat64 reads an IEEE 754 double precision value
func (s *ByteSource) GetFloat64() float64 {
	return math.Float64frombits(s.GetUint64())
}

// GetBytes reads n bytes into a new slice
func (s *ByteSource) GetBytes(n int) []byte {
	return append([]byte(nil), s.take(n)...)
}

// GetBuffer returns the next n bytes without copying them. The slice aliases the source's memory
// and its capacity is capped so appending to it never overwrites later bytes.
func (s *ByteSource) GetBuffer(n int) []byte {
	return s.take(n)
}

// GetString reads n bytes as a string
func (s *ByteSource) GetString(n int) string {
	return string(s.take(n))
}

// Skip discards n bytes
func (s *ByteSource) Skip(n int) {
	s.take(n)
}

// Remainder returns a reader over every byte that has not been read yet, including the ones still
// held by the underlying reader of a stream source. The source is left exhausted.
func (s *ByteSource) Remainder() io.Reader {
	rest := bytes.NewReader(s.take(s.Available()))
	if s.r == nil || s.finished {
		return rest
	}
	s.finished = true
	return io.MultiReader(rest, s.r)
}
