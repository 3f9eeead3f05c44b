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
	"io"
	"io/ioutil"
	"reflect"
	"runtime"
	"testing"
	"testing/iotest"
)

func TestByteSource_Primitives(t *testing.T) {
	data := []byte{
		0x01,       // uint8
		0x02, 0x01, // uint16 0x0102
		0x04, 0x03, 0x02, 0x01, // uint32 0x01020304
		0xFE, 0xFF, // int16 -2
		0x00, 0x00, 0x80, 0x3F, // float32 1
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F, // float64 1
		'D', 'I', 'C', 'M',
	}
	src := NewByteSource(data, binary.LittleEndian)

	if got := src.GetUint8(); got != 0x01 {
		t.Errorf("GetUint8() = %#x", got)
	}
	if got := src.GetUint16(); got != 0x0102 {
		t.Errorf("GetUint16() = %#x", got)
	}
	if got := src.GetUint32(); got != 0x01020304 {
		t.Errorf("GetUint32() = %#x", got)
	}
	if got := src.GetInt16(); got != -2 {
		t.Errorf("GetInt16() = %v", got)
	}
	if got := src.GetFloat32(); got != 1 {
		t.Errorf("GetFloat32() = %v", got)
	}
	if got := src.GetFloat64(); got != 1 {
		t.Errorf("GetFloat64() = %v", got)
	}
	if got := src.GetString(4); got != "DICM" {
		t.Errorf("GetString() = %q", got)
	}
	if !src.Exhausted() {
		t.Errorf("expected the source to be exhausted")
	}
	if got := src.Position(); got != int64(len(data)) {
		t.Errorf("Position() = %v, want %v", got, len(data))
	}
}

func TestByteSource_BigEndian(t *testing.T) {
	src := NewByteSource([]byte{0x01, 0x02, 0x01, 0x02}, binary.BigEndian)
	if got := src.GetUint16(); got != 0x0102 {
		t.Fatalf("got %#x, want 0x0102", got)
	}
	src.SetEndian(binary.LittleEndian)
	if got := src.GetUint16(); got != 0x0201 {
		t.Fatalf("got %#x, want 0x0201", got)
	}
}

func TestByteSource_Feed(t *testing.T) {
	src := NewFeedByteSource(binary.LittleEndian)
	if src.Require(2) {
		t.Fatalf("expected an empty source to be short")
	}
	if src.Exhausted() {
		t.Fatalf("expected an unfinished source not to be exhausted")
	}
	src.Write([]byte{0x01})
	if src.Require(2) {
		t.Fatalf("expected 1 byte not to satisfy 2")
	}
	src.Write([]byte{0x00, 0xFF})
	if !src.Require(2) {
		t.Fatalf("expected 3 bytes to satisfy 2")
	}
	if got := src.GetUint16(); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
	src.Finish()
	if src.Require(2) {
		t.Fatalf("expected a finished source with 1 byte to be short")
	}
	if _, err := src.Write([]byte{0x00}); err == nil {
		t.Fatalf("expected writing to a finished source to fail")
	}
}

func TestByteSource_BuffersSurviveCompaction(t *testing.T) {
	src := NewFeedByteSource(binary.LittleEndian)
	src.Write([]byte{0x01, 0x02, 0x03, 0x04})
	buf := src.GetBuffer(2)
	if cap(buf) != 2 {
		t.Fatalf("got capacity %v, want 2", cap(buf))
	}
	src.Skip(2)
	src.Write([]byte{0x05, 0x06})
	if !reflect.DeepEqual(buf, []byte{0x01, 0x02}) {
		t.Fatalf("aliased buffer changed to %v", buf)
	}
	if got := src.GetBytes(2); !reflect.DeepEqual(got, []byte{0x05, 0x06}) {
		t.Fatalf("got %v", got)
	}
	if got := src.Position(); got != 6 {
		t.Fatalf("got position %v, want 6", got)
	}
}

func TestByteSource_MarkRewind(t *testing.T) {
	src := NewFeedByteSource(binary.LittleEndian)
	src.Write([]byte{0x01, 0x00, 0x02, 0x00})
	src.Skip(2)
	src.Mark()
	if got := src.GetUint16(); got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
	// the marked bytes must be kept when more input arrives
	src.Write([]byte{0x03, 0x00})
	src.Rewind()
	if got := src.Position(); got != 2 {
		t.Fatalf("got position %v, want 2", got)
	}
	if got := src.GetUint16(); got != 2 {
		t.Fatalf("got %v after rewind, want 2", got)
	}
}

func TestByteSource_Milestones(t *testing.T) {
	src := NewByteSource(make([]byte, 16), binary.LittleEndian)
	if src.HasReachedMilestone() {
		t.Fatalf("expected no milestone to be reached without milestones")
	}
	src.PushMilestone(8)
	src.Skip(2)
	src.PushMilestone(4)
	if got := src.MilestoneDepth(); got != 2 {
		t.Fatalf("got depth %v, want 2", got)
	}
	src.Skip(3)
	if src.HasReachedMilestone() {
		t.Fatalf("milestone reached 1 byte early")
	}
	src.Skip(1)
	if !src.HasReachedMilestone() {
		t.Fatalf("expected the inner milestone to be reached")
	}
	src.PopMilestone()
	if src.HasReachedMilestone() {
		t.Fatalf("expected the outer milestone not to be reached at 6")
	}
	src.Skip(2)
	if !src.HasReachedMilestone() {
		t.Fatalf("expected the outer milestone to be reached at 8")
	}
}

func TestByteSource_ReadPastEndPanics(t *testing.T) {
	src := NewByteSource([]byte{0x01}, binary.LittleEndian)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	src.GetUint16()
}

func TestByteSource_Stream(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00}
	src := NewStreamByteSource(iotest.OneByteReader(bytes.NewReader(data)), binary.LittleEndian)
	if !src.Require(4) {
		t.Fatalf("expected the reader to provide 4 bytes")
	}
	if got := src.GetUint32(); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
	if src.Require(4) {
		t.Fatalf("expected only 2 bytes to remain")
	}
	if !src.Finished() {
		t.Fatalf("expected the source to be finished once the reader is exhausted")
	}
	if got := src.GetUint16(); got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
	if !src.Exhausted() {
		t.Fatalf("expected the source to be exhausted")
	}
}

func TestByteSource_StreamError(t *testing.T) {
	src := NewStreamByteSource(iotest.ErrReader(io.ErrClosedPipe), binary.LittleEndian)
	if src.Require(1) {
		t.Fatalf("expected a failing reader to be short")
	}
	if src.Err() != io.ErrClosedPipe {
		t.Fatalf("got error %v, want %v", src.Err(), io.ErrClosedPipe)
	}
}

func TestByteSource_Remainder(t *testing.T) {
	src := NewStreamByteSource(bytes.NewReader([]byte("headtail")), binary.LittleEndian)
	src.Require(4)
	src.Skip(4)
	got, err := ioutil.ReadAll(src.Remainder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "tail" {
		t.Fatalf("got %q, want %q", got, "tail")
	}
}

func TestByteSource_StreamDeclaredLengthBoundsAllocation(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"256 MiB", 256 << 20},
		{"largest definite length", 0xFFFFFFFE},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := NewStreamByteSource(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}), binary.LittleEndian)

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			ok := src.Require(tc.n)
			runtime.ReadMemStats(&after)

			if ok {
				t.Fatalf("Require(%d) = true on a 4 byte input", tc.n)
			}
			if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 4*maxReadSize {
				t.Errorf("Require(%d) allocated %d bytes for a 4 byte input", tc.n, allocated)
			}
			if got := src.Available(); got != 4 {
				t.Errorf("got %d bytes available, want 4", got)
			}
		})
	}
}

func TestByteSource_StreamLargeValue(t *testing.T) {
	data := make([]byte, 3*maxReadSize+5)
	for i := range data {
		data[i] = byte(i)
	}
	src := NewStreamByteSource(iotest.HalfReader(bytes.NewReader(data)), binary.LittleEndian)
	if !src.Require(len(data)) {
		t.Fatalf("Require(%d) = false, want true", len(data))
	}
	if got := src.GetBuffer(len(data)); !bytes.Equal(got, data) {
		t.Fatalf("read bytes differ from the input")
	}
	if !src.Exhausted() {
		t.Errorf("expected the source to be exhausted")
	}
}
