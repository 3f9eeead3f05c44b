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
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ByteTarget writes primitives to an io.Writer in a settable byte order
type ByteTarget struct {
	w       io.Writer
	order   binary.ByteOrder
	written int64
	scratch [8]byte
}

// NewByteTarget returns a target writing to w
func NewByteTarget(w io.Writer, order binary.ByteOrder) *ByteTarget {
	return &ByteTarget{w: w, order: order}
}

// Endian returns the byte order of multi-byte writes
func (t *ByteTarget) Endian() binary.ByteOrder {
	return t.order
}

// SetEndian changes the byte order of multi-byte writes
func (t *ByteTarget) SetEndian(order binary.ByteOrder) {
	t.order = order
}

// Written is the number of bytes written so far
func (t *ByteTarget) Written() int64 {
	return t.written
}

// WriteBytes writes b as is
func (t *ByteTarget) WriteBytes(b []byte) error {
	n, err := t.w.Write(b)
	t.written += int64(n)
	return err
}

// WriteString writes the bytes of s
func (t *ByteTarget) WriteString(s string) error {
	return t.WriteBytes([]byte(s))
}

// WriteUint8 writes a byte
func (t *ByteTarget) WriteUint8(v uint8) error {
	t.scratch[0] = v
	return t.WriteBytes(t.scratch[:1])
}

// WriteUint16 writes an unsigned 16 bit integer
func (t *ByteTarget) WriteUint16(v uint16) error {
	t.order.PutUint16(t.scratch[:2], v)
	return t.WriteBytes(t.scratch[:2])
}

// WriteUint32 writes an unsigned 32 bit integer
func (t *ByteTarget) WriteUint32(v uint32) error {
	t.order.PutUint32(t.scratch[:4], v)
	return t.WriteBytes(t.scratch[:4])
}

// WriteUint64 writes an unsigned 64 bit integer
func (t *ByteTarget) WriteUint64(v uint64) error {
	t.order.PutUint64(t.scratch[:8], v)
	return t.WriteBytes(t.scratch[:8])
}

// WriteInt16 writes a signed 16 bit integer
func (t *ByteTarget) WriteInt16(v int16) error {
	return t.WriteUint16(uint16(v))
}

// WriteInt32 writes a signed 32 bit integer
func (t *ByteTarget) WriteInt32(v int32) error {
	return t.WriteUint32(uint32(v))
}

// WriteInt64 writes a signed 64 bit integer
func (t *ByteTarget) WriteInt64(v int64) error {
	return t.WriteUint64(uint64(v))
}

// WriteFloat32 writes an IEEE 754 single precision value
func (t *ByteTarget) WriteFloat32(v float32) error {
	return t.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an IEEE 754 double precision value
func (t *ByteTarget) WriteFloat64(v float64) error {
	return t.WriteUint64(math.Float64bits(v))
}

// WriteTag writes the group and element numbers of tag
func (t *ByteTarget) WriteTag(tag Tag) error {
	if err := t.WriteUint16(tag.Group); err != nil {
		return err
	}
	return t.WriteUint16(tag.Element)
}

// WriteDelimiter writes one of the delimitation sentinels with its zero length
func (t *ByteTarget) WriteDelimiter(tag Tag) error {
	if err := t.WriteTag(tag); err != nil {
		return fmt.Errorf("writing delimiter tag: %v", err)
	}
	if err := t.WriteUint32(0); err != nil {
		return fmt.Errorf("writing item length of delimiter: %v", err)
	}
	return nil
}
