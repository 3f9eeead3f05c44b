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
)

// Buffer holds the value field of an element.
//
// A Buffer is either resolved, in which case its bytes are in canonical little endian order, or
// pending, in which case its bytes are exactly as they were read from a stream together with the
// stream's byte order and the size of the units that must be swapped to resolve it. The reader
// never swaps bytes itself. Swapping happens at most once, when the bytes are needed in an order
// that differs from the one they are stored in.
type Buffer struct {
	data    []byte
	pending bool
	order   binary.ByteOrder
	unit    int
}

// NewBuffer returns a resolved buffer holding data, which must be in little endian order
func NewBuffer(data []byte) Buffer {
	return Buffer{data: data, order: binary.LittleEndian, unit: 1}
}

// NewPendingBuffer returns a buffer whose bytes are in the given order and are swapped in groups of
// unit bytes when resolved.
func NewPendingBuffer(data []byte, order binary.ByteOrder, unit int) Buffer {
	if unit < 1 {
		unit = 1
	}
	return Buffer{data: data, pending: true, order: order, unit: unit}
}

// IsPending is true if the byte order of the buffer has not been resolved yet
func (b Buffer) IsPending() bool {
	return b.pending
}

// Order is the byte order the bytes of the buffer are currently stored in
func (b Buffer) Order() binary.ByteOrder {
	if b.order == nil {
		return binary.LittleEndian
	}
	return b.order
}

// UnitSize is the swap unit of a pending buffer. Resolved buffers report 1.
func (b Buffer) UnitSize() int {
	if b.unit < 1 {
		return 1
	}
	return b.unit
}

// Data returns the bytes as stored, without any conversion
func (b Buffer) Data() []byte {
	return b.data
}

// Len is the number of bytes in the buffer
func (b Buffer) Len() int {
	return len(b.data)
}

// Resolved returns the buffer converted to little endian. The bytes are only copied when a swap is
// needed.
func (b Buffer) Resolved() Buffer {
	if !b.pending {
		return b
	}
	return NewBuffer(b.Encode(binary.LittleEndian, b.unit))
}

// Retag returns a pending buffer whose swap unit is replaced by unit. Resolved buffers are
// returned unchanged.
func (b Buffer) Retag(unit int) Buffer {
	if !b.pending {
		return b
	}
	return NewPendingBuffer(b.data, b.order, unit)
}

// Encode returns the bytes of the buffer in the requested order. Pending buffers swap with their
// own unit size, resolved buffers with the unit passed in, which is normally the unit size of the
// element's VR. No copy is made when the buffer is already in the requested order.
func (b Buffer) Encode(order binary.ByteOrder, unit int) []byte {
	if b.pending {
		unit = b.unit
	}
	if unit <= 1 || sameOrder(b.Order(), order) {
		return b.data
	}
	return swapBytes(b.data, unit)
}

func (b Buffer) String() string {
	if b.pending {
		return fmt.Sprintf("pending(%d bytes, %v, unit %d)", len(b.data), b.order, b.unit)
	}
	return fmt.Sprintf("%d bytes", len(b.data))
}

func sameOrder(a, b binary.ByteOrder) bool {
	return (a == binary.BigEndian) == (b == binary.BigEndian)
}

// swapBytes reverses every unit sized group of bytes of data into a new slice. A trailing partial
// unit is copied as is.
func swapBytes(data []byte, unit int) []byte {
	out := make([]byte, len(data))
	n := len(data) - len(data)%unit
	for i := 0; i < n; i += unit {
		for j := 0; j < unit; j++ {
			out[i+j] = data[i+unit-1-j]
		}
	}
	copy(out[n:], data[n:])
	return out
}
