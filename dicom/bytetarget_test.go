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
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func TestByteTarget_Primitives(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		want  []byte
	}{
		{
			"little endian",
			binary.LittleEndian,
			[]byte{
				0x01,
				0x02, 0x01,
				0x04, 0x03, 0x02, 0x01,
				0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
				0xFE, 0xFF,
				0x00, 0x00, 0x80, 0x3F,
				'h', 'i',
			},
		},
		{
			"big endian",
			binary.BigEndian,
			[]byte{
				0x01,
				0x01, 0x02,
				0x01, 0x02, 0x03, 0x04,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
				0xFF, 0xFE,
				0x3F, 0x80, 0x00, 0x00,
				'h', 'i',
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			target := NewByteTarget(&buf, tc.order)
			for _, write := range []func() error{
				func() error { return target.WriteUint8(0x01) },
				func() error { return target.WriteUint16(0x0102) },
				func() error { return target.WriteUint32(0x01020304) },
				func() error { return target.WriteUint64(0x0102030405060708) },
				func() error { return target.WriteInt16(-2) },
				func() error { return target.WriteFloat32(1) },
				func() error { return target.WriteString("hi") },
			} {
				if err := write(); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			td.Cmp(t, buf.Bytes(), tc.want)
			td.Cmp(t, target.Written(), int64(len(tc.want)))
		})
	}
}

func TestByteTarget_SetEndian(t *testing.T) {
	var buf bytes.Buffer
	target := NewByteTarget(&buf, binary.LittleEndian)
	if err := target.WriteFloat64(math.Inf(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target.SetEndian(binary.BigEndian)
	td.Cmp(t, target.Endian(), binary.BigEndian)
	if err := target.WriteInt32(-1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := target.WriteInt64(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td.Cmp(t, buf.Bytes(), []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x7F,
		0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	})
}

func TestByteTarget_WriteDelimiter(t *testing.T) {
	var buf bytes.Buffer
	target := NewByteTarget(&buf, binary.LittleEndian)
	if err := target.WriteDelimiter(ItemDelimitationItemTag); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := target.WriteDelimiter(SequenceDelimitationItemTag); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td.Cmp(t, buf.Bytes(), concat(itemDelimitationLE, sequenceDelimitationLE))
}

func TestByteTarget_Error(t *testing.T) {
	target := NewByteTarget(failingWriter{}, binary.LittleEndian)
	if err := target.WriteTag(ItemTag); err == nil {
		t.Errorf("WriteTag: expected an error")
	}
	if err := target.WriteDelimiter(ItemDelimitationItemTag); err == nil {
		t.Errorf("WriteDelimiter: expected an error")
	}
	td.Cmp(t, target.Written(), int64(0))
}
