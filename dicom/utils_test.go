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
	"testing"
)

// recorder is an Observer that keeps a textual trace of the events it receives
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...interface{}) error {
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) OnElement(_ *ByteSource, tag Tag, vr VR, value Buffer) error {
	return r.add("element %v %v % x", tag, vr, value.Encode(binary.LittleEndian, vr.UnitSize()))
}

func (r *recorder) OnBeginSequence(_ *ByteSource, tag Tag, length uint32) error {
	return r.add("begin sequence %v %d", tag, length)
}

func (r *recorder) OnBeginSequenceItem(_ *ByteSource, length uint32) error {
	return r.add("begin item %d", length)
}

func (r *recorder) OnEndSequenceItem() error {
	return r.add("end item")
}

func (r *recorder) OnEndSequence() error {
	return r.add("end sequence")
}

func (r *recorder) OnBeginFragmentSequence(_ *ByteSource, tag Tag, vr VR) error {
	return r.add("begin fragments %v %v", tag, vr)
}

func (r *recorder) OnFragmentSequenceItem(_ *ByteSource, value Buffer) error {
	return r.add("fragment % x", value.Data())
}

func (r *recorder) OnEndFragmentSequence() error {
	return r.add("end fragments")
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// Explicit VR little endian fixtures
var (
	// (0008,0016) UI "1"
	sopClassLE = []byte{
		0x08, 0x00, 0x16, 0x00, // tag
		'U', 'I', // VR
		0x02, 0x00, // length
		'1', 0x00, // value
	}
	// (0010,0010) PN "Doe^"
	patientNameLE = []byte{
		0x10, 0x00, 0x10, 0x00, // tag
		'P', 'N', // VR
		0x04, 0x00, // length
		'D', 'o', 'e', '^', // value
	}
	// (0010,0020) LO "42"
	patientIDLE = []byte{
		0x10, 0x00, 0x20, 0x00, // tag
		'L', 'O', // VR
		0x02, 0x00, // length
		'4', '2', // value
	}
	// (0008,1150) UI "1"
	referencedClassLE = []byte{
		0x08, 0x00, 0x50, 0x11, // tag
		'U', 'I', // VR
		0x02, 0x00, // length
		'1', 0x00, // value
	}
	undefinedSequenceHeaderLE = []byte{
		0x08, 0x00, 0x15, 0x11, // (0008,1115)
		'S', 'Q', // VR
		0x00, 0x00, // reserved
		0xFF, 0xFF, 0xFF, 0xFF, // undefined length
	}
	undefinedItemLE = []byte{
		0xFE, 0xFF, 0x00, 0xE0, // item
		0xFF, 0xFF, 0xFF, 0xFF, // undefined length
	}
	itemDelimitationLE = []byte{
		0xFE, 0xFF, 0x0D, 0xE0, // item delimitation
		0x00, 0x00, 0x00, 0x00, // length
	}
	sequenceDelimitationLE = []byte{
		0xFE, 0xFF, 0xDD, 0xE0, // sequence delimitation
		0x00, 0x00, 0x00, 0x00, // length
	}

	// (0008,1115) SQ with one item holding (0008,1150), delimited
	undefinedSequenceLE = concat(
		undefinedSequenceHeaderLE,
		undefinedItemLE,
		referencedClassLE,
		itemDelimitationLE,
		sequenceDelimitationLE,
	)

	// the same sequence with defined lengths
	definiteSequenceLE = concat(
		[]byte{
			0x08, 0x00, 0x15, 0x11, // (0008,1115)
			'S', 'Q', // VR
			0x00, 0x00, // reserved
			0x12, 0x00, 0x00, 0x00, // length 18
			0xFE, 0xFF, 0x00, 0xE0, // item
			0x0A, 0x00, 0x00, 0x00, // length 10
		},
		referencedClassLE,
	)

	// (7FE0,0010) OB with an empty offset table and one fragment
	pixelDataFragmentsLE = []byte{
		0xE0, 0x7F, 0x10, 0x00, // tag
		'O', 'B', // VR
		0x00, 0x00, // reserved
		0xFF, 0xFF, 0xFF, 0xFF, // undefined length
		0xFE, 0xFF, 0x00, 0xE0, // item
		0x00, 0x00, 0x00, 0x00, // empty offset table
		0xFE, 0xFF, 0x00, 0xE0, // item
		0x04, 0x00, 0x00, 0x00, // length
		0x01, 0x02, 0x03, 0x04, // fragment
		0xFE, 0xFF, 0xDD, 0xE0, // sequence delimitation
		0x00, 0x00, 0x00, 0x00, // length
	}
)

// sequenceItem returns the item holding (0008,1150) "1"
func sequenceItem() *DataSet {
	return NewDataSet(NewElement(NewTag(0x0008, 0x1150), UIVR, []byte{'1', 0x00}))
}

// readAll parses data in one go and returns the data set built from it
func readAll(t *testing.T, data []byte, opts ...ReaderOption) *DataSet {
	t.Helper()
	builder := NewDataSetBuilder(nil)
	res, err := NewReader(builder, opts...).Read(NewByteSource(data, binary.LittleEndian))
	if err != nil || res != Success {
		t.Fatalf("Read() = %v, %v; want Success", res, err)
	}
	return builder.DataSet()
}
