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
	"testing"

	"github.com/dchest/siphash"
	"github.com/maxatome/go-testdeep/td"
)

func TestDefaultBulkDataDefinition(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		want bool
	}{
		{"pixel data", PixelDataTag, true},
		{"float pixel data", FloatPixelDataTag, true},
		{"curve data in a repeating group", NewTag(0x501E, 0x3000), true},
		{"overlay data in a repeating group", NewTag(0x6002, 0x3000), true},
		{"audio sample data", NewTag(0x5000, 0x200C), true},
		{"waveform data", WaveformDataTag, true},
		{"encapsulated document", EncapsulatedDocumentTag, true},
		{"patient name", NewTag(0x0010, 0x0010), false},
		{"overlay rows", NewTag(0x6000, 0x0010), false},
		{"item", ItemTag, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			td.Cmp(t, DefaultBulkDataDefinition(tc.tag), tc.want)
		})
	}
}

func TestIndexObserver(t *testing.T) {
	const k0, k1 = 0x0706050403020100, 0x0F0E0D0C0B0A0908
	data := concat(sopClassLE, undefinedSequenceLE, patientNameLE, pixelDataFragmentsLE)

	index := NewIndexObserver(k0, k1)
	if res, err := NewReader(index).Read(NewByteSource(data, binary.LittleEndian)); res != Success {
		t.Fatalf("Read() = %v, %v; want Success", res, err)
	}

	td.Cmp(t, index.References(), []BulkDataReference{
		{
			Tag:    SOPClassUIDTag,
			VR:     UIVR,
			Value:  ByteRegion{Offset: 8, Length: 2},
			Digest: siphash.Hash(k0, k1, []byte{'1', 0x00}),
		},
		{
			Tag:   NewTag(0x0008, 0x1115),
			VR:    SQVR,
			Value: ByteRegion{Offset: 22},
		},
		{
			Tag:    NewTag(0x0010, 0x0010),
			VR:     PNVR,
			Value:  ByteRegion{Offset: 64, Length: 4},
			Digest: siphash.Hash(k0, k1, []byte("Doe^")),
		},
		{
			Tag:   PixelDataTag,
			VR:    OBVR,
			Value: ByteRegion{Offset: 80},
			Fragments: []ByteRegion{
				{Offset: 88, Length: 0},
				{Offset: 96, Length: 4},
			},
		},
	})

	ref, ok := index.Lookup(NewTag(0x0010, 0x0010))
	if !ok {
		t.Fatalf("Lookup(PatientName) found nothing")
	}
	b, err := io.ReadAll(ref.Value.Reader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("reading region: %v", err)
	}
	td.Cmp(t, b, []byte("Doe^"))

	pixels, _ := index.Lookup(PixelDataTag)
	b, err = io.ReadAll(pixels.Fragments[1].Reader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("reading fragment: %v", err)
	}
	td.Cmp(t, b, []byte{0x01, 0x02, 0x03, 0x04})

	_, ok = index.Lookup(NewTag(0x0008, 0x1150))
	td.CmpFalse(t, ok, "nested elements are not indexed")
}

func TestIndexObserver_Chunked(t *testing.T) {
	data := concat(sopClassLE, undefinedSequenceLE, patientNameLE, pixelDataFragmentsLE)

	whole := NewIndexObserver(1, 2)
	if res, err := NewReader(whole).Read(NewByteSource(data, binary.LittleEndian)); res != Success {
		t.Fatalf("Read() = %v, %v; want Success", res, err)
	}

	chunked := NewIndexObserver(1, 2)
	r := NewReader(chunked)
	src := NewFeedByteSource(binary.LittleEndian)
	for i := 0; i < len(data); i += 5 {
		end := i + 5
		if end > len(data) {
			end = len(data)
		}
		if _, err := src.Write(data[i:end]); err != nil {
			t.Fatalf("Write() returned unexpected error: %v", err)
		}
		if res, err := r.Read(src); res != Suspended && res != Success {
			t.Fatalf("Read() = %v, %v", res, err)
		}
	}
	src.Finish()
	if res, err := r.Read(src); res != Success {
		t.Fatalf("Read() = %v, %v; want Success", res, err)
	}
	td.Cmp(t, chunked.References(), whole.References())
}
