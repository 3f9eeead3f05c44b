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
	"io"

	"github.com/dchest/siphash"
)

// Tags of the data elements that hold bulk data. Repeating groups are given with their low byte
// set to zero, for instance CurveDataTag is (5000,3000) for (50xx,3000).
var (
	PixelDataProviderURLTag = NewTag(0x0028, 0x7FE0)
	AudioSampleDataTag      = NewTag(0x5000, 0x200C)
	CurveDataTag            = NewTag(0x5000, 0x3000)
	SpectroscopyDataTag     = NewTag(0x5600, 0x0020)
	OverlayDataTag          = NewTag(0x6000, 0x3000)
	EncapsulatedDocumentTag = NewTag(0x0042, 0x0011)
	FloatPixelDataTag       = NewTag(0x7FE0, 0x0008)
	DoubleFloatPixelDataTag = NewTag(0x7FE0, 0x0009)
	WaveformDataTag         = NewTag(0x5400, 0x1010)
)

var bulkDataTags = []Tag{
	PixelDataProviderURLTag, AudioSampleDataTag, CurveDataTag, SpectroscopyDataTag,
	OverlayDataTag, EncapsulatedDocumentTag, FloatPixelDataTag, DoubleFloatPixelDataTag,
	PixelDataTag, WaveformDataTag,
}

// DefaultBulkDataDefinition returns true if and only if the tag corresponds to a data element
// that contains large non-metadata fields
func DefaultBulkDataDefinition(tag Tag) bool {
	// Tags in the DICOM data dictionary have wildcards (e.g. tags like (gggg,eexx), (ggxx,eeee)).
	// The tags above are stored with the x's set to '0' in hex, so a tag of the form (50xx,3000)
	// matches CurveDataTag once masked with 0xFF00FFFF.
	//
	// The following list of masks handles all wildcards in the DICOM data dictionary. The value
	// 0xFFFFFFFF is included in the list of masks for convenience since
	// (tag & 0xFFFFFFFF) == tag
	for _, m := range []uint32{0xFFFFFF00, 0xFFFFFF0F, 0xFFFF000F, 0xFFFF0000, 0xFF00FFFF, 0xFFFFFFFF} {
		for _, bulk := range bulkDataTags {
			if tag.Uint32()&m == bulk.Uint32() {
				return true
			}
		}
	}
	return false
}

// ByteRegion is a contiguous sequence of bytes in a stream described by an Offset and a length
type ByteRegion struct {
	Offset int64
	Length int64
}

// Reader returns the bytes of the region within r
func (br ByteRegion) Reader(r io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(r, br.Offset, br.Length)
}

// BulkDataReference locates the value of a top level node in a stream
type BulkDataReference struct {
	Tag Tag
	VR  VR

	// Value is the value field of an element. It is empty for sequences and fragment sequences.
	Value ByteRegion

	// Fragments holds one region per item of a fragment sequence, basic offset table included
	Fragments []ByteRegion

	// Digest is the SipHash-2-4 of the value field as it appears in the stream. It is zero for
	// sequences and fragment sequences.
	Digest uint64
}

// IndexObserver records where every top level node of a stream is, so bulk data can later be read
// straight from the stream and values compared without parsing again
type IndexObserver struct {
	nopObserver
	k0, k1 uint64
	depth  int
	refs   []BulkDataReference
}

// NewIndexObserver returns an index whose digests use the SipHash key (k0, k1)
func NewIndexObserver(k0, k1 uint64) *IndexObserver {
	return &IndexObserver{k0: k0, k1: k1}
}

// References returns the index in stream order
func (x *IndexObserver) References() []BulkDataReference {
	return x.refs
}

// Lookup returns the reference of the top level node tag
func (x *IndexObserver) Lookup(tag Tag) (BulkDataReference, bool) {
	for _, ref := range x.refs {
		if ref.Tag.Equal(tag) {
			return ref, true
		}
	}
	return BulkDataReference{}, false
}

// valueRegion is the region of a value that was just read from src
func valueRegion(src *ByteSource, value Buffer) ByteRegion {
	return ByteRegion{Offset: src.Position() - int64(value.Len()), Length: int64(value.Len())}
}

// OnElement implements Observer
func (x *IndexObserver) OnElement(src *ByteSource, tag Tag, vr VR, value Buffer) error {
	if x.depth > 0 {
		return nil
	}
	x.refs = append(x.refs, BulkDataReference{
		Tag:    tag,
		VR:     vr,
		Value:  valueRegion(src, value),
		Digest: siphash.Hash(x.k0, x.k1, value.Data()),
	})
	return nil
}

// OnBeginSequence implements Observer
func (x *IndexObserver) OnBeginSequence(src *ByteSource, tag Tag, _ uint32) error {
	if x.depth == 0 {
		x.refs = append(x.refs, BulkDataReference{Tag: tag, VR: SQVR, Value: ByteRegion{Offset: src.Position()}})
	}
	x.depth++
	return nil
}

// OnEndSequence implements Observer
func (x *IndexObserver) OnEndSequence() error {
	x.depth--
	return nil
}

// OnBeginFragmentSequence implements Observer
func (x *IndexObserver) OnBeginFragmentSequence(src *ByteSource, tag Tag, vr VR) error {
	if x.depth == 0 {
		x.refs = append(x.refs, BulkDataReference{Tag: tag, VR: vr, Value: ByteRegion{Offset: src.Position()}})
	}
	x.depth++
	return nil
}

// OnFragmentSequenceItem implements Observer
func (x *IndexObserver) OnFragmentSequenceItem(src *ByteSource, value Buffer) error {
	if x.depth == 1 {
		ref := &x.refs[len(x.refs)-1]
		ref.Fragments = append(ref.Fragments, valueRegion(src, value))
	}
	return nil
}

// OnEndFragmentSequence implements Observer
func (x *IndexObserver) OnEndFragmentSequence() error {
	x.depth--
	return nil
}
