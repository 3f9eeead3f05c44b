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
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func tagsOf(nodes []Node) []Tag {
	tags := make([]Tag, len(nodes))
	for i, n := range nodes {
		tags[i] = n.NodeTag()
	}
	return tags
}

func TestDataSet_AddKeepsTagOrder(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(NewTag(0x0010, 0x0020), LOVR, "42"),
		NewStringElement(NewTag(0x0008, 0x0016), UIVR, "1"),
		NewUint16Element(NewTag(0x0028, 0x0010), 512),
		NewStringElement(NewTag(0x0010, 0x0010), PNVR, "Doe^John"),
	)
	td.Cmp(t, tagsOf(ds.Nodes()), []Tag{
		NewTag(0x0008, 0x0016),
		NewTag(0x0010, 0x0010),
		NewTag(0x0010, 0x0020),
		NewTag(0x0028, 0x0010),
	})

	ds.Add(NewStringElement(NewTag(0x0010, 0x0010), PNVR, "Roe^Jane"))
	td.Cmp(t, ds.Len(), 4)
	e, ok := ds.Element(NewTag(0x0010, 0x0010))
	if !ok {
		t.Fatalf("missing replaced element")
	}
	td.Cmp(t, e.Text(nil), "Roe^Jane")
}

func TestDataSet_Remove(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(NewTag(0x0008, 0x0016), UIVR, "1"),
		NewStringElement(NewTag(0x0010, 0x0010), PNVR, "Doe^John"),
	)
	td.CmpTrue(t, ds.Remove(NewTag(0x0008, 0x0016)))
	td.CmpFalse(t, ds.Remove(NewTag(0x0008, 0x0016)))
	td.Cmp(t, tagsOf(ds.Nodes()), []Tag{NewTag(0x0010, 0x0010)})
}

func TestDataSet_Lookups(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(NewTag(0x0008, 0x0016), UIVR, "1"),
		NewSequence(NewTag(0x0008, 0x1115), sequenceItem()),
	)

	_, ok := ds.Element(NewTag(0x0008, 0x1115))
	td.CmpFalse(t, ok, "a sequence is not an element")
	_, ok = ds.Sequence(NewTag(0x0008, 0x0016))
	td.CmpFalse(t, ok, "an element is not a sequence")
	_, ok = ds.Get(NewTag(0x0010, 0x0010))
	td.CmpFalse(t, ok)

	seq, ok := ds.Sequence(NewTag(0x0008, 0x1115))
	td.CmpTrue(t, ok)
	td.Cmp(t, len(seq.Items), 1)
}

func TestDataSet_Groups(t *testing.T) {
	ds := NewDataSet(
		NewUint32Element(NewTag(0x0008, 0x0000), 10),
		NewStringElement(NewTag(0x0008, 0x0016), UIVR, "1"),
		NewStringElement(NewTag(0x0010, 0x0010), PNVR, "Doe^John"),
		NewStringElement(NewTag(0x0010, 0x0020), LOVR, "42"),
		NewUint16Element(NewTag(0x0028, 0x0010), 512),
	)
	td.Cmp(t, ds.Groups(), []uint16{0x0008, 0x0010, 0x0028})
	td.Cmp(t, tagsOf(ds.Group(0x0010)), []Tag{NewTag(0x0010, 0x0010), NewTag(0x0010, 0x0020)})
	td.Cmp(t, tagsOf(ds.Group(0x0008)), []Tag{NewTag(0x0008, 0x0000), NewTag(0x0008, 0x0016)})
	td.CmpEmpty(t, ds.Group(0x0002))
	td.CmpEmpty(t, NewDataSet().Groups())
}

func TestDataSet_Clone(t *testing.T) {
	ds := richDataSet()
	c := ds.Clone()
	td.Cmp(t, c, ds)

	e, _ := c.Element(SOPClassUIDTag)
	e.Value.data[0] = 'X'
	orig, _ := ds.Element(SOPClassUIDTag)
	td.CmpNot(t, orig.Value.data[0], byte('X'))

	seq, _ := c.Sequence(NewTag(0x0008, 0x1115))
	seq.Items[0].Remove(NewTag(0x0008, 0x1150))
	origSeq, _ := ds.Sequence(NewTag(0x0008, 0x1115))
	_, ok := origSeq.Items[0].Get(NewTag(0x0008, 0x1150))
	td.CmpTrue(t, ok, "items must not be shared")

	n, _ := c.Get(PixelDataTag)
	frags := n.(*FragmentSequence)
	frags.Fragments[0].data[0] = 0xFF
	frags.OffsetTable[1] = 99
	n, _ = ds.Get(PixelDataTag)
	td.Cmp(t, n.(*FragmentSequence).Fragments[0].Data()[0], byte(1))
	td.Cmp(t, n.(*FragmentSequence).OffsetTable[1], uint32(12))
}

func TestDataSet_CloneEmpty(t *testing.T) {
	tests := []struct {
		name string
		ds   *DataSet
	}{
		{"zero data set", &DataSet{}},
		{"new data set", NewDataSet()},
		{"empty sequence", NewDataSet(NewSequence(NewTag(0x0008, 0x1115)))},
		{"sequence with empty item", NewDataSet(NewSequence(NewTag(0x0008, 0x1115), NewDataSet()))},
		{"empty element", NewDataSet(NewStringElement(NewTag(0x0010, 0x0010), PNVR))},
		{"nil element value", NewDataSet(NewElement(NewTag(0x0010, 0x0010), PNVR, nil))},
		{"fragments without offsets", NewDataSet(&FragmentSequence{Tag: PixelDataTag, VR: OBVR})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			td.Cmp(t, tc.ds.Clone(), tc.ds)
		})
	}
}

func TestNewStringElement(t *testing.T) {
	tests := []struct {
		name   string
		vr     VR
		values []string
		want   []byte
	}{
		{"even", PNVR, []string{"Doe^"}, []byte("Doe^")},
		{"odd text padded with space", PNVR, []string{"Doe"}, []byte("Doe ")},
		{"odd uid padded with null", UIVR, []string{"1.2.3"}, []byte("1.2.3\x00")},
		{"multiple values", CSVR, []string{"CT", "MR"}, []byte(`CT\MR `)},
		{"empty", LOVR, nil, []byte{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewStringElement(NewTag(0x0010, 0x0010), tc.vr, tc.values...)
			td.Cmp(t, e.Bytes(), td.Code(func(b []byte) bool { return string(b) == string(tc.want) }))
			td.Cmp(t, e.VR, tc.vr)
		})
	}
}

func TestElement_Strings(t *testing.T) {
	e := NewStringElement(NewTag(0x0008, 0x0060), CSVR, "CT", " MR")
	td.Cmp(t, e.Strings(nil), []string{"CT", "MR"})
	td.CmpNil(t, NewStringElement(NewTag(0x0008, 0x0060), CSVR).Strings(nil))
}

func TestElement_Uint32s(t *testing.T) {
	tests := []struct {
		name string
		e    *Element
		want []uint32
	}{
		{"US", NewUint16Element(NewTag(0x0028, 0x0010), 512, 1), []uint32{512, 1}},
		{"UL", NewUint32Element(NewTag(0x0008, 0x0000), 70000), []uint32{70000}},
		{"AT", NewElement(NewTag(0x0020, 0x9165), ATVR, []byte{0x10, 0x00, 0x20, 0x00}), []uint32{0x00100020}},
		{"big endian US", &Element{
			Tag:   NewTag(0x0028, 0x0010),
			VR:    USVR,
			Value: NewPendingBuffer([]byte{0x02, 0x00}, binary.BigEndian, 2),
		}, []uint32{512}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.e.Uint32s()
			if err != nil {
				t.Fatalf("Uint32s() returned unexpected error: %v", err)
			}
			td.Cmp(t, got, tc.want)
		})
	}

	_, err := NewStringElement(NewTag(0x0010, 0x0010), PNVR, "Doe^").Uint32s()
	if !errors.Is(err, ErrUnsupportedVR) {
		t.Errorf("got error %v, want %v", err, ErrUnsupportedVR)
	}
}

func TestDataSet_String(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(NewTag(0x0008, 0x0016), UIVR, "1"),
		NewSequence(NewTag(0x0008, 0x1115), sequenceItem(), NewDataSet()),
	)
	want := "(0008,0016) UI 2 bytes\n" +
		"(0008,1115) SQ 2 items\n" +
		"  (0008,1150) UI 2 bytes"
	td.Cmp(t, ds.String(), want)
}
