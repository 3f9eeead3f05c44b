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
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding"
)

// Node is a member of a DataSet: an *Element, a *Sequence or a *FragmentSequence
type Node interface {
	NodeTag() Tag
	NodeVR() VR

	clone() Node
}

// Element models a DICOM Data Element with a value field as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type Element struct {
	Tag Tag

	// Value Representation
	VR VR

	// Value is the value field, possibly still in the byte order of the stream it came from
	Value Buffer
}

// NodeTag implements Node
func (e *Element) NodeTag() Tag { return e.Tag }

// NodeVR implements Node
func (e *Element) NodeVR() VR { return e.VR }

func (e *Element) clone() Node {
	c := *e
	c.Value.data = slices.Clone(e.Value.data)
	return &c
}

// Bytes returns the value field in little endian order
func (e *Element) Bytes() []byte {
	return e.Value.Encode(binary.LittleEndian, e.VR.UnitSize())
}

// Text returns the value of a textual element decoded with enc and trimmed of its padding. A nil
// enc selects the default character repertoire.
func (e *Element) Text(enc encoding.Encoding) string {
	return decodeText(e.Value.Data(), enc)
}

// Strings splits a textual value on the backslash delimiter
func (e *Element) Strings(enc encoding.Encoding) []string {
	text := e.Text(enc)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, `\`)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Uint32s decodes a US, UL or AT value. Other VRs yield ErrUnsupportedVR.
func (e *Element) Uint32s() ([]uint32, error) {
	b := e.Bytes()
	var out []uint32
	switch e.VR {
	case USVR:
		for i := 0; i+2 <= len(b); i += 2 {
			out = append(out, uint32(binary.LittleEndian.Uint16(b[i:])))
		}
	case ULVR:
		for i := 0; i+4 <= len(b); i += 4 {
			out = append(out, binary.LittleEndian.Uint32(b[i:]))
		}
	case ATVR:
		for i := 0; i+4 <= len(b); i += 4 {
			out = append(out, uint32(binary.LittleEndian.Uint16(b[i:]))<<16|uint32(binary.LittleEndian.Uint16(b[i+2:])))
		}
	default:
		return nil, fmt.Errorf("decoding %v as integers: %w %v", e.Tag, ErrUnsupportedVR, e.VR)
	}
	return out, nil
}

// NewElement returns an element holding value, which must be in little endian order
func NewElement(tag Tag, vr VR, value []byte) *Element {
	return &Element{Tag: tag, VR: vr, Value: NewBuffer(value)}
}

// NewStringElement returns a textual element holding values joined by the backslash delimiter and
// padded to an even length with the padding byte of vr
func NewStringElement(tag Tag, vr VR, values ...string) *Element {
	b := []byte(strings.Join(values, `\`))
	if len(b)%2 == 1 {
		b = append(b, vr.PaddingByte())
	}
	return NewElement(tag, vr, b)
}

// NewUint16Element returns a US element
func NewUint16Element(tag Tag, values ...uint16) *Element {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return NewElement(tag, USVR, b)
}

// NewUint32Element returns a UL element
func NewUint32Element(tag Tag, values ...uint32) *Element {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return NewElement(tag, ULVR, b)
}

// Sequence models a DICOM sequence of items
type Sequence struct {
	Tag   Tag
	Items []*DataSet
}

// NewSequence returns a sequence owning items
func NewSequence(tag Tag, items ...*DataSet) *Sequence {
	return &Sequence{Tag: tag, Items: items}
}

// NodeTag implements Node
func (s *Sequence) NodeTag() Tag { return s.Tag }

// NodeVR implements Node
func (s *Sequence) NodeVR() VR { return SQVR }

func (s *Sequence) clone() Node {
	c := &Sequence{Tag: s.Tag, Items: slices.Clone(s.Items)}
	for i, item := range c.Items {
		c.Items[i] = item.Clone()
	}
	return c
}

// FragmentSequence models encapsulated data: a basic offset table followed by fragments
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
type FragmentSequence struct {
	Tag Tag

	// VR is OB or OW
	VR          VR
	OffsetTable []uint32
	Fragments   []Buffer
}

// NodeTag implements Node
func (f *FragmentSequence) NodeTag() Tag { return f.Tag }

// NodeVR implements Node
func (f *FragmentSequence) NodeVR() VR { return f.VR }

func (f *FragmentSequence) clone() Node {
	c := &FragmentSequence{
		Tag:         f.Tag,
		VR:          f.VR,
		OffsetTable: slices.Clone(f.OffsetTable),
		Fragments:   slices.Clone(f.Fragments),
	}
	for i := range c.Fragments {
		c.Fragments[i].data = slices.Clone(c.Fragments[i].data)
	}
	return c
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
//
// Nodes are kept sorted by tag and a tag appears at most once.
type DataSet struct {
	keys    []uint32
	nodes   []Node
	charset encoding.Encoding
}

// NewDataSet returns a data set holding nodes
func NewDataSet(nodes ...Node) *DataSet {
	ds := &DataSet{}
	for _, n := range nodes {
		ds.Add(n)
	}
	return ds
}

// Add inserts n at its place in tag order, replacing any node with the same tag
func (ds *DataSet) Add(n Node) {
	key := n.NodeTag().Uint32()
	i, found := slices.BinarySearch(ds.keys, key)
	if found {
		ds.nodes[i] = n
		return
	}
	ds.keys = slices.Insert(ds.keys, i, key)
	ds.nodes = slices.Insert(ds.nodes, i, n)
}

// Get returns the node with the given tag
func (ds *DataSet) Get(tag Tag) (Node, bool) {
	i, found := slices.BinarySearch(ds.keys, tag.Uint32())
	if !found {
		return nil, false
	}
	return ds.nodes[i], true
}

// Element returns the element with the given tag. It is not found if the tag holds a sequence.
func (ds *DataSet) Element(tag Tag) (*Element, bool) {
	n, ok := ds.Get(tag)
	if !ok {
		return nil, false
	}
	e, ok := n.(*Element)
	return e, ok
}

// Sequence returns the sequence with the given tag
func (ds *DataSet) Sequence(tag Tag) (*Sequence, bool) {
	n, ok := ds.Get(tag)
	if !ok {
		return nil, false
	}
	s, ok := n.(*Sequence)
	return s, ok
}

// Remove deletes the node with the given tag. It returns false if there was none.
func (ds *DataSet) Remove(tag Tag) bool {
	i, found := slices.BinarySearch(ds.keys, tag.Uint32())
	if !found {
		return false
	}
	ds.keys = slices.Delete(ds.keys, i, i+1)
	ds.nodes = slices.Delete(ds.nodes, i, i+1)
	return true
}

// Nodes returns the nodes in tag order. The slice is a copy; the nodes are not.
func (ds *DataSet) Nodes() []Node {
	return append([]Node(nil), ds.nodes...)
}

// Group returns the nodes of one group in tag order
func (ds *DataSet) Group(group uint16) []Node {
	lo, _ := slices.BinarySearch(ds.keys, uint32(group)<<16)
	hi := lo
	for hi < len(ds.nodes) && ds.nodes[hi].NodeTag().Group == group {
		hi++
	}
	return append([]Node(nil), ds.nodes[lo:hi]...)
}

// Groups returns the distinct group numbers present, in increasing order
func (ds *DataSet) Groups() []uint16 {
	var groups []uint16
	for _, k := range ds.keys {
		g := uint16(k >> 16)
		if len(groups) == 0 || groups[len(groups)-1] != g {
			groups = append(groups, g)
		}
	}
	return groups
}

// Len is the number of nodes at the top level of the data set
func (ds *DataSet) Len() int {
	return len(ds.nodes)
}

// Clone returns a deep copy of the data set. No buffer, item or node is shared with the original.
func (ds *DataSet) Clone() *DataSet {
	c := &DataSet{
		keys:    slices.Clone(ds.keys),
		nodes:   slices.Clone(ds.nodes),
		charset: ds.charset,
	}
	for i, n := range c.nodes {
		c.nodes[i] = n.clone()
	}
	return c
}

// CharacterSet is the encoding of the textual values of the data set. It is nil when the default
// repertoire applies.
func (ds *DataSet) CharacterSet() encoding.Encoding {
	return ds.charset
}

// SetCharacterSet sets the encoding returned by CharacterSet
func (ds *DataSet) SetCharacterSet(enc encoding.Encoding) {
	ds.charset = enc
}

// String returns a multi-line representation of the data set, one node per line
func (ds *DataSet) String() string {
	return ds.string(0)
}

func (ds *DataSet) string(indentLvl int) string {
	indent := strings.Repeat("  ", indentLvl)
	lines := make([]string, 0, len(ds.nodes))
	for _, n := range ds.nodes {
		switch n := n.(type) {
		case *Element:
			lines = append(lines, fmt.Sprintf("%s%v %v %v", indent, n.Tag, n.VR, n.Value))
		case *Sequence:
			lines = append(lines, fmt.Sprintf("%s%v SQ %d items", indent, n.Tag, len(n.Items)))
			for _, item := range n.Items {
				if s := item.string(indentLvl + 1); s != "" {
					lines = append(lines, s)
				}
			}
		case *FragmentSequence:
			lines = append(lines, fmt.Sprintf("%s%v %v %d offsets %d fragments", indent, n.Tag, n.VR, len(n.OffsetTable), len(n.Fragments)))
		}
	}
	return strings.Join(lines, "\n")
}
