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

import "fmt"

// maxDefinedLength is the largest length that is not the undefined length
const maxDefinedLength = UndefinedLength - 1

// LengthCalculator computes how many bytes nodes take once written by a Writer with the same
// transfer syntax and options. Nothing is written.
type LengthCalculator struct {
	syntax TransferSyntax
	opts   WriteOptions
}

// NewLengthCalculator returns a calculator for syntax and opts
func NewLengthCalculator(syntax TransferSyntax, opts WriteOptions) *LengthCalculator {
	return &LengthCalculator{syntax, opts}
}

// Calculate returns the encoded length of n, header included
func (c *LengthCalculator) Calculate(n Node) (uint32, error) {
	l, err := c.node(n)
	if err != nil {
		return 0, err
	}
	return checked(n.NodeTag(), l)
}

// CalculateItem returns the encoded length of ds as a sequence item, item tag and delimiter
// included
func (c *LengthCalculator) CalculateItem(ds *DataSet) (uint32, error) {
	l, err := c.item(ds)
	if err != nil {
		return 0, err
	}
	return checked(ItemTag, l)
}

// CalculateSequenceValue returns the length of the value field of seq: its items, without the
// sequence header or the sequence delimiter
func (c *LengthCalculator) CalculateSequenceValue(seq *Sequence) (uint32, error) {
	l, err := c.sequenceValue(seq)
	if err != nil {
		return 0, err
	}
	return checked(seq.Tag, l)
}

// CalculateNodes returns the summed encoded length of nodes. Group lengths count for nothing
// unless they are kept.
func (c *LengthCalculator) CalculateNodes(nodes []Node) (uint32, error) {
	l, err := c.nodes(nodes)
	if err != nil {
		return 0, err
	}
	return checked(Tag{}, l)
}

func checked(tag Tag, l uint64) (uint32, error) {
	if l > maxDefinedLength {
		return 0, &FormatError{Tag: tag, Err: ErrLengthOverflow}
	}
	return uint32(l), nil
}

// The unexported helpers return uint64 lengths and only fail when a nested length that must be
// written as a 32 bit field overflows.

func (c *LengthCalculator) nodes(nodes []Node) (uint64, error) {
	var total uint64
	for _, n := range nodes {
		if n.NodeTag().IsGroupLength() && !c.opts.KeepGroupLengths {
			continue
		}
		l, err := c.node(n)
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

func (c *LengthCalculator) node(n Node) (uint64, error) {
	switch n := n.(type) {
	case *Element:
		return c.element(n)
	case *Sequence:
		return c.sequence(n)
	case *FragmentSequence:
		return c.fragments(n), nil
	}
	return 0, fmt.Errorf("calculating length of %v: unknown node type %T", n.NodeTag(), n)
}

// paddedLength is the length of a value once padded to even length
func paddedLength(n int) uint64 {
	return uint64(n + n%2)
}

// writtenVR is the VR an element is encoded with. A VR with a 16 bit length field cannot hold a
// value of 64KiB or more in the explicit syntaxes, so such values are written as UN (CP-1066).
func (c *LengthCalculator) writtenVR(vr VR, length uint64) VR {
	if c.syntax.ExplicitVR && vr.Has16BitLength() && length > 0xFFFE {
		return UNVR
	}
	return vr
}

func (c *LengthCalculator) element(e *Element) (uint64, error) {
	l := paddedLength(e.Value.Len())
	if l > maxDefinedLength {
		return 0, &FormatError{Tag: e.Tag, Err: ErrLengthOverflow}
	}
	return c.syntax.headerSize(c.writtenVR(e.VR, l)) + l, nil
}

func (c *LengthCalculator) definiteSequence(tag Tag) bool {
	return c.opts.ExplicitLengthSequences || tag.IsPrivate()
}

func (c *LengthCalculator) sequence(s *Sequence) (uint64, error) {
	l, err := c.sequenceValue(s)
	if err != nil {
		return 0, err
	}
	if c.definiteSequence(s.Tag) {
		if l > maxDefinedLength {
			return 0, &FormatError{Tag: s.Tag, Err: ErrLengthOverflow}
		}
	} else {
		l += sentinelSize
	}
	return c.syntax.headerSize(SQVR) + l, nil
}

func (c *LengthCalculator) sequenceValue(s *Sequence) (uint64, error) {
	var total uint64
	for _, item := range s.Items {
		l, err := c.item(item)
		if err != nil {
			return 0, fmt.Errorf("item of %v: %w", s.Tag, err)
		}
		total += l
	}
	return total, nil
}

func (c *LengthCalculator) item(ds *DataSet) (uint64, error) {
	l, err := c.nodes(ds.nodes)
	if err != nil {
		return 0, err
	}
	if c.opts.ExplicitLengthSequenceItems {
		if l > maxDefinedLength {
			return 0, &FormatError{Tag: ItemTag, Err: ErrLengthOverflow}
		}
	} else {
		l += sentinelSize
	}
	return sentinelSize + l, nil
}

// fragments is always of undefined length: header, offset table item, one item per fragment and
// the sequence delimitation item
func (c *LengthCalculator) fragments(f *FragmentSequence) uint64 {
	l := c.syntax.headerSize(f.VR)
	l += sentinelSize + 4*uint64(len(f.OffsetTable))
	for _, frag := range f.Fragments {
		l += sentinelSize + paddedLength(frag.Len())
	}
	return l + sentinelSize
}
