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

// Observer receives the structure of a stream from a Reader, in stream order. Begin and end
// events are always balanced and properly nested. A non-nil error aborts the parse.
//
// Buffers passed to OnElement and OnFragmentSequenceItem alias the memory of the source and may be
// in the byte order of the stream. The source is passed so implementations can record positions.
type Observer interface {
	OnElement(src *ByteSource, tag Tag, vr VR, value Buffer) error
	OnBeginSequence(src *ByteSource, tag Tag, length uint32) error
	OnBeginSequenceItem(src *ByteSource, length uint32) error
	OnEndSequenceItem() error
	OnEndSequence() error
	OnBeginFragmentSequence(src *ByteSource, tag Tag, vr VR) error
	OnFragmentSequenceItem(src *ByteSource, value Buffer) error
	OnEndFragmentSequence() error
}

// MultiObserver forwards every event to each of its observers in order. The first error stops
// the forwarding.
type MultiObserver []Observer

// OnElement implements Observer
func (m MultiObserver) OnElement(src *ByteSource, tag Tag, vr VR, value Buffer) error {
	for _, o := range m {
		if err := o.OnElement(src, tag, vr, value); err != nil {
			return err
		}
	}
	return nil
}

// OnBeginSequence implements Observer
func (m MultiObserver) OnBeginSequence(src *ByteSource, tag Tag, length uint32) error {
	for _, o := range m {
		if err := o.OnBeginSequence(src, tag, length); err != nil {
			return err
		}
	}
	return nil
}

// OnBeginSequenceItem implements Observer
func (m MultiObserver) OnBeginSequenceItem(src *ByteSource, length uint32) error {
	for _, o := range m {
		if err := o.OnBeginSequenceItem(src, length); err != nil {
			return err
		}
	}
	return nil
}

// OnEndSequenceItem implements Observer
func (m MultiObserver) OnEndSequenceItem() error {
	for _, o := range m {
		if err := o.OnEndSequenceItem(); err != nil {
			return err
		}
	}
	return nil
}

// OnEndSequence implements Observer
func (m MultiObserver) OnEndSequence() error {
	for _, o := range m {
		if err := o.OnEndSequence(); err != nil {
			return err
		}
	}
	return nil
}

// OnBeginFragmentSequence implements Observer
func (m MultiObserver) OnBeginFragmentSequence(src *ByteSource, tag Tag, vr VR) error {
	for _, o := range m {
		if err := o.OnBeginFragmentSequence(src, tag, vr); err != nil {
			return err
		}
	}
	return nil
}

// OnFragmentSequenceItem implements Observer
func (m MultiObserver) OnFragmentSequenceItem(src *ByteSource, value Buffer) error {
	for _, o := range m {
		if err := o.OnFragmentSequenceItem(src, value); err != nil {
			return err
		}
	}
	return nil
}

// OnEndFragmentSequence implements Observer
func (m MultiObserver) OnEndFragmentSequence() error {
	for _, o := range m {
		if err := o.OnEndFragmentSequence(); err != nil {
			return err
		}
	}
	return nil
}

// nopObserver ignores every event. It is embedded by observers that only care about a few.
type nopObserver struct{}

func (nopObserver) OnElement(*ByteSource, Tag, VR, Buffer) error         { return nil }
func (nopObserver) OnBeginSequence(*ByteSource, Tag, uint32) error       { return nil }
func (nopObserver) OnBeginSequenceItem(*ByteSource, uint32) error        { return nil }
func (nopObserver) OnEndSequenceItem() error                             { return nil }
func (nopObserver) OnEndSequence() error                                 { return nil }
func (nopObserver) OnBeginFragmentSequence(*ByteSource, Tag, VR) error   { return nil }
func (nopObserver) OnFragmentSequenceItem(*ByteSource, Buffer) error     { return nil }
func (nopObserver) OnEndFragmentSequence() error                         { return nil }

// CallbackObserver calls a function for every top level element with a registered tag. Elements
// nested in sequences are ignored.
type CallbackObserver struct {
	nopObserver
	callbacks map[uint32]func(*Element) error
	depth     int
}

// NewCallbackObserver returns an observer without callbacks
func NewCallbackObserver() *CallbackObserver {
	return &CallbackObserver{callbacks: make(map[uint32]func(*Element) error)}
}

// Register sets the function called when the top level element tag is seen
func (c *CallbackObserver) Register(tag Tag, fn func(*Element) error) {
	c.callbacks[tag.Uint32()] = fn
}

// OnElement implements Observer
func (c *CallbackObserver) OnElement(_ *ByteSource, tag Tag, vr VR, value Buffer) error {
	if c.depth > 0 {
		return nil
	}
	if fn, ok := c.callbacks[tag.Uint32()]; ok {
		return fn(&Element{Tag: tag, VR: vr, Value: value})
	}
	return nil
}

// OnBeginSequence implements Observer
func (c *CallbackObserver) OnBeginSequence(*ByteSource, Tag, uint32) error {
	c.depth++
	return nil
}

// OnEndSequence implements Observer
func (c *CallbackObserver) OnEndSequence() error {
	c.depth--
	return nil
}

// DataSetBuilder is an Observer that materializes the events it receives into a DataSet
type DataSetBuilder struct {
	root     *DataSet
	datasets []*DataSet
	seqs     []*Sequence
	frags    *FragmentSequence
	fragN    int
	opts     []BuilderOption
}

// NewDataSetBuilder returns a builder adding the nodes it receives to ds, or to a new data set if
// ds is nil
func NewDataSetBuilder(ds *DataSet, opts ...BuilderOption) *DataSetBuilder {
	if ds == nil {
		ds = NewDataSet()
	}
	return &DataSetBuilder{root: ds, datasets: []*DataSet{ds}, opts: opts}
}

// DataSet returns the data set being built
func (b *DataSetBuilder) DataSet() *DataSet {
	return b.root
}

func (b *DataSetBuilder) current() *DataSet {
	return b.datasets[len(b.datasets)-1]
}

// add runs the transforms of the builder then adds n to the innermost data set
func (b *DataSetBuilder) add(n Node) error {
	tag := n.NodeTag()
	for _, opt := range b.opts {
		var err error
		if n, err = opt.transform(n); err != nil {
			return fmt.Errorf("transforming %v: %w", tag, err)
		}
		if n == nil {
			return nil
		}
	}
	b.current().Add(n)
	return nil
}

// OnElement implements Observer
func (b *DataSetBuilder) OnElement(_ *ByteSource, tag Tag, vr VR, value Buffer) error {
	if !vr.IsValid() || vr == NoneVR || vr == SQVR {
		return fmt.Errorf("materializing %v: %w %v", tag, ErrUnsupportedVR, vr)
	}
	e := &Element{Tag: tag, VR: vr, Value: value}
	if tag.Equal(SpecificCharacterSetTag) {
		// an unknown term keeps the default repertoire
		if enc, err := EncodingForCharacterSet(e.Text(nil)); err == nil {
			b.current().SetCharacterSet(enc)
		}
	}
	return b.add(e)
}

// OnBeginSequence implements Observer
func (b *DataSetBuilder) OnBeginSequence(_ *ByteSource, tag Tag, _ uint32) error {
	b.seqs = append(b.seqs, NewSequence(tag))
	return nil
}

// OnBeginSequenceItem implements Observer
func (b *DataSetBuilder) OnBeginSequenceItem(*ByteSource, uint32) error {
	if len(b.seqs) == 0 {
		return fmt.Errorf("item outside of a sequence")
	}
	item := NewDataSet()
	item.SetCharacterSet(b.current().CharacterSet())
	seq := b.seqs[len(b.seqs)-1]
	seq.Items = append(seq.Items, item)
	b.datasets = append(b.datasets, item)
	return nil
}

// OnEndSequenceItem implements Observer
func (b *DataSetBuilder) OnEndSequenceItem() error {
	if len(b.datasets) < 2 {
		return fmt.Errorf("unbalanced end of item")
	}
	b.datasets = b.datasets[:len(b.datasets)-1]
	return nil
}

// OnEndSequence implements Observer
func (b *DataSetBuilder) OnEndSequence() error {
	if len(b.seqs) == 0 {
		return fmt.Errorf("unbalanced end of sequence")
	}
	seq := b.seqs[len(b.seqs)-1]
	b.seqs = b.seqs[:len(b.seqs)-1]
	return b.add(seq)
}

// OnBeginFragmentSequence implements Observer
func (b *DataSetBuilder) OnBeginFragmentSequence(_ *ByteSource, tag Tag, vr VR) error {
	b.frags = &FragmentSequence{Tag: tag, VR: vr}
	b.fragN = 0
	return nil
}

// OnFragmentSequenceItem implements Observer. The first item is the basic offset table.
func (b *DataSetBuilder) OnFragmentSequenceItem(_ *ByteSource, value Buffer) error {
	if b.frags == nil {
		return fmt.Errorf("fragment outside of a fragment sequence")
	}
	if b.fragN == 0 {
		table := value.Encode(binary.LittleEndian, 4)
		for i := 0; i+4 <= len(table); i += 4 {
			b.frags.OffsetTable = append(b.frags.OffsetTable, binary.LittleEndian.Uint32(table[i:]))
		}
	} else {
		b.frags.Fragments = append(b.frags.Fragments, value)
	}
	b.fragN++
	return nil
}

// OnEndFragmentSequence implements Observer
func (b *DataSetBuilder) OnEndFragmentSequence() error {
	if b.frags == nil {
		return fmt.Errorf("unbalanced end of fragment sequence")
	}
	f := b.frags
	b.frags = nil
	return b.add(f)
}
