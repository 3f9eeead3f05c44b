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
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog"
)

// Writer is a Walker that encodes the nodes it is given to a ByteTarget in one transfer syntax.
// It mirrors the Reader: whatever a Writer writes, a Reader with the same syntax reads back as the
// same structure.
type Writer struct {
	t      *ByteTarget
	syntax TransferSyntax
	opts   WriteOptions
	calc   *LengthCalculator
	log    zerolog.Logger

	// delimiters has one entry per open sequence or item: true when it must be closed by a
	// delimitation item
	delimiters []bool
}

// NewWriter returns a writer encoding to t with syntax and opts
func NewWriter(t *ByteTarget, syntax TransferSyntax, opts WriteOptions, wopts ...WriterOption) *Writer {
	w := &Writer{t: t, syntax: syntax, opts: opts, log: zerolog.Nop()}
	for _, o := range wopts {
		o.apply(w)
	}
	w.calc = NewLengthCalculator(syntax, w.opts)
	return w
}

// OnBeginWalk implements Walker
func (w *Writer) OnBeginWalk() error {
	w.t.SetEndian(w.syntax.ByteOrder)
	w.delimiters = w.delimiters[:0]
	return nil
}

// OnEndWalk implements Walker
func (w *Writer) OnEndWalk() error {
	if len(w.delimiters) != 0 {
		return fmt.Errorf("walk ended with %d open sequences or items", len(w.delimiters))
	}
	return nil
}

func (w *Writer) writeHeader(tag Tag, vr VR, length uint32) error {
	if err := w.t.WriteTag(tag); err != nil {
		return err
	}
	if !w.syntax.ExplicitVR || vr == NoneVR {
		return w.t.WriteUint32(length)
	}
	if err := w.t.WriteString(vr.String()); err != nil {
		return err
	}
	if vr.Has16BitLength() {
		return w.t.WriteUint16(uint16(length))
	}
	if err := w.t.WriteUint16(0); err != nil {
		return err
	}
	return w.t.WriteUint32(length)
}

// writeValue writes data followed by a padding byte when its length is odd
func (w *Writer) writeValue(data []byte, padding byte) error {
	if err := w.t.WriteBytes(data); err != nil {
		return err
	}
	if len(data)%2 == 1 {
		return w.t.WriteUint8(padding)
	}
	return nil
}

// OnElement implements Walker
func (w *Writer) OnElement(e *Element) error {
	if e.Tag.IsGroupLength() && !w.opts.KeepGroupLengths {
		return nil
	}
	if !e.VR.IsValid() || e.VR == NoneVR || e.VR == SQVR {
		return fmt.Errorf("writing %v: %w %v", e.Tag, ErrUnsupportedVR, e.VR)
	}
	length := paddedLength(e.Value.Len())
	if length > maxDefinedLength {
		return &FormatError{Tag: e.Tag, Err: ErrLengthOverflow}
	}
	vr := w.calc.writtenVR(e.VR, length)
	if vr != e.VR {
		w.log.Debug().Stringer("tag", e.Tag).Stringer("vr", e.VR).Uint64("length", length).Msg("writing long value as UN")
	}
	if err := w.writeHeader(e.Tag, vr, uint32(length)); err != nil {
		return fmt.Errorf("writing header of %v: %v", e.Tag, err)
	}
	data := e.Value.Encode(w.syntax.ByteOrder, e.VR.UnitSize())
	if err := w.writeValue(data, e.VR.PaddingByte()); err != nil {
		return fmt.Errorf("writing value of %v: %v", e.Tag, err)
	}
	return nil
}

// OnBeginSequence implements Walker
func (w *Writer) OnBeginSequence(s *Sequence) error {
	length := uint32(UndefinedLength)
	definite := w.calc.definiteSequence(s.Tag)
	if definite {
		l, err := w.calc.CalculateSequenceValue(s)
		if err != nil {
			return fmt.Errorf("writing sequence %v: %w", s.Tag, err)
		}
		length = l
	}
	if err := w.writeHeader(s.Tag, SQVR, length); err != nil {
		return fmt.Errorf("writing header of %v: %v", s.Tag, err)
	}
	w.delimiters = append(w.delimiters, !definite)
	return nil
}

// OnBeginSequenceItem implements Walker
func (w *Writer) OnBeginSequenceItem(item *DataSet) error {
	length := uint32(UndefinedLength)
	if w.opts.ExplicitLengthSequenceItems {
		l, err := w.calc.CalculateNodes(item.nodes)
		if err != nil {
			return fmt.Errorf("writing item: %w", err)
		}
		length = l
	}
	if err := w.writeHeader(ItemTag, NoneVR, length); err != nil {
		return fmt.Errorf("writing item: %v", err)
	}
	w.delimiters = append(w.delimiters, !w.opts.ExplicitLengthSequenceItems)
	return nil
}

func (w *Writer) popDelimiter(tag Tag) error {
	if len(w.delimiters) == 0 {
		return fmt.Errorf("unbalanced %v", tag)
	}
	delimit := w.delimiters[len(w.delimiters)-1]
	w.delimiters = w.delimiters[:len(w.delimiters)-1]
	if !delimit {
		return nil
	}
	return w.t.WriteDelimiter(tag)
}

// OnEndSequenceItem implements Walker
func (w *Writer) OnEndSequenceItem() error {
	return w.popDelimiter(ItemDelimitationItemTag)
}

// OnEndSequence implements Walker
func (w *Writer) OnEndSequence() error {
	return w.popDelimiter(SequenceDelimitationItemTag)
}

// OnBeginFragment implements Walker. The header is always of undefined length and is followed by
// the basic offset table item.
func (w *Writer) OnBeginFragment(f *FragmentSequence) error {
	if err := w.writeHeader(f.Tag, f.VR, UndefinedLength); err != nil {
		return fmt.Errorf("writing header of %v: %v", f.Tag, err)
	}
	if err := w.writeHeader(ItemTag, NoneVR, uint32(4*len(f.OffsetTable))); err != nil {
		return fmt.Errorf("writing offset table of %v: %v", f.Tag, err)
	}
	for _, offset := range f.OffsetTable {
		if err := w.t.WriteUint32(offset); err != nil {
			return fmt.Errorf("writing offset table of %v: %v", f.Tag, err)
		}
	}
	return nil
}

// OnFragmentItem implements Walker
func (w *Writer) OnFragmentItem(f *FragmentSequence, fragment Buffer) error {
	length := paddedLength(fragment.Len())
	if length > maxDefinedLength {
		return &FormatError{Tag: f.Tag, Err: ErrLengthOverflow}
	}
	if err := w.writeHeader(ItemTag, NoneVR, uint32(length)); err != nil {
		return fmt.Errorf("writing fragment of %v: %v", f.Tag, err)
	}
	if err := w.writeValue(fragment.Encode(w.syntax.ByteOrder, f.VR.UnitSize()), 0x00); err != nil {
		return fmt.Errorf("writing fragment of %v: %v", f.Tag, err)
	}
	return nil
}

// OnEndFragment implements Walker
func (w *Writer) OnEndFragment() error {
	return w.t.WriteDelimiter(SequenceDelimitationItemTag)
}

// WriteDataSet encodes ds to out in syntax. For the deflated syntax the encoding is buffered then
// compressed.
func WriteDataSet(out io.Writer, syntax TransferSyntax, ds *DataSet, opts WriteOptions, wopts ...WriterOption) error {
	if syntax.Deflated {
		var body bytes.Buffer
		plain := syntax
		plain.Deflated = false
		if err := WriteDataSet(&body, plain, ds, opts, wopts...); err != nil {
			return err
		}
		fw, err := flate.NewWriter(out, flate.DefaultCompression)
		if err != nil {
			return fmt.Errorf("creating deflate writer: %v", err)
		}
		if _, err := body.WriteTo(fw); err != nil {
			return fmt.Errorf("deflating data set: %v", err)
		}
		return fw.Close()
	}

	bw := bufio.NewWriter(out)
	w := NewWriter(NewByteTarget(bw, syntax.ByteOrder), syntax, opts, wopts...)
	if err := Walk(ds, w); err != nil {
		return err
	}
	return bw.Flush()
}
