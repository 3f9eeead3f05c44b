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
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
)

// Result is the outcome of a call to Reader.Read
type Result int

const (
	// Success means the whole input was parsed
	Success Result = iota
	// Stopped means the stop criterion of the reader matched a tag
	Stopped
	// Error means the input is malformed or could not be read
	Error
	// Suspended means more input is needed. Calling Read again resumes the parse.
	Suspended
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Stopped:
		return "Stopped"
	case Error:
		return "Error"
	case Suspended:
		return "Suspended"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// ParseState is what a StopCriterion knows about the tag that was just read
type ParseState struct {
	Tag Tag

	// PreviousTag is the last element read at the same level, or the zero Tag
	PreviousTag Tag

	// SequenceDepth is the number of open sequences. It is 0 for top level elements.
	SequenceDepth int
}

// StopCriterion is evaluated for every data element tag before anything but the tag is consumed.
// When it returns true the source is rewound to the start of the tag and the parse ends with
// Stopped.
type StopCriterion func(ParseState) bool

// StopAt stops at the top level tag t
func StopAt(t Tag) StopCriterion {
	return func(s ParseState) bool {
		return s.SequenceDepth == 0 && s.Tag.Equal(t)
	}
}

// StopAtOrAfter stops at the first top level tag greater than or equal to t. t is excluded from
// the parse.
func StopAtOrAfter(t Tag) StopCriterion {
	return func(s ParseState) bool {
		return s.SequenceDepth == 0 && s.Tag.Compare(t) >= 0
	}
}

// StopAfter stops at the first top level tag strictly greater than t. t is included in the parse.
func StopAfter(t Tag) StopCriterion {
	return func(s ParseState) bool {
		return s.SequenceDepth == 0 && s.Tag.Compare(t) > 0
	}
}

type parseStage int

const (
	stageTag parseStage = iota
	stageVR
	stageLength
	stageValue
)

// datasetFrame parses the elements of the top level data set or of one item
type datasetFrame struct {
	item bool

	// definite is true if the item pushed a milestone for its length
	definite bool

	stage    parseStage
	tag      Tag
	previous Tag
	vr       VR

	// wireVR is the VR found in the stream in explicit mode. It sizes the length field.
	wireVR VR
	length uint32
}

// sequenceFrame parses the item list of a sequence
type sequenceFrame struct {
	tag      Tag
	definite bool

	// stray sequences have no delimiter and end before the first tag that is not an item
	stray bool
}

// fragmentFrame parses the item list of a fragment sequence
type fragmentFrame struct {
	tag        Tag
	vr         VR
	count      int
	inItem     bool
	itemLength uint32
}

// Reader parses a stream of data elements into events sent to an Observer.
//
// The parse is a state machine over an explicit stack of frames, one per open data set, sequence
// or fragment sequence. When the source runs out of bytes the reader returns Suspended with its
// stack intact and the next call to Read resumes exactly where it left off.
//
// A Reader handles one stream at a time and is not safe for concurrent use.
type Reader struct {
	observer    Observer
	explicit    bool
	dict        Dictionary
	stop        StopCriterion
	fallback    encoding.Encoding
	log         zerolog.Logger
	builderOpts []BuilderOption
	strayItems  bool

	frames   []interface{}
	creators map[uint32]string
	depth    int
}

// NewReader returns a reader sending events to observer
func NewReader(observer Observer, opts ...ReaderOption) *Reader {
	r := &Reader{
		observer: observer,
		explicit: true,
		dict:     StandardDictionary,
		fallback: DefaultCharacterRepertoire,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// SetExplicitVR switches between explicit and implicit VR. It takes effect at the next element.
func (r *Reader) SetExplicitVR(explicit bool) {
	r.explicit = explicit
}

// ExplicitVR reports whether VRs are read from the stream
func (r *Reader) ExplicitVR() bool {
	return r.explicit
}

// SetStop replaces the stop criterion
func (r *Reader) SetStop(stop StopCriterion) {
	r.stop = stop
}

// Read parses src until it is exhausted, the stop criterion matches or an error occurs. On
// Suspended the parse state is kept and the next call resumes it once more bytes are available.
// Any other result ends the parse and the next call starts a new one.
func (r *Reader) Read(src *ByteSource) (Result, error) {
	if len(r.frames) == 0 {
		r.frames = append(r.frames, &datasetFrame{})
		r.creators = make(map[uint32]string)
		r.depth = 0
	}
	res, err := r.run(src)
	if res != Suspended {
		r.frames = nil
		r.creators = nil
	}
	return res, err
}

type frameStatus int

const (
	frameDone frameStatus = iota
	framePushed
	frameSuspended
	frameStopped
)

func (r *Reader) run(src *ByteSource) (Result, error) {
	for len(r.frames) > 0 {
		var status frameStatus
		var err error
		switch f := r.frames[len(r.frames)-1].(type) {
		case *datasetFrame:
			status, err = r.parseDataSet(src, f)
		case *sequenceFrame:
			status, err = r.parseItems(src, f)
		case *fragmentFrame:
			status, err = r.parseFragments(src, f)
		}
		if err != nil {
			return Error, err
		}
		switch status {
		case frameDone:
			if _, ok := r.frames[len(r.frames)-1].(*sequenceFrame); ok {
				r.depth--
			}
			r.frames = r.frames[:len(r.frames)-1]
		case frameSuspended:
			if src.Err() != nil {
				return Error, fmt.Errorf("reading source: %w", src.Err())
			}
			return Suspended, nil
		case frameStopped:
			return Stopped, nil
		}
	}
	return Success, nil
}

func (r *Reader) push(f interface{}) {
	if _, ok := f.(*sequenceFrame); ok {
		r.depth++
	}
	r.frames = append(r.frames, f)
}

// insufficient is called when Require fails. It suspends unless no more bytes will arrive.
func insufficient(src *ByteSource, what string) (frameStatus, error) {
	if src.Finished() {
		if src.Err() != nil {
			return frameDone, fmt.Errorf("reading %s: %w", what, src.Err())
		}
		return frameDone, fmt.Errorf("reading %s at offset %d: %w", what, src.Position(), ErrUnexpectedEOF)
	}
	return frameSuspended, nil
}

// readTag reads a tag and resolves its private creator
func (r *Reader) readTag(src *ByteSource) Tag {
	tag := NewTag(src.GetUint16(), src.GetUint16())
	if tag.IsPrivate() && tag.Element > 0x00FF {
		if creator, ok := r.creators[tag.privateCreatorKey()]; ok {
			tag.Creator = creator
		} else {
			r.log.Debug().Stringer("tag", tag).Msg("private tag without creator")
		}
	}
	return tag
}

func (r *Reader) parseDataSet(src *ByteSource, f *datasetFrame) (frameStatus, error) {
	for {
		switch f.stage {
		case stageTag:
			if src.HasReachedMilestone() && (f.definite || f.item) {
				return r.endDataSet(src, f)
			}
			if !src.Require(tagSize) {
				if !f.item && src.Finished() && src.Available() == 0 && src.Err() == nil {
					return frameDone, nil
				}
				return insufficient(src, "tag")
			}
			src.Mark()
			tag := r.readTag(src)
			if !tag.isSentinel() && r.stop != nil && r.stop(ParseState{tag, f.previous, r.depth}) {
				src.Rewind()
				return frameStopped, nil
			}
			f.tag = tag
			f.stage = stageVR

		case stageVR:
			if f.tag.isSentinel() {
				f.vr, f.wireVR = NoneVR, NoneVR
			} else if r.explicit {
				if !src.Require(vrSize) {
					return insufficient(src, "VR")
				}
				code := src.GetString(vrSize)
				vr, ok := ParseVR(code)
				if !ok {
					r.log.Debug().Stringer("tag", f.tag).Str("vr", code).Msg("unknown VR read as UN")
					vr = UNVR
				}
				f.vr, f.wireVR = vr, vr
			} else {
				f.vr = r.dictionaryVR(f.tag)
				f.wireVR = f.vr
			}
			if f.vr == UNVR && f.tag.IsPrivateCreator() {
				f.vr = LOVR
			}
			f.stage = stageLength

		case stageLength:
			switch {
			case f.wireVR == NoneVR || !r.explicit:
				if !src.Require(4) {
					return insufficient(src, "length")
				}
				f.length = src.GetUint32()
			case f.wireVR.Has16BitLength():
				if !src.Require(2) {
					return insufficient(src, "length")
				}
				f.length = uint32(src.GetUint16())
			default:
				if !src.Require(6) {
					return insufficient(src, "length")
				}
				src.Skip(2)
				f.length = src.GetUint32()
			}
			if !r.explicit && f.length == UndefinedLength && f.vr == UNVR {
				f.vr = SQVR
			}
			if r.explicit && f.vr == UNVR {
				// some writers only know the VR of an element after it was encoded as UN
				if vr := r.dictionaryVR(f.tag); vr != UNVR && vr != SQVR {
					f.vr = vr
				}
			}
			f.stage = stageValue

		case stageValue:
			status, done, err := r.parseValue(src, f)
			if err != nil || done {
				return status, err
			}
			if status == frameSuspended {
				return status, nil
			}
			if status == framePushed {
				f.stage = stageTag
				return status, nil
			}
			f.stage = stageTag
		}
	}
}

// dictionaryVR resolves the VR of tag without help from the stream
func (r *Reader) dictionaryVR(tag Tag) VR {
	if tag.IsGroupLength() {
		return ULVR
	}
	if r.dict != nil {
		if e, ok := r.dict.Lookup(tag); ok {
			return e.DefaultVR()
		}
	}
	return UNVR
}

// parseValue handles the value field of f.tag. done is true when the data set itself ended.
func (r *Reader) parseValue(src *ByteSource, f *datasetFrame) (status frameStatus, done bool, err error) {
	switch {
	case f.tag.Equal(ItemDelimitationItemTag):
		if f.item && !f.definite {
			status, err = r.endDataSet(src, f)
			return status, true, err
		}
		r.log.Debug().Int64("offset", src.Position()).Msg("skipping stray item delimitation")
		return frameDone, false, nil

	case f.tag.Equal(SequenceDelimitationItemTag) && f.item && !f.definite:
		// the item delimitation is missing: end the item and let the sequence see the delimiter
		r.log.Debug().Int64("offset", src.Position()).Msg("sequence delimitation ends an open item")
		src.Rewind()
		status, err = r.endDataSet(src, f)
		return status, true, err

	case f.tag.Equal(ItemTag) && r.strayItems:
		r.log.Debug().Int64("offset", src.Position()).Msg("reading stray items as a sequence")
		src.Rewind()
		if err := r.observer.OnBeginSequence(src, f.tag, UndefinedLength); err != nil {
			return frameDone, true, err
		}
		f.previous = f.tag
		r.push(&sequenceFrame{tag: f.tag, stray: true})
		return framePushed, false, nil

	case f.tag.isSentinel():
		src.Rewind()
		return frameDone, true, &StructuralError{Tag: f.tag, Context: "data set", Offset: src.Position()}

	case f.vr == SQVR:
		if err := r.observer.OnBeginSequence(src, f.tag, f.length); err != nil {
			return frameDone, true, err
		}
		definite := f.length != UndefinedLength
		if definite {
			src.PushMilestone(f.length)
		}
		f.previous = f.tag
		r.push(&sequenceFrame{tag: f.tag, definite: definite})
		return framePushed, false, nil

	case f.length == UndefinedLength:
		if err := r.observer.OnBeginFragmentSequence(src, f.tag, f.vr); err != nil {
			return frameDone, true, err
		}
		f.previous = f.tag
		r.push(&fragmentFrame{tag: f.tag, vr: f.vr})
		return framePushed, false, nil
	}

	if !src.Require(int(f.length)) {
		status, err = insufficient(src, fmt.Sprintf("value of %v", f.tag))
		return status, err != nil, err
	}
	data := src.GetBuffer(int(f.length))
	value := NewBuffer(data)
	if !f.vr.IsString() {
		value = NewPendingBuffer(data, src.Endian(), f.vr.UnitSize())
	}
	if err := r.observer.OnElement(src, f.tag, f.vr, value); err != nil {
		return frameDone, true, err
	}
	if f.tag.IsPrivateCreator() {
		r.creators[f.tag.privateCreatorKey()] = decodeText(data, r.fallback)
	}
	f.previous = f.tag
	return frameDone, false, nil
}

// endDataSet finishes an item. The top level data set never ends this way.
func (r *Reader) endDataSet(src *ByteSource, f *datasetFrame) (frameStatus, error) {
	if f.definite {
		src.PopMilestone()
	}
	if f.item {
		if err := r.observer.OnEndSequenceItem(); err != nil {
			return frameDone, err
		}
	}
	return frameDone, nil
}

func (r *Reader) parseItems(src *ByteSource, f *sequenceFrame) (frameStatus, error) {
	if src.HasReachedMilestone() {
		if f.definite {
			src.PopMilestone()
		}
		return frameDone, r.observer.OnEndSequence()
	}
	if !src.Require(sentinelSize) {
		if f.stray && src.Finished() && src.Available() == 0 && src.Err() == nil {
			return frameDone, r.observer.OnEndSequence()
		}
		return insufficient(src, fmt.Sprintf("item of %v", f.tag))
	}
	src.Mark()
	tag := NewTag(src.GetUint16(), src.GetUint16())
	if f.stray && !tag.Equal(ItemTag) {
		src.Rewind()
		return frameDone, r.observer.OnEndSequence()
	}
	switch {
	case tag.Equal(ItemTag):
		length := src.GetUint32()
		definite := length != UndefinedLength
		if definite {
			src.PushMilestone(length)
		}
		if err := r.observer.OnBeginSequenceItem(src, length); err != nil {
			return frameDone, err
		}
		r.push(&datasetFrame{item: true, definite: definite})
		return framePushed, nil

	case tag.Equal(SequenceDelimitationItemTag):
		src.Skip(4)
		if f.definite {
			r.log.Debug().Stringer("tag", f.tag).Msg("sequence delimitation in a sequence of defined length")
			src.PopMilestone()
		}
		return frameDone, r.observer.OnEndSequence()
	}
	src.Rewind()
	return frameDone, &StructuralError{Tag: tag, Context: fmt.Sprintf("sequence %v", f.tag), Offset: src.Position()}
}

func (r *Reader) parseFragments(src *ByteSource, f *fragmentFrame) (frameStatus, error) {
	for {
		if !f.inItem {
			if !src.Require(sentinelSize) {
				return insufficient(src, fmt.Sprintf("fragment of %v", f.tag))
			}
			src.Mark()
			tag := NewTag(src.GetUint16(), src.GetUint16())
			length := src.GetUint32()
			switch {
			case tag.Equal(SequenceDelimitationItemTag):
				return frameDone, r.observer.OnEndFragmentSequence()
			case !tag.Equal(ItemTag) || length == UndefinedLength:
				src.Rewind()
				return frameDone, &StructuralError{Tag: tag, Context: fmt.Sprintf("fragment sequence %v", f.tag), Offset: src.Position()}
			}
			f.inItem, f.itemLength = true, length
		}

		if !src.Require(int(f.itemLength)) {
			return insufficient(src, fmt.Sprintf("fragment of %v", f.tag))
		}
		unit := f.vr.UnitSize()
		if f.count == 0 {
			unit = 4
		}
		value := NewPendingBuffer(src.GetBuffer(int(f.itemLength)), src.Endian(), unit)
		if err := r.observer.OnFragmentSequenceItem(src, value); err != nil {
			return frameDone, err
		}
		f.count++
		f.inItem = false
	}
}

// ReadDataSet parses a whole data set encoded with syntax from r. Deflated syntaxes are inflated.
func ReadDataSet(r io.Reader, syntax TransferSyntax, opts ...ReaderOption) (*DataSet, error) {
	if syntax.Deflated {
		fr := flate.NewReader(r)
		defer fr.Close()
		r = fr
	}
	src := NewStreamByteSource(r, syntax.ByteOrder)
	reader := NewReader(nil, append([]ReaderOption{WithExplicitVR(syntax.ExplicitVR)}, opts...)...)
	builder := NewDataSetBuilder(nil, reader.builderOpts...)
	reader.observer = builder
	res, err := reader.Read(src)
	switch res {
	case Success, Stopped:
		return builder.DataSet(), nil
	case Suspended:
		return nil, fmt.Errorf("reading data set: %w", ErrUnexpectedEOF)
	}
	return nil, fmt.Errorf("reading data set: %w", err)
}
