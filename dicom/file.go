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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog"
)

const (
	preambleSize = 128
	signature    = "DICM"
)

// FileFormat tells which parts of the file envelope were present
type FileFormat int

const (
	// FormatDICOM3 is a preamble, the DICM signature and the file meta information
	FormatDICOM3 FileFormat = iota
	// FormatNoPreamble is file meta information without the preamble in front of it
	FormatNoPreamble
	// FormatNoFileMetaInfo is a bare data set. The transfer syntax is guessed from its first
	// element.
	FormatNoFileMetaInfo
)

func (f FileFormat) String() string {
	switch f {
	case FormatDICOM3:
		return "DICOM3"
	case FormatNoPreamble:
		return "DICOM3 without preamble"
	case FormatNoFileMetaInfo:
		return "data set without file meta information"
	}
	return fmt.Sprintf("FileFormat(%d)", int(f))
}

// File is a DICOM file as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7
type File struct {
	// Preamble is nil unless the format is FormatDICOM3
	Preamble []byte
	Meta     *DataSet
	DataSet  *DataSet
	Syntax   TransferSyntax
	Format   FileFormat
}

type fileStage int

const (
	fileStageEnvelope fileStage = iota
	fileStageMeta
	fileStageData
	fileStageDone
)

// FileReader parses the envelope of a DICOM file. The file meta information goes to one observer
// and the data set to another. The meta information is always explicit VR little endian; once it
// is parsed the reader switches to the transfer syntax it declares.
//
// Like Reader, a FileReader can be fed incrementally: Read returns Suspended when it needs more
// bytes and resumes on the next call.
type FileReader struct {
	meta Observer
	data Observer
	opts []ReaderOption
	log  zerolog.Logger

	stage    fileStage
	format   FileFormat
	preamble []byte
	syntax   TransferSyntax
	reader   *Reader
	src      *ByteSource
	dataSrc  *ByteSource

	// metaEnd is the stream position following the file meta information, once its group length
	// has been read
	metaEnd int64
}

// NewFileReader returns a reader sending the events of the file meta information to meta and the
// events of the data set to data. The options apply to the data set.
func NewFileReader(meta, data Observer, opts ...ReaderOption) *FileReader {
	return &FileReader{
		meta:   meta,
		data:   data,
		opts:   opts,
		log:    NewReader(nil, opts...).log,
		syntax: ExplicitVRLittleEndian,
	}
}

// Syntax is the transfer syntax of the data set. It is known once the file meta information has
// been read.
func (fr *FileReader) Syntax() TransferSyntax {
	return fr.syntax
}

// Format is the envelope of the file. It is known once the first bytes have been read.
func (fr *FileReader) Format() FileFormat {
	return fr.format
}

// Preamble returns the 128 byte preamble, or nil if the file had none
func (fr *FileReader) Preamble() []byte {
	return fr.preamble
}

// metaStop ends the file meta information where its group length says it ends, at the first tag
// outside of group 0002, or at a group 0002 tag that is not greater than the one before it
func (fr *FileReader) metaStop(s ParseState) bool {
	if s.SequenceDepth != 0 {
		return false
	}
	if fr.metaEnd > 0 && fr.src.Position()-tagSize >= fr.metaEnd {
		return true
	}
	if !s.Tag.IsMetaElement() {
		return true
	}
	return s.PreviousTag.IsMetaElement() && s.PreviousTag.Compare(s.Tag) >= 0
}

// Read parses src. The result is Success once the data set is complete.
func (fr *FileReader) Read(src *ByteSource) (Result, error) {
	fr.src = src
	for {
		switch fr.stage {
		case fileStageEnvelope:
			ok, err := fr.readEnvelope(src)
			if err != nil {
				fr.stage = fileStageDone
				return Error, err
			}
			if !ok {
				return Suspended, nil
			}

		case fileStageMeta:
			res, err := fr.reader.Read(src)
			switch res {
			case Suspended:
				return Suspended, nil
			case Error:
				fr.stage = fileStageDone
				return Error, fmt.Errorf("reading file meta information: %v", err)
			}
			fr.log.Debug().Str("syntax", fr.syntax.UID).Msg("file meta information read")
			if res == Success {
				fr.stage = fileStageDone
				return Success, nil
			}
			fr.startData(src)

		case fileStageData:
			if fr.dataSrc == nil {
				// a fed source must be complete before the deflate stream can be read
				if src.r == nil && !src.Finished() {
					return Suspended, nil
				}
				fr.dataSrc = NewStreamByteSource(flate.NewReader(src.Remainder()), binary.LittleEndian)
			}
			res, err := fr.reader.Read(fr.dataSrc)
			if res != Suspended {
				fr.stage = fileStageDone
			}
			if err != nil {
				return res, fmt.Errorf("reading data set: %w", err)
			}
			return res, nil

		default:
			return Error, fmt.Errorf("file already read")
		}
	}
}

// readEnvelope detects the format and consumes the preamble and the signature
func (fr *FileReader) readEnvelope(src *ByteSource) (bool, error) {
	if !src.Require(preambleSize+len(signature)) && !src.Finished() {
		return false, nil
	}
	if src.Err() != nil {
		return false, fmt.Errorf("reading preamble: %v", src.Err())
	}
	src.Mark()
	head := src.GetBuffer(src.Available())
	src.Rewind()

	switch {
	case len(head) >= preambleSize+len(signature) && string(head[preambleSize:preambleSize+len(signature)]) == signature:
		fr.format = FormatDICOM3
		fr.preamble = src.GetBytes(preambleSize)
		src.Skip(len(signature))
	case len(head) >= len(signature) && string(head[:len(signature)]) == signature:
		fr.format = FormatNoPreamble
		src.Skip(len(signature))
	case len(head) >= tagSize && binary.LittleEndian.Uint16(head) == 0x0002:
		fr.format = FormatNoPreamble
	default:
		syntax, ok := sniffSyntax(head)
		if !ok {
			return false, ErrNotDICOM
		}
		fr.format = FormatNoFileMetaInfo
		fr.syntax = syntax
		fr.log.Debug().Stringer("syntax", syntax).Msg("no file meta information")
		fr.startData(src)
		return true, nil
	}

	fr.stage = fileStageMeta
	src.SetEndian(binary.LittleEndian)
	callbacks := NewCallbackObserver()
	callbacks.Register(FileMetaInformationGroupLengthTag, func(e *Element) error {
		if v, err := e.Uint32s(); err == nil && len(v) == 1 {
			fr.metaEnd = fr.src.Position() + int64(v[0])
		}
		return nil
	})
	callbacks.Register(TransferSyntaxUIDTag, func(e *Element) error {
		fr.syntax = LookupTransferSyntax(e.Text(nil))
		return nil
	})
	meta := Observer(callbacks)
	if fr.meta != nil {
		meta = MultiObserver{fr.meta, callbacks}
	}
	fr.reader = NewReader(meta, append(append([]ReaderOption{}, fr.opts...), WithExplicitVR(true), WithStop(fr.metaStop))...)
	return true, nil
}

// startData switches src to the transfer syntax of the data set
func (fr *FileReader) startData(src *ByteSource) {
	fr.stage = fileStageData
	fr.reader = NewReader(fr.data, fr.opts...)
	fr.reader.SetExplicitVR(fr.syntax.ExplicitVR)
	src.SetEndian(fr.syntax.ByteOrder)
	if !fr.syntax.Deflated {
		fr.dataSrc = src
	}
}

// sniffSyntax guesses the transfer syntax of a data set from its first element. The byte order
// that yields the smaller group number wins and the VR is explicit if a valid VR code follows the
// tag.
func sniffSyntax(head []byte) (TransferSyntax, bool) {
	if len(head) < tagSize+vrSize {
		return TransferSyntax{}, false
	}
	le, be := binary.LittleEndian.Uint16(head), binary.BigEndian.Uint16(head)
	_, explicit := ParseVR(string(head[tagSize : tagSize+vrSize]))
	bigEndian := be < le
	group := le
	if bigEndian {
		group = be
	}
	if group == 0 || group > 0x00FF && group != 0x7FE0 {
		return TransferSyntax{}, false
	}
	switch {
	case explicit && bigEndian:
		return ExplicitVRBigEndian, true
	case explicit:
		return ExplicitVRLittleEndian, true
	case bigEndian:
		return ImplicitVRBigEndian, true
	}
	return ImplicitVRLittleEndian, true
}

// ReadFile parses a whole DICOM file from r
func ReadFile(r io.Reader, opts ...ReaderOption) (*File, error) {
	cfg := NewReader(nil, opts...)
	meta := NewDataSetBuilder(nil, cfg.builderOpts...)
	data := NewDataSetBuilder(nil, cfg.builderOpts...)
	fr := NewFileReader(meta, data, opts...)
	src := NewStreamByteSource(r, binary.LittleEndian)
	res, err := fr.Read(src)
	switch res {
	case Error:
		return nil, err
	case Suspended:
		return nil, fmt.Errorf("reading file: %w", ErrUnexpectedEOF)
	}
	return &File{
		Preamble: fr.Preamble(),
		Meta:     meta.DataSet(),
		DataSet:  data.DataSet(),
		Syntax:   fr.Syntax(),
		Format:   fr.Format(),
	}, nil
}

// NewFileMetaInformation returns the file meta information for ds encoded in syntax. The SOP
// Class UID of ds is required. A SOP Instance UID is generated if ds has none.
func NewFileMetaInformation(ds *DataSet, syntax TransferSyntax) (*DataSet, error) {
	class, ok := ds.Element(SOPClassUIDTag)
	if !ok {
		return nil, fmt.Errorf("creating file meta information: missing %v", SOPClassUIDTag)
	}
	instance := NewUID()
	if e, ok := ds.Element(SOPInstanceUIDTag); ok {
		instance = e.Text(nil)
	}
	meta := NewDataSet(
		NewElement(FileMetaInformationVersionTag, OBVR, []byte{0x00, 0x01}),
		NewStringElement(MediaStorageSOPClassUIDTag, UIVR, class.Text(nil)),
		NewStringElement(MediaStorageSOPInstanceUIDTag, UIVR, instance),
		NewStringElement(TransferSyntaxUIDTag, UIVR, syntax.UID),
		NewStringElement(ImplementationClassUIDTag, UIVR, ImplementationClassUID),
		NewStringElement(ImplementationVersionNameTag, SHVR, ImplementationVersionName),
	)
	if err := RecalculateGroupLength(meta, ExplicitVRLittleEndian, DefaultWriteOptions, 0x0002); err != nil {
		return nil, err
	}
	return meta, nil
}

// WriteFile writes the preamble, the signature, meta and ds to w. The transfer syntax is the one
// named by meta and the meta group length is recalculated. Elements of group 0002 in ds are not
// written.
func WriteFile(w io.Writer, meta, ds *DataSet, opts WriteOptions, wopts ...WriterOption) error {
	ts, ok := meta.Element(TransferSyntaxUIDTag)
	if !ok {
		return fmt.Errorf("writing file: transfer syntax element is missing from meta information")
	}
	syntax := LookupTransferSyntax(ts.Text(nil))

	// group lengths must count the delimiters the writer will actually emit
	opts = NewWriter(nil, syntax, opts, wopts...).opts
	metaOpts := opts
	metaOpts.KeepGroupLengths = true

	// File meta elements are always in explicit VR little endian as specified in the standard
	// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
	header := NewDataSet()
	for _, n := range meta.Group(0x0002) {
		header.Add(n)
	}
	if err := RecalculateGroupLength(header, ExplicitVRLittleEndian, metaOpts, 0x0002); err != nil {
		return fmt.Errorf("creating meta group length element: %v", err)
	}

	body := NewDataSet()
	for _, n := range ds.nodes {
		if !n.NodeTag().IsMetaElement() {
			body.Add(n)
		}
	}
	if opts.KeepGroupLengths {
		body = body.Clone()
		if err := RecalculateGroupLengths(body, syntax, opts, false); err != nil {
			return fmt.Errorf("recalculating group lengths: %v", err)
		}
	}

	bw := bufio.NewWriter(w)
	if err := writeDicomSignature(bw); err != nil {
		return err
	}
	metaWriter := NewWriter(NewByteTarget(bw, binary.LittleEndian), ExplicitVRLittleEndian, metaOpts, wopts...)
	if err := Walk(header, metaWriter); err != nil {
		return fmt.Errorf("writing file meta information: %v", err)
	}
	if err := WriteDataSet(bw, syntax, body, opts, wopts...); err != nil {
		return fmt.Errorf("writing data set: %w", err)
	}
	return bw.Flush()
}

func writeDicomSignature(w io.Writer) error {
	if _, err := w.Write(make([]byte, preambleSize)); err != nil {
		return fmt.Errorf("writing DICOM preamble: %v", err)
	}
	if _, err := io.WriteString(w, signature); err != nil {
		return fmt.Errorf("writing DICOM signature: %v", err)
	}
	return nil
}
