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
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// maxDumpValue is the number of value bytes shown by DumpObserver
const maxDumpValue = 64

// DumpObserver writes one line per event, indented by nesting level
type DumpObserver struct {
	w     io.Writer
	dict  Dictionary
	depth int

	// BulkDataSize is the value length above which values are summarized instead of printed
	BulkDataSize int
}

// NewDumpObserver returns an observer writing to w. Tag names are looked up in dict, which may be
// nil.
func NewDumpObserver(w io.Writer, dict Dictionary) *DumpObserver {
	return &DumpObserver{w: w, dict: dict, BulkDataSize: DefaultWriteOptions.LargeObjectSize}
}

func (d *DumpObserver) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(d.w, strings.Repeat("  ", d.depth)+format+"\n", args...)
	return err
}

func (d *DumpObserver) name(tag Tag) string {
	if name := lookupName(d.dict, tag); name != "" {
		return " " + name
	}
	return ""
}

// OnElement implements Observer
func (d *DumpObserver) OnElement(_ *ByteSource, tag Tag, vr VR, value Buffer) error {
	size := d.BulkDataSize
	if DefaultBulkDataDefinition(tag) {
		size = maxDumpValue
	}
	return d.printf("%v %v%s [%s]", tag, vr, d.name(tag), formatValue(vr, value, size))
}

// OnBeginSequence implements Observer
func (d *DumpObserver) OnBeginSequence(_ *ByteSource, tag Tag, length uint32) error {
	err := d.printf("%v SQ%s %s", tag, d.name(tag), formatLength(length))
	d.depth++
	return err
}

// OnBeginSequenceItem implements Observer
func (d *DumpObserver) OnBeginSequenceItem(_ *ByteSource, length uint32) error {
	err := d.printf("%v %s", ItemTag, formatLength(length))
	d.depth++
	return err
}

// OnEndSequenceItem implements Observer
func (d *DumpObserver) OnEndSequenceItem() error {
	d.depth--
	return nil
}

// OnEndSequence implements Observer
func (d *DumpObserver) OnEndSequence() error {
	d.depth--
	return nil
}

// OnBeginFragmentSequence implements Observer
func (d *DumpObserver) OnBeginFragmentSequence(_ *ByteSource, tag Tag, vr VR) error {
	err := d.printf("%v %v%s fragments", tag, vr, d.name(tag))
	d.depth++
	return err
}

// OnFragmentSequenceItem implements Observer
func (d *DumpObserver) OnFragmentSequenceItem(_ *ByteSource, value Buffer) error {
	return d.printf("%v %d bytes", ItemTag, value.Len())
}

// OnEndFragmentSequence implements Observer
func (d *DumpObserver) OnEndFragmentSequence() error {
	d.depth--
	return nil
}

func formatLength(length uint32) string {
	if length == UndefinedLength {
		return "undefined length"
	}
	return fmt.Sprintf("%d bytes", length)
}

// formatValue renders text as text and anything else as little endian hex
func formatValue(vr VR, value Buffer, bulkDataSize int) string {
	if bulkDataSize > 0 && value.Len() > bulkDataSize {
		return fmt.Sprintf("%d bytes of bulk data", value.Len())
	}
	if vr.IsString() {
		return decodeText(value.Data(), nil)
	}
	b := value.Encode(binary.LittleEndian, vr.UnitSize())
	if len(b) > maxDumpValue {
		return fmt.Sprintf("% x ... (%d bytes)", b[:maxDumpValue], len(b))
	}
	return fmt.Sprintf("% x", b)
}

// LogObserver logs every event at debug level
type LogObserver struct {
	log   zerolog.Logger
	depth int
}

// NewLogObserver returns an observer logging to log
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// OnElement implements Observer
func (l *LogObserver) OnElement(src *ByteSource, tag Tag, vr VR, value Buffer) error {
	l.log.Debug().Int("depth", l.depth).Int64("offset", src.Position()).Stringer("tag", tag).
		Stringer("vr", vr).Int("length", value.Len()).Msg("element")
	return nil
}

// OnBeginSequence implements Observer
func (l *LogObserver) OnBeginSequence(src *ByteSource, tag Tag, length uint32) error {
	l.log.Debug().Int("depth", l.depth).Int64("offset", src.Position()).Stringer("tag", tag).
		Uint32("length", length).Msg("begin sequence")
	l.depth++
	return nil
}

// OnBeginSequenceItem implements Observer
func (l *LogObserver) OnBeginSequenceItem(src *ByteSource, length uint32) error {
	l.log.Debug().Int("depth", l.depth).Int64("offset", src.Position()).Uint32("length", length).Msg("begin item")
	l.depth++
	return nil
}

// OnEndSequenceItem implements Observer
func (l *LogObserver) OnEndSequenceItem() error {
	l.depth--
	l.log.Debug().Int("depth", l.depth).Msg("end item")
	return nil
}

// OnEndSequence implements Observer
func (l *LogObserver) OnEndSequence() error {
	l.depth--
	l.log.Debug().Int("depth", l.depth).Msg("end sequence")
	return nil
}

// OnBeginFragmentSequence implements Observer
func (l *LogObserver) OnBeginFragmentSequence(src *ByteSource, tag Tag, vr VR) error {
	l.log.Debug().Int("depth", l.depth).Int64("offset", src.Position()).Stringer("tag", tag).
		Stringer("vr", vr).Msg("begin fragments")
	l.depth++
	return nil
}

// OnFragmentSequenceItem implements Observer
func (l *LogObserver) OnFragmentSequenceItem(src *ByteSource, value Buffer) error {
	l.log.Debug().Int("depth", l.depth).Int64("offset", src.Position()).Int("length", value.Len()).Msg("fragment")
	return nil
}

// OnEndFragmentSequence implements Observer
func (l *LogObserver) OnEndFragmentSequence() error {
	l.depth--
	l.log.Debug().Int("depth", l.depth).Msg("end fragments")
	return nil
}
