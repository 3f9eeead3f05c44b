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

const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// ImplicitVRBigEndianUID is the retired GE private Implicit VR Big Endian syntax
	ImplicitVRBigEndianUID = "1.2.840.113619.5.2"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
)

const (
	vrSize  = 2
	tagSize = 4

	// sentinelSize is the size of an item or delimitation tag followed by its 4 byte length
	sentinelSize = tagSize + 4
)

// TransferSyntax describes how data elements are laid out in a stream: the byte order of
// multi-byte values, whether the VR is present on the wire and whether the stream after the file
// meta information is deflated.
type TransferSyntax struct {
	UID        string
	ByteOrder  binary.ByteOrder
	ExplicitVR bool
	Deflated   bool
}

var (
	// ImplicitVRLittleEndian is the default DICOM transfer syntax
	ImplicitVRLittleEndian = TransferSyntax{ImplicitVRLittleEndianUID, binary.LittleEndian, false, false}
	// ExplicitVRLittleEndian is used for the file meta information and for most other syntaxes
	ExplicitVRLittleEndian = TransferSyntax{ExplicitVRLittleEndianUID, binary.LittleEndian, true, false}
	// ExplicitVRBigEndian is the retired big endian syntax
	ExplicitVRBigEndian = TransferSyntax{ExplicitVRBigEndianUID, binary.BigEndian, true, false}
	// DeflatedExplicitVRLittleEndian is explicit little endian wrapped in a deflate stream
	DeflatedExplicitVRLittleEndian = TransferSyntax{DeflatedExplicitVRLittleEndianUID, binary.LittleEndian, true, true}
	// ImplicitVRBigEndian is the GE private syntax
	ImplicitVRBigEndian = TransferSyntax{ImplicitVRBigEndianUID, binary.BigEndian, false, false}
)

// LookupTransferSyntax returns the syntax identified by uid. Any other syntax is explicit VR little
// endian according to PS3.5 A.4
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func LookupTransferSyntax(uid string) TransferSyntax {
	switch uid {
	case ImplicitVRLittleEndianUID:
		return ImplicitVRLittleEndian
	case ExplicitVRLittleEndianUID:
		return ExplicitVRLittleEndian
	case ExplicitVRBigEndianUID:
		return ExplicitVRBigEndian
	case DeflatedExplicitVRLittleEndianUID:
		return DeflatedExplicitVRLittleEndian
	case ImplicitVRBigEndianUID:
		return ImplicitVRBigEndian
	}
	ts := ExplicitVRLittleEndian
	ts.UID = uid
	return ts
}

// IsBigEndian is true when multi-byte values are stored most significant byte first
func (ts TransferSyntax) IsBigEndian() bool {
	return ts.ByteOrder == binary.BigEndian
}

// headerSize is the number of bytes taken by the tag, VR and length fields of an element with
// the given VR when encoded in this syntax.
func (ts TransferSyntax) headerSize(vr VR) uint64 {
	if !ts.ExplicitVR || vr == NoneVR {
		return tagSize + 4 /*length*/
	}
	if vr.Has16BitLength() {
		return tagSize + vrSize + 2 /*16-bit length*/
	}
	return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/
}

func (ts TransferSyntax) String() string {
	switch ts.UID {
	case ImplicitVRLittleEndianUID:
		return "Implicit VR Little Endian"
	case ExplicitVRLittleEndianUID:
		return "Explicit VR Little Endian"
	case ExplicitVRBigEndianUID:
		return "Explicit VR Big Endian"
	case DeflatedExplicitVRLittleEndianUID:
		return "Deflated Explicit VR Little Endian"
	case ImplicitVRBigEndianUID:
		return "Implicit VR Big Endian"
	}
	return fmt.Sprintf("%s (explicit VR little endian)", ts.UID)
}
