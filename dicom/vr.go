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

// vrType is to group common encodings together
type vrType int

const (
	// textVR is for value fields that will be interpreted as simple text with space padding
	textVR vrType = iota

	// numberBinaryVR is for value fields that are parsed as binary numbers
	numberBinaryVR

	// bulkDataVR groups sequences of binary numbers
	bulkDataVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// sequenceVR is for VR: SQ
	sequenceVR

	// tagVR is for tags. Distinct from numberBinaryVR due to little endian byte ordering
	tagVR

	// noneVR is for the item and delimitation sentinels, which carry no VR
	noneVR
)

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
//
// The set of VRs is closed. Every VR carries the handful of encoding facts shared by the reader,
// the writer and the length calculator.
type VR uint8

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
const (
	// NoneVR is used for the item and delimitation sentinels
	NoneVR VR = iota

	// textual VRs
	CSVR
	SHVR
	LOVR
	STVR
	LTVR
	ASVR

	// person name
	PNVR

	// application entity
	AEVR

	// dates/time VR
	DAVR
	TMVR
	DTVR

	// textual numbers
	ISVR
	DSVR

	// binary numbers
	SSVR
	USVR
	SLVR
	ULVR
	SVVR
	UVVR
	FLVR
	FDVR

	// large binary sequences
	OBVR
	ODVR
	OLVR
	OVVR
	OWVR
	OFVR

	// unlimited char
	UCVR

	// unknown
	UNVR

	// URL
	URVR

	// unlimited text
	UTVR

	// attribute tag
	ATVR

	// unique identifier
	UIVR

	// sequence
	SQVR

	numVRs
)

type vrInfo struct {
	name string
	kind vrType

	// unitSize is the size in bytes of the smallest value that is byte swapped as a whole
	unitSize int

	// longLength is true when the explicit VR encoding uses 2 reserved bytes and a 32 bit length
	longLength bool

	isString bool
	padding  byte
}

var vrInfos = [numVRs]vrInfo{
	NoneVR: {"NONE", noneVR, 1, true, false, 0x00},
	CSVR:   {"CS", textVR, 1, false, true, ' '},
	SHVR:   {"SH", textVR, 1, false, true, ' '},
	LOVR:   {"LO", textVR, 1, false, true, ' '},
	STVR:   {"ST", textVR, 1, false, true, ' '},
	LTVR:   {"LT", textVR, 1, false, true, ' '},
	ASVR:   {"AS", textVR, 1, false, true, ' '},
	PNVR:   {"PN", textVR, 1, false, true, ' '},
	AEVR:   {"AE", textVR, 1, false, true, ' '},
	DAVR:   {"DA", textVR, 1, false, true, ' '},
	TMVR:   {"TM", textVR, 1, false, true, ' '},
	DTVR:   {"DT", textVR, 1, false, true, ' '},
	ISVR:   {"IS", textVR, 1, false, true, ' '},
	DSVR:   {"DS", textVR, 1, false, true, ' '},
	SSVR:   {"SS", numberBinaryVR, 2, false, false, 0x00},
	USVR:   {"US", numberBinaryVR, 2, false, false, 0x00},
	SLVR:   {"SL", numberBinaryVR, 4, false, false, 0x00},
	ULVR:   {"UL", numberBinaryVR, 4, false, false, 0x00},
	SVVR:   {"SV", numberBinaryVR, 8, true, false, 0x00},
	UVVR:   {"UV", numberBinaryVR, 8, true, false, 0x00},
	FLVR:   {"FL", numberBinaryVR, 4, false, false, 0x00},
	FDVR:   {"FD", numberBinaryVR, 8, false, false, 0x00},
	OBVR:   {"OB", bulkDataVR, 1, true, false, 0x00},
	ODVR:   {"OD", bulkDataVR, 8, true, false, 0x00},
	OLVR:   {"OL", bulkDataVR, 4, true, false, 0x00},
	OVVR:   {"OV", bulkDataVR, 8, true, false, 0x00},
	OWVR:   {"OW", bulkDataVR, 2, true, false, 0x00},
	OFVR:   {"OF", bulkDataVR, 4, true, false, 0x00},
	UCVR:   {"UC", textVR, 1, true, true, ' '},
	UNVR:   {"UN", bulkDataVR, 1, true, false, 0x00},
	URVR:   {"UR", textVR, 1, true, true, ' '},
	UTVR:   {"UT", textVR, 1, true, true, ' '},
	ATVR:   {"AT", tagVR, 2, false, false, 0x00},
	UIVR:   {"UI", uniqueIdentifierVR, 1, false, true, 0x00},
	SQVR:   {"SQ", sequenceVR, 1, true, false, 0x00},
}

var vrLookupMap = func() map[string]VR {
	m := make(map[string]VR, numVRs)
	for vr := CSVR; vr < numVRs; vr++ {
		m[vrInfos[vr].name] = vr
	}
	return m
}()

// ParseVR returns the VR for a 2-character VR code. The second return value is false when the
// code is not a known VR.
func ParseVR(code string) (VR, bool) {
	vr, ok := vrLookupMap[code]
	return vr, ok
}

func (vr VR) info() vrInfo {
	if vr >= numVRs {
		return vrInfos[UNVR]
	}
	return vrInfos[vr]
}

// IsValid is false for values outside of the closed set of VRs
func (vr VR) IsValid() bool {
	return vr < numVRs
}

// String returns the 2-character VR code
func (vr VR) String() string {
	if !vr.IsValid() {
		return "??"
	}
	return vrInfos[vr].name
}

// UnitSize is the size in bytes of a single value for the purposes of byte swapping
func (vr VR) UnitSize() int {
	return vr.info().unitSize
}

// IsString is true for VRs whose value field is text
func (vr VR) IsString() bool {
	return vr.info().isString
}

// Has16BitLength is true for VRs encoded with a 16 bit length field in the explicit VR syntaxes.
// The 2 cases are defined at the link:
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (vr VR) Has16BitLength() bool {
	return !vr.info().longLength
}

// PaddingByte is the byte used to pad odd length values of this VR to even length
func (vr VR) PaddingByte() byte {
	return vr.info().padding
}
