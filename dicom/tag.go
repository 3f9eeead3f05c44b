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

// Tag is a unique identifier for a Data Element composed of a group number and an element number
// as specified in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// Creator holds the private creator resolved for private data elements of the form
// (gggg,xxyy) where gggg is odd and xx is a reserved block. It is empty when the tag is not
// private or when no creator could be resolved. Creator does not take part in ordering.
type Tag struct {
	Group   uint16
	Element uint16
	Creator string
}

// NewTag returns the tag (group,element)
func NewTag(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// NewPrivateTag returns the private tag (group,element) owned by creator
func NewPrivateTag(group, element uint16, creator string) Tag {
	return Tag{Group: group, Element: element, Creator: creator}
}

// Structural sentinels used to delimit sequences, items and fragments.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
var (
	ItemTag                     = NewTag(0xFFFE, 0xE000)
	ItemDelimitationItemTag     = NewTag(0xFFFE, 0xE00D)
	SequenceDelimitationItemTag = NewTag(0xFFFE, 0xE0DD)
)

// Tags the codec itself needs to know about.
var (
	FileMetaInformationGroupLengthTag = NewTag(0x0002, 0x0000)
	FileMetaInformationVersionTag     = NewTag(0x0002, 0x0001)
	MediaStorageSOPClassUIDTag        = NewTag(0x0002, 0x0002)
	MediaStorageSOPInstanceUIDTag     = NewTag(0x0002, 0x0003)
	TransferSyntaxUIDTag              = NewTag(0x0002, 0x0010)
	ImplementationClassUIDTag         = NewTag(0x0002, 0x0012)
	ImplementationVersionNameTag      = NewTag(0x0002, 0x0013)
	SpecificCharacterSetTag           = NewTag(0x0008, 0x0005)
	SOPClassUIDTag                    = NewTag(0x0008, 0x0016)
	SOPInstanceUIDTag                 = NewTag(0x0008, 0x0018)
	RecognitionCodeTag                = NewTag(0x0008, 0x0010)
	PixelDataTag                      = NewTag(0x7FE0, 0x0010)
)

// Uint32 returns the tag packed as group<<16 | element
func (t Tag) Uint32() uint32 {
	return uint32(t.Group)<<16 | uint32(t.Element)
}

// Compare orders tags by group number then element number. The private creator is ignored.
func (t Tag) Compare(other Tag) int {
	a, b := t.Uint32(), other.Uint32()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal is true if both tags have the same group and element numbers
func (t Tag) Equal(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// IsPrivate is true if and only if the tag belongs to an odd (private) group
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsPrivateCreator is true for the private creator data elements (gggg,0010-00FF) of an odd group.
// Elements (gggg,0001-000F) are included as well since readers treat the whole range alike.
func (t Tag) IsPrivateCreator() bool {
	return t.IsPrivate() && t.Element != 0x0000 && t.Element <= 0x00FF
}

// IsGroupLength is true for the group length element (gggg,0000)
func (t Tag) IsGroupLength() bool {
	return t.Element == 0x0000
}

// IsMetaElement is true if and only if the tag belongs to the file meta information group
func (t Tag) IsMetaElement() bool {
	return t.Group == 0x0002
}

// isSentinel reports whether t is one of the item or delimitation tags
func (t Tag) isSentinel() bool {
	return t.Equal(ItemTag) || t.Equal(ItemDelimitationItemTag) || t.Equal(SequenceDelimitationItemTag)
}

// privateCreatorKey identifies the reserved block (gggg,00xx) a private tag (gggg,xxyy) belongs to
func (t Tag) privateCreatorKey() uint32 {
	if t.IsPrivateCreator() {
		return uint32(t.Group)<<16 | uint32(t.Element)
	}
	return uint32(t.Group)<<16 | uint32(t.Element>>8)
}

func (t Tag) String() string {
	if t.Creator != "" {
		return fmt.Sprintf("(%04X,%04X)[%s]", t.Group, t.Element, t.Creator)
	}
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}
