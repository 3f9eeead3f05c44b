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
	"strings"

	"github.com/gradienthealth/dicom/dicomtag"
)

// DictionaryEntry describes a data element of the DICOM data dictionary
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html
type DictionaryEntry struct {
	Tag  Tag
	Name string

	// VRs lists the candidate VRs. Most entries have a single one.
	VRs []VR
	VM  string
}

// DefaultVR is the VR used when the stream does not state one. Entries allowing both OB and OW
// resolve to OW. Entries without any VR resolve to UN.
func (e DictionaryEntry) DefaultVR() VR {
	if len(e.VRs) == 0 {
		return UNVR
	}
	hasOB, hasOW := false, false
	for _, vr := range e.VRs {
		hasOB = hasOB || vr == OBVR
		hasOW = hasOW || vr == OWVR
	}
	if hasOB && hasOW {
		return OWVR
	}
	return e.VRs[0]
}

// Dictionary looks up data element definitions. Implementations must be safe for concurrent use
// since a single dictionary is normally shared by every reader.
type Dictionary interface {
	Lookup(tag Tag) (DictionaryEntry, bool)
}

// MapDictionary is a Dictionary backed by a map. Private entries are keyed by their creator and
// their element number within the reserved block, for instance (0009,0010)[ACME] for (0009,1010).
type MapDictionary map[Tag]DictionaryEntry

// Lookup implements Dictionary
func (d MapDictionary) Lookup(tag Tag) (DictionaryEntry, bool) {
	if e, ok := d[tag]; ok {
		return e, true
	}
	if tag.Creator != "" {
		if e, ok := d[NewPrivateTag(tag.Group, tag.Element&0x00FF, tag.Creator)]; ok {
			return e, true
		}
	}
	e, ok := d[NewTag(tag.Group, tag.Element)]
	return e, ok
}

type standardDictionary struct{}

// StandardDictionary is the public data dictionary of PS3.6. Private tags are never found.
var StandardDictionary Dictionary = standardDictionary{}

func (standardDictionary) Lookup(tag Tag) (DictionaryEntry, bool) {
	if tag.IsPrivate() {
		return DictionaryEntry{}, false
	}
	info, err := dicomtag.Find(dicomtag.Tag{Group: tag.Group, Element: tag.Element})
	if err != nil {
		return DictionaryEntry{}, false
	}
	return DictionaryEntry{
		Tag:  tag,
		Name: info.Name,
		VRs:  parseDictionaryVRs(info.VR),
		VM:   info.VM,
	}, true
}

// parseDictionaryVRs splits the VR column of the dictionary, which is either a single VR or a list
// such as "OB or OW" or "US or SS or OW".
func parseDictionaryVRs(s string) []VR {
	var vrs []VR
	for _, code := range strings.Split(s, " or ") {
		code = strings.TrimSpace(code)
		switch strings.ToLower(code) {
		case "ox":
			vrs = append(vrs, OBVR, OWVR)
			continue
		case "xs":
			vrs = append(vrs, USVR, SSVR)
			continue
		}
		if vr, ok := ParseVR(code); ok {
			vrs = append(vrs, vr)
		}
	}
	return vrs
}

// lookupName returns the dictionary name of tag or an empty string
func lookupName(d Dictionary, tag Tag) string {
	if d == nil {
		return ""
	}
	if e, ok := d.Lookup(tag); ok {
		return e.Name
	}
	return ""
}
