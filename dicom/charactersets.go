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
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCharacterRepertoire decodes text when no Specific Character Set applies. It is a
// superset of the default repertoire ISO-IR 6 and is also the fallback used to decode private
// creator names.
var DefaultCharacterRepertoire encoding.Encoding = charmap.Windows1252

// lookupLabelByTerm maps the defined terms of Specific Character Set (0008,0005) to WHATWG labels
// http://dicom.nema.org/medical/dicom/current/output/html/part03.html#sect_C.12.1.1.2
var lookupLabelByTerm = map[string]string{
	"ISO_IR 100": "iso-ir-100",
	"ISO_IR 101": "iso-ir-101",
	"ISO_IR 109": "iso-ir-109",
	"ISO_IR 110": "iso-ir-110",
	"ISO_IR 144": "iso-ir-144",
	"ISO_IR 127": "iso-ir-127",
	"ISO_IR 126": "iso-ir-126",
	"ISO_IR 138": "iso-ir-138",
	"ISO_IR 148": "iso-ir-148",
	"ISO_IR 13":  "shift-jis",
	"ISO_IR 166": "tis-620",
	"ISO_IR 192": "utf-8",
	"GB18030":    "gb18030",
	"GBK":        "gbk",

	// code extensions are decoded with the G0/G1 set of the term only
	"ISO 2022 IR 6":   "us-ascii",
	"ISO 2022 IR 100": "iso-ir-100",
	"ISO 2022 IR 101": "iso-ir-101",
	"ISO 2022 IR 109": "iso-ir-109",
	"ISO 2022 IR 110": "iso-ir-110",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO 2022 IR 127": "iso-ir-127",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO 2022 IR 138": "iso-ir-138",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 13":  "shift-jis",
	"ISO 2022 IR 166": "tis-620",
	"ISO 2022 IR 87":  "iso-2022-jp",
	"ISO 2022 IR 159": "iso-2022-jp",
	"ISO 2022 IR 149": "iso-ir-149",
}

// EncodingForCharacterSet returns the decoder for the value of a Specific Character Set element.
// The value may be multi-valued; the first non-empty term wins and an entirely empty value selects
// the default repertoire.
func EncodingForCharacterSet(value string) (encoding.Encoding, error) {
	for _, term := range strings.Split(value, `\`) {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		return lookupEncoding(term)
	}
	return DefaultCharacterRepertoire, nil
}

func lookupEncoding(term string) (encoding.Encoding, error) {
	if term == "ISO_IR 6" {
		return DefaultCharacterRepertoire, nil
	}
	label, ok := lookupLabelByTerm[term]
	if !ok {
		return nil, fmt.Errorf("specific character set defined term not found: %v", term)
	}

	coding, _ := charset.Lookup(label)
	if coding == nil {
		return nil, fmt.Errorf("missing encoding for label %q", label)
	}
	return coding, nil
}

// decodeText decodes b with enc, or with the default repertoire when enc is nil, and trims the
// space and NUL padding.
func decodeText(b []byte, enc encoding.Encoding) string {
	if enc == nil {
		enc = DefaultCharacterRepertoire
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		s = b
	}
	return strings.TrimRight(strings.TrimLeft(string(s), " "), " \x00")
}
