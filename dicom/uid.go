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
	"math/big"

	"github.com/google/uuid"
)

const (
	// ImplementationClassUID identifies this codec in the file meta information of the files it
	// writes
	ImplementationClassUID = "2.25.112533481297236781385349412458066046571"

	// ImplementationVersionName is written next to ImplementationClassUID
	ImplementationVersionName = "GO_DICOM_CODEC_1"
)

// NewUID returns a new unique identifier derived from a random UUID as described in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_B.2
func NewUID() string {
	return UUIDToUID(uuid.New())
}

// UUIDToUID returns the 2.25 UID of u: the UUID read as a single unsigned 128 bit integer
func UUIDToUID(u uuid.UUID) string {
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}
