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
)

// Construct writes ds as a DICOM file to w. ds holds both the file meta information and the data
// set; the output transfer syntax is the one named by its (0002,0010) element. The meta group
// length is recalculated.
func Construct(w io.Writer, ds *DataSet, opts WriteOptions, wopts ...WriterOption) error {
	meta := NewDataSet(ds.Group(0x0002)...)
	if _, ok := meta.Element(TransferSyntaxUIDTag); !ok {
		return fmt.Errorf("getting transfer syntax from data set: %v is missing", TransferSyntaxUIDTag)
	}
	return WriteFile(w, meta, ds, opts, wopts...)
}
