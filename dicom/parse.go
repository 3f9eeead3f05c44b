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

// Parse parses a DICOM file represented as an io.Reader, returning a single DataSet that holds
// the file meta information followed by the data set. Use ReadFile to keep the two apart.
func Parse(r io.Reader, opts ...ReaderOption) (*DataSet, error) {
	f, err := ReadFile(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	ds := f.DataSet
	for _, n := range f.Meta.Nodes() {
		ds.Add(n)
	}
	return ds, nil
}
