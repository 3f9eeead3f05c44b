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

// RecalculateGroupLength sets the group length element (gggg,0000) of group to the encoded length
// of the other elements of the group in syntax. The group length element is created if it does
// not exist. opts must be the options the data set is written with since they decide which
// delimiters are counted.
func RecalculateGroupLength(ds *DataSet, syntax TransferSyntax, opts WriteOptions, group uint16) error {
	var nodes []Node
	for _, n := range ds.Group(group) {
		if !n.NodeTag().IsGroupLength() {
			nodes = append(nodes, n)
		}
	}
	length, err := NewLengthCalculator(syntax, opts).CalculateNodes(nodes)
	if err != nil {
		return fmt.Errorf("calculating length of group %04X: %w", group, err)
	}
	ds.Add(NewUint32Element(NewTag(group, 0x0000), length))
	return nil
}

// RecalculateGroupLengths updates every group length element at the top level of ds. With
// createIfMissing, groups without one get one.
func RecalculateGroupLengths(ds *DataSet, syntax TransferSyntax, opts WriteOptions, createIfMissing bool) error {
	for _, group := range ds.Groups() {
		if _, ok := ds.Get(NewTag(group, 0x0000)); !ok && !createIfMissing {
			continue
		}
		if err := RecalculateGroupLength(ds, syntax, opts, group); err != nil {
			return err
		}
	}
	return nil
}

// RemoveGroupLengths deletes the group length elements of ds and, unless firstLevelOnly, of every
// nested item
func RemoveGroupLengths(ds *DataSet, firstLevelOnly bool) {
	for _, group := range ds.Groups() {
		ds.Remove(NewTag(group, 0x0000))
	}
	if firstLevelOnly {
		return
	}
	for _, n := range ds.nodes {
		if seq, ok := n.(*Sequence); ok {
			for _, item := range seq.Items {
				RemoveGroupLengths(item, false)
			}
		}
	}
}
