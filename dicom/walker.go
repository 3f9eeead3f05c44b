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

// Walker receives the nodes of a DataSet from Walk. It sees the same structure an Observer sees
// when the data set is parsed back. A non-nil error aborts the walk.
type Walker interface {
	OnBeginWalk() error
	OnElement(e *Element) error
	OnBeginSequence(s *Sequence) error
	OnBeginSequenceItem(item *DataSet) error
	OnEndSequenceItem() error
	OnEndSequence() error
	OnBeginFragment(f *FragmentSequence) error
	OnFragmentItem(f *FragmentSequence, fragment Buffer) error
	OnEndFragment() error
	OnEndWalk() error
}

// Walk sends the nodes of ds to w in tag order, depth first
func Walk(ds *DataSet, w Walker) error {
	if err := w.OnBeginWalk(); err != nil {
		return err
	}
	if err := walkDataSet(ds, w); err != nil {
		return err
	}
	return w.OnEndWalk()
}

func walkDataSet(ds *DataSet, w Walker) error {
	for _, n := range ds.nodes {
		if err := walkNode(n, w); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(n Node, w Walker) error {
	switch n := n.(type) {
	case *Element:
		return w.OnElement(n)
	case *Sequence:
		if err := w.OnBeginSequence(n); err != nil {
			return err
		}
		for _, item := range n.Items {
			if err := w.OnBeginSequenceItem(item); err != nil {
				return err
			}
			if err := walkDataSet(item, w); err != nil {
				return err
			}
			if err := w.OnEndSequenceItem(); err != nil {
				return err
			}
		}
		return w.OnEndSequence()
	case *FragmentSequence:
		if err := w.OnBeginFragment(n); err != nil {
			return err
		}
		for _, frag := range n.Fragments {
			if err := w.OnFragmentItem(n, frag); err != nil {
				return err
			}
		}
		return w.OnEndFragment()
	}
	return fmt.Errorf("walking %v: unknown node type %T", n.NodeTag(), n)
}
