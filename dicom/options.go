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
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
)

// Transform describes a transformation applied to a Node before a DataSetBuilder adds it
type Transform func(Node) (Node, error)

// BuilderOption configures the behavior of a DataSetBuilder.
type BuilderOption struct {
	transform Transform
}

// WithTransform returns a BuilderOption that applies the given transformation to each Node in the
// order encountered. For sequences, the transform is applied to nested nodes first (i.e. transform
// is called on nodes in post-order). If the transform returns an error, the parse stops with that
// error. If a nil Node is returned, the node is excluded from the DataSet.
func WithTransform(t Transform) BuilderOption {
	return BuilderOption{t}
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the built DataSet
var DropGroupLengths = WithTransform(func(n Node) (Node, error) {
	if n.NodeTag().IsGroupLength() {
		return nil, nil
	}
	return n, nil
})

// DropBasicOffsetTable will empty the basic offset table of pixel data encoded using the
// encapsulated (compressed) format. For more information on the offset table and encapsulated
// formats please see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
var DropBasicOffsetTable = WithTransform(func(n Node) (Node, error) {
	if f, ok := n.(*FragmentSequence); ok && f.Tag.Equal(PixelDataTag) {
		f.OffsetTable = nil
	}
	return n, nil
})

// ResolveByteOrder converts every buffer to little endian as it is added, copying the bytes out of
// the source
var ResolveByteOrder = WithTransform(func(n Node) (Node, error) {
	switch n := n.(type) {
	case *Element:
		n.Value = resolvedCopy(n.Value)
	case *FragmentSequence:
		for i, frag := range n.Fragments {
			n.Fragments[i] = resolvedCopy(frag)
		}
	}
	return n, nil
})

func resolvedCopy(b Buffer) Buffer {
	return NewBuffer(append([]byte(nil), b.Resolved().Data()...))
}

// ReaderOption configures a Reader
type ReaderOption struct {
	apply func(*Reader)
}

// WithExplicitVR selects whether VRs are read from the stream or from the dictionary. Readers
// default to explicit VR.
func WithExplicitVR(explicit bool) ReaderOption {
	return ReaderOption{func(r *Reader) { r.explicit = explicit }}
}

// WithDictionary sets the dictionary used to resolve implicit VRs. The default is
// StandardDictionary.
func WithDictionary(d Dictionary) ReaderOption {
	return ReaderOption{func(r *Reader) { r.dict = d }}
}

// WithStop sets the criterion that ends a parse early with the result Stopped
func WithStop(stop StopCriterion) ReaderOption {
	return ReaderOption{func(r *Reader) { r.stop = stop }}
}

// WithFallbackEncoding sets the encoding used to decode private creator names. The default is
// DefaultCharacterRepertoire.
func WithFallbackEncoding(enc encoding.Encoding) ReaderOption {
	return ReaderOption{func(r *Reader) { r.fallback = enc }}
}

// WithLogger sets the logger of debug events. Readers are silent by default.
func WithLogger(log zerolog.Logger) ReaderOption {
	return ReaderOption{func(r *Reader) { r.log = log }}
}

// WithStrayItems makes the reader accept items found where a data element is expected. The items
// and those directly following them are reported as a sequence of undefined length whose tag is
// the Item tag. Such items are a structural error by default.
func WithStrayItems() ReaderOption {
	return ReaderOption{func(r *Reader) { r.strayItems = true }}
}

// WithBuilderOptions passes options to the DataSetBuilder used by ReadDataSet and ReadFile. It
// has no effect on a Reader created with NewReader.
func WithBuilderOptions(opts ...BuilderOption) ReaderOption {
	return ReaderOption{func(r *Reader) { r.builderOpts = append(r.builderOpts, opts...) }}
}
