// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/storefront/core"
)

// IndexSnapshotMUS is the MUS serializer for core.IndexSnapshot.
//
// Layout: digest, vocabulary cap, vocabulary, idf weights, product ids, metadata rows and
// sparse vectors. Every slice is prefixed with its varint length.
var IndexSnapshotMUS = indexSnapshotMUS{}

type indexSnapshotMUS struct{}

func (indexSnapshotMUS) Marshal(s core.IndexSnapshot, bs []byte) (n int) {
	n = ord.String.Marshal(s.Digest, bs)
	n += varint.Int.Marshal(s.MaxFeatures, bs[n:])
	n += marshalStrings(s.Vocabulary, bs[n:])
	n += varint.Int.Marshal(len(s.IDF), bs[n:])
	for _, w := range s.IDF {
		n += raw.Float64.Marshal(w, bs[n:])
	}
	n += marshalStrings(s.IDs, bs[n:])
	n += varint.Int.Marshal(len(s.Meta), bs[n:])
	for _, m := range s.Meta {
		n += ord.String.Marshal(m.Name, bs[n:])
		n += ord.String.Marshal(m.Category, bs[n:])
		n += raw.Float64.Marshal(m.Price, bs[n:])
		n += varint.Int.Marshal(m.Stock, bs[n:])
	}
	n += varint.Int.Marshal(len(s.Vectors), bs[n:])
	for _, vec := range s.Vectors {
		n += varint.Int.Marshal(len(vec), bs[n:])
		for _, e := range vec {
			n += varint.Int.Marshal(e.Term, bs[n:])
			n += raw.Float64.Marshal(e.Weight, bs[n:])
		}
	}
	return n
}

func (indexSnapshotMUS) Size(s core.IndexSnapshot) (size int) {
	size = ord.String.Size(s.Digest)
	size += varint.Int.Size(s.MaxFeatures)
	size += sizeStrings(s.Vocabulary)
	size += varint.Int.Size(len(s.IDF))
	for _, w := range s.IDF {
		size += raw.Float64.Size(w)
	}
	size += sizeStrings(s.IDs)
	size += varint.Int.Size(len(s.Meta))
	for _, m := range s.Meta {
		size += ord.String.Size(m.Name)
		size += ord.String.Size(m.Category)
		size += raw.Float64.Size(m.Price)
		size += varint.Int.Size(m.Stock)
	}
	size += varint.Int.Size(len(s.Vectors))
	for _, vec := range s.Vectors {
		size += varint.Int.Size(len(vec))
		for _, e := range vec {
			size += varint.Int.Size(e.Term)
			size += raw.Float64.Size(e.Weight)
		}
	}
	return size
}

func (indexSnapshotMUS) Unmarshal(bs []byte) (s core.IndexSnapshot, n int, err error) {
	var n1 int
	if s.Digest, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if s.MaxFeatures, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.Vocabulary, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1

	count, n1, err := unmarshalCount(bs[n:], 8)
	if err != nil {
		return
	}
	n += n1
	s.IDF = make([]float64, count)
	for i := range s.IDF {
		if s.IDF[i], n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}

	if s.IDs, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1

	if count, n1, err = unmarshalCount(bs[n:], 11); err != nil {
		return
	}
	n += n1
	s.Meta = make([]core.HitMeta, count)
	for i := range s.Meta {
		m := &s.Meta[i]
		if m.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		if m.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		if m.Price, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		if m.Stock, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}

	if count, n1, err = unmarshalCount(bs[n:], 1); err != nil {
		return
	}
	n += n1
	s.Vectors = make([][]core.SparseWeight, count)
	for i := range s.Vectors {
		var entries int
		if entries, n1, err = unmarshalCount(bs[n:], 9); err != nil {
			return
		}
		n += n1
		vec := make([]core.SparseWeight, entries)
		for j := range vec {
			if vec[j].Term, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
			if vec[j].Weight, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
		s.Vectors[i] = vec
	}
	return
}

func marshalStrings(ss []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(ss), bs)
	for _, s := range ss {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func sizeStrings(ss []string) (size int) {
	size = varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func unmarshalStrings(bs []byte) (ss []string, n int, err error) {
	count, n, err := unmarshalCount(bs, 1)
	if err != nil {
		return nil, n, err
	}
	ss = make([]string, count)
	for i := range ss {
		var n1 int
		if ss[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
	}
	return ss, n, nil
}

// unmarshalCount reads a slice length and rejects lengths the remaining
// bytes cannot hold at minElemSize bytes per element.
func unmarshalCount(bs []byte, minElemSize int) (count, n int, err error) {
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if count < 0 {
		return 0, n, fmt.Errorf("negative length %d", count)
	}
	if count > (len(bs)-n)/minElemSize {
		return 0, n, ErrTruncatedData
	}
	return count, n, nil
}

// MarshalSnapshot serializes an IndexSnapshot to bytes.
func MarshalSnapshot(snapshot *core.IndexSnapshot) ([]byte, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	buf := make([]byte, IndexSnapshotMUS.Size(*snapshot))
	IndexSnapshotMUS.Marshal(*snapshot, buf)
	return buf, nil
}

// UnmarshalSnapshot deserializes an IndexSnapshot from bytes.
func UnmarshalSnapshot(data []byte) (*core.IndexSnapshot, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	snapshot, n, err := IndexSnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	if err := validateSnapshot(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &snapshot, nil
}

func validateSnapshot(s *core.IndexSnapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.Digest == "" {
		return fmt.Errorf("%w: empty digest", ErrInvalidSnapshot)
	}
	if s.MaxFeatures < 0 {
		return fmt.Errorf("%w: negative vocabulary cap", ErrInvalidSnapshot)
	}
	if len(s.IDF) != len(s.Vocabulary) {
		return fmt.Errorf("%w: %d idf weights for %d terms", ErrInvalidSnapshot, len(s.IDF), len(s.Vocabulary))
	}
	if len(s.Meta) != len(s.IDs) || len(s.Vectors) != len(s.IDs) {
		return fmt.Errorf("%w: mismatched document count", ErrInvalidSnapshot)
	}
	for _, vec := range s.Vectors {
		for _, e := range vec {
			if e.Term < 0 || e.Term >= len(s.Vocabulary) {
				return fmt.Errorf("%w: term %d out of range", ErrInvalidSnapshot, e.Term)
			}
		}
	}
	return nil
}
