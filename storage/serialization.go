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
	"math"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// CollectionInfo is the persisted header of a collection.
type CollectionInfo struct {
	Dim    int
	Metric Metric
}

// MarshalCollectionInfo serializes a collection header to bytes.
func MarshalCollectionInfo(info CollectionInfo) []byte {
	size := varint.Int.Size(info.Dim) + ord.String.Size(string(info.Metric))
	buf := make([]byte, size)
	n := varint.Int.Marshal(info.Dim, buf)
	ord.String.Marshal(string(info.Metric), buf[n:])
	return buf
}

// UnmarshalCollectionInfo deserializes a collection header from bytes.
func UnmarshalCollectionInfo(data []byte) (CollectionInfo, error) {
	var info CollectionInfo
	dim, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return info, fmt.Errorf("%w: dim: %w", ErrSerializationFailed, err)
	}
	metric, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return info, fmt.Errorf("%w: metric: %w", ErrSerializationFailed, err)
	}
	info.Dim = dim
	info.Metric = Metric(metric)
	return info, nil
}

func entrySize(e *Entry) int {
	size := varint.Uint64.Size(e.ID)
	size += ord.String.Size(e.Text)
	size += varint.Int.Size(len(e.Vector))
	for _, f := range e.Vector {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	size += varint.Int.Size(len(e.Metadata))
	for k, v := range e.Metadata {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

// MarshalEntry serializes an Entry to bytes. Metadata keys are written in
// sorted order so equal entries encode identically.
func MarshalEntry(e *Entry) []byte {
	buf := make([]byte, entrySize(e))
	n := varint.Uint64.Marshal(e.ID, buf)
	n += ord.String.Marshal(e.Text, buf[n:])
	n += varint.Int.Marshal(len(e.Vector), buf[n:])
	for _, f := range e.Vector {
		n += varint.Uint32.Marshal(math.Float32bits(f), buf[n:])
	}
	n += varint.Int.Marshal(len(e.Metadata), buf[n:])
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(e.Metadata[k], buf[n:])
	}
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	e := &Entry{}
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	e.ID = id
	off := n

	e.Text, n, err = ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrSerializationFailed, err)
	}
	off += n

	dim, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil || dim < 0 {
		return nil, fmt.Errorf("%w: vector length", ErrSerializationFailed)
	}
	off += n
	if dim > len(data)-off {
		return nil, ErrTruncatedData
	}
	e.Vector = make([]float32, dim)
	for i := 0; i < dim; i++ {
		bits, n, err := varint.Uint32.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector[%d]: %w", ErrSerializationFailed, i, err)
		}
		e.Vector[i] = math.Float32frombits(bits)
		off += n
	}

	count, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: metadata length", ErrSerializationFailed)
	}
	off += n
	if count > 0 {
		e.Metadata = make(map[string]string, count)
	}
	for i := 0; i < count; i++ {
		k, n, err := ord.String.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata key: %w", ErrSerializationFailed, err)
		}
		off += n
		v, n, err := ord.String.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata value: %w", ErrSerializationFailed, err)
		}
		off += n
		e.Metadata[k] = v
	}
	return e, nil
}
