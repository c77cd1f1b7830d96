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
	"github.com/poiesic/compliq/core"
)

// MarshalIndexEntry serializes an IndexEntry to bytes.
func MarshalIndexEntry(entry *IndexEntry) []byte {
	size := varint.Int.Size(int(entry.Snippet.Kind)) +
		ord.String.Size(entry.Snippet.ControlID) +
		ord.String.Size(entry.Snippet.Text) +
		varint.Int.Size(len(entry.Vector)) +
		len(entry.Vector)*raw.Float32.Size(0)

	buf := make([]byte, size)
	n := varint.Int.Marshal(int(entry.Snippet.Kind), buf)
	n += ord.String.Marshal(entry.Snippet.ControlID, buf[n:])
	n += ord.String.Marshal(entry.Snippet.Text, buf[n:])
	n += varint.Int.Marshal(len(entry.Vector), buf[n:])
	for _, v := range entry.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalIndexEntry deserializes an IndexEntry from bytes.
func UnmarshalIndexEntry(data []byte) (*IndexEntry, error) {
	kind, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: entry kind: %w", ErrSerializationFailed, err)
	}

	controlID, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: entry control id: %w", ErrSerializationFailed, err)
	}
	n += m

	text, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: entry text: %w", ErrSerializationFailed, err)
	}
	n += m

	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative vector length %d", ErrSerializationFailed, length)
	}
	n += m

	// The length field is untrusted input; bound it against the bytes
	// actually present before allocating.
	if length > len(data[n:])/raw.Float32.Size(0) {
		return nil, fmt.Errorf("%w: vector length %d exceeds %d remaining bytes",
			ErrTruncatedData, length, len(data[n:]))
	}

	vector := make([]float32, 0, length)
	for i := 0; i < length; i++ {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector element %d: %w", ErrTruncatedData, i, err)
		}
		n += m
		vector = append(vector, v)
	}

	return &IndexEntry{
		Snippet: core.DocumentSnippet{
			Kind:      core.SourceKind(kind),
			ControlID: controlID,
			Text:      text,
		},
		Vector: vector,
	}, nil
}

// MarshalManifest serializes an IndexManifest to bytes.
func MarshalManifest(manifest *IndexManifest) []byte {
	size := ord.String.Size(manifest.Fingerprint) +
		ord.String.Size(manifest.ModelIdentity) +
		varint.Int.Size(manifest.Dimension) +
		varint.Int.Size(manifest.EntryCount) +
		varint.Int64.Size(manifest.CreatedAtUnix)

	buf := make([]byte, size)
	n := ord.String.Marshal(manifest.Fingerprint, buf)
	n += ord.String.Marshal(manifest.ModelIdentity, buf[n:])
	n += varint.Int.Marshal(manifest.Dimension, buf[n:])
	n += varint.Int.Marshal(manifest.EntryCount, buf[n:])
	n += varint.Int64.Marshal(manifest.CreatedAtUnix, buf[n:])
	return buf
}

// UnmarshalManifest deserializes an IndexManifest from bytes.
func UnmarshalManifest(data []byte) (*IndexManifest, error) {
	fingerprint, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest fingerprint: %w", ErrSerializationFailed, err)
	}

	modelIdentity, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: manifest model identity: %w", ErrSerializationFailed, err)
	}
	n += m

	dimension, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: manifest dimension: %w", ErrSerializationFailed, err)
	}
	n += m

	entryCount, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: manifest entry count: %w", ErrSerializationFailed, err)
	}
	n += m

	createdAt, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: manifest created at: %w", ErrSerializationFailed, err)
	}

	if dimension < 0 {
		return nil, fmt.Errorf("%w: negative manifest dimension %d", ErrSerializationFailed, dimension)
	}
	if entryCount < 0 {
		return nil, fmt.Errorf("%w: negative manifest entry count %d", ErrSerializationFailed, entryCount)
	}

	return &IndexManifest{
		Fingerprint:   fingerprint,
		ModelIdentity: modelIdentity,
		Dimension:     dimension,
		EntryCount:    entryCount,
		CreatedAtUnix: createdAt,
	}, nil
}
