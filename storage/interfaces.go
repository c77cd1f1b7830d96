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
	"context"

	"github.com/poiesic/compliq/core"
)

// IndexEntry pairs one document snippet with its embedding vector. The
// ordinal position of an entry is its stable retrieval handle.
type IndexEntry struct {
	Snippet core.DocumentSnippet
	Vector  []float32
}

// IndexManifest describes a persisted embedding index. The fingerprint
// binds the manifest to one (model identity, snippet corpus) pair.
type IndexManifest struct {
	Fingerprint   string
	ModelIdentity string
	Dimension     int
	EntryCount    int
	CreatedAtUnix int64
}

// IndexStore persists a single embedding index. The manifest is committed
// after all entries, so an interrupted save reads back as a cache miss
// rather than a partial index.
type IndexStore interface {
	// Load returns the stored index if its fingerprint matches.
	// Returns ErrNotFound when no index is stored or the stored
	// fingerprint differs; decode failures and entry-count mismatches
	// are reported as ErrSerializationFailed / ErrTruncatedData.
	Load(ctx context.Context, fingerprint string) (*IndexManifest, []IndexEntry, error)

	// Save replaces any stored index with the given one.
	Save(ctx context.Context, manifest *IndexManifest, entries []IndexEntry) error

	// Drop removes the stored index, if any.
	Drop(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
