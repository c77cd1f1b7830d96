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


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/compliq/ai"
	"github.com/poiesic/compliq/core"
	"github.com/poiesic/compliq/storage"
)

// DefaultTopK is the number of results returned when the caller does not
// specify one.
const DefaultTopK = 100

// DefaultBatchSize is the number of snippets embedded per provider call.
const DefaultBatchSize = 32

// SearchHit is a corpus snippet matched by a query, with its squared
// Euclidean distance from the query vector. Smaller is closer.
type SearchHit struct {
	Snippet  core.DocumentSnippet
	Distance float32
}

// EmbeddingIndex holds the embedded corpus in memory and answers
// nearest-neighbor queries over it. Built indexes are cached in the
// store keyed by a content fingerprint, so unchanged corpora skip
// re-embedding on later runs.
type EmbeddingIndex struct {
	embedder      ai.Embedder
	store         storage.IndexStore
	modelIdentity string
	batchSize     int
	pool          *ants.Pool
	logger        *slog.Logger

	mu          sync.RWMutex
	built       bool
	fingerprint string
	dimension   int
	entries     []storage.IndexEntry
}

// Option configures an EmbeddingIndex.
type Option func(*EmbeddingIndex) error

// WithBatchSize sets the number of snippets embedded per provider call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(idx *EmbeddingIndex) error {
		if size < 1 {
			size = 1
		}
		idx.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(idx *EmbeddingIndex) error {
		if size < 1 {
			size = 1
		}
		if idx.pool != nil {
			idx.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		idx.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *EmbeddingIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// New creates an embedding index backed by the given embedder and store.
// The modelIdentity string names the embedding provider and model; it is
// part of the cache fingerprint so switching models invalidates the cache.
func New(embedder ai.Embedder, store storage.IndexStore, modelIdentity string, opts ...Option) (*EmbeddingIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	idx := &EmbeddingIndex{
		embedder:      embedder,
		store:         store,
		modelIdentity: modelIdentity,
		batchSize:     DefaultBatchSize,
		pool:          pool,
		logger:        slog.Default().With("component", "embedding-index"),
	}

	for _, opt := range opts {
		if optErr := opt(idx); optErr != nil {
			idx.Release()
			return nil, optErr
		}
	}

	return idx, nil
}

// Build embeds the corpus, or adopts a cached index whose fingerprint
// matches. Snippet order is preserved so equal-distance search results
// rank in corpus order.
func (idx *EmbeddingIndex) Build(ctx context.Context, snippets []core.DocumentSnippet) error {
	for i := range snippets {
		if err := core.ValidateSnippet(&snippets[i]); err != nil {
			return fmt.Errorf("snippet %d: %w", i, err)
		}
	}

	fingerprint := Fingerprint(idx.modelIdentity, snippets)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.built && idx.fingerprint == fingerprint {
		return nil
	}

	manifest, cached, err := idx.store.Load(ctx, fingerprint)
	if err == nil {
		idx.adoptLocked(fingerprint, manifest.Dimension, cached)
		idx.logger.Info("loaded cached embedding index",
			"fingerprint", fingerprint, "entries", len(cached))
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		idx.logger.Warn("could not read cached index, re-embedding corpus", "err", err)
	}

	vectors, err := idx.embedCorpus(ctx, snippets)
	if err != nil {
		return err
	}

	entries := make([]storage.IndexEntry, len(snippets))
	dimension := 0
	for i := range snippets {
		if dimension == 0 {
			dimension = len(vectors[i])
		}
		entries[i] = storage.IndexEntry{Snippet: snippets[i], Vector: vectors[i]}
	}

	saveErr := idx.store.Save(ctx, &storage.IndexManifest{
		Fingerprint:   fingerprint,
		ModelIdentity: idx.modelIdentity,
		Dimension:     dimension,
		EntryCount:    len(entries),
		CreatedAtUnix: time.Now().Unix(),
	}, entries)
	if saveErr != nil {
		// The in-memory index is still usable; the next run re-embeds.
		idx.logger.Warn("could not persist embedding index", "err", saveErr)
	}

	idx.adoptLocked(fingerprint, dimension, entries)
	idx.logger.Info("built embedding index",
		"fingerprint", fingerprint, "entries", len(entries), "dimension", dimension)
	return nil
}

func (idx *EmbeddingIndex) adoptLocked(fingerprint string, dimension int, entries []storage.IndexEntry) {
	idx.built = true
	idx.fingerprint = fingerprint
	idx.dimension = dimension
	idx.entries = entries
}

// embedCorpus embeds snippet texts in batches on the worker pool. The
// result slice is indexed by snippet ordinal, so concurrent batches
// cannot reorder the corpus.
func (idx *EmbeddingIndex) embedCorpus(ctx context.Context, snippets []core.DocumentSnippet) ([][]float32, error) {
	vectors := make([][]float32, len(snippets))
	if len(snippets) == 0 {
		return vectors, nil
	}

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for start := 0; start < len(snippets); start += idx.batchSize {
		end := start + idx.batchSize
		if end > len(snippets) {
			end = len(snippets)
		}

		offset := start
		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, snippets[i].Text)
		}

		wg.Add(1)
		submitErr := idx.pool.Submit(func() {
			defer wg.Done()
			batch, err := idx.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
			for i, vec := range batch {
				vectors[offset+i] = vec
			}
		})
		if submitErr != nil {
			wg.Done()
			errMu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			errMu.Unlock()
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Search embeds the query and returns the k nearest snippets by squared
// Euclidean distance. Ties rank by corpus order. A k of zero or less
// uses DefaultTopK.
func (idx *EmbeddingIndex) Search(ctx context.Context, query string, k int) ([]SearchHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.built {
		return nil, ErrNotBuilt
	}
	if len(idx.entries) == 0 {
		return []SearchHit{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(queryVec) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			ErrIndexCorrupt, len(queryVec), idx.dimension)
	}

	hits := make([]SearchHit, 0, len(idx.entries))
	for i := range idx.entries {
		entry := &idx.entries[i]
		if len(entry.Vector) != idx.dimension {
			return nil, fmt.Errorf("%w: entry %d dimension %d does not match index dimension %d",
				ErrIndexCorrupt, i, len(entry.Vector), idx.dimension)
		}
		hits = append(hits, SearchHit{
			Snippet:  entry.Snippet,
			Distance: squaredDistance(queryVec, entry.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Drop discards the cached index in the store and the in-memory copy.
func (idx *EmbeddingIndex) Drop(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.built = false
	idx.fingerprint = ""
	idx.dimension = 0
	idx.entries = nil
	return idx.store.Drop(ctx)
}

// EntryCount returns the number of indexed snippets.
func (idx *EmbeddingIndex) EntryCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Release releases the worker pool. The index should not be used after
// calling Release.
func (idx *EmbeddingIndex) Release() {
	if idx.pool != nil {
		idx.pool.Release()
	}
}

func squaredDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
