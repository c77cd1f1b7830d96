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


package compliq

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/compliq/ai"
	"github.com/poiesic/compliq/ai/openai"
	"github.com/poiesic/compliq/checklist"
	"github.com/poiesic/compliq/index"
	"github.com/poiesic/compliq/knowledge"
	"github.com/poiesic/compliq/response"
	"github.com/poiesic/compliq/storage/badger"
)

// Assistant is the session aggregate: it owns the storage backend, the
// embedding provider, the built index and the response compiler, and
// answers queries through Ask.
type Assistant struct {
	backend  *badger.Backend
	store    *badger.IndexRepository
	embedder ai.Embedder
	base     *knowledge.Base
	index    *index.EmbeddingIndex
	compiler *response.Compiler
	logger   *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig      *ai.Config
	embedder      ai.Embedder
	modelIdentity string
	checklistDir  string
	stepExtractor response.StepExtractor
	topK          int
	batchSize     int
	inMemory      bool
	logger        *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the OpenAI client.
// The identity string keys the index cache in place of host and model.
func WithEmbedder(embedder ai.Embedder, identity string) AssistantOption {
	return func(o *assistantOptions) {
		o.embedder = embedder
		o.modelIdentity = identity
	}
}

// WithChecklistDir sets the checklist output directory.
func WithChecklistDir(dir string) AssistantOption {
	return func(o *assistantOptions) {
		o.checklistDir = dir
	}
}

// WithStepExtractor replaces the heuristic step extractor.
func WithStepExtractor(extractor response.StepExtractor) AssistantOption {
	return func(o *assistantOptions) {
		o.stepExtractor = extractor
	}
}

// WithTopK sets how many snippets are retrieved per query.
func WithTopK(k int) AssistantOption {
	return func(o *assistantOptions) {
		o.topK = k
	}
}

// WithBatchSize sets the index build embedding batch size.
func WithBatchSize(size int) AssistantOption {
	return func(o *assistantOptions) {
		o.batchSize = size
	}
}

// WithInMemoryStorage keeps the index cache in memory, for tests.
func WithInMemoryStorage() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AssistantOption {
	return func(o *assistantOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewAssistant creates an assistant over the given knowledge base, with
// its index cache at dbPath.
func NewAssistant(base *knowledge.Base, dbPath string, opts ...AssistantOption) (*Assistant, error) {
	if base == nil {
		return nil, response.ErrKnowledgeBaseRequired
	}

	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
		topK:     index.DefaultTopK,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	embedder := options.embedder
	modelIdentity := options.modelIdentity
	if embedder == nil {
		if err := options.aiConfig.Validate(); err != nil {
			return nil, err
		}
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
		modelIdentity = options.aiConfig.Host + "|" + options.aiConfig.Model
	}

	backend, err := badger.OpenBackend(dbPath, options.inMemory)
	if err != nil {
		return nil, err
	}
	store := badger.NewIndexRepository(backend)

	indexOpts := []index.Option{index.WithLogger(options.logger)}
	if options.batchSize > 0 {
		indexOpts = append(indexOpts, index.WithBatchSize(options.batchSize))
	}
	idx, err := index.New(embedder, store, modelIdentity, indexOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	compilerOpts := []response.Option{
		response.WithTopK(options.topK),
		response.WithLogger(options.logger),
		response.WithExporter(checklist.NewExporter(options.checklistDir,
			checklist.WithLogger(options.logger))),
	}
	if options.stepExtractor != nil {
		compilerOpts = append(compilerOpts, response.WithStepExtractor(options.stepExtractor))
	}
	compiler, err := response.NewCompiler(base, idx, compilerOpts...)
	if err != nil {
		idx.Release()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:  backend,
		store:    store,
		embedder: embedder,
		base:     base,
		index:    idx,
		compiler: compiler,
		logger:   options.logger,
	}, nil
}

// BuildIndex embeds the knowledge base corpus, or adopts the cached
// index when the fingerprint matches.
func (a *Assistant) BuildIndex(ctx context.Context) error {
	return a.index.Build(ctx, a.base.Snippets())
}

// Base returns the session knowledge base.
func (a *Assistant) Base() *knowledge.Base {
	return a.base
}

// Search exposes raw index retrieval, for diagnostics.
func (a *Assistant) Search(ctx context.Context, query string, k int) ([]index.SearchHit, error) {
	return a.index.Search(ctx, query, k)
}

// Ask answers one query. A never-built index is built on first use, and
// a corrupt cached index is dropped and rebuilt once before the query is
// retried; embedding provider failures surface as
// ai.ErrEmbeddingUnavailable for the caller to report without ending the
// session.
func (a *Assistant) Ask(ctx context.Context, text string, selection *int, generateChecklist bool) (*response.Outcome, error) {
	outcome, err := a.compiler.Compile(ctx, text, selection, generateChecklist)
	if err == nil {
		return outcome, nil
	}

	switch {
	case errors.Is(err, index.ErrNotBuilt):
		if buildErr := a.BuildIndex(ctx); buildErr != nil {
			return nil, buildErr
		}
	case errors.Is(err, index.ErrIndexCorrupt):
		a.logger.Warn("index corrupt, rebuilding", "err", err)
		if dropErr := a.index.Drop(ctx); dropErr != nil {
			return nil, dropErr
		}
		if buildErr := a.BuildIndex(ctx); buildErr != nil {
			return nil, buildErr
		}
	default:
		return nil, err
	}

	return a.compiler.Compile(ctx, text, selection, generateChecklist)
}

// Close releases the index worker pool and the storage backend.
func (a *Assistant) Close() error {
	a.index.Release()

	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing index store", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
