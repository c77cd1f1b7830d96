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


// Package ai defines the embedding provider boundary for Compliq.
//
// The core retrieval pipeline depends only on the Embedder interface; the
// concrete provider is injected and swappable by model identity string,
// which also keys the persisted index cache.
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test double for unit testing without a
//     running embedding service
//
// Public constructors return the Embedder interface to prevent coupling to
// concrete implementations; mock constructors return concrete types so
// tests can inject behavior and assert on call counts.
package ai
