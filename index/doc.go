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


// Package index builds and queries the embedded document corpus.
//
// The index performs exact nearest-neighbor search by squared Euclidean
// distance over every corpus snippet. At catalog scale (a few thousand
// snippets) a full scan is faster and simpler than an approximate
// structure, and results are fully deterministic.
//
// Built indexes are persisted through a storage.IndexStore keyed by a
// fingerprint of the model identity and corpus content, so a restart
// with an unchanged corpus skips the embedding provider entirely.
package index
