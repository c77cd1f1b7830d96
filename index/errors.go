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

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrStoreRequired is returned when no index store is provided.
	ErrStoreRequired = errors.New("index store is required")

	// ErrNotBuilt is returned when Search is called before Build.
	ErrNotBuilt = errors.New("index has not been built")

	// ErrIndexCorrupt is returned when cached index data is inconsistent,
	// such as a query vector whose dimension differs from the stored
	// entries. The caller should drop the cache and rebuild.
	ErrIndexCorrupt = errors.New("index data is corrupt")
)
