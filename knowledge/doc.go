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


// Package knowledge holds the session knowledge base: controls, baseline
// memberships, assessment procedures, STIG technologies and the CCI
// mapping, plus the generation of the retrieval corpus.
//
// The base is constructed once from an ingestion snapshot and is read-only
// during query processing, so no locking is needed on the query path.
package knowledge
