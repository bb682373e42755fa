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


// Package search provides similarity search over embedded transcript chunks.
//
// The Searcher type implements a multi-stage retrieval pipeline:
//   - Semantic search using cosine similarity over chunk embeddings
//   - Metadata filtering by date range, speaker, topics and documents
//   - Context enrichment from sequential neighbor chunks
//
// A verbatim text fallback covers queries that should not go through the
// embedder, ranked by document recency instead of similarity.
package search
