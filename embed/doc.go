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


// Package embed provides the embedding pipeline client and vector utilities.
//
// The Client batches texts up to a fixed batch size, runs batches
// concurrently on a bounded worker pool, retries transient failures with
// exponential backoff, and isolates permanent failures per item so one
// malformed text never fails its siblings.
//
// Vector utilities cover the fixed-width 32-bit float binary encoding used
// for storage (bit-identical round trip), cosine similarity with a
// zero-vector guard, and unit-length normalization.
package embed
