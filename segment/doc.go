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


// Package segment splits documents into ordered, possibly overlapping
// chunks and links them into a relationship graph.
//
// A full-document chunk is always emitted at position 0. Finer-grained
// chunks follow from one of three strategies: speaker-turn for transcripts
// with speaker labels, time-window for transcripts with timestamps, and
// greedy paragraph accumulation as the fallback. Malformed markup degrades
// to the fallback rather than failing; an empty input yields zero chunks
// and no error.
//
// Each chunk is annotated with extracted entities, topic labels and a
// heuristic importance score. Token counting defaults to an offline
// character heuristic; a tiktoken-backed tokenizer can be plugged in.
package segment
