// Package ai defines the embedding service abstractions used by the
// pipeline and search engine.
//
// The Embedder interface is implemented by ai/openai for OpenAI-compatible
// APIs and by ai/mock for deterministic testing. Components depend on the
// interfaces in this package, never on a concrete provider.
package ai
