package mock

import "github.com/poiesic/minutia/ai"

// MockProvider is a test double for ai.Provider backed by a MockEmbedder.
type MockProvider struct {
	MockEmbedder *MockEmbedder
	ModelName    string
	Closed       bool
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with a default deterministic embedder.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder: NewMockEmbedder(),
		ModelName:    "mock-embedder",
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Model returns the configured mock model identifier.
func (p *MockProvider) Model() string {
	return p.ModelName
}

// Close records that the provider was closed.
func (p *MockProvider) Close() error {
	p.Closed = true
	return nil
}
