package ai

import "context"

// Completer is the text-completion capability used by the enrichment
// pipeline and the briefing generator. Providers are treated as unreliable:
// callers must parse responses defensively.
//
// Implement this interface to add new AI providers (Gemini, Ollama, etc.)
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
