package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService implements Completer with provider fallback:
// Ollama first (local, free), Gemini on connection failure, and back to
// Ollama when Gemini reports quota exhaustion.
type FallbackService struct {
	gemini Completer
	ollama Completer
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini, ollama Completer) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// Complete tries Ollama first, falls back to Gemini on failure.
func (f *FallbackService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.Complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) {
			log.Printf("[AI] Ollama connection failed: %v, falling back to Gemini", err)
		} else {
			log.Printf("[AI] Ollama error: %v, falling back to Gemini", err)
		}
	}

	if f.gemini != nil {
		result, err := f.gemini.Complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return result, nil
		}

		// If Gemini fails with quota error, retry Ollama once (might have
		// been a temporary issue).
		if isQuotaError(err) && f.ollama != nil {
			log.Printf("[AI] Gemini quota exhausted: %v, retrying Ollama", err)
			return f.ollama.Complete(ctx, systemPrompt, userPrompt)
		}

		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available")
}
