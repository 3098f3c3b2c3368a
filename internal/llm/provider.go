package llm

import (
	"context"
)

// RawQuestion is the loosely-typed question shape returned by a provider.
// Category and difficulty arrive as freeform strings and are coerced onto
// the fixed enums by the question generator.
type RawQuestion struct {
	Question        string   `json:"question"`
	QuestionType    string   `json:"questionType"`
	SuggestedAnswer string   `json:"suggestedAnswer"`
	Tips            []string `json:"tips"`
	Difficulty      string   `json:"difficulty"`
}

// Message is one prior turn handed to the interviewer persona.
type Message struct {
	Role    string
	Content string
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int32
}

// Provider defines the interface for LLM providers.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
	GenerateInterviewQuestions(ctx context.Context, resumeJSON, jobJSON string, count int) ([]RawQuestion, error)
	ChatWithInterviewer(ctx context.Context, systemContext, message string, history []Message) (string, error)
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
	GetProviderName() string
}

// ProviderError represents an error from an LLM provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

// Common error codes
// For current and future use across different providers
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
