package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"intervai/internal/llm"
	"intervai/internal/utils"
)

// Client represents a Gemini LLM client

type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// GenerateContent sends a prompt to Gemini and returns the raw response text.
func (c *Client) GenerateContent(ctx context.Context, prompt string, opts *llm.GenerateOptions) (string, error) {
	var config *genai.GenerateContentConfig
	if opts != nil {
		config = &genai.GenerateContentConfig{}
		if opts.Temperature > 0 {
			config.Temperature = genai.Ptr(opts.Temperature)
		}
		if opts.MaxTokens > 0 {
			config.MaxOutputTokens = genai.Ptr(opts.MaxTokens)
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), config)
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeServiceDown,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}
	if result == nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if text == "" {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return text, nil
}

const questionGenPrompt = `You are an expert technical interviewer preparing a mock interview.

Candidate resume (JSON):
%s

Job description (JSON):
%s

Generate exactly %d interview questions tailored to this candidate and role.
Mix behavioral, technical, situational and resume-based questions. Respond
with only a JSON array, each element shaped as:
{"question": "...", "questionType": "BEHAVIORAL|TECHNICAL|SITUATIONAL|RESUME_BASED", "suggestedAnswer": "...", "tips": ["...", "..."], "difficulty": "EASY|MEDIUM|HARD"}`

// GenerateInterviewQuestions asks Gemini for a tailored question set. The
// response is freeform text; the first JSON array found in it is decoded.
func (c *Client) GenerateInterviewQuestions(ctx context.Context, resumeJSON, jobJSON string, count int) ([]llm.RawQuestion, error) {
	prompt := fmt.Sprintf(questionGenPrompt, resumeJSON, jobJSON, count)

	text, err := c.GenerateContent(ctx, prompt, &llm.GenerateOptions{Temperature: 0.7, MaxTokens: 4096})
	if err != nil {
		return nil, err
	}

	raw, ok := utils.ExtractJSONArray(text)
	if !ok {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No JSON array found in question generation response",
		}
	}

	var questions []llm.RawQuestion
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to decode generated questions",
			Err:      err,
		}
	}

	return questions, nil
}

// ChatWithInterviewer answers one free-form candidate message in the
// interviewer persona described by systemContext, replaying the prior
// transcript as conversation history.
func (c *Client) ChatWithInterviewer(ctx context.Context, systemContext, message string, history []llm.Message) (string, error) {
	var prompt strings.Builder
	prompt.WriteString(systemContext)
	prompt.WriteString("\n\nConversation so far:\n")
	for _, turn := range history {
		role := "Candidate"
		if turn.Role != "USER" {
			role = "Interviewer"
		}
		prompt.WriteString(role)
		prompt.WriteString(": ")
		prompt.WriteString(turn.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("Candidate: ")
	prompt.WriteString(message)
	prompt.WriteString("\nInterviewer:")

	return c.GenerateContent(ctx, prompt.String(), &llm.GenerateOptions{Temperature: 0.8, MaxTokens: 1024})
}

// TranscribeAudio sends recorded audio to Gemini and returns the verbatim
// transcript. There is no fallback here; upstream failures surface directly.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Audio payload is empty",
		}
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: "Transcribe the following audio verbatim. Return only the transcript text."},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, nil)
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeServiceDown,
			Message:  "Failed to transcribe audio",
			Err:      err,
		}
	}
	if result == nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No transcription generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to extract transcription text",
			Err:      err,
		}
	}

	return strings.TrimSpace(text), nil
}

func (c *Client) GetProviderName() string {
	return "gemini"
}
