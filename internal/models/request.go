package models

import "strings"

// StartSessionRequest starts a new interview session for an optimization.
type StartSessionRequest struct {
	OptimizationID string  `json:"optimizationId"`
	VoiceID        *string `json:"voiceId,omitempty"`
}

// implements the Validator interface
func (r *StartSessionRequest) Validate() error {
	if strings.TrimSpace(r.OptimizationID) == "" {
		return &ErrorResponse{
			Code:    "missing_optimization_id",
			Message: "optimizationId field is required",
		}
	}
	if r.VoiceID != nil && strings.TrimSpace(*r.VoiceID) == "" {
		return &ErrorResponse{
			Code:    "invalid_voice_id",
			Message: "voiceId must not be empty when provided",
		}
	}
	return nil
}

// SubmitAnswerRequest appends one answer to the session transcript.
type SubmitAnswerRequest struct {
	Content  string  `json:"content"`
	AudioURL *string `json:"audioUrl,omitempty"`
}

func (r *SubmitAnswerRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return &ErrorResponse{
			Code:    "missing_content",
			Message: "content field is required",
		}
	}
	return nil
}

// ChatRequest is one free-form message to the interviewer persona.
type ChatRequest struct {
	Message string `json:"message"`
}

func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ErrorResponse{
			Code:    "missing_message",
			Message: "message field is required",
		}
	}
	return nil
}
