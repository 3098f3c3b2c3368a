package queue

import "encoding/json"

// EvaluationMessage is the payload published when a session finishes and
// needs background evaluation.
type EvaluationMessage struct {
	SessionID  string `json:"sessionId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Attempt    int    `json:"attempt"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg EvaluationMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into an EvaluationMessage.
func DecodeMessage(payload []byte) (EvaluationMessage, error) {
	var msg EvaluationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return EvaluationMessage{}, err
	}
	return msg, nil
}
