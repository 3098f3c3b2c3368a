package queue

import "context"

// Publisher sends evaluation messages to a queue backend.
type Publisher interface {
	Publish(ctx context.Context, msg EvaluationMessage) error
}

// Handler processes one delivered message. A returned error triggers a
// retry until the backend's attempt limit is reached.
type Handler func(ctx context.Context, msg EvaluationMessage) error
