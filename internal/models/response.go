package models

// StartSessionResponse returns the created session plus the first question of
// the pre-generated bank, or a nil question if no bank exists yet.
type StartSessionResponse struct {
	Session       *InterviewSession  `json:"session"`
	FirstQuestion *InterviewQuestion `json:"firstQuestion"`
}

// AnswerResponse reports the next question after an answer, or completion of
// the structured loop when every question has been answered.
type AnswerResponse struct {
	NextQuestion *InterviewQuestion `json:"nextQuestion"`
	IsCompleted  bool               `json:"isCompleted"`
}

// SessionStateResponse is a read-only projection of session progress.
type SessionStateResponse struct {
	Session         *InterviewSession  `json:"session"`
	CurrentQuestion *InterviewQuestion `json:"currentQuestion"`
	Progress        int                `json:"progress"`
	Total           int                `json:"total"`
}

// ChatResponse carries one interviewer persona reply.
type ChatResponse struct {
	Content string `json:"content"`
}

// TranscribeResponse carries a raw audio transcription result.
type TranscribeResponse struct {
	Text string `json:"text"`
}
