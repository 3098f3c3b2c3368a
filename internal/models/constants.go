package models

// Session lifecycle states. A session moves IN_PROGRESS -> COMPLETED on an
// explicit end, and COMPLETED -> EVALUATED once the background evaluation
// has persisted a score.
const (
	SessionInProgress = "IN_PROGRESS"
	SessionCompleted  = "COMPLETED"
	SessionEvaluated  = "EVALUATED"
)

// Transcript roles.
const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
)

// Question categories.
const (
	TypeBehavioral  = "BEHAVIORAL"
	TypeTechnical   = "TECHNICAL"
	TypeSituational = "SITUATIONAL"
	TypeResumeBased = "RESUME_BASED"
)

// Question difficulties.
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// Question bank sizing. Requested counts are clamped into this range.
const (
	MinQuestionCount     = 10
	MaxQuestionCount     = 15
	DefaultQuestionCount = 12
)

// contains all valid question categories
var ValidQuestionTypes = map[string]bool{
	TypeBehavioral:  true,
	TypeTechnical:   true,
	TypeSituational: true,
	TypeResumeBased: true,
}

// contains all valid difficulties
var ValidDifficulties = map[string]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// ClampQuestionCount bounds a requested question count to the supported range.
func ClampQuestionCount(n int) int {
	if n < MinQuestionCount {
		return MinQuestionCount
	}
	if n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return n
}
