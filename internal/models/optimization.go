package models

import (
	"encoding/json"
	"time"
)

// Optimization pairs a resume with a job posting. Question generation and
// evaluation consume the parsed structured data of both sides.
type Optimization struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	ResumeID  string    `gorm:"not null" json:"resumeId"`
	JobID     string    `gorm:"not null" json:"jobId"`
	Resume    Resume    `gorm:"foreignKey:ResumeID" json:"resume"`
	Job       Job       `gorm:"foreignKey:JobID" json:"job"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resume holds the parsed structured payload of an uploaded resume.
type Resume struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"userId"`
	ParsedData string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Job holds the parsed structured payload of a job posting.
type Job struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"userId"`
	ParsedData string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ExperienceEntry is one position on a resume, most recent first.
type ExperienceEntry struct {
	Position string `json:"position"`
	Company  string `json:"company"`
	Duration string `json:"duration,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// EducationEntry is one education record on a resume, primary first.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
}

// ResumeData is the parsed structure stored in Resume.ParsedData.
type ResumeData struct {
	Name       string            `json:"name,omitempty"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
}

// JobData is the parsed structure stored in Job.ParsedData.
type JobData struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	RequiredSkills   []string `json:"requiredSkills"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// Data decodes the parsed resume payload. An empty column decodes to the
// zero value rather than an error.
func (r *Resume) Data() (ResumeData, error) {
	var data ResumeData
	if r.ParsedData == "" {
		return data, nil
	}
	err := json.Unmarshal([]byte(r.ParsedData), &data)
	return data, err
}

// Data decodes the parsed job payload.
func (j *Job) Data() (JobData, error) {
	var data JobData
	if j.ParsedData == "" {
		return data, nil
	}
	err := json.Unmarshal([]byte(j.ParsedData), &data)
	return data, err
}
