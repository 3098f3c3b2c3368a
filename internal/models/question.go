package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a slice of strings as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// InterviewQuestion is one entry of the fixed question bank generated for an
// optimization. The set is generated once and read-only thereafter; Position
// holds the generation order, which defines the session question sequence.
type InterviewQuestion struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	OptimizationID  string     `gorm:"not null;index" json:"optimizationId"`
	Position        int        `gorm:"not null" json:"position"`
	QuestionType    string     `gorm:"not null" json:"questionType"`
	Question        string     `gorm:"type:text;not null" json:"question"`
	SuggestedAnswer string     `gorm:"type:text" json:"suggestedAnswer"`
	Tips            StringList `gorm:"type:text" json:"tips"`
	Difficulty      string     `gorm:"not null" json:"difficulty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
