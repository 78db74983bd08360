package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizQuestion is one five-option multiple-choice question as generated (and
// optionally verified) for a stored lecture
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
	Verified    *bool    `json:"verified,omitempty"`
}

// Validate checks the structural invariants: exactly five options, answer in
// [1,5], non-blank question text
func (q *QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) != 5 {
		return fmt.Errorf("expected 5 options, got %d", len(q.Options))
	}
	if q.Answer < 1 || q.Answer > 5 {
		return fmt.Errorf("answer %d out of range [1,5]", q.Answer)
	}
	return nil
}

// LectureQuiz is one saved quiz generation run. Append-only: every save
// creates a new row so earlier runs remain queryable.
type LectureQuiz struct {
	gorm.Model
	CourseID   string         `json:"course_id" gorm:"not null;index:idx_quizzes_lecture"`
	LectureID  string         `json:"lecture_id" gorm:"not null;index:idx_quizzes_lecture"`
	Questions  datatypes.JSON `json:"questions" gorm:"type:json"`
	Approved   bool           `json:"approved" gorm:"default:false"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
}

// TableName specifies the table name for GORM
func (LectureQuiz) TableName() string {
	return "lecture_quizzes"
}
