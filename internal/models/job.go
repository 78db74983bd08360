package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// JobStatus represents the status of an ingestion job in the queue
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// JobType represents the kind of ingestion work to be performed
type JobType string

const (
	JobTypeAudio      JobType = "audio"
	JobTypeTranscript JobType = "transcript"
)

// ValidJobType reports whether t is one of the supported job types
func ValidJobType(t JobType) bool {
	return t == JobTypeAudio || t == JobTypeTranscript
}

// IngestionJob represents one unit of ingestion work in the durable queue.
// Lifecycle: created pending, claimed to processing by exactly one worker,
// finished as done or failed. Terminal states are never left.
type IngestionJob struct {
	gorm.Model
	CourseID     string     `json:"course_id" gorm:"not null;index:idx_jobs_lecture"`
	LectureID    string     `json:"lecture_id" gorm:"not null;index:idx_jobs_lecture"`
	UserID       string     `json:"user_id" gorm:"not null;index:idx_jobs_lecture"`
	JobType      JobType    `json:"job_type" gorm:"not null"`
	Payload      JobPayload `json:"payload" gorm:"type:json"`
	Status       JobStatus  `json:"status" gorm:"default:'pending';index:idx_jobs_status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// JobPayload represents the input data for a job
type JobPayload map[string]interface{}

// Value implements driver.Valuer interface for JobPayload
func (p JobPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for JobPayload
func (p *JobPayload) Scan(value interface{}) error {
	if value == nil {
		*p = make(JobPayload)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// GetPayloadValue safely retrieves a value from the payload
func (j *IngestionJob) GetPayloadValue(key string) (interface{}, bool) {
	if j.Payload == nil {
		return nil, false
	}
	val, ok := j.Payload[key]
	return val, ok
}

// GetPayloadString safely retrieves a string value from the payload
func (j *IngestionJob) GetPayloadString(key string) (string, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// ConceptHint resolves the instructor-supplied hint for this job: the first
// non-blank value among concept_hint, lecture_title and concept, trimmed.
// Returns "" when none is present.
func (j *IngestionJob) ConceptHint() string {
	for _, key := range []string{"concept_hint", "lecture_title", "concept"} {
		if val, ok := j.GetPayloadString(key); ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// CanProcess returns true if the job is ready to be claimed
func (j *IngestionJob) CanProcess() bool {
	return j.Status == JobStatusPending
}

// IsTerminal returns true if the job has finished, successfully or not
func (j *IngestionJob) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

// TableName specifies the table name for GORM
func (IngestionJob) TableName() string {
	return "ingestion_jobs"
}
