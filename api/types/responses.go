package types

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`   // Error code/type
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// EnqueueResponse acknowledges an accepted ingestion job
type EnqueueResponse struct {
	JobID   uint   `json:"jobId"`
	Message string `json:"message"`
}

// JobStatusResponse reports one ingestion job's lifecycle state
type JobStatusResponse struct {
	JobID        uint   `json:"jobId"`
	Status       string `json:"status"` // pending | processing | done | failed
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// SummarizeResponse returns the stored summary
type SummarizeResponse struct {
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// QuizQuestionOut is one quiz question as returned to API callers. Verified
// is present only when validation ran.
type QuizQuestionOut struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
	Verified    *bool    `json:"verified,omitempty"`
}

// QuizGenerateResponse returns the generated questions and whether they were
// persisted
type QuizGenerateResponse struct {
	Questions []QuizQuestionOut `json:"questions"`
	Saved     bool              `json:"saved"`
}
