package types

import "fmt"

// EnqueueTranscriptRequest enqueues an ingestion job from transcript JSON.
// Transcript is preferred; Content is accepted as an alias. At least one of
// the two must be present.
type EnqueueTranscriptRequest struct {
	CourseID     string                 `json:"courseId" binding:"required"`
	LectureID    string                 `json:"lectureId" binding:"required"`
	UserID       string                 `json:"userId" binding:"required"`
	Transcript   map[string]interface{} `json:"transcript,omitempty"`
	Content      map[string]interface{} `json:"content,omitempty"`
	ConceptHint  string                 `json:"conceptHint,omitempty"`
	LectureTitle string                 `json:"lectureTitle,omitempty"`
}

// SummarizeAndStoreRequest stores (and optionally summarizes) one lecture
type SummarizeAndStoreRequest struct {
	Content      map[string]interface{} `json:"content" binding:"required"`
	CourseID     string                 `json:"courseId" binding:"required"`
	LectureID    string                 `json:"lectureId" binding:"required"`
	UserID       string                 `json:"userId" binding:"required"`
	CourseTitle  string                 `json:"courseTitle,omitempty"`
	SectionTitle string                 `json:"sectionTitle,omitempty"`
	LectureTitle string                 `json:"lectureTitle,omitempty"`
	Summary      string                 `json:"summary,omitempty"`
}

// QuizGenerateRequest requests quiz generation for a stored lecture.
// Validate defaults to true when omitted; MaxContextLectures is optional and
// mutually exclusive in effect with UseSemanticPrevious.
type QuizGenerateRequest struct {
	CourseID            string `json:"courseId" binding:"required"`
	LectureID           string `json:"lectureId" binding:"required"`
	UserID              string `json:"userId" binding:"required"`
	NumQuestions        int    `json:"numQuestions,omitempty"`
	Save                bool   `json:"save,omitempty"`
	Validate            *bool  `json:"validate,omitempty"`
	UseSemanticPrevious bool   `json:"useSemanticPrevious,omitempty"`
	SemanticLimit       int    `json:"semanticLimit,omitempty"`
	MaxContextLectures  *int   `json:"maxContextLectures,omitempty"`
}

// ApplyDefaults fills unset fields with the documented defaults
func (r *QuizGenerateRequest) ApplyDefaults() {
	if r.NumQuestions == 0 {
		r.NumQuestions = 5
	}
	if r.SemanticLimit == 0 {
		r.SemanticLimit = 5
	}
	if r.Validate == nil {
		v := true
		r.Validate = &v
	}
}

// CheckBounds validates the numeric ranges after defaults were applied
func (r *QuizGenerateRequest) CheckBounds() error {
	if r.NumQuestions < 1 || r.NumQuestions > 20 {
		return fmt.Errorf("numQuestions must be between 1 and 20")
	}
	if r.SemanticLimit < 1 || r.SemanticLimit > 20 {
		return fmt.Errorf("semanticLimit must be between 1 and 20")
	}
	if r.MaxContextLectures != nil && (*r.MaxContextLectures < 1 || *r.MaxContextLectures > 100) {
		return fmt.Errorf("maxContextLectures must be between 1 and 100")
	}
	return nil
}
