package models

import "time"

// SubjectResultLine is one subject's graded line inside a published result.
type SubjectResultLine struct {
	SubjectID     string   `json:"subject_id"`
	ExamSubjectID string   `json:"exam_subject_id"`
	TotalMarks    float64  `json:"total_marks"`
	PassingMarks  float64  `json:"passing_marks"`
	MarksObtained *float64 `json:"marks_obtained,omitempty"`
	IsAbsent      bool     `json:"is_absent"`
	Percentage    float64  `json:"percentage"`
	Grade         string   `json:"grade"`
	Passed        bool     `json:"passed"`
}

// PublishedResult is the immutable per-student, per-exam rollup produced
// by publishing. Rank is nil for students absent in every subject.
type PublishedResult struct {
	ID             string              `db:"id" json:"id"`
	ExamID         string              `db:"exam_id" json:"exam_id"`
	StudentID      string              `db:"student_id" json:"student_id"`
	GradingScaleID string              `db:"grading_scale_id" json:"grading_scale_id"`
	TotalMarks     float64             `db:"total_marks" json:"total_marks"`
	ObtainedMarks  float64             `db:"obtained_marks" json:"obtained_marks"`
	Percentage     float64             `db:"percentage" json:"percentage"`
	Grade          string              `db:"grade" json:"grade"`
	GradePoint     float64             `db:"grade_point" json:"grade_point"`
	Rank           *int                `db:"rank" json:"rank,omitempty"`
	PublishedBy    *string             `db:"published_by" json:"published_by,omitempty"`
	PublishedAt    time.Time           `db:"published_at" json:"published_at"`
	PerSubject     []SubjectResultLine `json:"per_subject"`
}
