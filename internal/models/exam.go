package models

import "time"

// ExamType classifies the assessment window.
type ExamType string

const (
	ExamTypeClassTest  ExamType = "CLASS_TEST"
	ExamTypeMidterm    ExamType = "MIDTERM"
	ExamTypeFinal      ExamType = "FINAL"
	ExamTypeQuiz       ExamType = "QUIZ"
	ExamTypePractical  ExamType = "PRACTICAL"
	ExamTypeAssignment ExamType = "ASSIGNMENT"
)

// ExamStatus models the exam lifecycle. Transitions are forward-only.
type ExamStatus string

const (
	ExamStatusDraft            ExamStatus = "DRAFT"
	ExamStatusScheduled        ExamStatus = "SCHEDULED"
	ExamStatusInProgress       ExamStatus = "IN_PROGRESS"
	ExamStatusCompleted        ExamStatus = "COMPLETED"
	ExamStatusResultsPublished ExamStatus = "RESULTS_PUBLISHED"
)

// Next returns the immediate successor status, or empty for the terminal state.
func (s ExamStatus) Next() ExamStatus {
	switch s {
	case ExamStatusDraft:
		return ExamStatusScheduled
	case ExamStatusScheduled:
		return ExamStatusInProgress
	case ExamStatusInProgress:
		return ExamStatusCompleted
	case ExamStatusCompleted:
		return ExamStatusResultsPublished
	default:
		return ""
	}
}

// Valid reports whether the status is a known lifecycle state.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusDraft, ExamStatusScheduled, ExamStatusInProgress, ExamStatusCompleted, ExamStatusResultsPublished:
		return true
	}
	return false
}

// Exam is a scheduled assessment window for a term.
type Exam struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	BranchID    *string    `db:"branch_id" json:"branch_id,omitempty"`
	TermID      string     `db:"term_id" json:"term_id"`
	Name        string     `db:"name" json:"name"`
	Type        ExamType   `db:"type" json:"type"`
	Status      ExamStatus `db:"status" json:"status"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     time.Time  `db:"end_date" json:"end_date"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedBy   *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	Subjects    []ExamSubject `json:"subjects,omitempty"`
}

// ExamSubject is one subject's slot and mark bounds within an exam.
type ExamSubject struct {
	ID           string     `db:"id" json:"id"`
	ExamID       string     `db:"exam_id" json:"exam_id"`
	SubjectID    string     `db:"subject_id" json:"subject_id"`
	ExamDate     *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	TotalMarks   float64    `db:"total_marks" json:"total_marks"`
	PassingMarks float64    `db:"passing_marks" json:"passing_marks"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamFilter defines filters supported by the exam list endpoint.
type ExamFilter struct {
	TenantID string
	BranchID string
	TermID   string
	Type     ExamType
	Status   ExamStatus
	Page     int
	PageSize int
}
