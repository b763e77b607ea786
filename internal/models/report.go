package models

import "time"

// ReportCardRow is one subject line on a student's report card.
type ReportCardRow struct {
	SubjectID     string   `json:"subject_id"`
	SubjectName   string   `json:"subject_name"`
	TotalMarks    float64  `json:"total_marks"`
	PassingMarks  float64  `json:"passing_marks"`
	MarksObtained *float64 `json:"marks_obtained,omitempty"`
	IsAbsent      bool     `json:"is_absent"`
	Percentage    float64  `json:"percentage"`
	Grade         string   `json:"grade"`
	Passed        bool     `json:"passed"`
}

// ReportCardDocument is the renderer-agnostic report card contract.
// Layout and binary encoding belong to the export layer.
type ReportCardDocument struct {
	StudentID     string          `json:"student_id"`
	StudentName   string          `json:"student_name"`
	ExamID        string          `json:"exam_id"`
	ExamName      string          `json:"exam_name"`
	TermID        string          `json:"term_id"`
	Rows          []ReportCardRow `json:"rows"`
	TotalMarks    float64         `json:"total_marks"`
	ObtainedMarks float64         `json:"obtained_marks"`
	Percentage    float64         `json:"percentage"`
	Grade         string          `json:"grade"`
	GradePoint    float64         `json:"grade_point"`
	Rank          *int            `json:"rank,omitempty"`
	PublishedAt   time.Time       `json:"published_at"`
}
