package models

import "time"

// Mark is one student's raw score (or absence) for one exam subject.
// MarksObtained is nil iff the student was absent.
type Mark struct {
	ID            string    `db:"id" json:"id"`
	ExamSubjectID string    `db:"exam_subject_id" json:"exam_subject_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	MarksObtained *float64  `db:"marks_obtained" json:"marks_obtained,omitempty"`
	IsAbsent      bool      `db:"is_absent" json:"is_absent"`
	Remarks       *string   `db:"remarks" json:"remarks,omitempty"`
	EnteredBy     *string   `db:"entered_by" json:"entered_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MarkSheetRow is one roster row of a subject's mark sheet; Mark is nil
// for enrolled students that have no entry yet.
type MarkSheetRow struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Mark        *Mark   `json:"mark,omitempty"`
}
