package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// MarkRepository handles mark ledger persistence.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// BulkUpsert writes a validated batch in one transaction; each row is an
// independent upsert keyed by (exam_subject_id, student_id).
func (r *MarkRepository) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	if len(marks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO marks (id, exam_subject_id, student_id, marks_obtained, is_absent, remarks, entered_by, created_at, updated_at)
        VALUES (:id, :exam_subject_id, :student_id, :marks_obtained, :is_absent, :remarks, :entered_by, :created_at, :updated_at)
        ON CONFLICT (exam_subject_id, student_id)
        DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, is_absent = EXCLUDED.is_absent, remarks = EXCLUDED.remarks, entered_by = EXCLUDED.entered_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit marks: %w", err)
	}
	return nil
}

// ListBySubject returns all marks of one exam subject ordered by student id.
func (r *MarkRepository) ListBySubject(ctx context.Context, examSubjectID string) ([]models.Mark, error) {
	const query = `SELECT id, exam_subject_id, student_id, marks_obtained, is_absent, remarks, entered_by, created_at, updated_at
        FROM marks WHERE exam_subject_id = $1 ORDER BY student_id`
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, examSubjectID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// FetchByExam returns all marks of an exam keyed by exam subject id.
func (r *MarkRepository) FetchByExam(ctx context.Context, examID string) (map[string][]models.Mark, error) {
	const query = `SELECT m.id, m.exam_subject_id, m.student_id, m.marks_obtained, m.is_absent, m.remarks, m.entered_by, m.created_at, m.updated_at
        FROM marks m
        JOIN exam_subjects es ON es.id = m.exam_subject_id
        WHERE es.exam_id = $1
        ORDER BY m.student_id`
	rows, err := r.db.QueryxContext(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("fetch exam marks: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Mark)
	for rows.Next() {
		var mark models.Mark
		if err := rows.StructScan(&mark); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		result[mark.ExamSubjectID] = append(result[mark.ExamSubjectID], mark)
	}
	return result, nil
}

// HasMarks reports whether any mark exists for the exam subject.
func (r *MarkRepository) HasMarks(ctx context.Context, examSubjectID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM marks WHERE exam_subject_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, examSubjectID); err != nil {
		return false, fmt.Errorf("check marks: %w", err)
	}
	return exists, nil
}

// StudentsWithMarks returns the student ids that already have an entry for
// the exam subject; used to gate corrections once the exam is completed.
func (r *MarkRepository) StudentsWithMarks(ctx context.Context, examSubjectID string) (map[string]bool, error) {
	const query = `SELECT student_id FROM marks WHERE exam_subject_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, examSubjectID); err != nil {
		return nil, fmt.Errorf("list marked students: %w", err)
	}
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
