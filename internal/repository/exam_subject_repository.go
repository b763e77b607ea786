package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// ExamSubjectRepository handles exam subject persistence.
type ExamSubjectRepository struct {
	db *sqlx.DB
}

// NewExamSubjectRepository creates a new exam subject repository.
func NewExamSubjectRepository(db *sqlx.DB) *ExamSubjectRepository {
	return &ExamSubjectRepository{db: db}
}

// FindByID returns one exam subject.
func (r *ExamSubjectRepository) FindByID(ctx context.Context, id string) (*models.ExamSubject, error) {
	const query = `SELECT id, exam_id, subject_id, exam_date, total_marks, passing_marks, created_at, updated_at
        FROM exam_subjects WHERE id = $1`
	var subject models.ExamSubject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByExam returns all subjects of an exam ordered by subject id for
// deterministic publishing.
func (r *ExamSubjectRepository) ListByExam(ctx context.Context, examID string) ([]models.ExamSubject, error) {
	const query = `SELECT id, exam_id, subject_id, exam_date, total_marks, passing_marks, created_at, updated_at
        FROM exam_subjects WHERE exam_id = $1 ORDER BY subject_id`
	var subjects []models.ExamSubject
	if err := r.db.SelectContext(ctx, &subjects, query, examID); err != nil {
		return nil, fmt.Errorf("list exam subjects: %w", err)
	}
	return subjects, nil
}

// Update persists an administrative correction of bounds or date.
func (r *ExamSubjectRepository) Update(ctx context.Context, subject *models.ExamSubject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_subjects SET exam_date = :exam_date, total_marks = :total_marks, passing_marks = :passing_marks, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update exam subject: %w", err)
	}
	return nil
}
