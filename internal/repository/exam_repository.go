package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// ExamRepository handles exam persistence.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Create inserts the exam together with its subjects in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const examQuery = `INSERT INTO exams (id, tenant_id, branch_id, term_id, name, type, status, start_date, end_date, description, created_by, created_at, updated_at)
        VALUES (:id, :tenant_id, :branch_id, :term_id, :name, :type, :status, :start_date, :end_date, :description, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, examQuery, exam); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert exam: %w", err)
	}
	const subjectQuery = `INSERT INTO exam_subjects (id, exam_id, subject_id, exam_date, total_marks, passing_marks, created_at, updated_at)
        VALUES (:id, :exam_id, :subject_id, :exam_date, :total_marks, :passing_marks, :created_at, :updated_at)`
	for i := range exam.Subjects {
		if exam.Subjects[i].ID == "" {
			exam.Subjects[i].ID = uuid.NewString()
		}
		exam.Subjects[i].ExamID = exam.ID
		exam.Subjects[i].CreatedAt = now
		exam.Subjects[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, subjectQuery, exam.Subjects[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert exam subject: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam: %w", err)
	}
	return nil
}

// FindByID returns one exam without its subjects.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, tenant_id, branch_id, term_id, name, type, status, start_date, end_date, description, created_by, created_at, updated_at
        FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// List returns exams matching the filter plus the total count.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	where := " WHERE tenant_id = $1"
	args := []interface{}{filter.TenantID}
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		where += fmt.Sprintf(" AND branch_id = $%d", len(args))
	}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		where += fmt.Sprintf(" AND term_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM exams"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	query := `SELECT id, tenant_id, branch_id, term_id, name, type, status, start_date, end_date, description, created_by, created_at, updated_at
        FROM exams` + where + " ORDER BY start_date DESC, name"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}
	return exams, total, nil
}

// UpdateStatus advances the exam status with compare-and-swap semantics.
// It reports whether a row was updated; false means the stored status no
// longer matches the expected one.
func (r *ExamRepository) UpdateStatus(ctx context.Context, examID string, from, to models.ExamStatus) (bool, error) {
	const query = `UPDATE exams SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), examID, from)
	if err != nil {
		return false, fmt.Errorf("update exam status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("exam status rows affected: %w", err)
	}
	return affected == 1, nil
}
