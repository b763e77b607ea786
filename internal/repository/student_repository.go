package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// StudentRepository adapts the shared roster tables for the marks ledger.
// The engine only reads identity and enrollment; roster management lives
// in the surrounding application.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Exists reports whether the student id is present in the roster.
func (r *StudentRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}

// ListEnrolled returns the enrolled roster for a tenant ordered by student id.
func (r *StudentRepository) ListEnrolled(ctx context.Context, tenantID string) ([]models.StudentRef, error) {
	const query = `SELECT s.id, s.full_name
        FROM students s
        JOIN enrollments e ON e.student_id = s.id AND e.status = 'ACTIVE'
        WHERE s.tenant_id = $1
        ORDER BY s.id`
	var students []models.StudentRef
	if err := r.db.SelectContext(ctx, &students, query, tenantID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

// NamesByIDs returns display names for the given student ids.
func (r *StudentRepository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In("SELECT id, full_name FROM students WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build student name query: %w", err)
	}
	query = r.db.Rebind(query)
	var refs []models.StudentRef
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("fetch student names: %w", err)
	}
	for _, ref := range refs {
		result[ref.ID] = ref.FullName
	}
	return result, nil
}
