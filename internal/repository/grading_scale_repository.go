package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// GradingScaleRepository handles grading scale persistence.
type GradingScaleRepository struct {
	db *sqlx.DB
}

// NewGradingScaleRepository creates a new grading scale repository.
func NewGradingScaleRepository(db *sqlx.DB) *GradingScaleRepository {
	return &GradingScaleRepository{db: db}
}

// Create inserts the scale with its bands in one transaction.
func (r *GradingScaleRepository) Create(ctx context.Context, scale *models.GradingScale) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if scale.ID == "" {
		scale.ID = uuid.NewString()
	}
	scale.CreatedAt = now
	scale.UpdatedAt = now
	const scaleQuery = `INSERT INTO grading_scales (id, tenant_id, name, created_at, updated_at)
        VALUES (:id, :tenant_id, :name, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, scaleQuery, scale); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert grading scale: %w", err)
	}
	const bandQuery = `INSERT INTO grade_bands (id, scale_id, min_percentage, max_percentage, grade, grade_point, description)
        VALUES (:id, :scale_id, :min_percentage, :max_percentage, :grade, :grade_point, :description)`
	for i := range scale.Bands {
		if scale.Bands[i].ID == "" {
			scale.Bands[i].ID = uuid.NewString()
		}
		scale.Bands[i].ScaleID = scale.ID
		if _, err := tx.NamedExecContext(ctx, bandQuery, scale.Bands[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert grade band: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading scale: %w", err)
	}
	return nil
}

// FindByID returns the scale with bands ordered ascending by min percentage.
func (r *GradingScaleRepository) FindByID(ctx context.Context, id string) (*models.GradingScale, error) {
	const scaleQuery = `SELECT id, tenant_id, name, created_at, updated_at FROM grading_scales WHERE id = $1`
	var scale models.GradingScale
	if err := r.db.GetContext(ctx, &scale, scaleQuery, id); err != nil {
		return nil, err
	}
	const bandQuery = `SELECT id, scale_id, min_percentage, max_percentage, grade, grade_point, description
        FROM grade_bands WHERE scale_id = $1 ORDER BY min_percentage`
	if err := r.db.SelectContext(ctx, &scale.Bands, bandQuery, id); err != nil {
		return nil, fmt.Errorf("list grade bands: %w", err)
	}
	return &scale, nil
}

// List returns all scales of a tenant without bands.
func (r *GradingScaleRepository) List(ctx context.Context, tenantID string) ([]models.GradingScale, error) {
	const query = `SELECT id, tenant_id, name, created_at, updated_at FROM grading_scales WHERE tenant_id = $1 ORDER BY name`
	var scales []models.GradingScale
	if err := r.db.SelectContext(ctx, &scales, query, tenantID); err != nil {
		return nil, fmt.Errorf("list grading scales: %w", err)
	}
	return scales, nil
}

// InUse reports whether any published result references the scale.
func (r *GradingScaleRepository) InUse(ctx context.Context, scaleID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM published_results WHERE grading_scale_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, scaleID); err != nil {
		return false, fmt.Errorf("check scale usage: %w", err)
	}
	return exists, nil
}

// Delete removes the scale and its bands.
func (r *GradingScaleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grade_bands WHERE scale_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete grade bands: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grading_scales WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete grading scale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scale delete: %w", err)
	}
	return nil
}
