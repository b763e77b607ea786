package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

// bandEpsilon absorbs float rounding when checking band contiguity.
const bandEpsilon = 1e-9

type gradingScaleRepo interface {
	Create(ctx context.Context, scale *models.GradingScale) error
	FindByID(ctx context.Context, id string) (*models.GradingScale, error)
	List(ctx context.Context, tenantID string) ([]models.GradingScale, error)
	InUse(ctx context.Context, scaleID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// GradeBandInput is one band of a scale creation payload.
type GradeBandInput struct {
	MinPercentage float64 `json:"min_percentage" validate:"gte=0,lte=100"`
	MaxPercentage float64 `json:"max_percentage" validate:"gte=0,lte=100"`
	Grade         string  `json:"grade" validate:"required"`
	GradePoint    float64 `json:"grade_point" validate:"gte=0"`
	Description   *string `json:"description"`
}

// CreateScaleRequest creates a named grading scale.
type CreateScaleRequest struct {
	TenantID string           `json:"tenant_id" validate:"required"`
	Name     string           `json:"name" validate:"required"`
	Bands    []GradeBandInput `json:"bands" validate:"required,min=1,dive"`
}

// GradingService owns grading scales and percentage-to-grade resolution.
type GradingService struct {
	scales    gradingScaleRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(scales gradingScaleRepo, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{scales: scales, validator: validate, logger: logger}
}

// CreateScale validates band tiling and persists the scale. The bands must
// partition [0,100]: sorted ascending they start at 0, end at 100, and each
// band begins exactly where the previous one ends. This is checked here,
// once, so resolution never has to.
func (s *GradingService) CreateScale(ctx context.Context, req CreateScaleRequest) (*models.GradingScale, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading scale payload")
	}
	bands := make([]models.GradeBand, 0, len(req.Bands))
	for _, input := range req.Bands {
		bands = append(bands, models.GradeBand{
			MinPercentage: input.MinPercentage,
			MaxPercentage: input.MaxPercentage,
			Grade:         input.Grade,
			GradePoint:    input.GradePoint,
			Description:   input.Description,
		})
	}
	if err := validateBandCoverage(bands); err != nil {
		return nil, err
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinPercentage < bands[j].MinPercentage })
	scale := &models.GradingScale{TenantID: req.TenantID, Name: req.Name, Bands: bands}
	if err := s.scales.Create(ctx, scale); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grading scale")
	}
	return scale, nil
}

// GetScale returns one scale with its bands.
func (s *GradingService) GetScale(ctx context.Context, id string) (*models.GradingScale, error) {
	scale, err := s.scales.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("grading scale %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading scale")
	}
	return scale, nil
}

// ListScales returns the tenant's scales without bands.
func (s *GradingService) ListScales(ctx context.Context, tenantID string) ([]models.GradingScale, error) {
	scales, err := s.scales.List(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grading scales")
	}
	return scales, nil
}

// DeleteScale removes a scale unless a published result references it;
// scales in use are versioned by creating replacements instead.
func (s *GradingService) DeleteScale(ctx context.Context, id string) error {
	if _, err := s.GetScale(ctx, id); err != nil {
		return err
	}
	inUse, err := s.scales.InUse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check scale usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrScaleInUse, fmt.Sprintf("grading scale %s is referenced by published results", id))
	}
	if err := s.scales.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grading scale")
	}
	return nil
}

// Resolve maps a percentage onto the scale's grade and grade point.
func (s *GradingService) Resolve(ctx context.Context, scaleID string, percentage float64) (*models.GradeResolution, error) {
	scale, err := s.GetScale(ctx, scaleID)
	if err != nil {
		return nil, err
	}
	resolution, err := resolveGrade(scale.Bands, percentage)
	if err != nil {
		return nil, err
	}
	return &resolution, nil
}

// resolveGrade clamps the percentage to [0,100] and scans the ordered
// bands for the first one containing it. With validated scales the error
// path is unreachable; it guards against scales persisted out of band.
func resolveGrade(bands []models.GradeBand, percentage float64) (models.GradeResolution, error) {
	clamped := math.Max(0, math.Min(100, percentage))
	for _, band := range bands {
		if clamped >= band.MinPercentage && clamped <= band.MaxPercentage {
			return models.GradeResolution{Grade: band.Grade, GradePoint: band.GradePoint}, nil
		}
	}
	return models.GradeResolution{}, appErrors.Clone(appErrors.ErrNoMatchingBand, fmt.Sprintf("no grade band covers %.2f%%", clamped))
}

func validateBandCoverage(bands []models.GradeBand) error {
	sorted := make([]models.GradeBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPercentage < sorted[j].MinPercentage })

	for i, band := range sorted {
		if band.MaxPercentage < band.MinPercentage {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("band %q has max below min", band.Grade))
		}
		if i == 0 && band.MinPercentage > bandEpsilon {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bands leave a gap below %.2f%%", band.MinPercentage))
		}
		if i > 0 {
			prev := sorted[i-1]
			gap := band.MinPercentage - prev.MaxPercentage
			if gap > bandEpsilon {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("gap between bands %q and %q", prev.Grade, band.Grade))
			}
			if gap < -bandEpsilon {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bands %q and %q overlap", prev.Grade, band.Grade))
			}
		}
	}
	top := sorted[len(sorted)-1]
	if 100-top.MaxPercentage > bandEpsilon {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bands leave a gap above %.2f%%", top.MaxPercentage))
	}
	return nil
}
