package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-engine-api/internal/middleware"
	"github.com/noah-isme/exam-engine-api/internal/models"
	"github.com/noah-isme/exam-engine-api/internal/service"
)

type fakeScaleRepo struct {
	scales map[string]*models.GradingScale
	inUse  map[string]bool
}

func newFakeScaleRepo() *fakeScaleRepo {
	return &fakeScaleRepo{scales: map[string]*models.GradingScale{}, inUse: map[string]bool{}}
}

func (f *fakeScaleRepo) Create(_ context.Context, scale *models.GradingScale) error {
	if scale.ID == "" {
		scale.ID = uuid.NewString()
	}
	copied := *scale
	f.scales[scale.ID] = &copied
	return nil
}

func (f *fakeScaleRepo) FindByID(_ context.Context, id string) (*models.GradingScale, error) {
	scale, ok := f.scales[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *scale
	return &copied, nil
}

func (f *fakeScaleRepo) List(_ context.Context, tenantID string) ([]models.GradingScale, error) {
	out := make([]models.GradingScale, 0, len(f.scales))
	for _, scale := range f.scales {
		if scale.TenantID == tenantID {
			out = append(out, *scale)
		}
	}
	return out, nil
}

func (f *fakeScaleRepo) InUse(_ context.Context, scaleID string) (bool, error) {
	return f.inUse[scaleID], nil
}

func (f *fakeScaleRepo) Delete(_ context.Context, id string) error {
	delete(f.scales, id)
	return nil
}

func newGradingHandlerFixture() (*GradingHandler, *fakeScaleRepo) {
	repo := newFakeScaleRepo()
	return NewGradingHandler(service.NewGradingService(repo, nil, nil)), repo
}

func seedScale(repo *fakeScaleRepo) *models.GradingScale {
	scale := &models.GradingScale{
		ID:       "scale-1",
		TenantID: "tenant-1",
		Name:     "Standard",
		Bands: []models.GradeBand{
			{MinPercentage: 0, MaxPercentage: 50, Grade: "F", GradePoint: 0},
			{MinPercentage: 50, MaxPercentage: 80, Grade: "B", GradePoint: 3},
			{MinPercentage: 80, MaxPercentage: 100, Grade: "A", GradePoint: 4},
		},
	}
	repo.scales[scale.ID] = scale
	return scale
}

func TestGradingHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGradingHandlerFixture()

	body := `{
		"name": "Standard",
		"bands": [
			{"min_percentage": 0, "max_percentage": 60, "grade": "F", "grade_point": 0},
			{"min_percentage": 60, "max_percentage": 100, "grade": "A", "grade_point": 4}
		]
	}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grading-scales", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextTenantKey, "tenant-1")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Standard", envelope.Data["name"])
	assert.Equal(t, "tenant-1", envelope.Data["tenant_id"])
	assert.Len(t, repo.scales, 1)
}

func TestGradingHandlerCreateRejectsGappedBands(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGradingHandlerFixture()

	body := `{
		"name": "Broken",
		"bands": [
			{"min_percentage": 0, "max_percentage": 40, "grade": "F", "grade_point": 0},
			{"min_percentage": 60, "max_percentage": 100, "grade": "A", "grade_point": 4}
		]
	}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grading-scales", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextTenantKey, "tenant-1")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.scales)
}

func TestGradingHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newGradingHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/grading-scales", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradingHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newGradingHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/grading-scales/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradingHandlerResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGradingHandlerFixture()
	scale := seedScale(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/grading-scales/"+scale.ID+"/resolve?percentage=72.5", nil)
	c.Params = gin.Params{{Key: "id", Value: scale.ID}}

	handler.Resolve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "B", envelope.Data["grade"])
	assert.Equal(t, float64(3), envelope.Data["grade_point"])
}

func TestGradingHandlerResolveRejectsNonNumericPercentage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGradingHandlerFixture()
	scale := seedScale(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/grading-scales/"+scale.ID+"/resolve?percentage=lots", nil)
	c.Params = gin.Params{{Key: "id", Value: scale.ID}}

	handler.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradingHandlerDeleteInUse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGradingHandlerFixture()
	scale := seedScale(repo)
	repo.inUse[scale.ID] = true

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/grading-scales/"+scale.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: scale.ID}}

	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, repo.scales, scale.ID)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
