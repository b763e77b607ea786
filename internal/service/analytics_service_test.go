package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type memSubjectNamer map[string]string

func (m memSubjectNamer) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range ids {
		if name, ok := m[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func newAnalyticsFromPublishFixture(f *publishFixture) *AnalyticsService {
	namer := memSubjectNamer{"math": "Mathematics", "english": "English"}
	return NewAnalyticsService(f.exams, f.subjects, f.marks, f.results, namer, nil, nil, 0, zap.NewNop())
}

func TestAnalyticsServiceLiveSnapshot(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusInProgress)
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-a", MarksObtained: ptrFloat(80)})
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-b", MarksObtained: ptrFloat(20)})
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-c", IsAbsent: true})
	svc := newAnalyticsFromPublishFixture(f)

	snapshot, _, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalyticsSourceLive, snapshot.Source)
	assert.Equal(t, 3, snapshot.TotalStudents)

	math, _, err := svc.SubjectSnapshot(context.Background(), f.exam.ID, f.mathID())
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", math.SubjectName)
	assert.Equal(t, 3, math.TotalStudents, "absentees counted in totals")
	assert.Equal(t, 1, math.AbsentCount)
	assert.InDelta(t, 50.0, math.AveragePercentage, 1e-9, "aggregates cover attempts only")
	assert.Equal(t, 80.0, math.HighestPercentage)
	assert.Equal(t, 20.0, math.LowestPercentage)
	assert.InDelta(t, 50.0, math.PassRate, 1e-9, "one of two attempts passed")
}

func TestAnalyticsServicePublishedSnapshot(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusCompleted)
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-a", MarksObtained: ptrFloat(80)})
	f.marks.seed(models.Mark{ExamSubjectID: f.englishID(), StudentID: "stu-a", MarksObtained: ptrFloat(60)})
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-b", MarksObtained: ptrFloat(90)})
	f.marks.seed(models.Mark{ExamSubjectID: f.englishID(), StudentID: "stu-b", IsAbsent: true})
	_, err := f.svc.Publish(context.Background(), f.exam.ID, f.scale.ID, nil)
	require.NoError(t, err)
	svc := newAnalyticsFromPublishFixture(f)

	snapshot, _, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalyticsSourcePublished, snapshot.Source)
	assert.Equal(t, 2, snapshot.TotalStudents)

	english, _, err := svc.SubjectSnapshot(context.Background(), f.exam.ID, f.englishID())
	require.NoError(t, err)
	assert.Equal(t, 2, english.TotalStudents)
	assert.Equal(t, 1, english.AbsentCount)
	assert.InDelta(t, 100.0, english.PassRate, 1e-9, "absence does not drag the pass rate down")
	assert.InDelta(t, 60.0, english.AveragePercentage, 1e-9)

	math, _, err := svc.SubjectSnapshot(context.Background(), f.exam.ID, f.mathID())
	require.NoError(t, err)
	assert.InDelta(t, 85.0, math.AveragePercentage, 1e-9)
	assert.InDelta(t, 100.0, math.PassRate, 1e-9)
}

func TestAnalyticsServiceLiveAndPublishedAgreeOnFormulas(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusCompleted)
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-a", MarksObtained: ptrFloat(80)})
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-b", MarksObtained: ptrFloat(30)})
	svc := newAnalyticsFromPublishFixture(f)

	live, _, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.AnalyticsSourceLive, live.Source)

	_, err = f.svc.Publish(context.Background(), f.exam.ID, f.scale.ID, nil)
	require.NoError(t, err)

	published, _, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.AnalyticsSourcePublished, published.Source)

	assert.InDelta(t, live.AveragePercentage, published.AveragePercentage, 1e-9)
	assert.InDelta(t, live.HighestPercentage, published.HighestPercentage, 1e-9)
	assert.InDelta(t, live.LowestPercentage, published.LowestPercentage, 1e-9)
	assert.InDelta(t, live.PassRate, published.PassRate, 1e-9)
	assert.Equal(t, live.TotalStudents, published.TotalStudents)
}

type memCacheRepo struct {
	values   map[string][]byte
	versions map[string]int64
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{values: map[string][]byte{}, versions: map[string]int64{}}
}

func (m *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(context.Context, string) error { return nil }

func (m *memCacheRepo) ExamVersion(_ context.Context, examID string) (int64, error) {
	return m.versions[examID], nil
}

func (m *memCacheRepo) BumpExamVersion(_ context.Context, examID string) error {
	m.versions[examID]++
	return nil
}

func TestAnalyticsServiceCachesByVersionToken(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusInProgress)
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-a", MarksObtained: ptrFloat(80)})
	namer := memSubjectNamer{"math": "Mathematics", "english": "English"}
	cacheRepo := newMemCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAnalyticsService(f.exams, f.subjects, f.marks, f.results, namer, cache, nil, time.Minute, zap.NewNop())

	first, cached, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.TotalStudents, second.TotalStudents)

	// A new mark bumps the version token, so the stale snapshot is bypassed.
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-b", MarksObtained: ptrFloat(40)})
	cache.BumpExamVersion(context.Background(), f.exam.ID)

	third, cached, err := svc.ExamSnapshot(context.Background(), f.exam.ID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, third.TotalStudents)
}

func TestAnalyticsServiceUnknownSubject(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusInProgress)
	svc := newAnalyticsFromPublishFixture(f)

	_, _, err := svc.SubjectSnapshot(context.Background(), f.exam.ID, "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnalyticsServiceUnknownExam(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusInProgress)
	svc := newAnalyticsFromPublishFixture(f)

	_, _, err := svc.ExamSnapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
