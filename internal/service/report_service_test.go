package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/export"
)

func newReportFromPublishFixture(f *publishFixture) *ReportService {
	students := &memRoster{students: map[string]string{"stu-a": "Alice", "stu-b": "Bob"}}
	subjects := memSubjectNamer{"math": "Mathematics", "english": "English"}
	return NewReportService(f.exams, f.results, students, subjects, export.NewCSVExporter(), export.NewPDFExporter(""), zap.NewNop())
}

func publishedReportFixture(t *testing.T) (*publishFixture, *ReportService) {
	t.Helper()
	f := newPublishFixture(t, models.ExamStatusCompleted)
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-a", MarksObtained: ptrFloat(80)})
	f.marks.seed(models.Mark{ExamSubjectID: f.englishID(), StudentID: "stu-a", MarksObtained: ptrFloat(60)})
	f.marks.seed(models.Mark{ExamSubjectID: f.mathID(), StudentID: "stu-b", MarksObtained: ptrFloat(90)})
	f.marks.seed(models.Mark{ExamSubjectID: f.englishID(), StudentID: "stu-b", IsAbsent: true})
	_, err := f.svc.Publish(context.Background(), f.exam.ID, f.scale.ID, nil)
	require.NoError(t, err)
	return f, newReportFromPublishFixture(f)
}

func TestReportServiceRequiresPublishedResults(t *testing.T) {
	f := newPublishFixture(t, models.ExamStatusCompleted)
	svc := newReportFromPublishFixture(f)

	_, err := svc.BuildReportCard(context.Background(), f.exam.ID, "stu-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResultsNotPublished.Code, appErrors.FromError(err).Code)
}

func TestReportServiceBuildReportCard(t *testing.T) {
	f, svc := publishedReportFixture(t)

	doc, err := svc.BuildReportCard(context.Background(), f.exam.ID, "stu-a")
	require.NoError(t, err)
	assert.Equal(t, "Alice", doc.StudentName)
	assert.Equal(t, "Midterm 2025", doc.ExamName)
	assert.Equal(t, 140.0, doc.ObtainedMarks)
	assert.Equal(t, 70.0, doc.Percentage)
	assert.Equal(t, "B", doc.Grade)
	require.NotNil(t, doc.Rank)
	assert.Equal(t, 1, *doc.Rank)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "English", doc.Rows[0].SubjectName)
	assert.True(t, doc.Rows[0].Passed)
	assert.Equal(t, "Mathematics", doc.Rows[1].SubjectName)
	assert.Equal(t, 80.0, *doc.Rows[1].MarksObtained)
}

func TestReportServiceAbsentRow(t *testing.T) {
	f, svc := publishedReportFixture(t)

	doc, err := svc.BuildReportCard(context.Background(), f.exam.ID, "stu-b")
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	english := doc.Rows[0]
	assert.True(t, english.IsAbsent)
	assert.Nil(t, english.MarksObtained)
	assert.False(t, english.Passed)
}

func TestReportServiceExportCSV(t *testing.T) {
	f, svc := publishedReportFixture(t)

	payload, contentType, err := svc.ExportReportCard(context.Background(), f.exam.ID, "stu-a", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Mathematics")
	assert.Contains(t, body, "Pass")
}

func TestReportServiceExportPDF(t *testing.T) {
	f, svc := publishedReportFixture(t)

	payload, contentType, err := svc.ExportReportCard(context.Background(), f.exam.ID, "stu-a", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestReportServiceExportUnknownFormat(t *testing.T) {
	f, svc := publishedReportFixture(t)

	_, _, err := svc.ExportReportCard(context.Background(), f.exam.ID, "stu-a", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
