package service

import (
	"context"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type memMarkRepo struct {
	marks    map[string]map[string]models.Mark
	subjects *memExamSubjectRepo
}

func (m *memMarkRepo) seed(mark models.Mark) {
	if m.marks == nil {
		m.marks = make(map[string]map[string]models.Mark)
	}
	if m.marks[mark.ExamSubjectID] == nil {
		m.marks[mark.ExamSubjectID] = make(map[string]models.Mark)
	}
	m.marks[mark.ExamSubjectID][mark.StudentID] = mark
}

func (m *memMarkRepo) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	for _, mark := range marks {
		m.seed(mark)
	}
	return nil
}

func (m *memMarkRepo) ListBySubject(ctx context.Context, examSubjectID string) ([]models.Mark, error) {
	var list []models.Mark
	for _, mark := range m.marks[examSubjectID] {
		list = append(list, mark)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StudentID < list[j].StudentID })
	return list, nil
}

func (m *memMarkRepo) FetchByExam(ctx context.Context, examID string) (map[string][]models.Mark, error) {
	result := make(map[string][]models.Mark)
	if m.subjects == nil {
		return result, nil
	}
	for _, subject := range m.subjects.subjects {
		if subject.ExamID != examID {
			continue
		}
		list, _ := m.ListBySubject(ctx, subject.ID)
		if len(list) > 0 {
			result[subject.ID] = list
		}
	}
	return result, nil
}

func (m *memMarkRepo) HasMarks(ctx context.Context, examSubjectID string) (bool, error) {
	return len(m.marks[examSubjectID]) > 0, nil
}

func (m *memMarkRepo) StudentsWithMarks(ctx context.Context, examSubjectID string) (map[string]bool, error) {
	students := make(map[string]bool)
	for id := range m.marks[examSubjectID] {
		students[id] = true
	}
	return students, nil
}

type memRoster struct {
	students map[string]string
}

func (m *memRoster) Exists(ctx context.Context, studentID string) (bool, error) {
	_, ok := m.students[studentID]
	return ok, nil
}

func (m *memRoster) ListEnrolled(ctx context.Context, tenantID string) ([]models.StudentRef, error) {
	var list []models.StudentRef
	for id, name := range m.students {
		list = append(list, models.StudentRef{ID: id, FullName: name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memRoster) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range ids {
		if name, ok := m.students[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func ptrFloat(v float64) *float64 {
	return &v
}

type markFixture struct {
	svc      *MarkService
	exams    *memExamRepo
	subjects *memExamSubjectRepo
	marks    *memMarkRepo
	roster   *memRoster
	exam     *models.Exam
}

func newMarkFixture(t *testing.T, status models.ExamStatus) *markFixture {
	t.Helper()
	subjects := &memExamSubjectRepo{}
	exams := &memExamRepo{subjects: subjects}
	marks := &memMarkRepo{subjects: subjects}
	roster := &memRoster{students: map[string]string{"stu-a": "Alice", "stu-b": "Bob"}}

	req, _, _ := examFixture()
	examSvc := newTestExamService(exams, subjects, marks, &memResultRepo{})
	exam, err := examSvc.Create(context.Background(), req)
	require.NoError(t, err)
	exams.exams[exam.ID].Status = status

	svc := NewMarkService(marks, exams, subjects, roster, nil, validator.New(), zap.NewNop())
	return &markFixture{svc: svc, exams: exams, subjects: subjects, marks: marks, roster: roster, exam: exam}
}

func TestMarkServiceEnterMarks(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	mathID := f.exam.Subjects[0].ID
	enteredBy := "teacher-1"

	marks, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		EnteredBy:     &enteredBy,
		Entries: []MarkEntryInput{
			{StudentID: "stu-a", MarksObtained: ptrFloat(80)},
			{StudentID: "stu-b", IsAbsent: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, marks, 2)

	stored, err := f.svc.GetMarks(context.Background(), mathID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "stu-a", stored[0].StudentID)
	assert.Equal(t, 80.0, *stored[0].MarksObtained)
	assert.Equal(t, "teacher-1", *stored[0].EnteredBy)
	assert.True(t, stored[1].IsAbsent)
	assert.Nil(t, stored[1].MarksObtained)
}

func TestMarkServiceEnterMarksUpsert(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	mathID := f.exam.Subjects[0].ID

	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a", MarksObtained: ptrFloat(55)}},
	})
	require.NoError(t, err)

	_, err = f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a", MarksObtained: ptrFloat(75)}},
	})
	require.NoError(t, err)

	stored, err := f.svc.GetMarks(context.Background(), mathID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 75.0, *stored[0].MarksObtained)
}

func TestMarkServiceBatchRejectedAboveTotal(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	mathID := f.exam.Subjects[0].ID
	f.marks.seed(models.Mark{ExamSubjectID: mathID, StudentID: "stu-a", MarksObtained: ptrFloat(60)})

	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries: []MarkEntryInput{
			{StudentID: "stu-a", MarksObtained: ptrFloat(70)},
			{StudentID: "stu-b", MarksObtained: ptrFloat(105)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	stored, err := f.svc.GetMarks(context.Background(), mathID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "previously stored marks survive a rejected batch")
	assert.Equal(t, 60.0, *stored[0].MarksObtained)
}

func TestMarkServiceBatchRejectedDuplicateStudent(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: f.exam.Subjects[0].ID,
		Entries: []MarkEntryInput{
			{StudentID: "stu-a", MarksObtained: ptrFloat(50)},
			{StudentID: "stu-a", MarksObtained: ptrFloat(60)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceAbsenceSemantics(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	mathID := f.exam.Subjects[0].ID

	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a", IsAbsent: true, MarksObtained: ptrFloat(10)}},
	})
	require.Error(t, err, "absent entries cannot carry marks")

	_, err = f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a"}},
	})
	require.Error(t, err, "present entries need marks")
}

func TestMarkServiceRejectsUnknownStudent(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: f.exam.Subjects[0].ID,
		Entries:       []MarkEntryInput{{StudentID: "ghost", MarksObtained: ptrFloat(10)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceStatusGating(t *testing.T) {
	for _, status := range []models.ExamStatus{models.ExamStatusDraft, models.ExamStatusScheduled} {
		f := newMarkFixture(t, status)
		_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
			ExamSubjectID: f.exam.Subjects[0].ID,
			Entries:       []MarkEntryInput{{StudentID: "stu-a", MarksObtained: ptrFloat(10)}},
		})
		require.Error(t, err, "status %s", status)
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	}

	f := newMarkFixture(t, models.ExamStatusResultsPublished)
	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: f.exam.Subjects[0].ID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a", MarksObtained: ptrFloat(10)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExamLocked.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceCompletedAcceptsCorrectionsOnly(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusCompleted)
	mathID := f.exam.Subjects[0].ID
	f.marks.seed(models.Mark{ExamSubjectID: mathID, StudentID: "stu-a", MarksObtained: ptrFloat(40)})

	_, err := f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-a", MarksObtained: ptrFloat(45)}},
	})
	require.NoError(t, err)

	_, err = f.svc.EnterMarks(context.Background(), EnterMarksRequest{
		ExamSubjectID: mathID,
		Entries:       []MarkEntryInput{{StudentID: "stu-b", MarksObtained: ptrFloat(45)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceSeedSheet(t *testing.T) {
	f := newMarkFixture(t, models.ExamStatusInProgress)
	mathID := f.exam.Subjects[0].ID
	f.marks.seed(models.Mark{ExamSubjectID: mathID, StudentID: "stu-b", MarksObtained: ptrFloat(66)})

	rows, err := f.svc.SeedSheet(context.Background(), mathID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].StudentName)
	assert.Nil(t, rows[0].Mark)
	require.NotNil(t, rows[1].Mark)
	assert.Equal(t, 66.0, *rows[1].Mark.MarksObtained)
}
