package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/institute/coursecatalog/internal/apperrors"
	"github.com/institute/coursecatalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const seedYAML = `
courses:
  - id: intro-101
    title: Introducción
    instructor: Ana
    status: upcoming
    startDate: 5 Mar 2026
    order: 1
    published: true
    objectives: [read, write]
    price:
      transfer: 100
      card: 120
    modules:
      - id: m1
        title: Basics
        order: 0
        lessons:
          - id: l1
            title: Welcome
            type: video
            url: https://videos/l1
            order: 0
          - id: l2
            title: Notes
            type: pdf
            order: 1
  - id: go-201
    title: Go
    order: 2
`

func TestParseSeedDataset(t *testing.T) {
	dataset, err := ParseSeedDataset(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, dataset.Courses, 2)

	intro := dataset.Courses[0]
	assert.Equal(t, "intro-101", intro.ID)
	require.NotNil(t, intro.Title)
	assert.Equal(t, "Introducción", *intro.Title)
	require.NotNil(t, intro.Status)
	assert.Equal(t, models.CourseStatusUpcoming, *intro.Status)
	require.NotNil(t, intro.Price)
	assert.Equal(t, models.Price{Transfer: 100, Card: 120}, *intro.Price)
	require.NotNil(t, intro.Objectives)
	assert.Equal(t, []string{"read", "write"}, *intro.Objectives)
	assert.Nil(t, intro.Description)
	require.Len(t, intro.Modules, 1)
	assert.Equal(t, "Basics", intro.Modules[0].Title)
	require.Len(t, intro.Modules[0].Lessons, 2)
	assert.Equal(t, models.LessonTypePDF, intro.Modules[0].Lessons[1].Type)

	empty, err := ParseSeedDataset(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Courses)

	_, err = ParseSeedDataset(strings.NewReader("courses: [unterminated"))
	assert.Error(t, err)
}

func TestSeeder_Seed(t *testing.T) {
	s := setupServices(t, setupStore(t))
	ctx := context.Background()
	seeder := NewSeeder(s.content, zap.NewNop())

	dataset, err := ParseSeedDataset(strings.NewReader(seedYAML))
	require.NoError(t, err)

	written, err := seeder.Seed(ctx, dataset)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	published, err := s.listing.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "2026-03-05", published[0].StartDateISO)

	content, err := s.listing.GetCourseContent(ctx, "intro-101")
	require.NoError(t, err)
	require.Len(t, content.Modules, 1)
	assert.Len(t, content.Modules[0].Lessons, 2)

	// Seeding again is an update of every course.
	_, err = seeder.Seed(ctx, dataset)
	require.NoError(t, err)
	history, err := s.content.ListHistory(ctx, "intro-101")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, SeedEditor.UID, history[0].EditedBy)
}

// mockCourseWriter is a mock implementation of CourseWriter
type mockCourseWriter struct {
	courseErr error
	lessonErr error
	courses   int
}

func (m *mockCourseWriter) SaveCourse(ctx context.Context, update *models.CourseUpdate, editor models.Editor, changeDescription string) (*models.Course, error) {
	if m.courseErr != nil {
		return nil, m.courseErr
	}
	m.courses++
	return &models.Course{ID: update.ID}, nil
}

func (m *mockCourseWriter) SaveModule(ctx context.Context, courseID string, module *models.Module) error {
	return nil
}

func (m *mockCourseWriter) SaveLesson(ctx context.Context, courseID, moduleID string, lesson *models.Lesson) error {
	return m.lessonErr
}

func TestSeeder_SeedErrors(t *testing.T) {
	dataset, err := ParseSeedDataset(strings.NewReader(seedYAML))
	require.NoError(t, err)

	tests := []struct {
		name            string
		writer          *mockCourseWriter
		expectedErr     error
		expectedWritten int
	}{
		{
			name:            "course write fails",
			writer:          &mockCourseWriter{courseErr: apperrors.ErrStoreUnavailable},
			expectedErr:     apperrors.ErrStoreUnavailable,
			expectedWritten: 0,
		},
		{
			name:            "lesson write fails",
			writer:          &mockCourseWriter{lessonErr: apperrors.ErrTimeout},
			expectedErr:     apperrors.ErrTimeout,
			expectedWritten: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			written, err := NewSeeder(tt.writer, zap.NewNop()).Seed(context.Background(), dataset)
			assert.True(t, errors.Is(err, tt.expectedErr))
			assert.Equal(t, tt.expectedWritten, written)
		})
	}
}
