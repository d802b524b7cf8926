package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseUpdate_Fields(t *testing.T) {
	title := "Intro"
	published := false
	order := 0
	version := int64(3)
	objectives := []string{}

	update := &CourseUpdate{
		ID:              "intro-101",
		Title:           &title,
		Published:       &published,
		Order:           &order,
		Objectives:      &objectives,
		ExpectedVersion: &version,
	}

	fields, err := update.Fields()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"title":      "Intro",
		"published":  false,
		"order":      float64(0),
		"objectives": []any{},
	}, fields)
}

func TestCourseUpdate_FieldsNilList(t *testing.T) {
	var objectives []string
	syllabus := []string{"week 1"}

	fields, err := (&CourseUpdate{ID: "x", Objectives: &objectives, Syllabus: &syllabus}).Fields()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"objectives": []any{},
		"syllabus":   []any{"week 1"},
	}, fields)
}

func TestCourseUpdate_FieldsEmpty(t *testing.T) {
	fields, err := (&CourseUpdate{ID: "x"}).Fields()
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestTimestamp_JSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 3, 5, 10, 0, 0, 500, time.FixedZone("x", 3600)))

	raw, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-05T09:00:00.000000500Z"`, string(raw))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, ts.Equal(decoded.Time))

	raw, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	require.NoError(t, json.Unmarshal([]byte("null"), &decoded))
	assert.True(t, decoded.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &decoded))
}

func TestTimestamp_SortsLexically(t *testing.T) {
	base := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	earlier, _ := json.Marshal(NewTimestamp(base))
	later, _ := json.Marshal(NewTimestamp(base.Add(500 * time.Millisecond)))

	assert.Less(t, string(earlier), string(later))
}

func TestCourseFromDocument(t *testing.T) {
	doc := Document{
		ID: "intro-101",
		Fields: map[string]any{
			"title":     "Intro",
			"order":     float64(2),
			"published": true,
			"status":    "upcoming",
			"price":     map[string]any{"transfer": float64(100), "card": float64(120)},
			"version":   float64(4),
			"createdAt": "2026-03-05T09:00:00.000000000Z",
		},
	}

	course, err := CourseFromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, "intro-101", course.ID)
	assert.Equal(t, "Intro", course.Title)
	assert.Equal(t, 2, course.Order)
	assert.True(t, course.Published)
	assert.Equal(t, CourseStatusUpcoming, course.Status)
	assert.Equal(t, Price{Transfer: 100, Card: 120}, course.Price)
	assert.Equal(t, int64(4), course.Version)
	assert.Equal(t, 2026, course.CreatedAt.Year())
	assert.True(t, course.UpdatedAt.IsZero())
}

func TestModuleAndLessonFields(t *testing.T) {
	module := &Module{ID: "m1", Title: "Basics", Order: 1}
	assert.Equal(t, map[string]any{"title": "Basics", "order": 1}, module.Fields())

	lesson := &Lesson{ID: "l1", Title: "Welcome", Type: LessonTypeVideo, Order: 2}
	fields := lesson.Fields()
	assert.NotContains(t, fields, "id")
	assert.Equal(t, "video", fields["type"])

	decoded, err := LessonFromDocument(Document{ID: "l1", Fields: map[string]any{"title": "Welcome", "type": "pdf", "order": float64(2)}})
	require.NoError(t, err)
	assert.Equal(t, "l1", decoded.ID)
	assert.Equal(t, LessonTypePDF, decoded.Type)
	assert.Equal(t, 2, decoded.Order)
}

func TestEnums(t *testing.T) {
	assert.True(t, CourseStatusAnnounced.Valid())
	assert.False(t, CourseStatus("archived").Valid())
	assert.True(t, LessonTypeText.Valid())
	assert.False(t, LessonType("audio").Valid())
}
