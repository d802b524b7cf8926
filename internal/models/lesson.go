package models

// LessonType represents the content type of a lesson
type LessonType string

const (
	LessonTypeVideo LessonType = "video"
	LessonTypePDF   LessonType = "pdf"
	LessonTypeText  LessonType = "text"
)

// Valid reports whether the lesson type is one of the known values
func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeVideo, LessonTypePDF, LessonTypeText:
		return true
	}
	return false
}

// Lesson is a single unit of content within a module
type Lesson struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Duration    string     `json:"duration" yaml:"duration"`
	Type        LessonType `json:"type" yaml:"type"`
	URL         string     `json:"url" yaml:"url"`
	Description string     `json:"description" yaml:"description"`
	Order       int        `json:"order" yaml:"order"`
}

// Fields returns the stored fields of the lesson. The id is the document key and is not duplicated.
func (l *Lesson) Fields() map[string]any {
	return map[string]any{
		"title":       l.Title,
		"duration":    l.Duration,
		"type":        string(l.Type),
		"url":         l.URL,
		"description": l.Description,
		"order":       l.Order,
	}
}

// LessonFromDocument decodes a stored lesson document
func LessonFromDocument(doc Document) (*Lesson, error) {
	var lesson Lesson
	if err := doc.Decode(&lesson); err != nil {
		return nil, err
	}
	lesson.ID = doc.ID
	return &lesson, nil
}
