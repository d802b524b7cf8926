package repositories

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/institute/coursecatalog/internal/apperrors"
)

// Column widths of the documents table, in characters
const (
	MaxIDLength   = 191
	MaxPathLength = 512
)

// Path is a collection path in the document hierarchy, e.g. "courses/intro-101/modules"
type Path string

// CoursesPath is the top-level course collection
const CoursesPath Path = "courses"

// ModulesPath returns the module collection of a course
func ModulesPath(courseID string) Path {
	return Path(fmt.Sprintf("courses/%s/modules", courseID))
}

// LessonsPath returns the lesson collection of a module
func LessonsPath(courseID, moduleID string) Path {
	return Path(fmt.Sprintf("courses/%s/modules/%s/lessons", courseID, moduleID))
}

// HistoryPath returns the history collection of a course
func HistoryPath(courseID string) Path {
	return Path(fmt.Sprintf("courses/%s/history", courseID))
}

// ValidateID checks that id can be used as a single path segment
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", apperrors.ErrInvalidInput)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("id %q must not contain '/': %w", id, apperrors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		return fmt.Errorf("id is longer than %d characters: %w", MaxIDLength, apperrors.ErrInvalidInput)
	}
	return nil
}

// validatePath checks that a collection path fits the documents table
func validatePath(path Path) error {
	if path == "" {
		return fmt.Errorf("collection path is required: %w", apperrors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(string(path)) > MaxPathLength {
		return fmt.Errorf("collection path is longer than %d characters: %w", MaxPathLength, apperrors.ErrInvalidInput)
	}
	return nil
}
