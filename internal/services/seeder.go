package services

import (
	"context"
	"fmt"
	"io"

	"github.com/institute/coursecatalog/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CourseWriter is the interface that wraps the content writes used by the seeder
type CourseWriter interface {
	// Method SaveCourse merge-write a course, recording its previous state in history when it already exists.
	SaveCourse(ctx context.Context, update *models.CourseUpdate, editor models.Editor, changeDescription string) (*models.Course, error)
	// Method SaveModule merge-write a module of an existing course.
	SaveModule(ctx context.Context, courseID string, module *models.Module) error
	// Method SaveLesson merge-write a lesson of an existing module.
	SaveLesson(ctx context.Context, courseID, moduleID string, lesson *models.Lesson) error
}

// SeedEditor is the identity recorded in history for seeded writes
var SeedEditor = models.Editor{UID: "seed", Email: "seed@localhost"}

// SeedCourse is one course of a seed dataset together with its content
type SeedCourse struct {
	models.CourseUpdate `yaml:",inline"`
	Modules             []SeedModule `yaml:"modules"`
}

// SeedModule is one module of a seed dataset together with its lessons
type SeedModule struct {
	models.Module `yaml:",inline"`
	Lessons       []models.Lesson `yaml:"lessons"`
}

// SeedDataset is the document layout read by ParseSeedDataset
type SeedDataset struct {
	Courses []SeedCourse `yaml:"courses"`
}

// ParseSeedDataset decodes a YAML seed dataset
func ParseSeedDataset(r io.Reader) (*SeedDataset, error) {
	var dataset SeedDataset
	if err := yaml.NewDecoder(r).Decode(&dataset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seed dataset: %w", err)
	}
	return &dataset, nil
}

type seeder struct {
	writer CourseWriter
	logger *zap.Logger
}

// NewSeeder creates a seeder writing through writer
func NewSeeder(writer CourseWriter, logger *zap.Logger) *seeder {
	return &seeder{
		writer: writer,
		logger: logger,
	}
}

// Seed writes every course of the dataset with its modules and lessons
//
// Courses that already exist are updated like any other save, so re-seeding records history.
// The first failure stops the run; the number of courses written before it is returned.
func (s *seeder) Seed(ctx context.Context, dataset *SeedDataset) (int, error) {
	written := 0
	for i := range dataset.Courses {
		course := &dataset.Courses[i]
		if _, err := s.writer.SaveCourse(ctx, &course.CourseUpdate, SeedEditor, "Seed data"); err != nil {
			return written, fmt.Errorf("failed to seed course %s: %w", course.ID, err)
		}

		for j := range course.Modules {
			module := &course.Modules[j]
			if err := s.writer.SaveModule(ctx, course.ID, &module.Module); err != nil {
				return written, fmt.Errorf("failed to seed module %s: %w", module.ID, err)
			}
			for k := range module.Lessons {
				if err := s.writer.SaveLesson(ctx, course.ID, module.ID, &module.Lessons[k]); err != nil {
					return written, fmt.Errorf("failed to seed lesson %s: %w", module.Lessons[k].ID, err)
				}
			}
		}

		written++
		s.logger.Info("course seeded", zap.String("course_id", course.ID), zap.Int("modules", len(course.Modules)))
	}
	return written, nil
}
