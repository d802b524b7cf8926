package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/institute/coursecatalog/internal/apperrors"
	"github.com/institute/coursecatalog/internal/datecodec"
	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
	"go.uber.org/zap"
)

// restoreDescription is the change description recorded for a restore
const restoreDescription = "Restored from version %s"

// systemFields are maintained by the service and never copied from a restored snapshot
var systemFields = []string{
	models.CourseFieldVersion,
	models.CourseFieldCreatedAt,
	models.CourseFieldUpdatedAt,
}

type courseContentService struct {
	docs    DocumentRepository
	history HistoryLedger
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewCourseContentService creates a new course content service.
//
// "timeout" bounds every operation; zero disables the bound.
func NewCourseContentService(docs DocumentRepository, history HistoryLedger, timeout time.Duration, logger *zap.Logger) *courseContentService {
	return &courseContentService{
		docs:    docs,
		history: history,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// SaveCourse merge-writes a course, recording the previous state in its history when the course already exists
//
// The display and canonical forms of the start and end dates are kept in step: a write carrying only one form
// gets the other derived, and a write carrying both must have them agree.
// When update.ExpectedVersion is set the write fails with apperrors.ErrConflict unless it matches the stored version.
func (s *courseContentService) SaveCourse(ctx context.Context, update *models.CourseUpdate, editor models.Editor, changeDescription string) (*models.Course, error) {
	if update == nil {
		return nil, fmt.Errorf("course is required: %w", apperrors.ErrInvalidInput)
	}
	if err := repositories.ValidateID(update.ID); err != nil {
		return nil, err
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("invalid course status %q: %w", *update.Status, apperrors.ErrInvalidInput)
	}

	fields, err := update.Fields()
	if err != nil {
		return nil, fmt.Errorf("failed to encode course %s: %w", update.ID, err)
	}
	if err := syncDates(fields, "startDate", models.CourseFieldStartDateISO); err != nil {
		return nil, err
	}
	if err := syncDates(fields, "endDate", "endDateISO"); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.saveCourseFields(ctx, update.ID, fields, update.ExpectedVersion, false, editor, changeDescription)
}

// DeleteCourse unpublishes a course. Its modules, lessons and history are left untouched.
//
// Returns an error matching apperrors.ErrNotFound if the course does not exist.
func (s *courseContentService) DeleteCourse(ctx context.Context, courseID string) error {
	if err := repositories.ValidateID(courseID); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.docs.RunInTx(ctx, func(tx repositories.Documents) error {
		existing, err := tx.Get(ctx, repositories.CoursesPath, courseID)
		if err != nil {
			return err
		}
		return tx.Put(ctx, repositories.CoursesPath, courseID, map[string]any{
			models.CourseFieldPublished: false,
			models.CourseFieldUpdatedAt: models.NewTimestamp(s.now()),
			models.CourseFieldVersion:   versionOf(existing.Fields) + 1,
		}, true)
	})
	if err != nil {
		s.logger.Error("failed to delete course", zap.String("course_id", courseID), zap.Error(err))
		return fmt.Errorf("failed to delete course %s: %w", courseID, err)
	}

	s.logger.Info("course unpublished", zap.String("course_id", courseID))
	return nil
}

// RestoreCourseVersion makes a history snapshot the live state of the course
//
// Fields added after the snapshot was taken are removed. The restore is itself a save, so the state it replaces is recorded as a new history entry.
// Returns an error matching apperrors.ErrHistoryNotFound if the history entry does not exist.
func (s *courseContentService) RestoreCourseVersion(ctx context.Context, courseID, historyID string, editor models.Editor) (*models.Course, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.history.Get(ctx, courseID, historyID)
	if err != nil {
		return nil, err
	}

	fields := maps.Clone(entry.Snapshot)
	if fields == nil {
		fields = map[string]any{}
	}
	for _, f := range systemFields {
		delete(fields, f)
	}
	delete(fields, "id")

	course, err := s.saveCourseFields(ctx, courseID, fields, nil, true, editor, fmt.Sprintf(restoreDescription, historyID))
	if err != nil {
		return nil, err
	}

	s.logger.Info("course restored",
		zap.String("course_id", courseID),
		zap.String("history_id", historyID),
		zap.String("editor", editor.UID),
	)
	return course, nil
}

// ListHistory retrieves the history of a course, newest first
func (s *courseContentService) ListHistory(ctx context.Context, courseID string) ([]models.HistoryEntry, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.history.List(ctx, courseID)
}

// GetHistoryEntry retrieves one history entry of a course
func (s *courseContentService) GetHistoryEntry(ctx context.Context, courseID, historyID string) (*models.HistoryEntry, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.history.Get(ctx, courseID, historyID)
}

// SaveModule merge-writes a module of an existing course. Module edits are not recorded in history.
func (s *courseContentService) SaveModule(ctx context.Context, courseID string, module *models.Module) error {
	if module == nil {
		return fmt.Errorf("module is required: %w", apperrors.ErrInvalidInput)
	}
	if err := repositories.ValidateID(courseID); err != nil {
		return err
	}
	if err := repositories.ValidateID(module.ID); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.docs.Get(ctx, repositories.CoursesPath, courseID); err != nil {
		return fmt.Errorf("failed to find course %s: %w", courseID, err)
	}
	if err := s.docs.Put(ctx, repositories.ModulesPath(courseID), module.ID, module.Fields(), true); err != nil {
		s.logger.Error("failed to save module", zap.String("course_id", courseID), zap.String("module_id", module.ID), zap.Error(err))
		return fmt.Errorf("failed to save module %s: %w", module.ID, err)
	}
	return nil
}

// SaveLesson merge-writes a lesson of an existing module. Lesson edits are not recorded in history.
func (s *courseContentService) SaveLesson(ctx context.Context, courseID, moduleID string, lesson *models.Lesson) error {
	if lesson == nil {
		return fmt.Errorf("lesson is required: %w", apperrors.ErrInvalidInput)
	}
	for _, id := range []string{courseID, moduleID, lesson.ID} {
		if err := repositories.ValidateID(id); err != nil {
			return err
		}
	}
	if !lesson.Type.Valid() {
		return fmt.Errorf("invalid lesson type %q: %w", lesson.Type, apperrors.ErrInvalidInput)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.docs.Get(ctx, repositories.ModulesPath(courseID), moduleID); err != nil {
		return fmt.Errorf("failed to find module %s: %w", moduleID, err)
	}
	if err := s.docs.Put(ctx, repositories.LessonsPath(courseID, moduleID), lesson.ID, lesson.Fields(), true); err != nil {
		s.logger.Error("failed to save lesson", zap.String("module_id", moduleID), zap.String("lesson_id", lesson.ID), zap.Error(err))
		return fmt.Errorf("failed to save lesson %s: %w", lesson.ID, err)
	}
	return nil
}

// DeleteModule deletes every lesson of a module one by one, then the module itself
//
// A failure part way leaves the lessons already deleted gone and the module in place.
func (s *courseContentService) DeleteModule(ctx context.Context, courseID, moduleID string) error {
	if err := repositories.ValidateID(courseID); err != nil {
		return err
	}
	if err := repositories.ValidateID(moduleID); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	lessonsPath := repositories.LessonsPath(courseID, moduleID)
	lessons, err := s.docs.List(ctx, lessonsPath, models.ListQuery{})
	if err != nil {
		return fmt.Errorf("failed to list lessons of module %s: %w", moduleID, err)
	}

	for _, lesson := range lessons {
		if err := s.docs.Delete(ctx, lessonsPath, lesson.ID); err != nil {
			s.logger.Error("failed to delete lesson during module delete",
				zap.String("module_id", moduleID),
				zap.String("lesson_id", lesson.ID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to delete lesson %s: %w", lesson.ID, err)
		}
	}

	if err := s.docs.Delete(ctx, repositories.ModulesPath(courseID), moduleID); err != nil {
		return fmt.Errorf("failed to delete module %s: %w", moduleID, err)
	}

	s.logger.Info("module deleted",
		zap.String("course_id", courseID),
		zap.String("module_id", moduleID),
		zap.Int("lessons", len(lessons)),
	)
	return nil
}

// DeleteLesson deletes a single lesson
func (s *courseContentService) DeleteLesson(ctx context.Context, courseID, moduleID, lessonID string) error {
	for _, id := range []string{courseID, moduleID, lessonID} {
		if err := repositories.ValidateID(id); err != nil {
			return err
		}
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.docs.Delete(ctx, repositories.LessonsPath(courseID, moduleID), lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson %s: %w", lessonID, err)
	}
	return nil
}

// saveCourseFields performs the read, history capture and merge-write of a course save in one transaction
//
// With replace set, stored fields missing from "fields" are removed, so the course ends up with exactly the given field set.
func (s *courseContentService) saveCourseFields(ctx context.Context, courseID string, fields map[string]any, expectedVersion *int64, replace bool, editor models.Editor, changeDescription string) (*models.Course, error) {
	var saved *models.Course

	err := s.docs.RunInTx(ctx, func(tx repositories.Documents) error {
		existing, err := tx.Get(ctx, repositories.CoursesPath, courseID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		var current int64
		if existing != nil {
			current = versionOf(existing.Fields)
		}
		if expectedVersion != nil && *expectedVersion != current {
			return fmt.Errorf("course %s is at version %d, expected %d: %w", courseID, current, *expectedVersion, apperrors.ErrConflict)
		}

		now := models.NewTimestamp(s.now())
		if existing != nil {
			if _, err := s.history.RecordTo(ctx, tx, courseID, existing.Fields, editor, changeDescription); err != nil {
				return err
			}
			delete(fields, models.CourseFieldCreatedAt)
			if replace {
				for field := range existing.Fields {
					if _, ok := fields[field]; ok || field == "id" || slices.Contains(systemFields, field) {
						continue
					}
					// A null value removes the key in a merge write.
					fields[field] = nil
				}
			}
		} else {
			fields[models.CourseFieldCreatedAt] = now
		}
		fields[models.CourseFieldUpdatedAt] = now
		fields[models.CourseFieldVersion] = current + 1

		if err := tx.Put(ctx, repositories.CoursesPath, courseID, fields, true); err != nil {
			return err
		}

		doc, err := tx.Get(ctx, repositories.CoursesPath, courseID)
		if err != nil {
			return err
		}
		saved, err = models.CourseFromDocument(*doc)
		return err
	})
	if err != nil {
		s.logger.Error("failed to save course", zap.String("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to save course %s: %w", courseID, err)
	}

	s.logger.Info("course saved",
		zap.String("course_id", courseID),
		zap.Int64("version", saved.Version),
		zap.String("editor", editor.UID),
	)
	return saved, nil
}

// syncDates reconciles the display and canonical form of one date in a course write
func syncDates(fields map[string]any, displayKey, isoKey string) error {
	display, hasDisplay := fields[displayKey].(string)
	iso, hasISO := fields[isoKey].(string)

	switch {
	case !hasDisplay && !hasISO:
		return nil
	case !hasDisplay:
		if iso != "" && !datecodec.IsCanonical(iso) {
			return fmt.Errorf("invalid %s %q: %w", isoKey, iso, apperrors.ErrInvalidInput)
		}
		fields[displayKey] = datecodec.ToDisplay(iso)
	case !hasISO:
		canonical := datecodec.ToCanonical(display)
		if display != "" && canonical == "" {
			return fmt.Errorf("invalid %s %q: %w", displayKey, display, apperrors.ErrInvalidInput)
		}
		fields[isoKey] = canonical
	default:
		if display == "" && iso == "" {
			return nil
		}
		if canonical := datecodec.ToCanonical(display); canonical == "" || canonical != iso {
			return fmt.Errorf("%s %q does not match %s %q: %w", displayKey, display, isoKey, iso, apperrors.ErrInvalidInput)
		}
	}
	return nil
}

// versionOf reads the stored version of a course document, zero when absent
func versionOf(fields map[string]any) int64 {
	switch v := fields[models.CourseFieldVersion].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
