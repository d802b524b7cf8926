package services

import (
	"context"
	"fmt"
	"time"

	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type courseListingService struct {
	docs        DocumentReader
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewCourseListingService creates a new course listing service.
//
// "concurrency" bounds the parallel lesson reads of GetCourseContent; values below one mean one.
func NewCourseListingService(docs DocumentReader, timeout time.Duration, concurrency int, logger *zap.Logger) *courseListingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &courseListingService{
		docs:        docs,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ListAll retrieves every course, published or not, ordered by its manual rank
func (s *courseListingService) ListAll(ctx context.Context) ([]models.Course, error) {
	return s.listCourses(ctx, models.ListQuery{
		OrderBy:   models.CourseFieldOrder,
		Direction: models.SortAscending,
	})
}

// ListPublished retrieves the published courses in chronological order of their start date
func (s *courseListingService) ListPublished(ctx context.Context) ([]models.Course, error) {
	return s.listCourses(ctx, models.ListQuery{
		OrderBy:   models.CourseFieldStartDateISO,
		Direction: models.SortAscending,
		Filters:   []models.Filter{{Field: models.CourseFieldPublished, Value: true}},
	})
}

// GetCourse retrieves a course by id
func (s *courseListingService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.getCourse(ctx, courseID)
}

// ListModules retrieves the modules of a course by rank
func (s *courseListingService) ListModules(ctx context.Context, courseID string) ([]models.Module, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.listModules(ctx, courseID)
}

// ListLessons retrieves the lessons of a module by rank
func (s *courseListingService) ListLessons(ctx context.Context, courseID, moduleID string) ([]models.Lesson, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}
	if err := repositories.ValidateID(moduleID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.listLessons(ctx, courseID, moduleID)
}

// GetCourseContent retrieves a course with all of its modules and their lessons
//
// Lesson lists are fetched in parallel, at most s.concurrency at a time. The first failure cancels the rest.
func (s *courseListingService) GetCourseContent(ctx context.Context, courseID string) (*models.CourseContent, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.listModules(ctx, courseID)
	if err != nil {
		return nil, err
	}

	content := &models.CourseContent{
		Course:  course,
		Modules: make([]models.ModuleContent, len(modules)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, module := range modules {
		content.Modules[i].Module = module
		g.Go(func() error {
			lessons, err := s.listLessons(gctx, courseID, module.ID)
			if err != nil {
				return err
			}
			content.Modules[i].Lessons = lessons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to fetch course content", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	return content, nil
}

func (s *courseListingService) listCourses(ctx context.Context, query models.ListQuery) ([]models.Course, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.docs.List(ctx, repositories.CoursesPath, query)
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	courses := make([]models.Course, 0, len(docs))
	for _, doc := range docs {
		course, err := models.CourseFromDocument(doc)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

func (s *courseListingService) getCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}

	doc, err := s.docs.Get(ctx, repositories.CoursesPath, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course %s: %w", courseID, err)
	}
	return models.CourseFromDocument(*doc)
}

func (s *courseListingService) listModules(ctx context.Context, courseID string) ([]models.Module, error) {
	docs, err := s.docs.List(ctx, repositories.ModulesPath(courseID), models.ListQuery{
		OrderBy:   models.CourseFieldOrder,
		Direction: models.SortAscending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list modules of course %s: %w", courseID, err)
	}

	modules := make([]models.Module, 0, len(docs))
	for _, doc := range docs {
		module, err := models.ModuleFromDocument(doc)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *module)
	}
	return modules, nil
}

func (s *courseListingService) listLessons(ctx context.Context, courseID, moduleID string) ([]models.Lesson, error) {
	docs, err := s.docs.List(ctx, repositories.LessonsPath(courseID, moduleID), models.ListQuery{
		OrderBy:   models.CourseFieldOrder,
		Direction: models.SortAscending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons of module %s: %w", moduleID, err)
	}

	lessons := make([]models.Lesson, 0, len(docs))
	for _, doc := range docs {
		lesson, err := models.LessonFromDocument(doc)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *lesson)
	}
	return lessons, nil
}
