package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/institute/coursecatalog/internal/middleware"
	"github.com/institute/coursecatalog/internal/models"
	"go.uber.org/zap"
)

// CourseContentService is the interface that wraps methods for course content writes and history.
type CourseContentService interface {
	// Method SaveCourse merge-write a course and return its new state.
	//
	// If the course already exists, its previous state is recorded in history tagged with "editor" and "changeDescription".
	// Malformed ids, enum values or dates fail with apperrors.ErrInvalidInput; a stale update.ExpectedVersion fails with apperrors.ErrConflict.
	SaveCourse(ctx context.Context, update *models.CourseUpdate, editor models.Editor, changeDescription string) (*models.Course, error)
	// Method DeleteCourse unpublish a course, keeping its modules, lessons and history.
	//
	// If the course does not exist, an error matching apperrors.ErrNotFound is returned.
	DeleteCourse(ctx context.Context, courseID string) error
	// Method RestoreCourseVersion make history entry "historyID" the live state of the course and return it.
	//
	// The replaced state is recorded as a new history entry. A missing entry fails with apperrors.ErrHistoryNotFound.
	RestoreCourseVersion(ctx context.Context, courseID, historyID string, editor models.Editor) (*models.Course, error)
	// Method ListHistory retrieve the history of a course, newest first.
	ListHistory(ctx context.Context, courseID string) ([]models.HistoryEntry, error)
	// Method GetHistoryEntry retrieve one history entry of a course.
	//
	// Please reference RestoreCourseVersion method for the error returned for a missing entry.
	GetHistoryEntry(ctx context.Context, courseID, historyID string) (*models.HistoryEntry, error)
	// Method SaveModule merge-write a module of an existing course.
	SaveModule(ctx context.Context, courseID string, module *models.Module) error
	// Method SaveLesson merge-write a lesson of an existing module.
	SaveLesson(ctx context.Context, courseID, moduleID string, lesson *models.Lesson) error
	// Method DeleteModule delete every lesson of a module, then the module itself.
	DeleteModule(ctx context.Context, courseID, moduleID string) error
	// Method DeleteLesson delete a single lesson.
	DeleteLesson(ctx context.Context, courseID, moduleID, lessonID string) error
}

// CourseListingService is the interface that wraps methods for course content reads.
type CourseListingService interface {
	// Method ListAll retrieve every course ordered by manual rank, published or not.
	ListAll(ctx context.Context) ([]models.Course, error)
	// Method ListPublished retrieve the published courses ordered by start date.
	ListPublished(ctx context.Context) ([]models.Course, error)
	// Method GetCourse retrieve a course by id.
	//
	// If the course does not exist, an error matching apperrors.ErrNotFound is returned together with "nil" value.
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	// Method GetCourseContent retrieve a course with its modules and their lessons, all by rank.
	//
	// Please reference GetCourse method for more information about error values.
	GetCourseContent(ctx context.Context, courseID string) (*models.CourseContent, error)
	// Method ListModules retrieve the modules of a course by rank.
	ListModules(ctx context.Context, courseID string) ([]models.Module, error)
	// Method ListLessons retrieve the lessons of a module by rank.
	ListLessons(ctx context.Context, courseID, moduleID string) ([]models.Lesson, error)
}

// saveCourseRequest is the body of PUT /courses/{id}
type saveCourseRequest struct {
	models.CourseUpdate
	ChangeDescription string `json:"changeDescription"`
}

// CourseHandler handles HTTP requests for courses and their content
type CourseHandler struct {
	BaseHandler
	content CourseContentService
	listing CourseListingService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(content CourseContentService, listing CourseListingService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler: BaseHandler{logger: logger},
		content:     content,
		listing:     listing,
	}
}

// RegisterRoutes registers all course handler routes.
// Write routes are wrapped with editorMiddleware.
func (h *CourseHandler) RegisterRoutes(r chi.Router, editorMiddleware func(http.Handler) http.Handler) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Get("/published", h.ListPublished)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCourse)
			r.Get("/content", h.GetCourseContent)
			r.Get("/modules", h.ListModules)
			r.Get("/modules/{moduleId}/lessons", h.ListLessons)
			r.Get("/history", h.ListHistory)
			r.Get("/history/{historyId}", h.GetHistoryEntry)

			r.Group(func(r chi.Router) {
				r.Use(editorMiddleware)
				r.Put("/", h.SaveCourse)
				r.Delete("/", h.DeleteCourse)
				r.Post("/history/{historyId}/restore", h.RestoreCourseVersion)
				r.Put("/modules/{moduleId}", h.SaveModule)
				r.Delete("/modules/{moduleId}", h.DeleteModule)
				r.Put("/modules/{moduleId}/lessons/{lessonId}", h.SaveLesson)
				r.Delete("/modules/{moduleId}/lessons/{lessonId}", h.DeleteLesson)
			})
		})
	})
}

// ListAll handles GET /api/v1/courses
// @Summary List all courses
// @Description Get every course ordered by manual rank, including unpublished ones
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Failure 503 {object} map[string]string
// @Router /api/v1/courses [get]
func (h *CourseHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	courses, err := h.listing.ListAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// ListPublished handles GET /api/v1/courses/published
// @Summary List published courses
// @Description Get the published courses in chronological order of start date
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Failure 503 {object} map[string]string
// @Router /api/v1/courses/published [get]
func (h *CourseHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	courses, err := h.listing.ListPublished(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /api/v1/courses/{id}
// @Summary Get course by ID
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.listing.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// GetCourseContent handles GET /api/v1/courses/{id}/content
// @Summary Get course content
// @Description Get a course with all of its modules and lessons
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.CourseContent
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/content [get]
func (h *CourseHandler) GetCourseContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.listing.GetCourseContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, content)
}

// ListModules handles GET /api/v1/courses/{id}/modules
func (h *CourseHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.listing.ListModules(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, modules)
}

// ListLessons handles GET /api/v1/courses/{id}/modules/{moduleId}/lessons
func (h *CourseHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.listing.ListLessons(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, lessons)
}

// ListHistory handles GET /api/v1/courses/{id}/history
// @Summary List course history
// @Description Get the recorded versions of a course, newest first
// @Tags history
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.HistoryEntry
// @Router /api/v1/courses/{id}/history [get]
func (h *CourseHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.content.ListHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, entries)
}

// GetHistoryEntry handles GET /api/v1/courses/{id}/history/{historyId}
func (h *CourseHandler) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.content.GetHistoryEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "historyId"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, entry)
}

// SaveCourse handles PUT /api/v1/courses/{id}
// @Summary Create or update a course
// @Description Merge the supplied fields into the course, recording the previous state in its history
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param X-Editor-Uid header string true "Editor id"
// @Param course body saveCourseRequest true "Course fields"
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/courses/{id} [put]
func (h *CourseHandler) SaveCourse(w http.ResponseWriter, r *http.Request) {
	var req saveCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = chi.URLParam(r, "id")

	editor, _ := middleware.GetEditor(r.Context())
	course, err := h.content.SaveCourse(r.Context(), &req.CourseUpdate, editor, req.ChangeDescription)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /api/v1/courses/{id}
// @Summary Unpublish a course
// @Description Hide the course from public listings; content and history are kept
// @Tags courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreCourseVersion handles POST /api/v1/courses/{id}/history/{historyId}/restore
// @Summary Restore a course version
// @Tags history
// @Produce json
// @Param id path string true "Course ID"
// @Param historyId path string true "History entry ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/history/{historyId}/restore [post]
func (h *CourseHandler) RestoreCourseVersion(w http.ResponseWriter, r *http.Request) {
	editor, _ := middleware.GetEditor(r.Context())
	course, err := h.content.RestoreCourseVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "historyId"), editor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// SaveModule handles PUT /api/v1/courses/{id}/modules/{moduleId}
func (h *CourseHandler) SaveModule(w http.ResponseWriter, r *http.Request) {
	var module models.Module
	if err := json.NewDecoder(r.Body).Decode(&module); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	module.ID = chi.URLParam(r, "moduleId")

	if err := h.content.SaveModule(r.Context(), chi.URLParam(r, "id"), &module); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, module)
}

// DeleteModule handles DELETE /api/v1/courses/{id}/modules/{moduleId}
func (h *CourseHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteModule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SaveLesson handles PUT /api/v1/courses/{id}/modules/{moduleId}/lessons/{lessonId}
func (h *CourseHandler) SaveLesson(w http.ResponseWriter, r *http.Request) {
	var lesson models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lesson.ID = chi.URLParam(r, "lessonId")

	if err := h.content.SaveLesson(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId"), &lesson); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /api/v1/courses/{id}/modules/{moduleId}/lessons/{lessonId}
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	err := h.content.DeleteLesson(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId"), chi.URLParam(r, "lessonId"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
