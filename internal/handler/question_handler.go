package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/apperror"
	"github.com/quizbank/qbank-backend/internal/model"
	"github.com/quizbank/qbank-backend/internal/service"
	"github.com/quizbank/qbank-backend/internal/validator"
)

// QuestionHandler maps the question-bank endpoints onto the service. It does
// no business logic: bind, call, render.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, log: log}
}

// ListQuestions godoc
// GET /api/questions
// Returns a random sample of questions matching the query filters.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	query := model.SampleQuery{
		FullName: c.Query("fullName"),
		Level:    c.Query("level"),
		Semester: c.Query("semester"),
		Course:   c.Query("course"),
		Topic:    c.Query("topic"),
	}

	result, err := h.questionService.ListBySample(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateQuestion godoc
// POST /api/create
// Validates, optionally uploads the image, and persists a new question.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		h.log.Debug().Interface("fields", fields).Msg("Create payload rejected")
		_ = c.Error(apperror.BadRequest("Parameters missing"))
		return
	}

	if err := h.questionService.Create(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Question created successfully"})
}

// EditQuestion godoc
// PATCH /api/edit
// Replaces all mutable fields of the identified question.
func (h *QuestionHandler) EditQuestion(c *gin.Context) {
	var req model.EditQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		h.log.Debug().Interface("fields", fields).Msg("Edit payload rejected")
		_ = c.Error(apperror.BadRequest("Parameters missing"))
		return
	}

	if err := h.questionService.Edit(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question updated successfully"})
}

// DeleteQuestion godoc
// DELETE /api/delete
// Deletes a question by id after an existence check.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, err := h.questionService.Delete(c.Request.Context(), c.Query("code"), c.Query("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id.String()})
}

// SearchQuestions godoc
// GET /api/search
// Relevance-ranked text search with fixed-size pages.
func (h *QuestionHandler) SearchQuestions(c *gin.Context) {
	result, err := h.questionService.SearchByText(c.Request.Context(), c.Query("page"), c.Query("search"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CountQuestions godoc
// GET /api/count
// Per-course totals with a per-topic breakdown.
func (h *QuestionHandler) CountQuestions(c *gin.Context) {
	report, err := h.questionService.CountByCourseAndTopic(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}
