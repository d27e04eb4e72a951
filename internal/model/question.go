package model

import (
	"time"

	"github.com/google/uuid"
)

// Question represents a single multiple-choice question in the bank.
type Question struct {
	ID        uuid.UUID       `json:"id"`
	Question  QuestionContent `json:"question"`
	Options   []Option        `json:"options"`
	Level     int             `json:"level"`
	Semester  string          `json:"semester"`
	Course    string          `json:"course"`
	Topic     string          `json:"topic"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// QuestionContent is the prompt itself: the text plus an optional image URL
// pointing at the external image host.
type QuestionContent struct {
	Text     string `json:"question"`
	ImageURL string `json:"image,omitempty"`
}

// Option is one selectable answer choice.
type Option struct {
	Label      string `json:"option" binding:"required"`
	AnswerText string `json:"answerText" binding:"required"`
	IsCorrect  bool   `json:"isCorrect"`
}

// SampleFilter selects questions for random sampling. Empty Course or Topic
// leaves that axis unconstrained (the "All" sentinel resolves to empty).
type SampleFilter struct {
	Level    int
	Semester string
	Course   string
	Topic    string
}

// CourseTopicCount is one row of the group-and-count aggregation.
type CourseTopicCount struct {
	Course string
	Topic  string
	Count  int
}

// ─── Request payloads ───────────────────────────────────────────────────────

// QuestionPayload is the prompt as submitted by clients. Image carries the
// raw upload reference (data URI or remote URL), not the stored URL.
type QuestionPayload struct {
	Text  string `json:"question" binding:"required"`
	Image string `json:"image"`
}

// CreateQuestionRequest is the body of POST /api/create.
type CreateQuestionRequest struct {
	Question QuestionPayload `json:"question" binding:"required"`
	Options  []Option        `json:"options" binding:"required,min=1,dive"`
	Level    int             `json:"level" binding:"required"`
	Semester string          `json:"semester" binding:"required"`
	Course   string          `json:"course" binding:"required"`
	Topic    string          `json:"topic" binding:"required"`
	Code     int             `json:"code" binding:"required"`
}

// EditQuestionRequest is the body of PATCH /api/edit.
type EditQuestionRequest struct {
	ID       string          `json:"id" binding:"required"`
	Question QuestionPayload `json:"question" binding:"required"`
	Options  []Option        `json:"options" binding:"required,min=1,dive"`
	Level    int             `json:"level" binding:"required"`
	Semester string          `json:"semester" binding:"required"`
	Course   string          `json:"course" binding:"required"`
	Topic    string          `json:"topic" binding:"required"`
	Code     int             `json:"code" binding:"required"`
}

// SampleQuery carries the raw GET /api/questions parameters. Level stays a
// string until the service validates it.
type SampleQuery struct {
	FullName string `json:"fullName"`
	Level    string `json:"level"`
	Semester string `json:"semester"`
	Course   string `json:"course"`
	Topic    string `json:"topic"`
}

// ─── Response shapes ────────────────────────────────────────────────────────

// SampleResult is the GET /api/questions response body.
type SampleResult struct {
	Data []Question  `json:"data"`
	Info SampleQuery `json:"info"`
}

// SearchResult is the GET /api/search response body.
type SearchResult struct {
	Data           []Question `json:"data"`
	CurrentPage    int        `json:"currentPage"`
	TotalPages     int        `json:"totalPages"`
	TotalQuestions int        `json:"totalQuestions"`
}

// TopicCount is one per-topic entry of the count report.
type TopicCount struct {
	Topic          string `json:"topic"`
	TotalQuestions int    `json:"totalQuestions"`
}

// CourseCount groups a course's total with its per-topic breakdown.
type CourseCount struct {
	Course                 string       `json:"course"`
	TotalQuestionsInCourse int          `json:"totalQuestionsInCourse"`
	Topics                 []TopicCount `json:"topics"`
}
