package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/apperror"
	"github.com/quizbank/qbank-backend/internal/config"
	"github.com/quizbank/qbank-backend/internal/model"
	"github.com/quizbank/qbank-backend/internal/repository"
)

const (
	// SampleSize is the maximum number of questions a listing request returns.
	SampleSize = 30
	// SearchPageSize is the fixed page size of text search.
	SearchPageSize = 5

	// allFilter is the sentinel that leaves course/topic unconstrained.
	allFilter = "All"
)

// QuestionStore is the persistence contract the service depends on. It is
// satisfied by repository.QuestionRepository; tests supply fakes.
type QuestionStore interface {
	SampleByFilter(ctx context.Context, f model.SampleFilter, size int) ([]model.Question, error)
	SearchText(ctx context.Context, search string, limit, offset int) ([]model.Question, int, error)
	CountByCourseTopic(ctx context.Context) ([]model.CourseTopicCount, error)
	HasAnswerConflict(ctx context.Context, course, topic string, answers []string) (bool, error)
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionService translates requests into store queries and enforces the
// validation, access-code, and duplicate-option rules.
type QuestionService struct {
	store    QuestionStore
	uploader ImageUploader
	rdb      *redis.Client // nil disables the count cache
	cfg      *config.Config
	log      zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store QuestionStore, uploader ImageUploader, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store:    store,
		uploader: uploader,
		rdb:      rdb,
		cfg:      cfg,
		log:      log,
	}
}

// ListBySample returns up to SampleSize randomly drawn questions matching the
// query, plus an echo of the query itself. FullName is audit-only and never
// filters. Course and topic equal to "All" (any casing) are unconstrained.
func (s *QuestionService) ListBySample(ctx context.Context, q model.SampleQuery) (*model.SampleResult, error) {
	if q.FullName == "" || q.Level == "" || q.Semester == "" || q.Course == "" || q.Topic == "" {
		return nil, apperror.BadRequest("Parameters missing")
	}

	level, err := strconv.Atoi(q.Level)
	if err != nil {
		return nil, apperror.BadRequest("Parameters missing")
	}

	filter := model.SampleFilter{
		Level:    level,
		Semester: q.Semester,
		Course:   q.Course,
		Topic:    q.Topic,
	}
	if strings.EqualFold(filter.Course, allFilter) {
		filter.Course = ""
	}
	if strings.EqualFold(filter.Topic, allFilter) {
		filter.Topic = ""
	}

	questions, err := s.store.SampleByFilter(ctx, filter, SampleSize)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperror.BadRequest("No available questions")
	}

	return &model.SampleResult{Data: questions, Info: q}, nil
}

// Create validates and persists a new question. The duplicate-option check
// and the insert are not atomic; concurrent conflicting creates can both
// pass, which the contract accepts.
func (s *QuestionService) Create(ctx context.Context, req model.CreateQuestionRequest) error {
	if err := validateQuestionFields(req.Question.Text, req.Options, req.Level, req.Semester, req.Course, req.Topic, req.Code); err != nil {
		return err
	}
	if req.Code != s.cfg.AccessCode {
		return apperror.IncorrectCode()
	}

	conflict, err := s.store.HasAnswerConflict(ctx, req.Course, req.Topic, lowerAnswers(req.Options))
	if err != nil {
		return err
	}
	if conflict {
		return apperror.Conflict("A similar question with a matching option already exists")
	}

	imageURL, err := s.resolveImage(ctx, req.Question.Image)
	if err != nil {
		return err
	}

	question := &model.Question{
		Question: model.QuestionContent{Text: req.Question.Text, ImageURL: imageURL},
		Options:  req.Options,
		Level:    req.Level,
		Semester: req.Semester,
		Course:   req.Course,
		Topic:    req.Topic,
	}
	if err := s.store.Create(ctx, question); err != nil {
		return err
	}

	s.invalidateCountCache(ctx)
	s.log.Info().
		Str("id", question.ID.String()).
		Str("course", question.Course).
		Str("topic", question.Topic).
		Msg("Question created")
	return nil
}

// Edit replaces all mutable fields of the identified question.
func (s *QuestionService) Edit(ctx context.Context, req model.EditQuestionRequest) error {
	if req.ID == "" {
		return apperror.BadRequest("Parameters missing")
	}
	if err := validateQuestionFields(req.Question.Text, req.Options, req.Level, req.Semester, req.Course, req.Topic, req.Code); err != nil {
		return err
	}
	if req.Code != s.cfg.AccessCode {
		return apperror.IncorrectCode()
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return apperror.BadRequest("Invalid question id")
	}

	imageURL, err := s.resolveImage(ctx, req.Question.Image)
	if err != nil {
		return err
	}

	question := &model.Question{
		ID:       id,
		Question: model.QuestionContent{Text: req.Question.Text, ImageURL: imageURL},
		Options:  req.Options,
		Level:    req.Level,
		Semester: req.Semester,
		Course:   req.Course,
		Topic:    req.Topic,
	}
	if err := s.store.Update(ctx, question); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Question not found")
		}
		return err
	}

	s.invalidateCountCache(ctx)
	s.log.Info().Str("id", id.String()).Msg("Question updated")
	return nil
}

// Delete removes the identified question and returns its id. Existence is
// checked before deleting so an unknown id is a 404, not a silent no-op.
func (s *QuestionService) Delete(ctx context.Context, codeRaw, idRaw string) (uuid.UUID, error) {
	if codeRaw == "" || idRaw == "" {
		return uuid.Nil, apperror.BadRequest("Parameters missing")
	}

	code, err := strconv.Atoi(codeRaw)
	if err != nil || code != s.cfg.AccessCode {
		return uuid.Nil, apperror.IncorrectCode()
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return uuid.Nil, apperror.BadRequest("Invalid question id")
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, apperror.NotFound("Question not found")
		}
		return uuid.Nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, apperror.NotFound("Question not found")
		}
		return uuid.Nil, err
	}

	s.invalidateCountCache(ctx)
	s.log.Info().Str("id", id.String()).Msg("Question deleted")
	return id, nil
}

// SearchByText runs a relevance-ranked text search with fixed-size pages.
// A valid query with no matches is an empty page, not an error.
func (s *QuestionService) SearchByText(ctx context.Context, pageRaw, search string) (*model.SearchResult, error) {
	if pageRaw == "" || search == "" {
		return nil, apperror.BadRequest("Parameters missing")
	}

	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		return nil, apperror.BadRequest("Invalid page number")
	}

	offset := (page - 1) * SearchPageSize
	questions, total, err := s.store.SearchText(ctx, search, SearchPageSize, offset)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}

	return &model.SearchResult{
		Data:           questions,
		CurrentPage:    page,
		TotalPages:     (total + SearchPageSize - 1) / SearchPageSize,
		TotalQuestions: total,
	}, nil
}

// CountByCourseAndTopic returns, per course, the total question count and a
// per-topic breakdown. Results are served from Redis when fresh; the rows
// come back ordered by course then topic, so the report is stable per run.
func (s *QuestionService) CountByCourseAndTopic(ctx context.Context) ([]model.CourseCount, error) {
	if cached := s.readCountCache(ctx); cached != nil {
		return cached, nil
	}

	rows, err := s.store.CountByCourseTopic(ctx)
	if err != nil {
		return nil, err
	}

	report := groupByCourse(rows)
	s.writeCountCache(ctx, report)
	return report, nil
}

// PrewarmCountCache populates the count cache before traffic arrives.
func (s *QuestionService) PrewarmCountCache(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	_, err := s.CountByCourseAndTopic(ctx)
	return err
}

// ─── Internals ──────────────────────────────────────────────────────────────

// validateQuestionFields rejects any create/edit payload with a missing
// required field. Level and Code follow the upstream convention that zero
// counts as absent.
func validateQuestionFields(text string, options []model.Option, level int, semester, course, topic string, code int) error {
	if text == "" || len(options) == 0 || level == 0 || semester == "" || course == "" || topic == "" || code == 0 {
		return apperror.BadRequest("Parameters missing")
	}
	for _, opt := range options {
		if opt.Label == "" || opt.AnswerText == "" {
			return apperror.BadRequest("Parameters missing")
		}
	}
	return nil
}

func lowerAnswers(options []model.Option) []string {
	answers := make([]string, 0, len(options))
	for _, opt := range options {
		answers = append(answers, strings.ToLower(opt.AnswerText))
	}
	return answers
}

// resolveImage uploads the raw image reference, if any, and returns the
// hosted URL. Upload failure aborts the whole operation; nothing is written.
func (s *QuestionService) resolveImage(ctx context.Context, image string) (string, error) {
	if image == "" {
		return "", nil
	}
	url, err := s.uploader.Upload(ctx, image)
	if err != nil {
		return "", err
	}
	return url, nil
}

// groupByCourse folds ordered (course, topic, count) rows into the per-course
// report shape. Rows for the same course must be adjacent.
func groupByCourse(rows []model.CourseTopicCount) []model.CourseCount {
	report := []model.CourseCount{}
	for _, row := range rows {
		if len(report) == 0 || report[len(report)-1].Course != row.Course {
			report = append(report, model.CourseCount{Course: row.Course})
		}
		last := &report[len(report)-1]
		last.TotalQuestionsInCourse += row.Count
		last.Topics = append(last.Topics, model.TopicCount{
			Topic:          row.Topic,
			TotalQuestions: row.Count,
		})
	}
	return report
}

func (s *QuestionService) readCountCache(ctx context.Context) []model.CourseCount {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, config.CountCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Count cache read failed")
		}
		return nil
	}
	var report []model.CourseCount
	if err := json.Unmarshal(raw, &report); err != nil {
		s.log.Warn().Err(err).Msg("Count cache entry corrupt, ignoring")
		return nil
	}
	return report
}

func (s *QuestionService) writeCountCache(ctx context.Context, report []model.CourseCount) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CountCacheKey, raw, s.cfg.CountCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Count cache write failed")
	}
}

func (s *QuestionService) invalidateCountCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.CountCacheKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Count cache invalidation failed")
	}
}
