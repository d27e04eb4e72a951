package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizbank/qbank-backend/internal/model"
)

// ErrNotFound is returned when a point lookup or write targets an id that
// does not exist.
var ErrNotFound = errors.New("question not found")

const questionColumns = `id, question_text, image_url, options, level, semester, course, topic, created_at, updated_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// SampleByFilter returns up to size random questions matching the filter,
// drawn without replacement. Empty Course/Topic leave that axis open.
func (r *QuestionRepository) SampleByFilter(ctx context.Context, f model.SampleFilter, size int) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE level = $1 AND semester = $2`
	args := []interface{}{f.Level, f.Semester}
	argIdx := 3

	if f.Course != "" {
		query += ` AND course = $` + strconv.Itoa(argIdx)
		args = append(args, f.Course)
		argIdx++
	}
	if f.Topic != "" {
		query += ` AND topic = $` + strconv.Itoa(argIdx)
		args = append(args, f.Topic)
		argIdx++
	}

	// random() gives a fresh, non-seeded shuffle per call.
	query += ` ORDER BY random() LIMIT $` + strconv.Itoa(argIdx)
	args = append(args, size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectQuestions(rows)
}

// SearchText performs a relevance-ranked full-text search over the question
// text, returning one page of matches plus the total match count.
func (r *QuestionRepository) SearchText(ctx context.Context, search string, limit, offset int) ([]model.Question, int, error) {
	const matchClause = `to_tsvector('english', question_text) @@ plainto_tsquery('english', $1)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE `+matchClause, search,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE `+matchClause+`
		 ORDER BY ts_rank(to_tsvector('english', question_text), plainto_tsquery('english', $1)) DESC, id
		 LIMIT $2 OFFSET $3`,
		search, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// CountByCourseTopic returns the question count for every distinct
// (course, topic) pair, ordered by course then topic so reports are stable.
func (r *QuestionRepository) CountByCourseTopic(ctx context.Context) ([]model.CourseTopicCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course, topic, COUNT(*)
		 FROM questions
		 GROUP BY course, topic
		 ORDER BY course, topic`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.CourseTopicCount
	for rows.Next() {
		var c model.CourseTopicCount
		if err := rows.Scan(&c.Course, &c.Topic, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// HasAnswerConflict reports whether any question in the given course and
// topic carries an option whose answerText matches one of answers. The
// answers slice must already be lowercased.
func (r *QuestionRepository) HasAnswerConflict(ctx context.Context, course, topic string, answers []string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1
			FROM questions q, jsonb_array_elements(q.options) AS opt
			WHERE q.course = $1 AND q.topic = $2
			  AND LOWER(opt->>'answerText') = ANY($3)
		)`,
		course, topic, answers,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new question. The store assigns id and timestamps.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, image_url, options, level, semester, course, topic)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		q.Question.Text, nullable(q.Question.ImageURL), options, q.Level, q.Semester, q.Course, q.Topic,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a question by id, or ErrNotFound.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Update replaces all mutable fields of the question identified by q.ID.
// An update against a missing id returns ErrNotFound, never a silent no-op.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, image_url = $2, options = $3, level = $4,
		     semester = $5, course = $6, topic = $7, updated_at = NOW()
		 WHERE id = $8`,
		q.Question.Text, nullable(q.Question.ImageURL), options, q.Level, q.Semester, q.Course, q.Topic, q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a question by id, or returns ErrNotFound.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Scanning helpers ───────────────────────────────────────────────────────

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var (
		q        model.Question
		imageURL *string
		options  []byte
	)
	if err := row.Scan(&q.ID, &q.Question.Text, &imageURL, &options, &q.Level,
		&q.Semester, &q.Course, &q.Topic, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	if imageURL != nil {
		q.Question.ImageURL = *imageURL
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &q, nil
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
