package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/config"
	"github.com/quizbank/qbank-backend/internal/handler"
	"github.com/quizbank/qbank-backend/internal/model"
	"github.com/quizbank/qbank-backend/internal/repository"
	"github.com/quizbank/qbank-backend/internal/service"
	"github.com/quizbank/qbank-backend/internal/validator"
)

const testAccessCode = 7777

// memStore is a minimal in-memory QuestionStore for endpoint tests.
type memStore struct {
	questions []model.Question
}

func (m *memStore) SampleByFilter(_ context.Context, f model.SampleFilter, size int) ([]model.Question, error) {
	var out []model.Question
	for _, q := range m.questions {
		if q.Level != f.Level || q.Semester != f.Semester {
			continue
		}
		if f.Course != "" && q.Course != f.Course {
			continue
		}
		if f.Topic != "" && q.Topic != f.Topic {
			continue
		}
		out = append(out, q)
		if len(out) == size {
			break
		}
	}
	return out, nil
}

func (m *memStore) SearchText(_ context.Context, _ string, limit, offset int) ([]model.Question, int, error) {
	total := len(m.questions)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.questions[offset:end], total, nil
}

func (m *memStore) CountByCourseTopic(_ context.Context) ([]model.CourseTopicCount, error) {
	var counts []model.CourseTopicCount
	for _, q := range m.questions {
		counts = append(counts, model.CourseTopicCount{Course: q.Course, Topic: q.Topic, Count: 1})
	}
	return counts, nil
}

func (m *memStore) HasAnswerConflict(_ context.Context, course, topic string, _ []string) (bool, error) {
	return false, nil
}

func (m *memStore) Create(_ context.Context, q *model.Question) error {
	q.ID = uuid.New()
	m.questions = append(m.questions, *q)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for i := range m.questions {
		if m.questions[i].ID == id {
			return &m.questions[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) Update(_ context.Context, q *model.Question) error {
	for i := range m.questions {
		if m.questions[i].ID == q.ID {
			m.questions[i] = *q
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	for i := range m.questions {
		if m.questions[i].ID == id {
			m.questions = append(m.questions[:i], m.questions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type nopUploader struct{}

func (nopUploader) Upload(_ context.Context, image string) (string, error) {
	return "https://img.example.com/x", nil
}

func newTestRouter(store *memStore) *gin.Engine {
	validator.Setup()
	cfg := &config.Config{
		GinMode:       gin.TestMode,
		AccessCode:    testAccessCode,
		MaxBodyBytes:  1 << 20,
		CountCacheTTL: time.Minute,
	}
	svc := service.NewQuestionService(store, nopUploader{}, nil, cfg, zerolog.Nop())
	h := handler.NewQuestionHandler(svc, zerolog.Nop())
	return Setup(h, cfg, zerolog.Nop())
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	parsed := map[string]json.RawMessage{}
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("response is not a JSON object: %s", w.Body.String())
		}
	}
	return w, parsed
}

func errorMessage(t *testing.T, parsed map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	if err := json.Unmarshal(parsed["error"], &msg); err != nil {
		t.Fatalf("missing error field: %v", parsed)
	}
	return msg
}

func seedStore() *memStore {
	return &memStore{questions: []model.Question{{
		ID:       uuid.New(),
		Question: model.QuestionContent{Text: "What is a goroutine?"},
		Options:  []model.Option{{Label: "A", AnswerText: "A lightweight thread", IsCorrect: true}},
		Level:    200,
		Semester: "First",
		Course:   "CS1",
		Topic:    "Concurrency",
	}}}
}

func TestUnmatchedRouteIs404(t *testing.T) {
	r := newTestRouter(seedStore())
	w, parsed := doJSON(t, r, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if msg := errorMessage(t, parsed); msg != "Endpoint not found" {
		t.Fatalf("message = %q", msg)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(seedStore())
	w, _ := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestListQuestionsEndpoint(t *testing.T) {
	r := newTestRouter(seedStore())

	t.Run("missing params", func(t *testing.T) {
		w, parsed := doJSON(t, r, http.MethodGet, "/api/questions?level=200", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if msg := errorMessage(t, parsed); msg != "Parameters missing" {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("match returns data and info", func(t *testing.T) {
		w, parsed := doJSON(t, r, http.MethodGet,
			"/api/questions?fullName=Ada&level=200&semester=First&course=CS1&topic=Concurrency", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if _, ok := parsed["data"]; !ok {
			t.Fatal("response missing data")
		}
		if _, ok := parsed["info"]; !ok {
			t.Fatal("response missing info")
		}
	})

	t.Run("no results", func(t *testing.T) {
		w, parsed := doJSON(t, r, http.MethodGet,
			"/api/questions?fullName=Ada&level=900&semester=First&course=All&topic=All", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if msg := errorMessage(t, parsed); msg != "No available questions" {
			t.Fatalf("message = %q", msg)
		}
	})
}

func TestCreateEndpoint(t *testing.T) {
	body := func(code int) map[string]interface{} {
		return map[string]interface{}{
			"question": map[string]string{"question": "What is a channel?"},
			"options": []map[string]interface{}{
				{"option": "A", "answerText": "A typed conduit", "isCorrect": true},
			},
			"level": 200, "semester": "First", "course": "CS1", "topic": "Concurrency",
			"code": code,
		}
	}

	t.Run("created", func(t *testing.T) {
		store := seedStore()
		r := newTestRouter(store)
		w, _ := doJSON(t, r, http.MethodPost, "/api/create", body(testAccessCode))
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if len(store.questions) != 2 {
			t.Fatalf("expected persisted question, store has %d", len(store.questions))
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		r := newTestRouter(seedStore())
		w, parsed := doJSON(t, r, http.MethodPost, "/api/create", body(1))
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", w.Code)
		}
		if msg := errorMessage(t, parsed); msg != "Incorrect code" {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		r := newTestRouter(seedStore())
		payload := body(testAccessCode)
		delete(payload, "topic")
		w, parsed := doJSON(t, r, http.MethodPost, "/api/create", payload)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if msg := errorMessage(t, parsed); msg != "Parameters missing" {
			t.Fatalf("message = %q", msg)
		}
	})
}

func TestDeleteEndpoint(t *testing.T) {
	store := seedStore()
	r := newTestRouter(store)
	existing := store.questions[0].ID

	t.Run("unknown id", func(t *testing.T) {
		w, parsed := doJSON(t, r, http.MethodDelete,
			"/api/delete?code=7777&id="+uuid.NewString(), nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if msg := errorMessage(t, parsed); msg != "Question not found" {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("deletes and echoes the id", func(t *testing.T) {
		w, parsed := doJSON(t, r, http.MethodDelete,
			"/api/delete?code=7777&id="+existing.String(), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var id string
		if err := json.Unmarshal(parsed["id"], &id); err != nil || id != existing.String() {
			t.Fatalf("expected deleted id %s, got %v", existing, parsed)
		}
		if len(store.questions) != 0 {
			t.Fatal("question should be removed")
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	r := newTestRouter(seedStore())

	w, parsed := doJSON(t, r, http.MethodGet, "/api/search?page=1&search=goroutine", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	for _, field := range []string{"data", "currentPage", "totalPages", "totalQuestions"} {
		if _, ok := parsed[field]; !ok {
			t.Fatalf("response missing %s", field)
		}
	}
}

func TestCountEndpoint(t *testing.T) {
	r := newTestRouter(seedStore())

	req := httptest.NewRequest(http.MethodGet, "/api/count", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var report []model.CourseCount
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("count response is not an array: %s", w.Body.String())
	}
	if len(report) != 1 || report[0].Course != "CS1" || report[0].TotalQuestionsInCourse != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
