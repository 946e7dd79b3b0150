package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/quizdeck/quizdeck/internal/api/http"
	authmw "github.com/quizdeck/quizdeck/internal/auth/middleware"
	"github.com/quizdeck/quizdeck/internal/grading"
	"github.com/quizdeck/quizdeck/internal/quiz"
)

func newTestRouter(store *quiz.MemoryStore) *chi.Mux {
	svc := quiz.NewService(store, store, grading.NewSingleChoiceGrader())

	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(stubAuth("u1", "student"))
		pr.Get("/tests/{testID}", api.GetTestHandler(svc))
		pr.Get("/tests/{testID}/questions", api.GetTestQuestionsHandler(svc))
		pr.Post("/tests/{testID}/submit", api.SubmitTestHandler(svc))
		pr.Get("/tests/{testID}/results", api.GetResultsHandler(svc))
		pr.Get("/attempts/{userID}", api.ListUserAttemptsHandler(svc))
	})
	return r
}

// stubAuth stands in for the JWT middleware: a fixed verified identity.
func stubAuth(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authmw.WithSubject(r.Context(), sub)
			ctx = authmw.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func seedHandlerStore() *quiz.MemoryStore {
	store := quiz.NewMemoryStore()
	store.PutCategory(quiz.Category{ID: "c1", Name: "General"})
	store.PutTest(quiz.Test{
		ID: "T1", Title: "Sample", Description: "desc",
		Duration: 10, TotalMarks: 2, PassingMarks: 1,
		CategoryID: "c1", CategoryName: "General",
	}, []quiz.Question{
		{ID: "q1", Text: "one", Options: []string{"a", "b"}, CorrectOption: 0, Marks: 1},
		{ID: "q2", Text: "two", Options: []string{"a", "b", "c"}, CorrectOption: 2, Marks: 1},
	})
	return store
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetTest_MetadataWithoutQuestions(t *testing.T) {
	r := newTestRouter(seedHandlerStore())

	rec := do(t, r, "GET", "/tests/T1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var info quiz.TestInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Title != "Sample" || info.Category != "General" || info.QuestionCount != 2 {
		t.Fatalf("info = %+v", info)
	}
	if strings.Contains(rec.Body.String(), "questions") {
		t.Fatalf("metadata payload leaked questions: %s", rec.Body)
	}

	if rec := do(t, r, "GET", "/tests/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing test status = %d", rec.Code)
	}
}

func TestQuestions_NeverCarryAnswerKey(t *testing.T) {
	r := newTestRouter(seedHandlerStore())

	rec := do(t, r, "GET", "/tests/T1/questions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "correctOption") {
		t.Fatalf("answer key leaked to an in-progress attempt: %s", rec.Body)
	}
	var set quiz.QuestionSet
	if err := json.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Questions) != 2 || set.Questions[0].ID != "q1" {
		t.Fatalf("set = %+v", set)
	}
}

func TestSubmitAndResults_RoundTrip(t *testing.T) {
	r := newTestRouter(seedHandlerStore())

	// Start so the time window is stamped, like a real client.
	if rec := do(t, r, "GET", "/tests/T1/questions", ""); rec.Code != http.StatusOK {
		t.Fatalf("questions status = %d", rec.Code)
	}

	body := `{"answers":[{"questionId":"q1","selectedOption":0,"isCorrect":true},{"questionId":"q2","selectedOption":1,"isCorrect":false}],"timeTaken":120}`
	rec := do(t, r, "POST", "/tests/T1/submit", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body)
	}
	var res quiz.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Score != 1 || res.TotalMarks != 2 || !res.Passed || res.AttemptID == "" {
		t.Fatalf("res = %+v", res)
	}

	rec = do(t, r, "GET", "/tests/T1/results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d: %s", rec.Code, rec.Body)
	}
	// Review is the one projection that includes the answer key.
	if !strings.Contains(rec.Body.String(), "correctOption") {
		t.Fatalf("results payload missing answer key: %s", rec.Body)
	}
	var review quiz.AttemptReview
	if err := json.Unmarshal(rec.Body.Bytes(), &review); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if review.Score != 1 || !review.Passed || review.TimeTaken != 120 {
		t.Fatalf("review drifted: %+v", review)
	}
}

func TestSubmit_OwnerIsJWTSubjectNotBodyUser(t *testing.T) {
	store := seedHandlerStore()
	r := newTestRouter(store)

	// The body claims another user; ownership must follow the token subject.
	body := `{"user":"mallory","answers":[{"questionId":"q1","selectedOption":0}],"timeTaken":5}`
	if rec := do(t, r, "POST", "/tests/T1/submit", body); rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	if _, err := store.LatestAttempt(context.Background(), "u1", "T1"); err != nil {
		t.Fatalf("attempt not owned by token subject: %v", err)
	}
	if _, err := store.LatestAttempt(context.Background(), "mallory", "T1"); err == nil {
		t.Fatalf("attempt attributed to body-asserted user")
	}
}

func TestSubmit_BadPayloads(t *testing.T) {
	r := newTestRouter(seedHandlerStore())

	if rec := do(t, r, "POST", "/tests/T1/submit", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}
	// Answer without a questionId fails validation.
	if rec := do(t, r, "POST", "/tests/T1/submit", `{"answers":[{"selectedOption":1}]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid answer status = %d", rec.Code)
	}
	if rec := do(t, r, "POST", "/tests/nope/submit", `{"answers":[]}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing test status = %d", rec.Code)
	}
}

func TestResults_NotFoundWithoutAttempt(t *testing.T) {
	r := newTestRouter(seedHandlerStore())
	if rec := do(t, r, "GET", "/tests/T1/results", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAttemptHistory_OwnOnlyForStudents(t *testing.T) {
	store := seedHandlerStore()
	r := newTestRouter(store) // authenticated as u1/student

	body := `{"answers":[{"questionId":"q1","selectedOption":0}]}`
	if rec := do(t, r, "POST", "/tests/T1/submit", body); rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	rec := do(t, r, "GET", "/attempts/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("own history status = %d", rec.Code)
	}
	var list []quiz.AttemptSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Test.Title != "Sample" {
		t.Fatalf("history = %+v", list)
	}

	if rec := do(t, r, "GET", "/attempts/other-user", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign history status = %d, want 403", rec.Code)
	}

	// Admins may read anyone's history.
	admin := chi.NewRouter()
	svc := quiz.NewService(store, store, grading.NewSingleChoiceGrader())
	admin.With(stubAuth("root", "admin")).Get("/attempts/{userID}", api.ListUserAttemptsHandler(svc))
	if rec := do(t, admin, "GET", "/attempts/u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin history status = %d", rec.Code)
	}
}
