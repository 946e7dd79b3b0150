package quiz_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/quizdeck/quizdeck/internal/db"
	"github.com/quizdeck/quizdeck/internal/quiz"
)

func openTestDB(t *testing.T) *quiz.SQLStore {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	seed := []string{
		`INSERT INTO categories (id, name) VALUES ('c1', 'General')`,
		`INSERT INTO tests (id, title, description, duration_min, total_marks, passing_marks, category_id, created_at)
		 VALUES ('T1', 'Sample', 'desc', 10, 2, 1, 'c1', 100)`,
		`INSERT INTO questions (id, test_id, text, options_json, correct_option, marks, position)
		 VALUES ('q2', 'T1', 'second', '["a","b","c"]', 2, 1, 1)`,
		`INSERT INTO questions (id, test_id, text, options_json, correct_option, marks, position)
		 VALUES ('q1', 'T1', 'first', '["a","b"]', 0, 1, 0)`,
	}
	for _, stmt := range seed {
		if _, err := dbh.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return quiz.NewSQLStore(dbh)
}

func TestSQLStore_CatalogReads(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	tst, err := store.GetTest(ctx, "T1")
	if err != nil {
		t.Fatalf("get test: %v", err)
	}
	if tst.Title != "Sample" || tst.CategoryName != "General" || tst.Duration != 10 {
		t.Fatalf("test row: %+v", tst)
	}
	if len(tst.QuestionIDs) != 2 || tst.QuestionIDs[0] != "q1" {
		t.Fatalf("question ids not in authoring order: %v", tst.QuestionIDs)
	}

	qs, err := store.GetQuestions(ctx, "T1")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(qs) != 2 || qs[0].ID != "q1" || qs[1].ID != "q2" {
		t.Fatalf("questions out of order: %+v", qs)
	}
	if qs[1].CorrectOption != 2 || len(qs[1].Options) != 3 {
		t.Fatalf("question decode: %+v", qs[1])
	}

	if _, err := store.GetTest(ctx, "nope"); err != quiz.ErrTestNotFound {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}
	if _, err := store.GetQuestions(ctx, "nope"); err != quiz.ErrTestNotFound {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}

	infos, err := store.ListTests(ctx, "c1")
	if err != nil {
		t.Fatalf("list tests: %v", err)
	}
	if len(infos) != 1 || infos[0].QuestionCount != 2 || infos[0].Category != "General" {
		t.Fatalf("list tests: %+v", infos)
	}
	if infos, _ := store.ListTests(ctx, "other"); len(infos) != 0 {
		t.Fatalf("category filter leaked: %+v", infos)
	}
}

func TestSQLStore_AttemptRoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	sel := 0
	a := quiz.Attempt{
		ID: "a1", TestID: "T1", UserID: "u1",
		Score: 1, Passed: true, TimeTaken: 120, CompletedAt: 1000,
		Answers: []quiz.GradedAnswer{
			{QuestionID: "q1", SelectedOption: &sel, IsCorrect: true},
			{QuestionID: "q2", SelectedOption: nil, IsCorrect: false},
		},
	}
	if err := store.PutAttempt(ctx, a); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutAttempt(ctx, quiz.Attempt{
		ID: "a2", TestID: "T1", UserID: "u1", Score: 2, Passed: true,
		TimeTaken: 60, CompletedAt: 2000, Answers: nil,
	}); err != nil {
		t.Fatalf("put 2: %v", err)
	}

	latest, err := store.LatestAttempt(ctx, "u1", "T1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "a2" {
		t.Fatalf("latest = %s, want a2 (most recent completedAt)", latest.ID)
	}

	list, err := store.ListAttempts(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a2" || list[1].ID != "a1" {
		t.Fatalf("not newest first: %+v", list)
	}
	got := list[1]
	if got.Score != 1 || !got.Passed || got.TimeTaken != 120 {
		t.Fatalf("attempt fields drifted: %+v", got)
	}
	buf, _ := json.Marshal(got.Answers)
	want := `[{"questionId":"q1","selectedOption":0,"isCorrect":true},{"questionId":"q2","selectedOption":null,"isCorrect":false}]`
	if string(buf) != want {
		t.Fatalf("answers = %s, want %s", buf, want)
	}

	if _, err := store.LatestAttempt(ctx, "u2", "T1"); err != quiz.ErrAttemptNotFound {
		t.Fatalf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestSQLStore_SessionStamps(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	if _, err := store.SessionStart(ctx, "T1", "u1"); err != quiz.ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := store.StartSession(ctx, "T1", "u1", 500); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Re-stamping restarts the window.
	if err := store.StartSession(ctx, "T1", "u1", 900); err != nil {
		t.Fatalf("restart: %v", err)
	}
	ts, err := store.SessionStart(ctx, "T1", "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ts != 900 {
		t.Fatalf("started_at = %d, want 900", ts)
	}

	n, err := store.PurgeSessions(ctx, 901)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged = %d, want 1", n)
	}
	if _, err := store.SessionStart(ctx, "T1", "u1"); err != quiz.ErrSessionNotFound {
		t.Fatalf("stamp survived purge: %v", err)
	}
}
