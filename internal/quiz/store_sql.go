package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SQLStore implements Catalog and AttemptStore over database/sql. It works
// against both the sqlite and postgres drivers wired in internal/db.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListTests(ctx context.Context, categoryID string) ([]TestInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.duration_min, t.total_marks, t.passing_marks,
		       COALESCE(c.name, ''),
		       (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id)
		FROM tests t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ($1 = '' OR t.category_id = $1)
		ORDER BY t.created_at`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestInfo{}
	for rows.Next() {
		var ti TestInfo
		if err := rows.Scan(&ti.ID, &ti.Title, &ti.Description, &ti.Duration,
			&ti.TotalMarks, &ti.PassingMarks, &ti.Category, &ti.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, ti)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.title, t.description, t.duration_min, t.total_marks, t.passing_marks,
		       COALESCE(t.category_id, ''), COALESCE(c.name, '')
		FROM tests t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1`, id)
	var t Test
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Duration,
		&t.TotalMarks, &t.PassingMarks, &t.CategoryID, &t.CategoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM questions WHERE test_id = $1 ORDER BY position`, id)
	if err != nil {
		return Test{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var qid string
		if err := rows.Scan(&qid); err != nil {
			return Test{}, err
		}
		t.QuestionIDs = append(t.QuestionIDs, qid)
	}
	return t, rows.Err()
}

func (s *SQLStore) GetQuestions(ctx context.Context, testID string) ([]Question, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id = $1`, testID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, options_json, correct_option, marks
		FROM questions WHERE test_id = $1 ORDER BY position`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		var oj string
		if err := rows.Scan(&q.ID, &q.Text, &oj, &q.CorrectOption, &q.Marks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, test_id, user_id, score, passed, time_taken, answers_json, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.TestID, a.UserID, a.Score, a.Passed, a.TimeTaken, string(aj), a.CompletedAt)
	return err
}

func (s *SQLStore) LatestAttempt(ctx context.Context, userID, testID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, test_id, user_id, score, passed, time_taken, answers_json, completed_at
		FROM attempts WHERE user_id = $1 AND test_id = $2
		ORDER BY completed_at DESC LIMIT 1`, userID, testID)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, err
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, test_id, user_id, score, passed, time_taken, answers_json, completed_at
		FROM attempts WHERE user_id = $1
		ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) StartSession(ctx context.Context, testID, userID string, startedAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO test_sessions (test_id, user_id, started_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (test_id, user_id) DO UPDATE SET started_at = EXCLUDED.started_at`,
		testID, userID, startedAt)
	return err
}

func (s *SQLStore) SessionStart(ctx context.Context, testID, userID string) (int64, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM test_sessions WHERE test_id = $1 AND user_id = $2`,
		testID, userID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	return ts, err
}

func (s *SQLStore) PurgeSessions(ctx context.Context, olderThan int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM test_sessions WHERE started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var aj string
	if err := row.Scan(&a.ID, &a.TestID, &a.UserID, &a.Score, &a.Passed,
		&a.TimeTaken, &aj, &a.CompletedAt); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		a.Answers = nil
	}
	return a, nil
}
