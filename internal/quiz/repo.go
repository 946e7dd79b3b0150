package quiz

import (
	"context"
	"errors"
)

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrAttemptNotFound  = errors.New("no attempt found for this test")
	ErrSessionNotFound  = errors.New("no open session for this test")
	ErrTimeExpired      = errors.New("time limit exceeded")
)

// Catalog is the read-only provider of category/test/question data. It is
// external to the attempt engine; the engine only needs lookups.
type Catalog interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListTests(ctx context.Context, categoryID string) ([]TestInfo, error)
	// GetTest returns test metadata with the category name joined.
	GetTest(ctx context.Context, id string) (Test, error)
	// GetQuestions returns the test's questions in authoring order, answer
	// keys included. Callers serving in-progress attempts must project with
	// Question.View before writing anything to the wire.
	GetQuestions(ctx context.Context, testID string) ([]Question, error)
}

// AttemptStore persists attempt records and the server-side session stamps
// backing duration enforcement. Attempts are append-only: there is no update
// or delete.
type AttemptStore interface {
	PutAttempt(ctx context.Context, a Attempt) error
	// LatestAttempt returns the most recent attempt by completedAt for the
	// (user, test) pair, or ErrAttemptNotFound.
	LatestAttempt(ctx context.Context, userID, testID string) (Attempt, error)
	// ListAttempts returns all attempts by a user, newest first.
	ListAttempts(ctx context.Context, userID string) ([]Attempt, error)

	// StartSession stamps (or re-stamps) the start of an attempt window.
	// Serving questions always restarts the window: there is no resume.
	StartSession(ctx context.Context, testID, userID string, startedAt int64) error
	// SessionStart returns the stamped start, or ErrSessionNotFound.
	SessionStart(ctx context.Context, testID, userID string) (int64, error)
	// PurgeSessions removes stamps older than the cutoff and reports how
	// many were removed.
	PurgeSessions(ctx context.Context, olderThan int64) (int64, error)
}
