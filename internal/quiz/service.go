package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quizdeck/quizdeck/internal/audit"
	"github.com/quizdeck/quizdeck/internal/grading"
)

// EventSink receives audit events for submitted attempts and started
// sessions. audit.EventRepo satisfies it; tests inject fakes.
type EventSink interface {
	Append(ctx context.Context, e audit.Event) error
}

// QuestionSet is the payload served when an attempt starts: the test header
// plus its questions in authoring order, answer keys stripped.
type QuestionSet struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Duration       int            `json:"duration"`
	TotalQuestions int            `json:"totalQuestions"`
	Questions      []QuestionView `json:"questions"`
}

// Service is the server-authoritative attempt engine: question delivery,
// grading, persistence, and review.
type Service struct {
	catalog  Catalog
	attempts AttemptStore
	grader   grading.Grader
	events   EventSink
	now      func() time.Time
	grace    time.Duration
}

type ServiceOption func(*Service)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithGrace sets the slack allowed past the stated duration before a
// submission is rejected as late.
func WithGrace(d time.Duration) ServiceOption {
	return func(s *Service) { s.grace = d }
}

// WithEvents attaches an audit sink; append failures are logged, never fatal.
func WithEvents(sink EventSink) ServiceOption {
	return func(s *Service) { s.events = sink }
}

func NewService(catalog Catalog, attempts AttemptStore, grader grading.Grader, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:  catalog,
		attempts: attempts,
		grader:   grader,
		now:      time.Now,
		grace:    30 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TestInfo returns test metadata for the instructions page: category joined
// by name, question count included, no questions and no answer keys.
func (s *Service) TestInfo(ctx context.Context, testID string) (TestInfo, error) {
	t, err := s.catalog.GetTest(ctx, testID)
	if err != nil {
		return TestInfo{}, err
	}
	return testInfo(t, len(t.QuestionIDs)), nil
}

// Categories lists the browsable categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.catalog.ListCategories(ctx)
}

// Tests lists test metadata, optionally scoped to one category.
func (s *Service) Tests(ctx context.Context, categoryID string) ([]TestInfo, error) {
	return s.catalog.ListTests(ctx, categoryID)
}

// StartQuestions serves the question list for an attempt and stamps the
// server-side start of the user's time window. Re-fetching restarts the
// window: there is no resume semantics.
func (s *Service) StartQuestions(ctx context.Context, testID, userID string) (QuestionSet, error) {
	t, err := s.catalog.GetTest(ctx, testID)
	if err != nil {
		return QuestionSet{}, err
	}
	qs, err := s.catalog.GetQuestions(ctx, testID)
	if err != nil {
		return QuestionSet{}, err
	}
	startedAt := s.now().Unix()
	if err := s.attempts.StartSession(ctx, testID, userID, startedAt); err != nil {
		return QuestionSet{}, fmt.Errorf("start session: %w", err)
	}
	s.emit(ctx, audit.TypeSessionStarted, testID+"|"+userID, map[string]any{
		"testId": testID, "user": userID, "startedAt": startedAt,
	})

	set := QuestionSet{
		ID:             t.ID,
		Title:          t.Title,
		Duration:       t.Duration,
		TotalQuestions: len(qs),
		Questions:      make([]QuestionView, 0, len(qs)),
	}
	for _, q := range qs {
		set.Questions = append(set.Questions, q.View())
	}
	return set, nil
}

// Submit grades a submission against the authoritative answer key and
// persists exactly one attempt record. The call is not idempotent: a second
// submission creates a second record.
//
// Correctness is always recomputed here; any isCorrect value carried by the
// wire payload is ignored. Answers referencing unknown questions are dropped
// from the graded set rather than failing the request.
func (s *Service) Submit(ctx context.Context, testID, userID string, answers []SubmittedAnswer, timeTaken int) (SubmitResult, error) {
	t, err := s.catalog.GetTest(ctx, testID)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.checkDeadline(ctx, t, userID); err != nil {
		return SubmitResult{}, err
	}

	qs, err := s.catalog.GetQuestions(ctx, testID)
	if err != nil {
		return SubmitResult{}, err
	}
	bank := make(map[string]Question, len(qs))
	for _, q := range qs {
		bank[q.ID] = q
	}

	score := 0
	graded := make([]GradedAnswer, 0, len(answers))
	for _, a := range answers {
		q, ok := bank[a.QuestionID]
		if !ok {
			log.Printf("submit test=%s: question not found: %s", testID, a.QuestionID)
			continue
		}
		res := s.grader.Grade(grading.Q{
			CorrectOption: q.CorrectOption,
			OptionCount:   len(q.Options),
			Marks:         q.Marks,
		}, a.SelectedOption)
		score += res.Points
		graded = append(graded, GradedAnswer{
			QuestionID:     q.ID,
			SelectedOption: a.SelectedOption,
			IsCorrect:      res.Correct,
		})
	}

	if timeTaken <= 0 {
		timeTaken = 60 * t.Duration
	}
	passed := score >= t.PassingMarks

	attempt := Attempt{
		ID:          uuid.NewString(),
		UserID:      userID,
		TestID:      t.ID,
		Score:       score,
		Passed:      passed,
		TimeTaken:   timeTaken,
		CompletedAt: s.now().Unix(),
		Answers:     graded,
	}
	if err := s.attempts.PutAttempt(ctx, attempt); err != nil {
		return SubmitResult{}, fmt.Errorf("persist attempt: %w", err)
	}
	s.emit(ctx, audit.TypeAttemptSubmitted, attempt.ID, map[string]any{
		"testId": t.ID, "user": userID, "score": score, "passed": passed,
	})

	totalMarks := t.TotalMarks
	if totalMarks <= 0 {
		// Fallback from the original catalog data: tests without configured
		// totals report the size of the submission. See DESIGN.md.
		totalMarks = len(answers)
	}
	return SubmitResult{
		Score:      score,
		TotalMarks: totalMarks,
		Passed:     passed,
		AttemptID:  attempt.ID,
	}, nil
}

// checkDeadline rejects submissions that arrive after the stamped window
// plus grace. A missing stamp is tolerated (logged) so pre-existing clients
// that never fetched questions through StartQuestions keep working.
func (s *Service) checkDeadline(ctx context.Context, t Test, userID string) error {
	startedAt, err := s.attempts.SessionStart(ctx, t.ID, userID)
	if err != nil {
		log.Printf("submit test=%s user=%s: no session stamp, skipping deadline check", t.ID, userID)
		return nil
	}
	deadline := time.Unix(startedAt, 0).Add(time.Duration(t.Duration)*time.Minute + s.grace)
	if s.now().After(deadline) {
		return ErrTimeExpired
	}
	return nil
}

// Review returns the caller's most recent attempt for a test, joined with
// test metadata and full questions, answer keys included. Review never
// recomputes: score, passed and timeTaken are returned as persisted.
func (s *Service) Review(ctx context.Context, testID, userID string) (AttemptReview, error) {
	a, err := s.attempts.LatestAttempt(ctx, userID, testID)
	if err != nil {
		return AttemptReview{}, err
	}
	t, err := s.catalog.GetTest(ctx, testID)
	if err != nil {
		return AttemptReview{}, err
	}
	qs, err := s.catalog.GetQuestions(ctx, testID)
	if err != nil {
		return AttemptReview{}, err
	}
	bank := make(map[string]Question, len(qs))
	for _, q := range qs {
		bank[q.ID] = q
	}

	review := AttemptReview{
		ID:          a.ID,
		Test:        testInfo(t, len(qs)),
		Score:       a.Score,
		Passed:      a.Passed,
		TimeTaken:   a.TimeTaken,
		CompletedAt: a.CompletedAt,
		Answers:     make([]ReviewAnswer, 0, len(a.Answers)),
	}
	for _, ga := range a.Answers {
		q, ok := bank[ga.QuestionID]
		if !ok {
			// Question removed from the catalog after the attempt; keep the
			// graded row visible with what we still know.
			q = Question{ID: ga.QuestionID}
		}
		review.Answers = append(review.Answers, ReviewAnswer{
			Question:       q,
			SelectedOption: ga.SelectedOption,
			IsCorrect:      ga.IsCorrect,
		})
	}
	return review, nil
}

// History returns all attempts by a user, newest first, with test metadata
// joined for the dashboard.
func (s *Service) History(ctx context.Context, userID string) ([]AttemptSummary, error) {
	list, err := s.attempts.ListAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AttemptSummary, 0, len(list))
	for _, a := range list {
		info := TestInfo{ID: a.TestID}
		if t, err := s.catalog.GetTest(ctx, a.TestID); err == nil {
			info = testInfo(t, len(t.QuestionIDs))
		} else {
			log.Printf("history user=%s: test %s: %v", userID, a.TestID, err)
		}
		out = append(out, AttemptSummary{
			ID:          a.ID,
			Test:        info,
			Score:       a.Score,
			Passed:      a.Passed,
			TimeTaken:   a.TimeTaken,
			CompletedAt: a.CompletedAt,
		})
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	if err := s.events.Append(ctx, audit.Event{Type: typ, Key: key, DataJSON: string(buf)}); err != nil {
		log.Printf("audit append %s %s: %v", typ, key, err)
	}
}

func testInfo(t Test, questionCount int) TestInfo {
	return TestInfo{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Duration:      t.Duration,
		TotalMarks:    t.TotalMarks,
		PassingMarks:  t.PassingMarks,
		Category:      t.CategoryName,
		QuestionCount: questionCount,
	}
}
