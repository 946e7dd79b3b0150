package quiz

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Session states. Loading ends when Start delivers the question list;
// Submitted and Error are terminal (Error allows a retry from the same
// answer snapshot).
const (
	StateLoading    = "loading"
	StateInProgress = "in_progress"
	StateSubmitting = "submitting"
	StateSubmitted  = "submitted"
	StateError      = "error"
)

var (
	ErrNotInProgress    = errors.New("session is not in progress")
	ErrAlreadySubmitted = errors.New("submission already in flight or completed")
	ErrUnknownQuestion  = errors.New("question is not part of this test")
	ErrOptionOutOfRange = errors.New("selected option out of range")
)

// Submitter carries a completed answer snapshot to the scoring engine.
type Submitter interface {
	Submit(ctx context.Context, testID string, answers []SubmittedAnswer, timeTaken int) (SubmitResult, error)
}

// Session is the client-local attempt state machine: one countdown, one
// answer board, one submission. All methods are safe for concurrent use by
// the UI goroutine and the countdown timer.
type Session struct {
	mu sync.Mutex

	submitter Submitter
	now       func() time.Time

	state     string
	set       QuestionSet
	board     map[string]int // questionID -> selected option, last selection wins
	current   int            // displayed question index
	startedAt time.Time
	deadline  time.Time
	timer     *time.Timer

	result  SubmitResult
	lastErr error
}

type SessionOption func(*Session)

// WithSessionClock overrides the wall clock (tests).
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(submitter Submitter, opts ...SessionOption) *Session {
	s := &Session{
		submitter: submitter,
		now:       time.Now,
		state:     StateLoading,
		board:     map[string]int{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start transitions Loading -> InProgress with the delivered question list.
// The countdown is initialized to duration*60 seconds at this instant, not
// before, and auto-submits when it reaches zero.
func (s *Session) Start(set QuestionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return ErrNotInProgress
	}
	s.set = set
	s.state = StateInProgress
	s.startedAt = s.now()
	d := time.Duration(set.Duration) * time.Minute
	s.deadline = s.startedAt.Add(d)
	s.timer = time.AfterFunc(d, func() {
		// Forced submission, equivalent to the user pressing submit. The
		// single-flight guard in Submit makes a concurrent manual click safe.
		_, _ = s.Submit(context.Background())
	})
	return nil
}

// State reports the current lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select upserts the answer for a question. Only valid while in progress.
func (s *Session) Select(questionID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	q, ok := s.question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if option < 0 || option >= len(q.Options) {
		return ErrOptionOutOfRange
	}
	s.board[questionID] = option
	return nil
}

// Next advances the displayed question, clamped at the last index.
func (s *Session) Next() { s.jump(s.currentIndex() + 1) }

// Prev moves back one question, clamped at zero.
func (s *Session) Prev() { s.jump(s.currentIndex() - 1) }

// JumpTo displays the question at index i. Out-of-range indices clamp to the
// nearest bound; navigation never touches the answer board.
func (s *Session) JumpTo(i int) { s.jump(i) }

// Current returns the displayed question and its index.
func (s *Session) Current() (QuestionView, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.set.Questions) == 0 {
		return QuestionView{}, 0
	}
	return s.set.Questions[s.current], s.current
}

// Answered reports how many questions have a selection.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.board)
}

// Unanswered reports how many questions still lack a selection, for the
// pre-submit confirmation.
func (s *Session) Unanswered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set.Questions) - len(s.board)
}

// Remaining reports the time left on the countdown, floored at zero.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return 0
	}
	r := s.deadline.Sub(s.now())
	if r < 0 {
		return 0
	}
	return r
}

// Submit carries the full answer-board snapshot to the scoring engine.
// Exactly one submission proceeds no matter how many triggers fire: the
// InProgress -> Submitting transition is the single-flight guard, shared by
// the countdown and manual submits. On failure the board is kept so Retry
// can resend the same snapshot.
func (s *Session) Submit(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		if s.state == StateSubmitted {
			res := s.result
			s.mu.Unlock()
			return res, ErrAlreadySubmitted
		}
		s.mu.Unlock()
		return SubmitResult{}, ErrAlreadySubmitted
	}
	s.state = StateSubmitting
	if s.timer != nil {
		s.timer.Stop()
	}
	snapshot := s.snapshot()
	timeTaken := int(s.now().Sub(s.startedAt) / time.Second)
	testID := s.set.ID
	s.mu.Unlock()

	return s.send(ctx, testID, snapshot, timeTaken)
}

// Retry resends the preserved snapshot after a failed submission.
func (s *Session) Retry(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()
	if s.state != StateError {
		s.mu.Unlock()
		return SubmitResult{}, ErrAlreadySubmitted
	}
	s.state = StateSubmitting
	snapshot := s.snapshot()
	timeTaken := int(s.now().Sub(s.startedAt) / time.Second)
	testID := s.set.ID
	s.mu.Unlock()

	return s.send(ctx, testID, snapshot, timeTaken)
}

// Abandon silently drops an in-progress attempt: the countdown stops and no
// record is written. A new session always starts a fresh countdown.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Err returns the error from the last failed submission, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) send(ctx context.Context, testID string, snapshot []SubmittedAnswer, timeTaken int) (SubmitResult, error) {
	res, err := s.submitter.Submit(ctx, testID, snapshot, timeTaken)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Keep the board: losing a completed attempt to a transient network
		// error is a correctness defect, so Error allows one more send.
		s.state = StateError
		s.lastErr = err
		return SubmitResult{}, err
	}
	s.state = StateSubmitted
	s.lastErr = nil
	s.result = res
	s.board = nil
	return res, nil
}

// snapshot materializes the board in question order. Must hold mu.
func (s *Session) snapshot() []SubmittedAnswer {
	out := make([]SubmittedAnswer, 0, len(s.board))
	for _, q := range s.set.Questions {
		if opt, ok := s.board[q.ID]; ok {
			o := opt
			out = append(out, SubmittedAnswer{QuestionID: q.ID, SelectedOption: &o})
		}
	}
	return out
}

func (s *Session) question(id string) (QuestionView, bool) {
	for _, q := range s.set.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionView{}, false
}

func (s *Session) currentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) jump(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return
	}
	if n := len(s.set.Questions); n > 0 {
		if i < 0 {
			i = 0
		}
		if i > n-1 {
			i = n - 1
		}
		s.current = i
	}
}
