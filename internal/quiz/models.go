package quiz

// Category groups tests for catalog browsing.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Question is owned by the catalog. CorrectOption is the zero-based index
// into Options and must never reach a client while a test is in progress.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Marks         int      `json:"marks"` // weight; 0 is treated as 1 when grading
}

// View returns the student-safe projection of q: the answer key is omitted
// from the JSON entirely, not just zeroed.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options, Marks: q.Marks}
}

// QuestionView is the projection served while an attempt is in progress.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Marks   int      `json:"marks"`
}

// Test is immutable during an attempt. QuestionIDs preserves authoring order.
type Test struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Duration     int      `json:"duration"` // minutes
	TotalMarks   int      `json:"totalMarks"`
	PassingMarks int      `json:"passingMarks"`
	CategoryID   string   `json:"categoryId,omitempty"`
	CategoryName string   `json:"category,omitempty"`
	QuestionIDs  []string `json:"-"`
}

// TestInfo is the metadata projection for the instructions page: no
// question ids, category joined by name.
type TestInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Duration      int    `json:"duration"`
	TotalMarks    int    `json:"totalMarks"`
	PassingMarks  int    `json:"passingMarks"`
	Category      string `json:"category"`
	QuestionCount int    `json:"totalQuestions"`
}

// SubmittedAnswer is one unit of a submission as it arrives on the wire.
// IsCorrect is accepted for wire compatibility with older clients but is
// never trusted: grading recomputes correctness from the answer key.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedOption *int   `json:"selectedOption"` // nil = skipped
	IsCorrect      bool   `json:"isCorrect"`
}

// GradedAnswer is the persisted, authoritative form of an answer.
type GradedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption *int   `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Attempt is created exactly once per submission and never mutated.
type Attempt struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user"`
	TestID      string         `json:"testId"`
	Score       int            `json:"score"`
	Passed      bool           `json:"passed"`
	TimeTaken   int            `json:"timeTaken"` // seconds
	CompletedAt int64          `json:"completedAt"`
	Answers     []GradedAnswer `json:"answers"`
}

// SubmitResult is the reply to a submission call.
type SubmitResult struct {
	Score      int    `json:"score"`
	TotalMarks int    `json:"totalMarks"`
	Passed     bool   `json:"passed"`
	AttemptID  string `json:"attemptId"`
}

// ReviewAnswer pairs a graded answer with the full question, answer key
// included, for right/wrong highlighting after completion.
type ReviewAnswer struct {
	Question       Question `json:"questionId"` // field name mirrors the populated document shape
	SelectedOption *int     `json:"selectedOption"`
	IsCorrect      bool     `json:"isCorrect"`
}

// AttemptReview is the fully joined read model for the results page.
type AttemptReview struct {
	ID          string         `json:"id"`
	Test        TestInfo       `json:"testId"`
	Score       int            `json:"score"`
	Passed      bool           `json:"passed"`
	TimeTaken   int            `json:"timeTaken"`
	CompletedAt int64          `json:"completedAt"`
	Answers     []ReviewAnswer `json:"answers"`
}

// AttemptSummary is one row of a user's attempt history, newest first.
type AttemptSummary struct {
	ID          string   `json:"id"`
	Test        TestInfo `json:"testId"`
	Score       int      `json:"score"`
	Passed      bool     `json:"passed"`
	TimeTaken   int      `json:"timeTaken"`
	CompletedAt int64    `json:"completedAt"`
}
