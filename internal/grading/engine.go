package grading

// Q is the minimal view of a question needed for grading. Keep this in sync
// with whatever fields the store uses.
type Q struct {
	CorrectOption int
	OptionCount   int
	Marks         int
}

// Result is the outcome of grading a single answer.
type Result struct {
	Correct bool
	Points  int // marks awarded (question weight if correct, else 0)
}

// Grader recomputes correctness from the authoritative answer key. A
// client-asserted correctness flag must never reach an implementation.
type Grader interface {
	Grade(q Q, selected *int) Result
}

type singleChoiceGrader struct{}

// NewSingleChoiceGrader grades single-answer multiple-choice questions:
// the selected index must equal the key. A nil selection (skipped question)
// and an out-of-range index both grade as incorrect.
func NewSingleChoiceGrader() Grader { return singleChoiceGrader{} }

func (singleChoiceGrader) Grade(q Q, selected *int) Result {
	if selected == nil {
		return Result{}
	}
	sel := *selected
	if sel < 0 || (q.OptionCount > 0 && sel >= q.OptionCount) {
		return Result{}
	}
	if sel != q.CorrectOption {
		return Result{}
	}
	return Result{Correct: true, Points: Weight(q.Marks)}
}

// Weight normalizes a question's marks: absent or non-positive marks count
// as 1 so an unweighted question is never worth zero.
func Weight(marks int) int {
	if marks <= 0 {
		return 1
	}
	return marks
}
