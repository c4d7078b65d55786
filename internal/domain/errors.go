package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates an answer or verdict references a question
	// id that does not exist in the quiz. Authoring data is corrupt; grading
	// never defaults a verdict for it.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUnknownQuestionType indicates a question type the grader has no rule for.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrInvalidQuestion indicates a question violating structural invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrResultNotFound indicates a quiz result id that is not stored.
	ErrResultNotFound = errors.New("quiz result not found")
)

// IsConfiguration reports whether err stems from corrupted authoring data
// rather than a participant mistake. Callers present these as a generic
// "cannot grade this quiz" failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrUnknownQuestionType) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrInvalidQuestion)
}
