package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionType enumerates the gradable question kinds.
type QuestionType string

const (
	SingleChoice      QuestionType = "single_choice"
	MultiChoice       QuestionType = "multi_choice"
	OpenEnded         QuestionType = "open_ended"
	SatisfactionScale QuestionType = "satisfaction_scale"
)

// IsChoice reports whether the type grades against an option set.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice || t == SatisfactionScale
}

// AnswerOption represents a possible answer for a choice question.
type AnswerOption struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Points  int    `json:"points"`
}

// Question models one gradable question. Once an attempt references a
// question it is treated as immutable; editing a live quiz never rescores
// past results.
type Question struct {
	ID              string         `json:"id"`
	Type            QuestionType   `json:"type"`
	Prompt          string         `json:"prompt"`
	Points          int            `json:"points"`
	Options         []AnswerOption `json:"options,omitempty"`
	ReferenceAnswer string         `json:"referenceAnswer,omitempty"`
}

// Validate checks structural invariants. It is deliberately permissive about
// choice questions without a correct option (they grade as always-zero);
// rejecting those is an authoring-tool concern, not a grading one.
func (q Question) Validate() error {
	switch q.Type {
	case SingleChoice, MultiChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %s has no options", ErrInvalidQuestion, q.ID)
		}
	case SatisfactionScale:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %s has no scale options", ErrInvalidQuestion, q.ID)
		}
		for i := 1; i < len(q.Options); i++ {
			if q.Options[i].Points < q.Options[i-1].Points {
				return fmt.Errorf("%w: question %s scale points not monotonic", ErrInvalidQuestion, q.ID)
			}
		}
	case OpenEnded:
		if strings.TrimSpace(q.ReferenceAnswer) == "" {
			return fmt.Errorf("%w: question %s has no reference answer", ErrInvalidQuestion, q.ID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuestionType, q.Type)
	}
	return nil
}

// Quiz is a titled collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerKind discriminates the submitted-answer union.
type AnswerKind string

const (
	AnswerKindSelection AnswerKind = "selection"
	AnswerKindText      AnswerKind = "text"
)

// SubmittedAnswer is a participant's raw response to one question, tagged by
// Kind so graders dispatch on an explicit discriminator instead of sniffing
// which field happens to be set.
type SubmittedAnswer struct {
	Kind      AnswerKind `json:"kind"`
	OptionIDs []string   `json:"optionIds,omitempty"`
	FreeText  string     `json:"freeText,omitempty"`
}

// Selection builds a selection-kind answer.
func Selection(optionIDs ...string) SubmittedAnswer {
	return SubmittedAnswer{Kind: AnswerKindSelection, OptionIDs: optionIDs}
}

// Text builds a free-text answer.
func Text(s string) SubmittedAnswer {
	return SubmittedAnswer{Kind: AnswerKindText, FreeText: s}
}

// IsBlank reports whether the answer carries no usable response.
func (a SubmittedAnswer) IsBlank() bool {
	switch a.Kind {
	case AnswerKindSelection:
		return len(a.OptionIDs) == 0
	case AnswerKindText:
		return strings.TrimSpace(a.FreeText) == ""
	}
	return true
}

// AnswerVerdict is the graded outcome for one question in one attempt.
// Created once per question per attempt; immutable.
type AnswerVerdict struct {
	QuestionID    string          `json:"questionId"`
	Correct       bool            `json:"correct"`
	PointsAwarded int             `json:"pointsAwarded"`
	Selection     SubmittedAnswer `json:"selection"`
}

// Participant holds the attempt metadata captured by the submission form.
type Participant struct {
	Name       string `json:"name"`
	Instructor string `json:"instructor,omitempty"`
	Date       string `json:"date,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

// QuizResult is one completed attempt. Created atomically at submission time
// and never mutated; it can be deleted independently of the quiz it came from.
type QuizResult struct {
	ID          string          `json:"id"`
	QuizID      string          `json:"quizId"`
	QuizTitle   string          `json:"quizTitle"`
	Participant Participant     `json:"participant"`
	Verdicts    []AnswerVerdict `json:"verdicts"`
	TotalPoints int             `json:"totalPoints"`
	MaxPoints   int             `json:"maxPoints"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
}

// Duration is how long the attempt took.
func (r QuizResult) Duration() time.Duration {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// AnsweredCount counts verdicts with a non-blank response.
func (r QuizResult) AnsweredCount() int {
	n := 0
	for _, v := range r.Verdicts {
		if !v.Selection.IsBlank() {
			n++
		}
	}
	return n
}
