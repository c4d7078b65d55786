package scoring

import (
	"fmt"
	"strings"

	"quiz-analytics-service/internal/domain"
)

// Score grades one submitted answer against its question. It is pure and
// total over valid questions: a blank or mismatched answer yields an
// incorrect zero-point verdict, never an error. Only malformed authoring
// data (an unknown question type) fails.
func Score(q domain.Question, ans domain.SubmittedAnswer) (domain.AnswerVerdict, error) {
	verdict := domain.AnswerVerdict{QuestionID: q.ID, Selection: ans}

	switch q.Type {
	case domain.SingleChoice, domain.SatisfactionScale:
		correct, points := scoreSingle(q, ans)
		verdict.Correct = correct
		verdict.PointsAwarded = points
	case domain.MultiChoice:
		correct, points := scoreMulti(q, ans)
		verdict.Correct = correct
		verdict.PointsAwarded = points
	case domain.OpenEnded:
		if ans.Kind == domain.AnswerKindText && textMatches(ans.FreeText, q.ReferenceAnswer) {
			verdict.Correct = true
			verdict.PointsAwarded = q.Points
		}
	default:
		return domain.AnswerVerdict{}, fmt.Errorf("%w: %q on question %s", domain.ErrUnknownQuestionType, q.Type, q.ID)
	}
	return verdict, nil
}

// scoreSingle grades single-choice and satisfaction-scale answers: exactly
// one option may be selected, and points follow the selected option's flag.
func scoreSingle(q domain.Question, ans domain.SubmittedAnswer) (bool, int) {
	if ans.Kind != domain.AnswerKindSelection || len(ans.OptionIDs) != 1 {
		return false, 0
	}
	for _, opt := range q.Options {
		if opt.ID == ans.OptionIDs[0] {
			if opt.Correct {
				return true, opt.Points
			}
			return false, 0
		}
	}
	// Selection of an id the question no longer has cannot be correct.
	return false, 0
}

// scoreMulti grades multi-choice answers. Correct is all-or-nothing: the
// selected set must exactly equal the set of correct options. Points are
// partial: every selected correct option counts even when the verdict fails.
// This asymmetry is intentional and must not be "fixed".
func scoreMulti(q domain.Question, ans domain.SubmittedAnswer) (bool, int) {
	if ans.Kind != domain.AnswerKindSelection {
		return false, 0
	}
	selected := make(map[string]bool, len(ans.OptionIDs))
	for _, id := range ans.OptionIDs {
		selected[id] = true
	}

	points := 0
	exact := len(ans.OptionIDs) > 0
	known := 0
	for _, opt := range q.Options {
		if selected[opt.ID] {
			known++
		}
		switch {
		case opt.Correct && selected[opt.ID]:
			points += opt.Points
		case opt.Correct && !selected[opt.ID]:
			exact = false // a correct option was missed
		case !opt.Correct && selected[opt.ID]:
			exact = false // an incorrect option was picked
		}
	}
	if known != len(selected) {
		exact = false // selection references ids outside the option set
	}
	return exact, points
}

func textMatches(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}

// ScoreAll grades a full attempt. Every question receives a verdict, with
// missing answers graded as blanks. An answer keyed by a question id that
// does not exist in the quiz is a configuration failure.
func ScoreAll(questions []domain.Question, answers map[string]domain.SubmittedAnswer) ([]domain.AnswerVerdict, error) {
	byID := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		byID[q.ID] = struct{}{}
	}
	for id := range answers {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: answer for %s", domain.ErrQuestionNotFound, id)
		}
	}

	verdicts := make([]domain.AnswerVerdict, 0, len(questions))
	for _, q := range questions {
		verdict, err := Score(q, answers[q.ID])
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}
