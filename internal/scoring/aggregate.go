package scoring

import (
	"fmt"
	"math"

	"quiz-analytics-service/internal/domain"
)

// MaxAttainable returns the maximum points a participant can earn on one
// question. For open-ended questions that is the nominal points; for choice
// types it is the sum of points across correct-flagged options, falling back
// to the nominal points when that sum is zero so a question never contributes
// a zero ceiling. Scoring and redisplay must both go through this function,
// otherwise displayed percentages diverge from stored totals.
func MaxAttainable(q domain.Question) int {
	if q.Type == domain.OpenEnded {
		return q.Points
	}
	sum := 0
	for _, opt := range q.Options {
		if opt.Correct {
			sum += opt.Points
		}
	}
	if sum == 0 {
		return q.Points
	}
	return sum
}

// Aggregate folds one attempt's verdicts into attempt totals. A verdict
// referencing a question outside the set is a configuration failure.
func Aggregate(questions []domain.Question, verdicts []domain.AnswerVerdict) (totalPoints, maxPoints int, err error) {
	byID := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		byID[q.ID] = struct{}{}
		maxPoints += MaxAttainable(q)
	}
	for _, v := range verdicts {
		if _, ok := byID[v.QuestionID]; !ok {
			return 0, 0, fmt.Errorf("%w: verdict for %s", domain.ErrQuestionNotFound, v.QuestionID)
		}
		totalPoints += v.PointsAwarded
	}
	return totalPoints, maxPoints, nil
}

// ScoreOn20 converts attempt totals to the 0-20 scale, rounded to one
// decimal. This is the display rounding; never compare it against
// ScoreOn20Rounded values. A zero maximum yields 0, not a division error.
func ScoreOn20(totalPoints, maxPoints int) float64 {
	if maxPoints <= 0 {
		return 0
	}
	return math.Round(float64(totalPoints)/float64(maxPoints)*20*10) / 10
}

// ScoreOn20Rounded is the nearest-integer rounding of the same value, used
// for percentile and achievement bucketing only.
func ScoreOn20Rounded(totalPoints, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}
	return int(math.Round(float64(totalPoints) / float64(maxPoints) * 20))
}
