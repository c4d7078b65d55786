package stats

import (
	"math"

	"quiz-analytics-service/internal/domain"
	"quiz-analytics-service/internal/scoring"
)

// Analyze turns one participant's chronological result series plus everyone
// else's attempts into the derived analytics view. It is stateless and
// idempotent. An empty series returns nil: the engine never fabricates
// metrics from zero data points, and callers must treat nil as "no data",
// not as an error.
func Analyze(own, others []domain.QuizResult) *domain.ParticipantStats {
	if len(own) == 0 {
		return nil
	}

	scores := make([]float64, len(own))
	for i, r := range own {
		scores[i] = scoring.ScoreOn20(r.TotalPoints, r.MaxPoints)
	}
	meanScore := mean(scores)
	meanDur := meanDurationSeconds(own)

	return &domain.ParticipantStats{
		Name:            own[0].Participant.Name,
		Attempts:        len(own),
		MeanScore:       round1(meanScore),
		MeanDurationSec: meanDur,
		Trend:           progressTrend(scores),
		Consistency:     consistency(scores, meanScore),
		Time:            timeEfficiency(own),
		Achievements:    achievements(own, meanScore),
		Comparison:      comparison(meanScore, meanDur, others),
	}
}

// progressTrend fits an ordinary least-squares line through score-on-20 over
// attempt index and scales the slope to percent improvement per attempt.
// A single attempt has no trend and reports 0.
func progressTrend(scores []float64) domain.ProgressTrend {
	n := len(scores)
	trend := domain.ProgressTrend{
		BestScore:  scores[0],
		WorstScore: scores[0],
		FirstScore: scores[0],
		LastScore:  scores[n-1],
	}
	for _, s := range scores {
		trend.BestScore = math.Max(trend.BestScore, s)
		trend.WorstScore = math.Min(trend.WorstScore, s)
	}
	trend.NetChange = round1(trend.LastScore - trend.FirstScore)

	if n >= 2 {
		xBar := float64(n-1) / 2
		yBar := mean(scores)
		var num, den float64
		for i, s := range scores {
			dx := float64(i) - xBar
			num += dx * (s - yBar)
			den += dx * dx
		}
		slope := num / den
		trend.ImprovementPerAttempt = round1(slope * 100 / float64(n))
	}
	return trend
}

// consistency derives a 0-100 score from the population variance around the
// participant's own mean: 100 minus variance, floored at 0, so a variance of
// 100 points² or more pins the score to the floor. The label cutoffs feed
// the four-tier UI badge.
func consistency(scores []float64, meanScore float64) domain.Consistency {
	var variance, mad float64
	for _, s := range scores {
		d := s - meanScore
		variance += d * d
		mad += math.Abs(d)
	}
	variance /= float64(len(scores))
	mad /= float64(len(scores))

	score := math.Max(0, 100-variance)
	label := "poor"
	switch {
	case score >= 90:
		label = "excellent"
	case score >= 75:
		label = "good"
	case score >= 50:
		label = "average"
	}
	return domain.Consistency{
		Variance:         round1(variance),
		MeanAbsDeviation: round1(mad),
		Score:            round1(score),
		Label:            label,
	}
}

func timeEfficiency(own []domain.QuizResult) domain.TimeEfficiency {
	eff := domain.TimeEfficiency{}
	var perQuestionSum float64
	fastest := -1.0
	for _, r := range own {
		dur := r.Duration().Seconds()
		if answered := r.AnsweredCount(); answered > 0 {
			perQuestionSum += dur / float64(answered)
		}
		if fastest < 0 || dur < fastest {
			fastest = dur
			eff.FastestResultID = r.ID
			eff.FastestSeconds = round1(dur)
		}
	}
	eff.AvgSecondsPerQuestion = round1(perQuestionSum / float64(len(own)))

	first := own[0].Duration().Seconds()
	last := own[len(own)-1].Duration().Seconds()
	if first > 0 {
		eff.TimeImprovementPct = round1((first - last) / first * 100)
	}
	return eff
}

func achievements(own []domain.QuizResult, meanScore float64) domain.Achievements {
	ach := domain.Achievements{}
	passed := 0
	for _, r := range own {
		rounded := scoring.ScoreOn20Rounded(r.TotalPoints, r.MaxPoints)
		if rounded == 20 {
			ach.PerfectCount++
		}
		if rounded >= 16 {
			ach.ExcellentCount++
		}
		if rounded >= 10 {
			passed++
		}
	}
	ach.PassRate = round1(float64(passed) / float64(len(own)) * 100)

	// Inclusive lower bounds; order matters.
	switch {
	case meanScore < 12:
		ach.MasteryTier = domain.TierBeginner
	case meanScore < 15:
		ach.MasteryTier = domain.TierIntermediate
	case meanScore < 18:
		ach.MasteryTier = domain.TierAdvanced
	default:
		ach.MasteryTier = domain.TierExpert
	}
	return ach
}

// comparison ranks the participant's mean score and mean duration against
// every other attempt. Score comparisons use the integer bucketing rounding
// on both sides. The duration percentile is inverted because lower is better.
func comparison(meanScore, meanDur float64, others []domain.QuizResult) domain.Comparison {
	otherScores := make([]float64, len(others))
	otherDurs := make([]float64, len(others))
	for i, r := range others {
		otherScores[i] = float64(scoring.ScoreOn20Rounded(r.TotalPoints, r.MaxPoints))
		otherDurs[i] = r.Duration().Seconds()
	}
	return domain.Comparison{
		ScorePercentile:    PercentileRank(math.Round(meanScore), otherScores),
		DurationPercentile: 100 - PercentileRank(meanDur, otherDurs),
		OthersCount:        len(others),
	}
}

// PercentileRank is round(count(population < value) / count * 100). An empty
// population yields 50, an uninformative midpoint rather than an error: a
// lone participant is an expected state, not a failure.
func PercentileRank(value float64, population []float64) int {
	if len(population) == 0 {
		return 50
	}
	below := 0
	for _, v := range population {
		if v < value {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(population)) * 100))
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanDurationSeconds(results []domain.QuizResult) float64 {
	sum := 0.0
	for _, r := range results {
		sum += r.Duration().Seconds()
	}
	return round1(sum / float64(len(results)))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
