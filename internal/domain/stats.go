package domain

// ProgressTrend describes how a participant's scores move across attempts.
type ProgressTrend struct {
	// ImprovementPerAttempt is the least-squares slope of score-on-20 over
	// attempt index, scaled to percent improvement per attempt. Zero for a
	// single attempt.
	ImprovementPerAttempt float64 `json:"improvementPerAttempt"`
	BestScore             float64 `json:"bestScore"`
	WorstScore            float64 `json:"worstScore"`
	FirstScore            float64 `json:"firstScore"`
	LastScore             float64 `json:"lastScore"`
	NetChange             float64 `json:"netChange"`
}

// Consistency measures how tightly scores cluster around the participant's
// own mean. Score is 0-100: a variance of 100 points² or more floors it at 0.
type Consistency struct {
	Variance         float64 `json:"variance"`
	MeanAbsDeviation float64 `json:"meanAbsDeviation"`
	Score            float64 `json:"score"`
	Label            string  `json:"label"`
}

// TimeEfficiency summarizes attempt pacing.
type TimeEfficiency struct {
	// AvgSecondsPerQuestion averages each attempt's duration over its
	// answered-question count, then averages across attempts.
	AvgSecondsPerQuestion float64 `json:"avgSecondsPerQuestion"`
	FastestResultID       string  `json:"fastestResultId"`
	FastestSeconds        float64 `json:"fastestSeconds"`
	// TimeImprovementPct compares the first chronological attempt's duration
	// to the last: (first-last)/first*100. Zero when first is zero.
	TimeImprovementPct float64 `json:"timeImprovementPct"`
}

// Achievements buckets attempts by rounded score-on-20.
type Achievements struct {
	PerfectCount   int     `json:"perfectCount"`   // 20/20
	ExcellentCount int     `json:"excellentCount"` // >= 16/20
	PassRate       float64 `json:"passRate"`       // % of attempts >= 10/20
	MasteryTier    string  `json:"masteryTier"`
}

// Mastery tiers, inclusive lower bounds on mean score-on-20.
const (
	TierBeginner     = "beginner"     // mean < 12
	TierIntermediate = "intermediate" // mean < 15
	TierAdvanced     = "advanced"     // mean < 18
	TierExpert       = "expert"
)

// Comparison positions the participant against everyone else's attempts.
// Percentiles default to 50 when there is nobody to compare against.
type Comparison struct {
	ScorePercentile    int `json:"scorePercentile"`
	DurationPercentile int `json:"durationPercentile"` // inverted: faster is higher
	OthersCount        int `json:"othersCount"`
}

// ParticipantStats is the derived analytics view for one participant. It is
// never persisted; it is recomputed from the stored results on demand.
type ParticipantStats struct {
	Name            string         `json:"name"`
	Attempts        int            `json:"attempts"`
	MeanScore       float64        `json:"meanScore"`
	MeanDurationSec float64        `json:"meanDurationSec"`
	Trend           ProgressTrend  `json:"trend"`
	Consistency     Consistency    `json:"consistency"`
	Time            TimeEfficiency `json:"time"`
	Achievements    Achievements   `json:"achievements"`
	Comparison      Comparison     `json:"comparison"`
}
