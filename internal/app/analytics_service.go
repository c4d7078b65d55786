package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiz-analytics-service/internal/domain"
	"quiz-analytics-service/internal/scoring"
	"quiz-analytics-service/internal/stats"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultStore persists completed attempts (in-memory, Postgres, etc).
type ResultStore interface {
	Save(ctx context.Context, result domain.QuizResult) error
	List(ctx context.Context) ([]domain.QuizResult, error)
	Delete(ctx context.Context, id string) error
}

// StatsCache optionally memoizes computed participant stats between writes.
// Writes invalidate the whole cache: a new result shifts every other
// participant's percentiles, not just the owner's.
type StatsCache interface {
	Get(ctx context.Context, name string) (*domain.ParticipantStats, bool, error)
	Set(ctx context.Context, name string, s *domain.ParticipantStats) error
	InvalidateAll(ctx context.Context) error
}

// Submission is one participant's raw attempt as handed over by the UI flow.
type Submission struct {
	QuizID      string
	Participant domain.Participant
	Answers     map[string]domain.SubmittedAnswer
	StartTime   time.Time
	EndTime     time.Time
}

// AnalyticsService contains the scoring and analytics use cases. Scoring is
// pure; the only side effects are the result write and the feed broadcast.
type AnalyticsService struct {
	quizzes QuizRepository
	results ResultStore
	cache   StatsCache // nil disables caching
	feed    *Feed
	now     func() time.Time
	newID   func() string
}

func NewAnalyticsService(quizzes QuizRepository, results ResultStore, cache StatsCache) *AnalyticsService {
	return &AnalyticsService{
		quizzes: quizzes,
		results: results,
		cache:   cache,
		feed:    NewFeed(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewAnalyticsServiceWithClock is test-only for deterministic ids and timestamps.
func NewAnalyticsServiceWithClock(quizzes QuizRepository, results ResultStore, cache StatsCache, now func() time.Time, newID func() string) *AnalyticsService {
	s := NewAnalyticsService(quizzes, results, cache)
	s.now = now
	s.newID = newID
	return s
}

// SubmitAttempt grades a submission, persists the immutable result, and
// pushes a refreshed stats snapshot to feed subscribers. Concurrent
// submissions are independent; each produces its own result.
func (s *AnalyticsService) SubmitAttempt(ctx context.Context, sub Submission) (domain.QuizResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}

	verdicts, err := scoring.ScoreAll(quiz.Questions, sub.Answers)
	if err != nil {
		return domain.QuizResult{}, err
	}
	total, max, err := scoring.Aggregate(quiz.Questions, verdicts)
	if err != nil {
		return domain.QuizResult{}, err
	}

	end := sub.EndTime
	if end.IsZero() {
		end = s.now()
	}
	result := domain.QuizResult{
		ID:          s.newID(),
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Participant: sub.Participant,
		Verdicts:    verdicts,
		TotalPoints: total,
		MaxPoints:   max,
		StartTime:   sub.StartTime,
		EndTime:     end,
	}
	if err := s.results.Save(ctx, result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("save result: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateAll(ctx)
	}
	s.publishUpdate(ctx, result)
	return result, nil
}

// ParticipantStats is the single read entry point for dashboards and report
// templates; sub-metrics are never recomputed ad hoc elsewhere, so every
// caller sees one rounding policy. A participant with no results yields
// (nil, nil).
func (s *AnalyticsService) ParticipantStats(ctx context.Context, name string) (*domain.ParticipantStats, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, name); err == nil && ok {
			return cached, nil
		}
	}

	all, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	ix := stats.NewIndex(all)
	computed := stats.Analyze(ix.ByParticipant(name), ix.Others(name))

	if computed != nil && s.cache != nil {
		_ = s.cache.Set(ctx, name, computed)
	}
	return computed, nil
}

// Results returns every stored attempt.
func (s *AnalyticsService) Results(ctx context.Context) ([]domain.QuizResult, error) {
	return s.results.List(ctx)
}

// Participants lists everyone with at least one stored attempt.
func (s *AnalyticsService) Participants(ctx context.Context) ([]string, error) {
	all, err := s.results.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.NewIndex(all).Participants(), nil
}

// DeleteResult removes one attempt independently of its quiz. The deleted
// series shifts the population, so cached stats are dropped wholesale.
func (s *AnalyticsService) DeleteResult(ctx context.Context, id string) error {
	if err := s.results.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAll(ctx)
	}
	return nil
}

// Subscribe returns a channel of stats updates for one participant, or for
// everyone when name is empty. The caller must invoke cancel to avoid leaks.
func (s *AnalyticsService) Subscribe(name string) (<-chan StatsUpdate, func()) {
	return s.feed.Subscribe(name)
}

func (s *AnalyticsService) publishUpdate(ctx context.Context, result domain.QuizResult) {
	refreshed, err := s.ParticipantStats(ctx, result.Participant.Name)
	if err != nil {
		return
	}
	s.feed.Publish(StatsUpdate{Result: result, Stats: refreshed})
}
