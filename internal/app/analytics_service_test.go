package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-analytics-service/internal/app"
	"quiz-analytics-service/internal/domain"
	"quiz-analytics-service/internal/infra/memory"
)

func TestSubmitAttemptGradesAndPersists(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	result, err := service.SubmitAttempt(ctx, submission("Alice", map[string]domain.SubmittedAnswer{
		"q1": domain.Selection("o2"),
		"q2": domain.Selection("o1", "o3"),
		"q3": domain.Text(" paris"),
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.ID == "" {
		t.Fatalf("expected generated id")
	}
	if result.TotalPoints != 6 || result.MaxPoints != 6 {
		t.Fatalf("expected 6/6, got %d/%d", result.TotalPoints, result.MaxPoints)
	}
	if len(result.Verdicts) != 3 {
		t.Fatalf("expected a verdict per question, got %d", len(result.Verdicts))
	}

	stored, err := service.Results(ctx)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != result.ID {
		t.Fatalf("expected stored result, got %+v", stored)
	}
}

func TestSubmitAttemptUnknownQuiz(t *testing.T) {
	service, _ := newTestService()
	_, err := service.SubmitAttempt(context.Background(), app.Submission{
		QuizID:      "quiz-unknown",
		Participant: domain.Participant{Name: "Alice"},
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz-not-found, got %v", err)
	}
}

func TestSubmitAttemptStrayAnswerIsConfigurationError(t *testing.T) {
	service, _ := newTestService()
	_, err := service.SubmitAttempt(context.Background(), submission("Alice", map[string]domain.SubmittedAnswer{
		"ghost": domain.Selection("o1"),
	}))
	if !domain.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParticipantStatsLifecycle(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	// No data yet: nil, not an error.
	stats, err := service.ParticipantStats(ctx, "Alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats before any attempt, got %+v", stats)
	}

	if _, err := service.SubmitAttempt(ctx, submission("Alice", map[string]domain.SubmittedAnswer{
		"q1": domain.Selection("o2"),
	})); err != nil {
		t.Fatalf("submit: %v", err)
	}

	stats, err = service.ParticipantStats(ctx, "Alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats == nil || stats.Attempts != 1 {
		t.Fatalf("expected one-attempt stats, got %+v", stats)
	}
	if stats.Comparison.ScorePercentile != 50 {
		t.Fatalf("lone participant should sit at 50, got %d", stats.Comparison.ScorePercentile)
	}
}

func TestSubscribeReceivesStatsUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	updates, cancel := service.Subscribe("Alice")
	defer cancel()

	if _, err := service.SubmitAttempt(ctx, submission("Alice", map[string]domain.SubmittedAnswer{
		"q1": domain.Selection("o2"),
	})); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case update := <-updates:
		if update.Stats == nil || update.Stats.Name != "Alice" {
			t.Fatalf("expected Alice's stats in update, got %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("no stats update received")
	}
}

func TestDeleteResult(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	result, err := service.SubmitAttempt(ctx, submission("Alice", map[string]domain.SubmittedAnswer{
		"q1": domain.Selection("o2"),
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := service.DeleteResult(ctx, result.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := service.DeleteResult(ctx, result.ID); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected result-not-found on double delete, got %v", err)
	}
}

func newTestService() (*app.AnalyticsService, *memory.ResultStore) {
	results := memory.NewResultStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": testQuiz(),
	}), 5*time.Minute)

	ids := 0
	clock := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	service := app.NewAnalyticsServiceWithClock(quizzes, results, nil,
		func() time.Time { return clock },
		func() string { ids++; return fmt.Sprintf("result-%d", ids) },
	)
	return service, results
}

func submission(name string, answers map[string]domain.SubmittedAnswer) app.Submission {
	start := time.Date(2024, 11, 22, 8, 55, 0, 0, time.UTC)
	return app.Submission{
		QuizID:      "quiz-1",
		Participant: domain.Participant{Name: name, Instructor: "Dr. Lang"},
		Answers:     answers,
		StartTime:   start,
		EndTime:     start.Add(4 * time.Minute),
	}
}

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Test quiz",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Type: domain.SingleChoice,
				Options: []domain.AnswerOption{
					{ID: "o1", Text: "Wrong"},
					{ID: "o2", Text: "Right", Correct: true, Points: 2},
				},
			},
			{
				ID:   "q2",
				Type: domain.MultiChoice,
				Options: []domain.AnswerOption{
					{ID: "o1", Correct: true, Points: 1},
					{ID: "o2"},
					{ID: "o3", Correct: true, Points: 1},
				},
			},
			{
				ID:              "q3",
				Type:            domain.OpenEnded,
				Points:          2,
				ReferenceAnswer: "Paris",
			},
		},
	}
}
