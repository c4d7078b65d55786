package memory

import (
	"context"
	"sync"

	"quiz-analytics-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore, kept in
// insertion order. Results are immutable once saved.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Save(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) List(_ context.Context) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *ResultStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.results {
		if r.ID == id {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return nil
		}
	}
	return domain.ErrResultNotFound
}
