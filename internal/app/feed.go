package app

import (
	"sync"

	"quiz-analytics-service/internal/domain"
)

// StatsUpdate pairs a freshly graded result with the owner's recomputed stats.
type StatsUpdate struct {
	Result domain.QuizResult        `json:"result"`
	Stats  *domain.ParticipantStats `json:"stats"`
}

// Feed fans stats updates out to live subscribers. Subscriptions are keyed by
// participant name; the empty name receives every update.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan StatsUpdate]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan StatsUpdate]struct{})}
}

// Subscribe registers a listener for one participant ("" for all). The
// returned cancel is idempotent and closes the channel.
func (f *Feed) Subscribe(name string) (<-chan StatsUpdate, func()) {
	ch := make(chan StatsUpdate, 8)

	f.mu.Lock()
	if f.subs[name] == nil {
		f.subs[name] = make(map[chan StatsUpdate]struct{})
	}
	f.subs[name][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[name]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, name)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to the owner's subscribers and the wildcard
// subscribers. Slow consumers lose their oldest buffered update instead of
// blocking the publisher.
func (f *Feed) Publish(update StatsUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliverLocked(f.subs[update.Result.Participant.Name], update)
	f.deliverLocked(f.subs[""], update)
}

func (f *Feed) deliverLocked(set map[chan StatsUpdate]struct{}, update StatsUpdate) {
	for ch := range set {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
