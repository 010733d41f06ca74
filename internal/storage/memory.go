package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore is a dependency-free in-process backend for dev and tests.
// Contents are lost on exit.
type memoryStore struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	problems    map[string]Problem
	deliveries  []DeliveryRecord
}

func newMemory() *memoryStore {
	return &memoryStore{
		subscribers: map[string]Subscriber{},
		problems:    map[string]Problem{},
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) UpsertSubscriber(_ context.Context, s Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.subscribers[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.subscribers[s.ID] = s
	return nil
}

func (m *memoryStore) Subscriber(_ context.Context, id string) (Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscribers[id]
	if !ok {
		return Subscriber{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) Subscribers(_ context.Context) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSubscribers(func(Subscriber) bool { return true }), nil
}

func (m *memoryStore) ActiveSubscribers(_ context.Context) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSubscribers(func(s Subscriber) bool { return s.Active }), nil
}

func (m *memoryStore) listSubscribers(keep func(Subscriber) bool) []Subscriber {
	var out []Subscriber
	for _, s := range m.subscribers {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) SetSubscriberActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscribers[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = active
	m.subscribers[id] = s
	return nil
}

func (m *memoryStore) PutProblems(_ context.Context, ps []Problem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for _, p := range ps {
		if _, ok := m.problems[p.ID]; ok {
			continue
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		m.problems[p.ID] = p
		added++
	}
	return added, nil
}

func (m *memoryStore) Problems(_ context.Context) ([]Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Problem, 0, len(m.problems))
	for _, p := range m.problems {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) Problem(_ context.Context, id string) (Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.problems[id]
	if !ok {
		return Problem{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) CountProblems(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.problems), nil
}

func (m *memoryStore) AppendDelivery(_ context.Context, rec DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Outcome == OutcomeSuccess {
		for _, prev := range m.deliveries {
			if prev.Outcome == OutcomeSuccess &&
				prev.SubscriberID == rec.SubscriberID && prev.ProblemID == rec.ProblemID {
				return ErrDuplicateSuccess
			}
		}
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	m.deliveries = append(m.deliveries, rec)
	return nil
}

func (m *memoryStore) DeliveredProblemIDs(_ context.Context, subscriberID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool)
	for _, rec := range m.deliveries {
		if rec.SubscriberID == subscriberID && rec.Outcome == OutcomeSuccess {
			out[rec.ProblemID] = true
		}
	}
	return out, nil
}

func (m *memoryStore) DeliveryCounts(_ context.Context, subscriberID string) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var success, failure int
	for _, rec := range m.deliveries {
		if rec.SubscriberID != subscriberID {
			continue
		}
		switch rec.Outcome {
		case OutcomeSuccess:
			success++
		case OutcomeFailure:
			failure++
		}
	}
	return success, failure, nil
}
