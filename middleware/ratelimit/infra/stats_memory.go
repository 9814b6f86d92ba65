package infra

import (
	"context"
	"maps"
	"sync"

	"printjobs-api/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed    int64
	Denied     int64
	FailedOpen int64
}

func (c Counters) add(ev domain.StatsEvent) Counters {
	switch {
	case ev.FailedOpen:
		c.FailedOpen++
	case ev.Allowed:
		c.Allowed++
	default:
		c.Denied++
	}
	return c
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu          sync.Mutex
	total       Counters
	byNamespace map[string]Counters
	byRoute     map[string]Counters
	byKey       map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byNamespace: make(map[string]Counters),
		byRoute:     make(map[string]Counters),
		byKey:       make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = s.total.add(ev)
	s.byNamespace[ev.Namespace] = s.byNamespace[ev.Namespace].add(ev)
	s.byRoute[route] = s.byRoute[route].add(ev)
	if s.trackKeys {
		k := string(ev.Key)
		s.byKey[k] = s.byKey[k].add(ev)
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByNamespace() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byNamespace)
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byKey)
}
