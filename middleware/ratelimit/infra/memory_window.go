package infra

import (
	"context"
	"sync"
	"time"

	"printjobs-api/middleware/ratelimit/domain"
)

// Valores de TTL no mesmo formato do Redis/go-redis.
const (
	TTLMissing  = time.Duration(-2)
	TTLNoExpiry = time.Duration(-1)
)

// MemoryWindowStore implementa domain.WindowStore em memória, emulando um
// sorted set por chave com expiração e limpeza periódica.
//
// Útil para desenvolvimento (sem Redis) e testes: o relógio é injetável.
// Não é compartilhado entre processos, então não serve para várias réplicas.
type MemoryWindowStore struct {
	mu           sync.Mutex
	records      map[domain.Key]*windowRecord
	clock        func() time.Time
	cleanupEvery time.Duration
}

type windowRecord struct {
	members   map[string]time.Time
	expiresAt time.Time // zero: sem expiração
}

type MemoryWindowOption func(*MemoryWindowStore)

func WithClock(now func() time.Time) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.clock = now }
}

func WithCleanupEvery(d time.Duration) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.cleanupEvery = d }
}

func NewMemoryWindowStore(opts ...MemoryWindowOption) *MemoryWindowStore {
	s := &MemoryWindowStore{
		records:      make(map[domain.Key]*windowRecord),
		clock:        time.Now,
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryWindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

func (s *MemoryWindowStore) Time(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return s.clock(), nil
}

func (s *MemoryWindowStore) RemoveBefore(ctx context.Context, key domain.Key, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookupLocked(key)
	if rec == nil {
		return 0, nil
	}
	var removed int64
	for m, at := range rec.members {
		if at.Before(cutoff) {
			delete(rec.members, m)
			removed++
		}
	}
	// igual ao Redis: sorted set vazio deixa de existir
	if len(rec.members) == 0 {
		delete(s.records, key)
	}
	return removed, nil
}

func (s *MemoryWindowStore) Card(ctx context.Context, key domain.Key) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookupLocked(key)
	if rec == nil {
		return 0, nil
	}
	return int64(len(rec.members)), nil
}

func (s *MemoryWindowStore) Insert(ctx context.Context, key domain.Key, member string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookupLocked(key)
	if rec == nil {
		rec = &windowRecord{members: make(map[string]time.Time)}
		s.records[key] = rec
	}
	rec.members[member] = at
	return nil
}

func (s *MemoryWindowStore) Expire(ctx context.Context, key domain.Key, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookupLocked(key)
	if rec == nil {
		return nil
	}
	rec.expiresAt = s.clock().Add(ttl)
	return nil
}

func (s *MemoryWindowStore) TTL(ctx context.Context, key domain.Key) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookupLocked(key)
	if rec == nil {
		return TTLMissing, nil
	}
	if rec.expiresAt.IsZero() {
		return TTLNoExpiry, nil
	}
	// sem arredondar: quem formata o header arredonda para cima
	return rec.expiresAt.Sub(s.clock()), nil
}

// Len retorna quantos registros ainda estão em memória (inclui expirados
// ainda não coletados).
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// lookupLocked aplica expiração preguiçosa. Chamar com mu travado.
func (s *MemoryWindowStore) lookupLocked(key domain.Key) *windowRecord {
	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	if !rec.expiresAt.IsZero() && !s.clock().Before(rec.expiresAt) {
		delete(s.records, key)
		return nil
	}
	return rec
}

func (s *MemoryWindowStore) Cleanup() {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, rec := range s.records {
		if !rec.expiresAt.IsZero() && !now.Before(rec.expiresAt) {
			delete(s.records, k)
		}
	}
}

// StartJanitor inicia uma goroutine que remove registros expirados periodicamente.
// Pare cancelando o contexto.
func (s *MemoryWindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
