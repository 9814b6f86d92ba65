package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"time"
)

type Key string

var (
	ErrInvalidLimit  = errors.New("ratelimit: limit must be > 0")
	ErrInvalidWindow = errors.New("ratelimit: window must be >= 1s")
	ErrNilStore      = errors.New("ratelimit: window store is required")
)

// WindowStore é o contrato com o store compartilhado (ex: Redis) que guarda,
// por chave, um sorted set de requisições com score = timestamp.
//
// Cada operação individual precisa ser atômica no store. A sequência
// prune -> count -> insert NÃO é atômica como um todo; o limiter aceita
// admitir uma requisição a mais em rajadas concorrentes para a mesma chave.
type WindowStore interface {
	// Time retorna o relógio do store (mantém instâncias consistentes).
	Time(ctx context.Context) (time.Time, error)
	// RemoveBefore remove entradas com score < cutoff.
	RemoveBefore(ctx context.Context, key Key, cutoff time.Time) (int64, error)
	// Card retorna quantas entradas vivas existem.
	Card(ctx context.Context, key Key) (int64, error)
	// Insert adiciona member com score = at.
	Insert(ctx context.Context, key Key, member string, at time.Time) error
	Expire(ctx context.Context, key Key, ttl time.Duration) error
	// TTL retorna valor negativo quando a chave não existe ou não expira.
	TTL(ctx context.Context, key Key) (time.Duration, error)
}

// Decision é o resultado de uma avaliação do limiter.
type Decision struct {
	Allowed bool

	Limit     int
	Remaining int
	// Reset é um limite superior de quando a cota volta a existir
	// (TTL do registro no store), não o instante exato do próximo slot.
	Reset time.Duration

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration

	// FailedOpen indica que o store falhou e a requisição foi admitida sem
	// avaliação de cota.
	FailedOpen bool
}
