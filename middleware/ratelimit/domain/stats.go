package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de chaves no Redis).
type StatsEvent struct {
	Namespace  string
	Key        Key
	Allowed    bool
	FailedOpen bool

	Method string
	Path   string

	At time.Time
}

// Outcome devolve o nome do contador afetado pelo evento.
func (ev StatsEvent) Outcome() string {
	switch {
	case ev.FailedOpen:
		return "failed_open"
	case ev.Allowed:
		return "allowed"
	default:
		return "denied"
	}
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
