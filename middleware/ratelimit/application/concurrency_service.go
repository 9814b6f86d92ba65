package application

import (
	"context"
	"fmt"
	"time"

	"printjobs-api/middleware/ratelimit/domain"
)

// ConcurrencyService limita quantas requisições pesadas (ex: uploads) rodam ao
// mesmo tempo, com timeout de espera por vaga. Não sabe nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - AcquireTimeout <= 0: espera até o ctx encerrar.
//   - AcquireTimeout > 0: espera no máximo o timeout.
//
// Em caso de erro nenhuma vaga foi adquirida e o erro envolve domain.ErrNoSlot.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoSlot, ctx.Err())
	}
	return release, nil
}
