package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"printjobs-api/middleware/ratelimit/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultRetention    = 2
	DefaultStoreTimeout = 2 * time.Second
)

// Config descreve um limiter de janela deslizante.
type Config struct {
	// Namespace entra no member de cada entrada (identidade do endpoint).
	Namespace string
	Limit     int
	Window    time.Duration
	Store     domain.WindowStore
	Switch    *Switch

	// Retention multiplica Window para o TTL do registro no store.
	// Precisa ser >= 1 para o prune enxergar entradas antes de sumirem.
	Retention    int
	StoreTimeout time.Duration
	// Now é o relógio local, usado quando o relógio do store falha.
	Now    func() time.Time
	Logger log.FieldLogger
}

// Service concentra a regra de aplicação do rate limit (janela deslizante
// sobre um sorted set no store compartilhado).
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Não há lock em processo: a correção depende da atomicidade de cada
// primitiva do store.
type Service struct {
	namespace    string
	limit        int
	window       time.Duration
	store        domain.WindowStore
	sw           *Switch
	retention    int
	storeTimeout time.Duration
	now          func() time.Time
	logger       log.FieldLogger
}

// NewService valida a configuração na construção; configuração inválida é
// erro de programação e nunca chega ao request.
func NewService(cfg Config) (*Service, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w (got %d)", domain.ErrInvalidLimit, cfg.Limit)
	}
	if cfg.Window < time.Second {
		return nil, fmt.Errorf("%w (got %s)", domain.ErrInvalidWindow, cfg.Window)
	}
	if cfg.Store == nil {
		return nil, domain.ErrNilStore
	}
	if cfg.Retention == 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Retention < 1 {
		return nil, fmt.Errorf("ratelimit: retention must be >= 1 (got %d)", cfg.Retention)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}

	return &Service{
		namespace:    cfg.Namespace,
		limit:        cfg.Limit,
		window:       cfg.Window,
		store:        cfg.Store,
		sw:           cfg.Switch,
		retention:    cfg.Retention,
		storeTimeout: cfg.StoreTimeout,
		now:          cfg.Now,
		logger:       cfg.Logger,
	}, nil
}

func (s *Service) Limit() int            { return s.limit }
func (s *Service) Window() time.Duration { return s.window }

// Decide avalia e atualiza a janela da chave.
//
// Qualquer falha do store resulta em fail-open: a requisição é admitida,
// Remaining = Limit-1 e Reset = Window. O erro vai para o log, nunca para
// quem chamou.
func (s *Service) Decide(ctx context.Context, key domain.Key) domain.Decision {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	dec, err := s.evaluate(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"namespace": s.namespace,
			"key":       string(key),
		}).Warn("rate limit: store unavailable, failing open")
		return s.failOpen()
	}
	return dec
}

func (s *Service) evaluate(ctx context.Context, key domain.Key) (domain.Decision, error) {
	now := s.clock(ctx)

	// 1) prune: é o passo que faz a janela "deslizar"
	if _, err := s.store.RemoveBefore(ctx, key, now.Add(-s.window)); err != nil {
		return domain.Decision{}, fmt.Errorf("prune window: %w", err)
	}

	// 2) count: requisições já admitidas dentro da janela
	count, err := s.store.Card(ctx, key)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("count window: %w", err)
	}

	if s.sw.Enabled() && count >= int64(s.limit) {
		reset, err := s.store.TTL(ctx, key)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("read ttl: %w", err)
		}
		if reset <= 0 {
			reset = s.window
		}
		return domain.Decision{
			Allowed:    false,
			Limit:      s.limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset,
		}, nil
	}

	// 3) admite: no máximo uma inserção por chamada
	if err := s.store.Insert(ctx, key, s.member(now), now); err != nil {
		return domain.Decision{}, fmt.Errorf("insert entry: %w", err)
	}
	if err := s.store.Expire(ctx, key, time.Duration(s.retention)*s.window); err != nil {
		return domain.Decision{}, fmt.Errorf("refresh expiry: %w", err)
	}
	reset, err := s.store.TTL(ctx, key)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("read ttl: %w", err)
	}
	if reset <= 0 {
		reset = s.window
	}

	remaining := s.limit - int(count+1)
	if remaining < 0 {
		remaining = 0
	}
	return domain.Decision{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// clock prefere o relógio do store; se falhar, usa o relógio local.
func (s *Service) clock(ctx context.Context) time.Time {
	t, err := s.store.Time(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("namespace", s.namespace).Debug("rate limit: store clock unavailable, using local clock")
		return s.now()
	}
	return t
}

// member precisa ser único por requisição, senão duas requisições no mesmo
// microssegundo viram um só membro do set.
func (s *Service) member(now time.Time) string {
	return strconv.FormatInt(now.UnixMicro(), 10) + ":" + s.namespace + ":" + uuid.NewString()
}

func (s *Service) failOpen() domain.Decision {
	remaining := s.limit - 1
	if remaining < 0 {
		remaining = 0
	}
	return domain.Decision{
		Allowed:    true,
		Limit:      s.limit,
		Remaining:  remaining,
		Reset:      s.window,
		FailedOpen: true,
	}
}
