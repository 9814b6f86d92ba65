package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"printjobs-api/middleware/ratelimit/application"
	"printjobs-api/middleware/ratelimit/domain"

	log "github.com/sirupsen/logrus"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Options de um endpoint protegido. Cada endpoint normalmente tem o seu
// KeyPrefix para não dividir o bucket com outro endpoint.
type Options struct {
	KeyPrefix string
	MaxCalls  int
	Window    time.Duration
	// KeyFn substitui a derivação padrão (IP / IP+API key).
	KeyFn        KeyFunc
	APIKeyHeader string

	Store  domain.WindowStore
	Switch *application.Switch
	Stats  domain.StatsStore

	StoreTimeout time.Duration
	Logger       log.FieldLogger
}

// Middleware avalia o limiter antes do handler protegido.
//
// Bloqueado: responde 429 sem chamar o handler. Admitido (ou fail-open):
// chama o handler. Em ambos os casos os headers X-RateLimit-* são definidos
// antes de qualquer escrita. Erros do handler passam intactos.
//
// Configuração inválida retorna erro aqui, nunca no request.
func Middleware(opts Options) (func(next http.Handler) http.Handler, error) {
	prefix := strings.Trim(strings.TrimSpace(opts.KeyPrefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(prefix, opts.APIKeyHeader)
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = application.DefaultStoreTimeout
	}

	svc, err := application.NewService(application.Config{
		Namespace:    prefix,
		Limit:        opts.MaxCalls,
		Window:       opts.Window,
		Store:        opts.Store,
		Switch:       opts.Switch,
		StoreTimeout: opts.StoreTimeout,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit %q: %w", prefix, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			dec := svc.Decide(r.Context(), key)
			setHeaders(w.Header(), dec)

			if opts.Stats != nil {
				recordStats(r, opts, domain.StatsEvent{
					Namespace:  prefix,
					Key:        key,
					Allowed:    dec.Allowed,
					FailedOpen: dec.FailedOpen,
					Method:     r.Method,
					Path:       r.URL.Path,
					At:         time.Now(),
				})
			}

			if !dec.Allowed {
				reject(w, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// recordStats é best-effort e tem o mesmo prazo do store: stats travado não
// segura o handler.
func recordStats(r *http.Request, opts Options, ev domain.StatsEvent) {
	ctx, cancel := context.WithTimeout(r.Context(), opts.StoreTimeout)
	defer cancel()

	if err := opts.Stats.Record(ctx, ev); err != nil {
		opts.Logger.WithError(err).WithField("namespace", ev.Namespace).Debug("rate limit: stats record failed")
	}
}

func setHeaders(h http.Header, dec domain.Decision) {
	h.Set(HeaderLimit, formatInt(dec.Limit))
	h.Set(HeaderRemaining, formatInt(max(dec.Remaining, 0)))
	h.Set(HeaderReset, formatInt(seconds(dec.Reset)))
}

type errorBody struct {
	Detail string `json:"detail"`
}

func reject(w http.ResponseWriter, dec domain.Decision) {
	retry := seconds(dec.RetryAfter)
	w.Header().Set("Retry-After", formatInt(retry))
	writeDetail(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retry))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
