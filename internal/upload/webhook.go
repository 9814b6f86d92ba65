package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const DefaultWebhookTimeout = 5 * time.Second

// Notifier faz POST JSON para webhooks depois do upload.
//
// Entrega é best-effort (sem retry, sem garantia exactly-once). O ritmo de
// saída é limitado por um token bucket para um burst de uploads não virar
// um burst de POSTs para terceiros.
type Notifier struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  log.FieldLogger

	wg sync.WaitGroup
}

type NotifierOption func(*Notifier)

func WithHTTPClient(c *http.Client) NotifierOption {
	return func(n *Notifier) { n.client = c }
}

// WithRate limita POSTs por segundo; rps <= 0 desliga o limite.
func WithRate(rps float64, burst int) NotifierOption {
	return func(n *Notifier) {
		if rps <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		n.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithWebhookTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.timeout = d }
}

func WithNotifierLogger(l log.FieldLogger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: DefaultWebhookTimeout,
		logger:  log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify envia e espera a resposta. Retorna true para status 2xx.
func (n *Notifier) Notify(ctx context.Context, url string, payload any) bool {
	if err := n.post(ctx, url, payload); err != nil {
		n.logger.WithError(err).WithField("webhook_url", url).Warn("webhook notification failed")
		return false
	}
	return true
}

// NotifyAsync dispara a notificação em background (fire-and-forget).
func (n *Notifier) NotifyAsync(url string, payload any) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.Notify(context.Background(), url, payload)
	}()
}

// Wait bloqueia até as notificações em andamento terminarem.
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) post(ctx context.Context, url string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait webhook slot: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
