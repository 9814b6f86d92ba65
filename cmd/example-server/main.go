package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printjobs-api/middleware/ratelimit"
	"printjobs-api/middleware/ratelimit/application"
	"printjobs-api/middleware/ratelimit/infra"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Exemplo: janela deslizante em memória direto no seu webserver
	store := infra.NewMemoryWindowStore()
	stats := infra.NewMemoryStatsStore()
	sw := application.NewSwitch(true)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		t := stats.Total()
		log.WithFields(log.Fields{"allowed": t.Allowed, "denied": t.Denied, "failed_open": t.FailedOpen}).Info("stats")
		w.WriteHeader(http.StatusNoContent)
	})

	limit, err := ratelimit.Middleware(ratelimit.Options{
		KeyPrefix:    "example",
		MaxCalls:     5,
		Window:       10 * time.Second,
		APIKeyHeader: ratelimit.DefaultAPIKeyHeader, // ou vazio para limitar só por IP
		Store:        store,
		Switch:       sw,
		Stats:        stats,
	})
	if err != nil {
		log.WithError(err).Fatal("rate limit config")
	}

	h := http.Handler(mux)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 50})(h)
	h = limit(h)

	// SIGUSR1 liga/desliga o rate limit sem reiniciar
	toggle := make(chan os.Signal, 1)
	signal.Notify(toggle, syscall.SIGUSR1)
	go func() {
		for range toggle {
			if sw.Enabled() {
				sw.Disable()
			} else {
				sw.Enable()
			}
			log.WithField("enabled", sw.Enabled()).Info("rate limit toggled")
		}
	}()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}
