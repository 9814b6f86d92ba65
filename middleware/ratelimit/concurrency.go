package ratelimit

import (
	"net/http"
	"time"

	"printjobs-api/middleware/ratelimit/application"
	"printjobs-api/middleware/ratelimit/infra"

	log "github.com/sirupsen/logrus"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	Logger         log.FieldLogger
}

// ConcurrencyMiddleware limita requisições simultâneas no handler (ex: uploads
// grandes). Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				opts.Logger.WithError(err).WithField("path", r.URL.Path).Warn("concurrency limit reached")
				writeDetail(w, opts.RejectStatus, "Server busy, try again later.")
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
