package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"printjobs-api/internal/config"
	"printjobs-api/internal/jobs"
	"printjobs-api/internal/server"
	"printjobs-api/internal/upload"
	"printjobs-api/middleware/ratelimit/application"
	"printjobs-api/middleware/ratelimit/domain"
	"printjobs-api/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}
	setupLogging(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		windowStore domain.WindowStore
		statsStore  domain.StatsStore
		rdb         redis.UniversalClient
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			// o limiter falha aberto; subir sem Redis é melhor que não subir
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis ping failed, rate limit will fail open until it recovers")
		}
		windowStore = infra.NewRedisWindowStore(rdb)
	} else {
		mem := infra.NewMemoryWindowStore()
		mem.StartJanitor(ctx)
		windowStore = mem
		log.Warn("REDIS_ADDR not set, using in-process window store (single instance only)")
	}

	if cfg.Rate.Stats.Enabled {
		if rdb != nil {
			statsStore = infra.NewRedisStatsStore(
				rdb,
				infra.WithStatsPrefix(cfg.Rate.Stats.Prefix),
				infra.WithStatsTTL(cfg.Rate.Stats.TTL),
				infra.WithStatsTrackKeys(cfg.Rate.Stats.TrackKeys),
			)
		} else {
			statsStore = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Rate.Stats.TrackKeys))
		}
	}

	var storage upload.Storage
	switch cfg.Upload.Storage {
	case config.StorageDisk:
		disk, err := upload.NewDiskStorage(cfg.Upload.Root, cfg.Upload.BaseURL)
		if err != nil {
			log.WithError(err).Fatal("upload storage error")
		}
		log.WithField("root", disk.Root()).Info("upload directory ready")
		storage = disk
	default:
		storage = upload.NewMemoryStorage(cfg.Upload.BaseURL)
	}

	notifier := upload.NewNotifier(upload.WithRate(cfg.Webhook.RPS, cfg.Webhook.Burst))

	h, err := server.New(server.Deps{
		Config:      cfg,
		WindowStore: windowStore,
		Stats:       statsStore,
		Switch:      application.NewSwitch(cfg.Rate.Enabled),
		Storage:     storage,
		Notifier:    notifier,
		Catalogue:   jobs.NewCatalogue(jobs.Catalog()),
		Logger:      log.StandardLogger(),
	})
	if err != nil {
		log.WithError(err).Fatal("server setup error")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{
		"addr":    cfg.ListenAddr,
		"redis":   cfg.Redis.Addr,
		"storage": cfg.Upload.Storage,
	}).Info("print jobs api listening")
	log.WithFields(log.Fields{
		"enabled":      cfg.Rate.Enabled,
		"upload_calls": cfg.Rate.Upload.MaxCalls,
		"upload_win":   cfg.Rate.Upload.Window.String(),
		"jobs_calls":   cfg.Rate.Jobs.MaxCalls,
		"jobs_win":     cfg.Rate.Jobs.Window.String(),
		"api_key_hdr":  cfg.Rate.APIKeyHeader,
	}).Info("rate limit")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server error")
	}

	notifier.Wait()
	log.Info("shutdown complete")
}

func setupLogging(c config.LogConfig) {
	log.SetOutput(os.Stdout)
	if c.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		log.WithField("level", c.Level).Warn("invalid LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
