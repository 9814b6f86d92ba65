// Package server monta o roteamento da API: info na raiz, upload e busca de
// trabalhos, cada endpoint com seu próprio rate limit.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"printjobs-api/internal/config"
	"printjobs-api/internal/httpjson"
	"printjobs-api/internal/jobs"
	"printjobs-api/internal/upload"
	"printjobs-api/middleware/ratelimit"
	"printjobs-api/middleware/ratelimit/application"
	"printjobs-api/middleware/ratelimit/domain"

	log "github.com/sirupsen/logrus"
)

const (
	AppName    = "Print Jobs API"
	AppVersion = "0.1.0"
	APIPrefix  = "/api/v1"

	UploadNamespace = "upload"
	JobsNamespace   = "jobs"
)

// Deps são as dependências já construídas (clientes, stores). O server não
// abre conexões.
type Deps struct {
	Config config.Config

	WindowStore domain.WindowStore
	Stats       domain.StatsStore
	Switch      *application.Switch

	Storage   upload.Storage
	Notifier  *upload.Notifier
	Catalogue *jobs.Catalogue

	Logger log.FieldLogger
}

// New devolve o handler raiz. Erro de configuração do rate limit aparece
// aqui, antes do servidor subir.
func New(d Deps) (http.Handler, error) {
	if d.WindowStore == nil {
		return nil, errors.New("server: window store is required")
	}
	if d.Storage == nil {
		return nil, errors.New("server: upload storage is required")
	}
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	if d.Catalogue == nil {
		d.Catalogue = jobs.NewCatalogue(jobs.Catalog())
	}
	cfg := d.Config

	uploadLimit, err := d.rateLimit(UploadNamespace, cfg.Rate.Upload)
	if err != nil {
		return nil, err
	}
	jobsLimit, err := d.rateLimit(JobsNamespace, cfg.Rate.Jobs)
	if err != nil {
		return nil, err
	}

	uploadSvc := &upload.Service{
		Storage:  d.Storage,
		Notifier: d.Notifier,
		Logger:   d.Logger.WithField("component", "upload"),
	}
	uploadHandler := http.Handler(upload.NewHandler(uploadSvc, upload.HandlerOptions{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		MaxSizeFixed: cfg.Upload.MaxSizeFixed,
		Logger:       d.Logger,
	}))
	uploadHandler = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.Upload.ConcurrencyMax,
		AcquireTimeout: cfg.Upload.ConcurrencyTimeout,
		Logger:         d.Logger,
	})(uploadHandler)
	uploadHandler = uploadLimit(uploadHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rootInfo)
	mux.Handle(APIPrefix+"/upload", uploadHandler)
	mux.Handle(APIPrefix+"/searchJobs", jobsLimit(jobs.NewHandler(d.Catalogue)))

	h := http.Handler(mux)
	h = corsMiddleware(cfg.AllowedOrigins)(h)
	h = requestLogger(d.Logger)(h)
	return h, nil
}

func (d Deps) rateLimit(ns string, limit config.EndpointLimit) (func(http.Handler) http.Handler, error) {
	mw, err := ratelimit.Middleware(ratelimit.Options{
		KeyPrefix:    ns,
		MaxCalls:     limit.MaxCalls,
		Window:       limit.Window,
		APIKeyHeader: d.Config.Rate.APIKeyHeader,
		Store:        d.WindowStore,
		Switch:       d.Switch,
		Stats:        d.Stats,
		StoreTimeout: d.Config.Rate.StoreTimeout,
		Logger:       d.Logger.WithField("component", "ratelimit"),
	})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return mw, nil
}

type endpoint struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
	Summary string   `json:"summary"`
}

type info struct {
	App       string     `json:"app"`
	Version   string     `json:"version"`
	Endpoints []endpoint `json:"endpoints"`
}

func rootInfo(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, http.StatusOK, info{
		App:     AppName,
		Version: AppVersion,
		Endpoints: []endpoint{
			{Path: "/", Methods: []string{http.MethodGet}, Summary: "Root endpoint with API info"},
			{Path: APIPrefix + "/upload", Methods: []string{http.MethodPost}, Summary: "Upload 3D models"},
			{Path: APIPrefix + "/searchJobs", Methods: []string{http.MethodGet}, Summary: "Search 3D printing jobs"},
		},
	})
}
