package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrStorage = errors.New("upload: storage failure")

// Result é o que o endpoint devolve (e o que vai para o webhook).
type Result struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Status      string `json:"status"`
	URL         string `json:"url"`
}

// Service orquestra validação, armazenamento e notificação.
type Service struct {
	Storage      Storage
	Notifier     *Notifier
	AllowedMIMEs []string
	Logger       log.FieldLogger
}

type Options struct {
	WebhookURL   string
	MaxSizeBytes int64
}

// Upload retorna *ValidationError para arquivo inválido e um erro que
// envolve ErrStorage quando o backend falha. Falha no webhook não afeta o
// resultado.
func (s *Service) Upload(ctx context.Context, f File, opts Options) (Result, error) {
	allowed := s.AllowedMIMEs
	if len(allowed) == 0 {
		allowed = DefaultAllowedMIMETypes
	}
	maxBytes := opts.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSizeBytes
	}

	v, err := Validate(f, allowed, maxBytes)
	if err != nil {
		return Result{}, err
	}

	id, err := s.Storage.Save(ctx, f, uuid.NewString())
	if err != nil {
		s.logger().WithError(err).WithField("filename", v.Filename).Error("error storing file")
		return Result{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	url, err := s.Storage.URL(id)
	if err != nil {
		s.logger().WithError(err).WithField("file_id", id).Error("error resolving file url")
		return Result{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	res := Result{
		FileID:      id,
		Filename:    v.Filename,
		ContentType: v.ContentType,
		Size:        v.Size,
		Status:      "stored",
		URL:         url,
	}
	s.logger().WithFields(log.Fields{"file_id": id, "size": v.Size}).Info("file stored")

	if opts.WebhookURL != "" && s.Notifier != nil {
		s.Notifier.NotifyAsync(opts.WebhookURL, res)
	}
	return res, nil
}

func (s *Service) logger() log.FieldLogger {
	if s.Logger == nil {
		return log.StandardLogger()
	}
	return s.Logger
}
