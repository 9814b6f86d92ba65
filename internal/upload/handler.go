package upload

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"printjobs-api/internal/httpjson"

	log "github.com/sirupsen/logrus"
)

const multipartMemory = 32 << 20

type HandlerOptions struct {
	// MaxSizeBytes é o limite padrão por arquivo.
	MaxSizeBytes int64
	// MaxSizeFixed ignora o campo max_size_bytes do form (limite definido
	// pelo operador via MAX_UPLOAD_SIZE_BYTES).
	MaxSizeFixed bool
	Logger       log.FieldLogger
}

// Handler atende POST /upload (multipart: file, webhook_url, max_size_bytes).
type Handler struct {
	svc  *Service
	opts HandlerOptions
}

func NewHandler(svc *Service, opts HandlerOptions) *Handler {
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Handler{svc: svc, opts: opts}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpjson.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		httpjson.Error(w, http.StatusBadRequest, "File has no name")
		return
	}

	maxSize, err := h.maxSize(r.FormValue("max_size_bytes"))
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, "max_size_bytes must be a positive integer")
		return
	}

	res, err := h.svc.Upload(r.Context(), File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, Options{
		WebhookURL:   strings.TrimSpace(r.FormValue("webhook_url")),
		MaxSizeBytes: maxSize,
	})
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			httpjson.Error(w, http.StatusUnprocessableEntity, verr.Message)
		case errors.Is(err, ErrStorage):
			httpjson.Error(w, http.StatusInternalServerError, "Error storing file")
		default:
			h.opts.Logger.WithError(err).Error("error during upload")
			httpjson.Error(w, http.StatusInternalServerError, "An error occurred during upload. Please try again later.")
		}
		return
	}

	httpjson.Write(w, http.StatusCreated, res)
}

func (h *Handler) maxSize(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if h.opts.MaxSizeFixed || raw == "" {
		return h.opts.MaxSizeBytes, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("non-positive max size")
	}
	return v, nil
}
