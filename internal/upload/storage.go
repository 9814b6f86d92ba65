package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("upload: file not found")

// File é o arquivo recebido, independente de multipart.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Storage é o backend de objetos: grava o blob sob um id e devolve a URL.
type Storage interface {
	// Save grava o arquivo. id vazio: o backend gera um.
	Save(ctx context.Context, f File, id string) (string, error)
	URL(id string) (string, error)
}

type object struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// MemoryStorage simula um object storage (tipo S3) sem dependências externas.
type MemoryStorage struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *MemoryStorage) Save(ctx context.Context, f File, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	content, err := io.ReadAll(f.Body)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = object{
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        int64(len(content)),
		Content:     content,
	}
	return id, nil
}

func (s *MemoryStorage) URL(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.baseURL + "/" + id, nil
}

// Get devolve o conteúdo armazenado (usado em testes e diagnósticos).
func (s *MemoryStorage) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	return obj.Content, ok
}

// DiskStorage grava cada arquivo em <root>/<id>.
type DiskStorage struct {
	root    string
	baseURL string
}

// NewDiskStorage cria o diretório raiz se não existir.
func NewDiskStorage(root, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root %q: %w", root, err)
	}
	return &DiskStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStorage) Root() string { return s.root }

func (s *DiskStorage) Save(ctx context.Context, f File, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	if err := uuid.Validate(id); err != nil {
		return "", fmt.Errorf("invalid file id %q: %w", id, err)
	}

	dst := filepath.Join(s.root, id)
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, f.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return id, nil
}

func (s *DiskStorage) URL(id string) (string, error) {
	if uuid.Validate(id) != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := os.Stat(filepath.Join(s.root, id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", err
	}
	return s.baseURL + "/" + id, nil
}
