package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryStorage_SaveAndURL(t *testing.T) {
	s := NewMemoryStorage("https://storage.example.com/")

	id, err := s.Save(context.Background(), File{Filename: "a.stl", Body: strings.NewReader("solid a")}, "fixed-id")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "fixed-id" {
		t.Fatalf("expected given id, got %q", id)
	}
	url, err := s.URL(id)
	if err != nil || url != "https://storage.example.com/fixed-id" {
		t.Fatalf("unexpected url %q (err=%v)", url, err)
	}
	if content, ok := s.Get(id); !ok || string(content) != "solid a" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestMemoryStorage_GeneratesIDAndReportsMissing(t *testing.T) {
	s := NewMemoryStorage("https://storage.example.com")

	id, err := s.Save(context.Background(), File{Body: strings.NewReader("x")}, "")
	if err != nil || id == "" {
		t.Fatalf("expected generated id, got %q (err=%v)", id, err)
	}
	if _, err := s.URL("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiskStorage_SaveWritesUnderRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	s, err := NewDiskStorage(root, "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("NewDiskStorage: %v", err)
	}

	id, err := s.Save(context.Background(), File{Filename: "a.obj", Body: strings.NewReader("v 0 0 0")}, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, id))
	if err != nil || string(data) != "v 0 0 0" {
		t.Fatalf("unexpected file content %q (err=%v)", data, err)
	}
	url, err := s.URL(id)
	if err != nil || url != "http://localhost:8080/files/"+id {
		t.Fatalf("unexpected url %q (err=%v)", url, err)
	}
}

func TestDiskStorage_RejectsPathLikeIDs(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewDiskStorage: %v", err)
	}
	if _, err := s.Save(context.Background(), File{Body: strings.NewReader("x")}, "../escape"); err == nil {
		t.Fatalf("expected error for non-uuid id")
	}
	if _, err := s.URL("../escape"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
