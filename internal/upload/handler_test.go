package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

type formFile struct {
	name        string
	contentType string
	content     string
}

func multipartRequest(t *testing.T, file *formFile, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write([]byte(file.content))
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestHandler(storage Storage) *Handler {
	svc := &Service{Storage: storage, Logger: quietLogger()}
	return NewHandler(svc, HandlerOptions{Logger: quietLogger()})
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v (raw=%q)", err, rr.Body.String())
	}
}

func TestHandler_Created(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("https://test-storage.example.com"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t, &formFile{"test_model.stl", "model/stl", "solid test"}, nil))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	var res Result
	decodeBody(t, rr, &res)
	if res.Status != "stored" || res.Filename != "test_model.stl" || res.Size != int64(len("solid test")) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(res.URL, "https://test-storage.example.com/") {
		t.Fatalf("unexpected url: %q", res.URL)
	}
}

func TestHandler_MissingFile(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t, nil, map[string]string{"webhook_url": "http://hook"}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body struct{ Detail string }
	decodeBody(t, rr, &body)
	if body.Detail != "No file uploaded" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestHandler_NotMultipart(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/upload", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", rr.Header().Get("Allow"))
	}
}

func TestHandler_InvalidMIME(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t, &formFile{"photo.png", "image/png", "png"}, nil))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var body struct{ Detail string }
	decodeBody(t, rr, &body)
	if !strings.Contains(body.Detail, "image/png") {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestHandler_TooLargeForRequestedMax(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t,
		&formFile{"big.stl", "model/stl", strings.Repeat("a", 64)},
		map[string]string{"max_size_bytes": "10"},
	))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestHandler_InvalidMaxSizeField(t *testing.T) {
	h := newTestHandler(NewMemoryStorage("http://x"))

	for _, raw := range []string{"abc", "0", "-5"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, multipartRequest(t,
			&formFile{"a.stl", "model/stl", "solid"},
			map[string]string{"max_size_bytes": raw},
		))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("max_size_bytes=%q: expected 422, got %d", raw, rr.Code)
		}
	}
}

func TestHandler_FixedMaxSizeIgnoresField(t *testing.T) {
	svc := &Service{Storage: NewMemoryStorage("http://x"), Logger: quietLogger()}
	h := NewHandler(svc, HandlerOptions{MaxSizeBytes: 1024, MaxSizeFixed: true, Logger: quietLogger()})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t,
		&formFile{"a.stl", "model/stl", strings.Repeat("a", 64)},
		map[string]string{"max_size_bytes": "10"},
	))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestHandler_StorageFailure(t *testing.T) {
	h := newTestHandler(brokenStorage{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t, &formFile{"a.stl", "model/stl", "solid"}, nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body struct{ Detail string }
	decodeBody(t, rr, &body)
	if body.Detail != "Error storing file" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}
