package upload

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"model.stl", "model.stl"},
		{"my model (v2).stl", "my_model__v2_.stl"},
		{"../../etc/passwd", "passwd.dat"},
		{`C:\Users\me\part.obj`, "part.obj"},
		{"", "default_filename.dat"},
		{".hidden", "sanitized_file.hidden"},
		{"noext", "noext.dat"},
		{"archive.tar.gz", "archive.tar.gz"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilename_TruncatesTo255(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 300) + ".stl")
	if len(got) != 255 {
		t.Fatalf("expected 255 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".stl") {
		t.Fatalf("expected extension kept, got %q", got[len(got)-8:])
	}
}

func TestSanitizeFilename_OversizedExtensionKeepsStem(t *testing.T) {
	got := SanitizeFilename("model." + strings.Repeat("x", 300))
	if len(got) > 255 {
		t.Fatalf("expected at most 255 chars, got %d", len(got))
	}
	if strings.HasPrefix(got, ".") || got[0] != 'm' || got[1] != '.' {
		t.Fatalf("expected one stem char before the extension, got prefix %q", got[:8])
	}
}

func TestSanitizeFilename_SanitizesExtension(t *testing.T) {
	if got := SanitizeFilename("part.st l?"); got != "part.st_l_" {
		t.Fatalf("expected sanitized extension, got %q", got)
	}
}

func TestValidateMIME(t *testing.T) {
	for _, mime := range []string{"model/stl", "application/sla", "model/obj", "text/plain"} {
		if !ValidateMIME(mime, DefaultAllowedMIMETypes) {
			t.Errorf("expected %q allowed", mime)
		}
	}
	for _, mime := range []string{"", "image/png", "application/octet-stream"} {
		if ValidateMIME(mime, DefaultAllowedMIMETypes) {
			t.Errorf("expected %q rejected", mime)
		}
	}
}

func TestValidate_SizeCheckedBeforeMIME(t *testing.T) {
	_, err := Validate(File{Filename: "a.png", ContentType: "image/png", Size: 2048}, DefaultAllowedMIMETypes, 1024)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Message, "exceeds maximum") {
		t.Fatalf("expected size message, got %q", verr.Message)
	}
}

func TestValidate_RejectsMIME(t *testing.T) {
	_, err := Validate(File{Filename: "a.png", ContentType: "image/png", Size: 10}, DefaultAllowedMIMETypes, 1024)

	var verr *ValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Message, "'image/png' is not allowed") {
		t.Fatalf("expected MIME validation error, got %v", err)
	}
}

func TestValidate_AcceptsAndSanitizes(t *testing.T) {
	v, err := Validate(File{Filename: "my part.stl", ContentType: "model/stl", Size: 10}, DefaultAllowedMIMETypes, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Filename != "my_part.stl" || v.Size != 10 || v.ContentType != "model/stl" {
		t.Fatalf("unexpected validated file: %+v", v)
	}
}
