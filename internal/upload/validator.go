package upload

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
)

const (
	DefaultMaxSizeBytes int64 = 100 * 1024 * 1024
	maxFilenameLen            = 255
)

// DefaultAllowedMIMETypes cobre STL (ASCII e binário) e OBJ.
// OBJ costuma chegar como text/plain.
var DefaultAllowedMIMETypes = []string{
	"application/sla",
	"model/stl",
	"application/vnd.ms-pki.stl",
	"model/obj",
	"text/plain",
}

var invalidChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// ValidationError é erro do cliente (arquivo fora das regras), vira HTTP 422.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func ValidateMIME(mime string, allowed []string) bool {
	if mime == "" {
		return false
	}
	return slices.Contains(allowed, mime)
}

func ValidateSize(size, maxBytes int64) bool {
	return size >= 0 && size <= maxBytes
}

// SanitizeFilename reduz o nome ao basename e troca caracteres fora de
// [A-Za-z0-9_.-] no stem e na extensão por "_". O resultado nunca passa de 255 bytes.
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		name = "default_filename"
	}

	stem, ext, hasDot := strings.Cut(name, ".")
	if stem == "" {
		stem = "sanitized_file"
	}
	if !hasDot {
		ext = "dat"
	}

	safeStem := invalidChars.ReplaceAllString(stem, "_")
	safeExt := invalidChars.ReplaceAllString(ext, "_")
	// sobra pelo menos um caractere de stem antes do ponto
	if len(safeExt) > maxFilenameLen-2 {
		safeExt = safeExt[:maxFilenameLen-2]
	}
	safe := safeStem + "." + safeExt
	if len(safe) > maxFilenameLen {
		keep := maxFilenameLen - len(safeExt) - 1
		safe = safeStem[:min(keep, len(safeStem))] + "." + safeExt
	}
	return safe
}

// Validated é o arquivo aprovado, com nome já sanitizado.
type Validated struct {
	Filename    string
	ContentType string
	Size        int64
}

// Validate checa tamanho e depois MIME, na mesma ordem que as mensagens
// de erro documentadas para o cliente.
func Validate(f File, allowed []string, maxBytes int64) (Validated, error) {
	if !ValidateSize(f.Size, maxBytes) {
		return Validated{}, &ValidationError{Message: fmt.Sprintf(
			"File size %.2f MB exceeds maximum of %.2f MB.",
			megabytes(f.Size), megabytes(maxBytes),
		)}
	}
	if !ValidateMIME(f.ContentType, allowed) {
		return Validated{}, &ValidationError{Message: fmt.Sprintf(
			"File MIME type '%s' is not allowed. Allowed types: %s.",
			f.ContentType, strings.Join(allowed, ", "),
		)}
	}

	filename := f.Filename
	if filename == "" {
		filename = "default_upload"
	}
	return Validated{
		Filename:    SanitizeFilename(filename),
		ContentType: f.ContentType,
		Size:        f.Size,
	}, nil
}

func megabytes(n int64) float64 { return float64(n) / (1024 * 1024) }
