// Package assets moves product photos between image references and bytes:
// local files are inlined as base64 on export and materialized back to disk
// on import.
package assets

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"inventoryKeeper/internal/catalog"
)

type Kind int

const (
	Empty Kind = iota
	Local
	Remote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	}
	return "empty"
}

// fallbackName is used when a product name sanitizes to nothing.
const fallbackName = "product"

// Classify tells remote URLs, local paths and blank references apart.
func Classify(ref string) Kind {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Empty
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Remote
	}
	return Local
}

// EncodeForExport returns the base64 payload of a local image. Remote and
// empty references have no payload. A local file that cannot be read is
// reported as an ErrIO error so the caller can export the record without
// its photo.
func EncodeForExport(ref string) (string, error) {
	if Classify(ref) != Local {
		return "", nil
	}
	data, err := os.ReadFile(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read image %s: %v", catalog.ErrIO, ref, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeAndStore decodes payload and writes it to
// dir/{sanitized nameHint}_{disambiguator}.jpg, returning the absolute path.
// The file is written to a temporary name first and renamed into place, so
// a failure never leaves a partial asset behind.
func DecodeAndStore(nameHint, payload, dir string, disambiguator int) (string, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: invalid assets directory %s: %v", catalog.ErrIO, dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create assets directory: %v", catalog.ErrIO, err)
	}

	target := filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", SanitizeName(nameHint), disambiguator))
	if err := WriteFileAtomic(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// SanitizeName keeps only letters and digits; an empty result becomes a
// generic token.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackName
	}
	return b.String()
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.Join(strings.Fields(payload), "")
	if i := strings.Index(payload, ";base64,"); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+len(";base64,"):]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty image payload", catalog.ErrEncoding)
	}

	var lastErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: image payload is not valid base64: %v", catalog.ErrEncoding, lastErr)
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", catalog.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %v", catalog.ErrIO, path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to set permissions on %s: %v", catalog.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", catalog.ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to move asset into place: %v", catalog.ErrIO, err)
	}
	return nil
}
