// Package assets stores the image files that image blocks point at. Files
// live flat under <root>/attachments and are served at /attachments/<name>.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/blockdoc/internal/apperr"
)

// Dir is the attachments directory relative to the document root.
const Dir = "attachments"

// URLPrefix is the public path under which assets are served.
const URLPrefix = "/" + Dir + "/"

// MaxSize bounds a single asset.
const MaxSize = 10 << 20

var (
	// ErrUnsupported reports a file whose extension or content is not an
	// accepted image format.
	ErrUnsupported = errors.New("unsupported asset")

	mimeToExt = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	}

	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true,
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Asset describes a stored file.
type Asset struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// Store saves and resolves assets below one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at <root>/attachments.
func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, Dir)}
}

// Dir returns the absolute attachments directory.
func (s *Store) Dir() string { return s.dir }

// Path resolves a plain filename to its absolute path. Names with
// separators or traversal are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("assets: %w: filename is required", apperr.ErrInvalidArgument)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("assets: %w: invalid filename %q", apperr.ErrInvalidArgument, name)
	}
	return filepath.Join(s.dir, cleaned), nil
}

// Save validates data against the extension of name and writes it. An
// existing file of the same name is never overwritten.
func (s *Store) Save(name string, data []byte) (*Asset, error) {
	if len(data) > MaxSize {
		return nil, fmt.Errorf("assets: %w: %d bytes (max %d)", apperr.ErrLimitExceeded, len(data), MaxSize)
	}
	name = SanitizeFilename(name)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("assets: %w: extension %q (allowed: png, jpg, jpeg, gif, webp, svg)", ErrUnsupported, ext)
	}
	if err := ValidateMagicBytes(data, ext); err != nil {
		return nil, err
	}
	abs, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: mkdir: %w", err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("assets: %s: %w", name, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("assets: create: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(abs)
		return nil, fmt.Errorf("assets: write: %w", err)
	}
	return &Asset{Filename: name, Size: int64(len(data)), URL: URLPrefix + name}, nil
}

// SanitizeFilename strips path components and unsafe characters. An empty
// result becomes a random name.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = uuid.New().String()
	}
	return name
}

// ExtForMIME maps a content type to a file extension, or "" when the type
// is not an accepted image format.
func ExtForMIME(contentType string) string {
	return mimeToExt[strings.TrimSpace(strings.Split(contentType, ";")[0])]
}

// ValidateMagicBytes checks that content matches the declared extension.
func ValidateMagicBytes(data []byte, ext string) error {
	if ext == ".svg" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("assets: %w: content is not an SVG", ErrUnsupported)
		}
		return nil
	}

	detected := http.DetectContentType(data)
	got := ExtForMIME(detected)
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if got != ext {
		return fmt.Errorf("assets: %w: content does not match %s (detected %s)", ErrUnsupported, ext, detected)
	}
	return nil
}
