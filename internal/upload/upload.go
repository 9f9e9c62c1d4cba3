package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNoFile               = errors.New("no image uploaded")
	ErrEmptyFilename        = errors.New("no image selected")
	ErrUnsupportedExtension = errors.New("unsupported file type")
)

const suffixLen = 12

// Store validates uploads and writes them under a directory with
// collision-resistant names.
type Store struct {
	dir     string
	allowed map[string]struct{}
}

func NewStore(dir string, allowedExtensions []string) *Store {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Store{dir: dir, allowed: allowed}
}

// Validate checks that a file was attached, has a name, and carries an
// allowed extension (case-insensitive).
func (s *Store) Validate(fh *multipart.FileHeader) error {
	if fh == nil {
		return ErrNoFile
	}
	if fh.Filename == "" {
		return ErrEmptyFilename
	}
	if !s.Allowed(fh.Filename) {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, fh.Filename)
	}
	return nil
}

// Allowed reports whether filename's extension is accepted.
func (s *Store) Allowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	_, ok := s.allowed[ext]
	return ok
}

// Save validates fh and copies it into the store, returning the stored path.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	path := filepath.Join(s.dir, UniqueName(fh.Filename))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path, nil
}

// UniqueName builds "<sanitized base>_<random suffix><original extension>".
func UniqueName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(name)
	base := sanitize(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "upload"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	unique := base + "_" + suffix
	if e := sanitize(strings.TrimPrefix(ext, ".")); e != "" {
		unique += "." + e
	}
	return unique
}

// sanitize keeps ASCII letters, digits, '.', '-' and '_', mapping whitespace to '_'.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
