package scratch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage stages upload bytes in a per-upload temporary directory. The file
// is fully written and closed before the path is handed out, and the
// returned cleanup removes the whole directory; callers defer it so the
// space is reclaimed whether the build succeeds or fails.
type Storage struct {
	baseDir string
}

func New(baseDir string) (*Storage, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "docchat")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

func (s *Storage) Write(_ context.Context, scope, filename string, data io.Reader) (string, func(), error) {
	dir, err := os.MkdirTemp(s.baseDir, scope+"-")
	if err != nil {
		return "", nil, fmt.Errorf("create upload dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, sanitizeFilename(filename))
	file, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(file, data); err != nil {
		_ = file.Close()
		cleanup()
		return "", nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("flush upload file: %w", err)
	}
	return path, cleanup, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload.bin"
	}
	return base
}
