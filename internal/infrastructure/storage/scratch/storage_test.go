package scratch

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestWriteAndCleanup(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, cleanup, err := storage.Write(context.Background(), "upload-1", "report.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Fatalf("staged content = %q", data)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("staged file survived cleanup: %v", err)
	}
}

func TestWriteSanitizesFilename(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, cleanup, err := storage.Write(context.Background(), "u", "../../etc/pass wd?.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	defer cleanup()

	if strings.Contains(path, "..") {
		t.Fatalf("path escaped the scratch dir: %q", path)
	}
	if strings.ContainsAny(path[strings.LastIndex(path, "/")+1:], " ?") {
		t.Fatalf("filename not sanitized: %q", path)
	}
}

func TestWritesAreIsolatedPerUpload(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path1, cleanup1, err := storage.Write(context.Background(), "u1", "same.pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	defer cleanup1()

	path2, cleanup2, err := storage.Write(context.Background(), "u2", "same.pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	defer cleanup2()

	if path1 == path2 {
		t.Fatalf("two uploads shared one path: %q", path1)
	}
}
