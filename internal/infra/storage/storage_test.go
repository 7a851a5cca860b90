package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"telegram-quizbot/internal/infra/storage"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")

	if err := storage.AtomicWriteFile(path, []byte("first")); err != nil {
		t.Fatalf("AtomicWriteFile() error: %v", err)
	}
	if err := storage.AtomicWriteFile(path, []byte("second")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q, want %q", got, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestEnsureDirBarePath(t *testing.T) {
	t.Parallel()

	if err := storage.EnsureDir("file.json"); err != nil {
		t.Fatalf("EnsureDir() on bare filename: %v", err)
	}
}
