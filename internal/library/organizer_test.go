package library_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"curator/internal/library"
	"curator/internal/services"
)

func TestEnsureCategoryDirSanitizes(t *testing.T) {
	root := t.TempDir()
	organizer := library.NewOrganizer(root, zap.NewNop())

	dir, err := organizer.EnsureCategoryDir("movies: best/of?")
	if err != nil {
		t.Fatalf("EnsureCategoryDir: %v", err)
	}
	if filepath.Dir(dir) != root {
		t.Fatalf("category dir %q not under root", dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("category dir not created: %v", err)
	}

	if _, err := organizer.EnsureCategoryDir("???"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for unsanitizable name", err)
	}
}

func TestMoveToCategoryFile(t *testing.T) {
	root := t.TempDir()
	organizer := library.NewOrganizer(root, zap.NewNop())
	source := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	target, err := organizer.MoveToCategory(source, "movies")
	if err != nil {
		t.Fatalf("MoveToCategory: %v", err)
	}
	if target != filepath.Join(root, "movies", "movie.mkv") {
		t.Fatalf("target = %q", target)
	}
	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("source still exists after move")
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "video" {
		t.Fatalf("target contents = %q, err %v", data, err)
	}
}

func TestMoveToCategoryAllocatesSuffixOnCollision(t *testing.T) {
	root := t.TempDir()
	organizer := library.NewOrganizer(root, zap.NewNop())
	staging := t.TempDir()

	for range 2 {
		source := filepath.Join(staging, "movie.mkv")
		if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := organizer.MoveToCategory(source, "movies"); err != nil {
			t.Fatalf("MoveToCategory: %v", err)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "movies", "movie.mkv")); err != nil {
		t.Fatalf("first move missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "movies", "movie_1.mkv")); err != nil {
		t.Fatalf("collision suffix missing: %v", err)
	}
}

func TestMoveToCategoryDirectory(t *testing.T) {
	root := t.TempDir()
	organizer := library.NewOrganizer(root, zap.NewNop())
	source := filepath.Join(t.TempDir(), "Some Show S01")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "e01.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	target, err := organizer.MoveToCategory(source, "tv")
	if err != nil {
		t.Fatalf("MoveToCategory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "e01.mkv")); err != nil {
		t.Fatalf("moved directory contents missing: %v", err)
	}
}

func TestMoveToCategoryMissingSource(t *testing.T) {
	organizer := library.NewOrganizer(t.TempDir(), zap.NewNop())
	_, err := organizer.MoveToCategory(filepath.Join(t.TempDir(), "nope.mkv"), "movies")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
