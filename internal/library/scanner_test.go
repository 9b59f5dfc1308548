package library_test

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/library"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanTopLevel(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Some Show"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "lost+found"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "some_movie.mkv"))
	writeFile(t, filepath.Join(root, ".hidden"))

	scanner := library.NewScanner(root, []string{"lost+found"}, 0.6)
	entries, err := scanner.ScanTopLevel()
	if err != nil {
		t.Fatalf("ScanTopLevel: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Name != "Some Show" || !entries[0].IsDir {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "some_movie.mkv" || entries[1].IsDir {
		t.Fatalf("entries[1] = %+v", entries[1])
	}
	if entries[1].DisplayTitle != "Some Movie" {
		t.Fatalf("display title = %q, want Some Movie", entries[1].DisplayTitle)
	}
	if entries[1].Extension != ".mkv" {
		t.Fatalf("extension = %q", entries[1].Extension)
	}
}

func TestScanCandidatesDirectChildEmitsFileMatches(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Season Pack")
	writeFile(t, filepath.Join(dir, "episode.01.mkv"))
	writeFile(t, filepath.Join(dir, "episode.02.mkv"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	scanner := library.NewScanner(root, nil, 0.6)
	candidates, err := scanner.ScanCandidates()
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}
	for _, candidate := range candidates {
		if candidate.Kind != library.FileMatch {
			t.Fatalf("kind = %q, want file_match", candidate.Kind)
		}
		if candidate.VideoCount != 2 {
			t.Fatalf("video count = %d, want 2", candidate.VideoCount)
		}
		// Folder name and episode names are dissimilar, so new data for
		// these entries belongs inside the folder.
		if candidate.DownloadPath != dir {
			t.Fatalf("download path = %q, want %q", candidate.DownloadPath, dir)
		}
	}
	if candidates[0].Name != "episode.01" {
		t.Fatalf("candidates[0].Name = %q", candidates[0].Name)
	}
}

func TestScanCandidatesNestedFolderEmitsFolderMatch(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "shows", "Some Show S01")
	writeFile(t, filepath.Join(nested, "Some Show S01E01.mkv"))
	writeFile(t, filepath.Join(nested, "Some Show S01E02.mkv"))

	scanner := library.NewScanner(root, nil, 0.6)
	candidates, err := scanner.ScanCandidates()
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	got := candidates[0]
	if got.Kind != library.FolderMatch {
		t.Fatalf("kind = %q, want folder_match", got.Kind)
	}
	if got.Name != "Some Show S01" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.SourcePath != nested {
		t.Fatalf("source path = %q", got.SourcePath)
	}
	if got.VideoCount != 2 || got.SampleFile != "Some Show S01E01.mkv" {
		t.Fatalf("candidate = %+v", got)
	}
}

func TestScanCandidatesSimilarFolderTargetsParent(t *testing.T) {
	root := t.TempDir()
	// Folder named like its video: torrent data for it belongs beside the
	// folder rather than inside it.
	dir := filepath.Join(root, "category", "Some.Movie.2021.1080p")
	writeFile(t, filepath.Join(dir, "Some.Movie.2021.1080p.mkv"))

	scanner := library.NewScanner(root, nil, 0.6)
	candidates, err := scanner.ScanCandidates()
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates: %+v", len(candidates), candidates)
	}
	got := candidates[0]
	if got.FolderSimilarity != 1.0 {
		t.Fatalf("folder similarity = %v, want 1.0", got.FolderSimilarity)
	}
	if got.DownloadPath != filepath.Join(root, "category") {
		t.Fatalf("download path = %q, want parent of folder", got.DownloadPath)
	}
}

func TestScanCandidatesSkipsExcludedAndEmptyDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "incoming", "partial.mkv"))
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	scanner := library.NewScanner(root, []string{"incoming"}, 0.6)
	candidates, err := scanner.ScanCandidates()
	if err != nil {
		t.Fatalf("ScanCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %d candidates from excluded/empty dirs: %+v", len(candidates), candidates)
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.mkv", true},
		{"movie.MP4", true},
		{"movie.m2ts", true},
		{"notes.txt", false},
		{"cover.jpg", false},
		{"noext", false},
	}
	for _, tc := range tests {
		if got := library.IsVideoFile(tc.name); got != tc.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
