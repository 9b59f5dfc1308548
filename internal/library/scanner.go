// Package library walks the organized media library. It produces the
// candidate pool reconciliation matches torrents against, the flat listing
// behind manual organization, and the move operations that file media into
// category directories.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"curator/internal/textutil"
)

// CandidateKind distinguishes how a candidate maps onto torrent content.
type CandidateKind string

const (
	// FileMatch is a single video file directly under a top level folder.
	FileMatch CandidateKind = "file_match"
	// FolderMatch is a nested folder treated as one unit of content.
	FolderMatch CandidateKind = "folder_match"
)

// Candidate is one library entry a torrent can be matched against.
type Candidate struct {
	Name             string        `json:"name"`
	SourcePath       string        `json:"source_path"`
	DownloadPath     string        `json:"download_path"`
	Kind             CandidateKind `json:"kind"`
	FolderSimilarity float64       `json:"folder_similarity"`
	SampleFile       string        `json:"sample_file"`
	VideoCount       int           `json:"video_count"`
}

// Entry is one top level library item from a flat scan.
type Entry struct {
	Name         string `json:"name"`
	DisplayTitle string `json:"display_title"`
	Path         string `json:"path"`
	IsDir        bool   `json:"is_dir"`
	SizeBytes    int64  `json:"size_bytes"`
	Extension    string `json:"extension"`
}

var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".ts":   {},
	".m2ts": {},
	".rmvb": {},
}

// IsVideoFile reports whether the name carries a known video extension.
func IsVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scanner walks a library root.
type Scanner struct {
	root      string
	excludes  map[string]struct{}
	threshold float64
	titler    cases.Caser
}

// NewScanner creates a scanner for root. excludes names top level
// directories to skip; threshold is the folder similarity cutoff used to
// pick candidate download paths.
func NewScanner(root string, excludes []string, threshold float64) *Scanner {
	excluded := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		excluded[name] = struct{}{}
	}
	return &Scanner{
		root:      filepath.Clean(root),
		excludes:  excluded,
		threshold: threshold,
		titler:    cases.Title(language.Und),
	}
}

// ScanTopLevel lists the direct children of the library root.
func (s *Scanner) ScanTopLevel() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read library root: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, skip := s.excludes[name]; skip {
			continue
		}
		entry := Entry{
			Name:  name,
			Path:  filepath.Join(s.root, name),
			IsDir: dirEntry.IsDir(),
		}
		if !entry.IsDir {
			entry.Extension = strings.ToLower(filepath.Ext(name))
			if info, err := dirEntry.Info(); err == nil {
				entry.SizeBytes = info.Size()
			}
		}
		base := name
		if !entry.IsDir {
			base = strings.TrimSuffix(name, filepath.Ext(name))
		}
		entry.DisplayTitle = s.titler.String(strings.ReplaceAll(base, "_", " "))
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ScanCandidates walks the library and returns the candidate pool for
// torrent reconciliation. Each directory holding at least one video file
// contributes candidates; the similarity between the folder name and its
// first video decides whether torrent data would land in the folder itself
// or in its parent.
func (s *Scanner) ScanCandidates() ([]Candidate, error) {
	var candidates []Candidate
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == s.root {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if filepath.Dir(path) == s.root {
			if _, skip := s.excludes[name]; skip {
				return filepath.SkipDir
			}
		}
		dirCandidates, err := s.candidatesForDir(path)
		if err != nil {
			return err
		}
		candidates = append(candidates, dirCandidates...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan library: %w", err)
	}
	return candidates, nil
}

func (s *Scanner) candidatesForDir(dir string) ([]Candidate, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	videos := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		if IsVideoFile(dirEntry.Name()) {
			videos = append(videos, dirEntry.Name())
		}
	}
	if len(videos) == 0 {
		return nil, nil
	}
	sort.Strings(videos)

	folderName := filepath.Base(dir)
	firstBase := strings.TrimSuffix(videos[0], filepath.Ext(videos[0]))
	similarity := textutil.SimilarityRatio(strings.ToLower(firstBase), strings.ToLower(folderName))

	// A folder named after its video usually came in whole from a torrent,
	// so new data for it belongs next to the folder, not inside it.
	downloadPath := dir
	if similarity > s.threshold {
		downloadPath = filepath.Dir(dir)
	}

	if filepath.Dir(dir) == s.root {
		candidates := make([]Candidate, 0, len(videos))
		for _, video := range videos {
			candidates = append(candidates, Candidate{
				Name:             strings.TrimSuffix(video, filepath.Ext(video)),
				SourcePath:       filepath.Join(dir, video),
				DownloadPath:     downloadPath,
				Kind:             FileMatch,
				FolderSimilarity: similarity,
				SampleFile:       video,
				VideoCount:       len(videos),
			})
		}
		return candidates, nil
	}

	return []Candidate{{
		Name:             folderName,
		SourcePath:       dir,
		DownloadPath:     downloadPath,
		Kind:             FolderMatch,
		FolderSimilarity: similarity,
		SampleFile:       videos[0],
		VideoCount:       len(videos),
	}}, nil
}
