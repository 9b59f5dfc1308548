package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	path := writeConfig(t, `
[paths]
library_dir = "/srv/library"
torrent_dir = "/srv/torrents"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("TMDB.APIKey = %q, want env fallback", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.Language != "zh-CN" {
		t.Fatalf("TMDB.Language = %q, want zh-CN", cfg.TMDB.Language)
	}
	if cfg.QBittorrent.Category != "curator" {
		t.Fatalf("QBittorrent.Category = %q, want curator", cfg.QBittorrent.Category)
	}
	if cfg.Matching.Threshold != 0.6 {
		t.Fatalf("Matching.Threshold = %v, want 0.6", cfg.Matching.Threshold)
	}
	if cfg.Matching.SuppressionPrecision != 2 {
		t.Fatalf("Matching.SuppressionPrecision = %d, want 2", cfg.Matching.SuppressionPrecision)
	}
	if cfg.Monitor.PollIntervalSeconds != 30 {
		t.Fatalf("Monitor.PollIntervalSeconds = %d, want 30", cfg.Monitor.PollIntervalSeconds)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	path := writeConfig(t, `
[paths]
library_dir = "/srv/library"
torrent_dir = "/srv/torrents"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("Load error = %v, want tmdb.api_key requirement", err)
	}
}

func TestLoadFloorsMonitorInterval(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")
	path := writeConfig(t, `
[paths]
library_dir = "/srv/library"
torrent_dir = "/srv/torrents"

[monitor]
poll_interval_seconds = 3
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.PollIntervalSeconds != 10 {
		t.Fatalf("Monitor.PollIntervalSeconds = %d, want floor of 10", cfg.Monitor.PollIntervalSeconds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "threshold out of range",
			body: "[matching]\nthreshold = 1.5\n",
			want: "matching.threshold",
		},
		{
			name: "bad qbittorrent host",
			body: "[qbittorrent]\nhost = \"127.0.0.1:8080\"\n",
			want: "qbittorrent.host",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TMDB_API_KEY", "key")
			path := writeConfig(t, "[paths]\nlibrary_dir = \"/srv/library\"\ntorrent_dir = \"/srv/torrents\"\n\n"+tc.body)
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadNormalizesHostAndExcludes(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")
	path := writeConfig(t, `
[paths]
library_dir = "/srv/library"
torrent_dir = "/srv/torrents"
exclude_dirs = ["lost+found", " ", "lost+found", "incoming"]

[qbittorrent]
host = "http://nas.local:8080/"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QBittorrent.Host != "http://nas.local:8080" {
		t.Fatalf("QBittorrent.Host = %q, want trailing slash trimmed", cfg.QBittorrent.Host)
	}
	want := []string{"lost+found", "incoming"}
	if len(cfg.Paths.ExcludeDirs) != len(want) {
		t.Fatalf("ExcludeDirs = %v, want %v", cfg.Paths.ExcludeDirs, want)
	}
	for i := range want {
		if cfg.Paths.ExcludeDirs[i] != want[i] {
			t.Fatalf("ExcludeDirs = %v, want %v", cfg.Paths.ExcludeDirs, want)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[tmdb]") {
		t.Fatal("sample config is missing the tmdb section")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.TorrentDir = filepath.Join(base, "torrents")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LibraryDir, cfg.Paths.TorrentDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("directory %q was not created: %v", dir, err)
		}
	}
	if got := cfg.DatabasePath(); got != filepath.Join(cfg.Paths.DataDir, "curator.db") {
		t.Fatalf("DatabasePath() = %q", got)
	}
}
