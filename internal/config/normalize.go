package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeQBittorrent()
	c.normalizeMatching()
	c.normalizeMonitor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.TorrentDir, err = expandPath(c.Paths.TorrentDir); err != nil {
		return fmt.Errorf("paths.torrent_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TaxonomyPath) == "" {
		c.Paths.TaxonomyPath = defaultTaxonomyPath
	}
	if c.Paths.TaxonomyPath, err = expandPath(c.Paths.TaxonomyPath); err != nil {
		return fmt.Errorf("paths.taxonomy_path: %w", err)
	}

	excludes := make([]string, 0, len(c.Paths.ExcludeDirs))
	seen := make(map[string]struct{}, len(c.Paths.ExcludeDirs))
	for _, name := range c.Paths.ExcludeDirs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		excludes = append(excludes, name)
	}
	c.Paths.ExcludeDirs = excludes

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeQBittorrent() {
	if c.QBittorrent.Password == "" {
		if value, ok := os.LookupEnv("QBITTORRENT_PASSWORD"); ok {
			c.QBittorrent.Password = value
		}
	}
	c.QBittorrent.Host = strings.TrimRight(strings.TrimSpace(c.QBittorrent.Host), "/")
	if c.QBittorrent.Host == "" {
		c.QBittorrent.Host = defaultQBittorrentHost
	}
	c.QBittorrent.Category = strings.TrimSpace(c.QBittorrent.Category)
	if c.QBittorrent.Category == "" {
		c.QBittorrent.Category = defaultQBittorrentCategory
	}
	c.QBittorrent.Tag = strings.TrimSpace(c.QBittorrent.Tag)
	if c.QBittorrent.Tag == "" {
		c.QBittorrent.Tag = defaultQBittorrentTag
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = defaultMatchingThreshold
	}
	if c.Matching.SuppressionPrecision <= 0 {
		c.Matching.SuppressionPrecision = defaultSuppressionPrecision
	}
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.PollIntervalSeconds <= 0 {
		c.Monitor.PollIntervalSeconds = defaultMonitorPollSeconds
	}
	if c.Monitor.PollIntervalSeconds < minMonitorPollSeconds {
		c.Monitor.PollIntervalSeconds = minMonitorPollSeconds
	}
	if c.Monitor.TimeoutHours <= 0 {
		c.Monitor.TimeoutHours = defaultMonitorTimeoutHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
