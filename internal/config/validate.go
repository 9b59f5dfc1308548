package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateQBittorrent(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.TorrentDir) == "" {
		return errors.New("paths.torrent_dir must be set")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/curator/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'curator config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateQBittorrent() error {
	if !strings.HasPrefix(c.QBittorrent.Host, "http://") && !strings.HasPrefix(c.QBittorrent.Host, "https://") {
		return fmt.Errorf("qbittorrent.host must be an http or https URL, got %q", c.QBittorrent.Host)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be between 0 and 1")
	}
	if c.Matching.SuppressionPrecision > 10 {
		return errors.New("matching.suppression_precision must be at most 10")
	}
	return nil
}
