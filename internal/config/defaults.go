package config

const (
	defaultLibraryDir           = "~/library"
	defaultTorrentDir           = "~/torrents"
	defaultDataDir              = "~/.local/share/curator"
	defaultLogDir               = "~/.local/share/curator/logs"
	defaultTaxonomyPath         = "~/.config/curator/taxonomy.yaml"
	defaultAPIBind              = "127.0.0.1:7823"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBLanguage         = "zh-CN"
	defaultQBittorrentHost      = "http://127.0.0.1:8080"
	defaultQBittorrentCategory  = "curator"
	defaultQBittorrentTag       = "auto_added"
	defaultMatchingThreshold    = 0.6
	defaultSuppressionPrecision = 2
	defaultMonitorPollSeconds   = 30
	minMonitorPollSeconds       = 10
	defaultMonitorTimeoutHours  = 24
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:   defaultLibraryDir,
			TorrentDir:   defaultTorrentDir,
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			TaxonomyPath: defaultTaxonomyPath,
			APIBind:      defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		QBittorrent: QBittorrent{
			Host:      defaultQBittorrentHost,
			Category:  defaultQBittorrentCategory,
			Tag:       defaultQBittorrentTag,
			AutoStart: true,
		},
		Matching: Matching{
			Threshold:            defaultMatchingThreshold,
			SuppressionPrecision: defaultSuppressionPrecision,
		},
		Monitor: Monitor{
			PollIntervalSeconds: defaultMonitorPollSeconds,
			TimeoutHours:        defaultMonitorTimeoutHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
