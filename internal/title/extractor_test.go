package title_test

import (
	"testing"

	"curator/internal/title"
)

func TestFromFilenameCascade(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "underscore split with release tokens",
			filename: "Movie_Title_1080p_BluRay-GROUP.mkv",
			want:     "Movie Title",
		},
		{
			name:     "year before season",
			filename: "Show.Name.2021.S02.1080p.WEB-DL.mkv",
			want:     "Show Name",
		},
		{
			name:     "season before year",
			filename: "Show.S02.2021.mkv",
			want:     "Show",
		},
		{
			name:     "season only",
			filename: "Breaking.Bad.S01.720p.mkv",
			want:     "Breaking Bad",
		},
		{
			name:     "year only",
			filename: "Inception.2010.1080p.mkv",
			want:     "Inception",
		},
		{
			name:     "bracket with cjk season marker",
			filename: "[标题第二季] 1080p.mkv",
			want:     "标题",
		},
		{
			name:     "bracket cjk first segment",
			filename: "[权力游戏 中英字幕].mkv",
			want:     "权力游戏",
		},
		{
			name:     "bracket latin content kept whole",
			filename: "[MovieGroup].mkv",
			want:     "MovieGroup",
		},
		{
			name:     "cjk runs before first dot",
			filename: "流浪地球2.The.Wandering.Earth.mkv",
			want:     "流浪地球",
		},
		{
			name:     "cjk zhi connector",
			filename: "画江湖之不良人.第一季.mkv",
			want:     "画江湖",
		},
		{
			name:     "cjk season marker before dot",
			filename: "雪中悍刀行第二季.2024.mkv",
			want:     "雪中悍刀行",
		},
		{
			name:     "fallback collapses separators",
			filename: "A.B.C.mkv",
			want:     "A B C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := title.FromFilename(tt.filename); got != tt.want {
				t.Errorf("FromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFromFilenameNeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		".mkv",
		"x.mkv",
		"...",
		"[]",
		"____",
		"1080p.mkv",
		"-GROUP.mkv",
		"{junk}.avi",
	}
	for _, in := range inputs {
		if got := title.FromFilename(in); got == "" {
			t.Errorf("FromFilename(%q) returned empty title", in)
		}
	}
}

func TestFromTorrentName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "release group then cjk season",
			filename: "[字幕组] 标题.第二季.1080p.mkv",
			want:     "标题",
		},
		{
			name:     "release group then dotted latin",
			filename: "[RARBG].Show.Name.2021.S01.torrent",
			want:     "Show Name",
		},
		{
			name:     "no bracket passes through",
			filename: "Plain.Movie.2019.torrent",
			want:     "Plain Movie",
		},
		{
			name:     "short remainder keeps original bracket",
			filename: "[唯一的名字字幕组].torrent",
			want:     "唯一的名字字幕组",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := title.FromTorrentName(tt.filename); got != tt.want {
				t.Errorf("FromTorrentName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFromTorrentNameAggressive(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "drops non-cjk group segment",
			filename: "[Grp].WiKi.虎胆龙威.2023.torrent",
			want:     "虎胆龙威",
		},
		{
			name:     "first of multiple brackets dropped",
			filename: "[Group][斗罗大陆].2023.torrent",
			want:     "斗罗大陆",
		},
		{
			name:     "cjk first segment preserved",
			filename: "[组] 功夫.2004.torrent",
			want:     "功夫",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := title.FromTorrentNameAggressive(tt.filename); got != tt.want {
				t.Errorf("FromTorrentNameAggressive(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestRough(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Show Name", false},
		{"标题", false},
		{"Still.Dotted.Name", true},
		{"tag_separated", true},
		{"[group] leftover", true},
	}
	for _, tt := range tests {
		if got := title.Rough(tt.title); got != tt.want {
			t.Errorf("Rough(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
