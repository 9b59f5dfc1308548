package title

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// minTitleRunes is the shortest result a cascade rule may return; anything
// shorter falls through to the next rule.
const minTitleRunes = 2

var (
	// releaseTagPatterns strip quality, source, codec, audio, and
	// release-group noise ahead of the cascade.
	releaseTagPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(1080p|720p|480p|4K|2160p|UHD)\b`),
		regexp.MustCompile(`(?i)\b(BluRay|BDRip|DVDRip|WEBRip|HDTV|WEB-DL|HDRip)\b`),
		regexp.MustCompile(`(?i)\b(x264|x265|H264|H265|HEVC|AVC)\b`),
		regexp.MustCompile(`(?i)\b(AC3|DTS|AAC|FLAC|MP3|Atmos)\b`),
		regexp.MustCompile(`(?i)\b(REMUX|REPACK|PROPER|INTERNAL)\b`),
		regexp.MustCompile(`(?i)\b(HDR|SDR|Dolby|Vision)\b`),
		regexp.MustCompile(`(?i)\b(COMPLETE|BLURAY)\b`),
		regexp.MustCompile(`\{[^}]*\}`),
		regexp.MustCompile(`(?i)-[A-Z0-9_]+$`),
		regexp.MustCompile(`(?i)__[A-Z0-9_]+$`),
	}

	// releaseTokenRe matches a whole underscore-delimited segment that is
	// release metadata rather than part of the title. Word boundaries do not
	// fire inside underscore runs, so these tokens survive the pre-clean and
	// are recognized segment by segment instead.
	releaseTokenRe = regexp.MustCompile(`(?i)^(1080p|720p|480p|4K|2160p|UHD|BluRay|BDRip|DVDRip|WEBRip|HDTV|WEB-DL|HDRip|x264|x265|H264|H265|HEVC|AVC|AC3|DTS|AAC|FLAC|MP3|Atmos|REMUX|REPACK|PROPER|INTERNAL|HDR|SDR|COMPLETE)$`)

	anyBracketRe     = regexp.MustCompile(`\[[^\]]*\]`)
	leadingBracketRe = regexp.MustCompile(`^\[([^\]]+)\]`)
	torrentGroupRe   = regexp.MustCompile(`^\[[^\]]+\]\.?`)
	cjkRunRe         = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
	cjkSeasonRe      = regexp.MustCompile(`第[一二三四五六七八九十0-9]+季`)
	spaceOrDotRe     = regexp.MustCompile(`[ .]`)
	seasonDotRe      = regexp.MustCompile(`(?i)\.S[0-9]+`)
	seasonSpaceRe    = regexp.MustCompile(`(?i)\sS[0-9]+`)
	yearDotRe        = regexp.MustCompile(`\.[0-9]{4}`)
	yearSpaceRe      = regexp.MustCompile(`\s[0-9]{4}`)
	bareYearRe       = regexp.MustCompile(`\b[0-9]{4}\b`)
	separatorRunRe   = regexp.MustCompile(`[._-]+`)
	spaceRunRe       = regexp.MustCompile(`\s+`)
)

// cascade lists the extraction rules in evaluation order.
var cascade = []func(string) (string, bool){
	underscoreTitle,
	bracketTitle,
	cjkTitle,
	tokenBoundedTitle,
}

// FromFilename extracts a searchable title from a media file or folder name.
// The extension is stripped first; the result is never empty.
func FromFilename(filename string) string {
	return extract(stripExtension(filename))
}

// FromTorrentName extracts a title from a torrent filename. Torrent names
// commonly lead with a [release-group] tag followed by a dot; that group is
// stripped before the standard cascade runs.
func FromTorrentName(filename string) string {
	name := strings.TrimSpace(stripExtension(filename))
	if m := torrentGroupRe.FindStringIndex(name); m != nil {
		remainder := strings.TrimSpace(name[m[1]:])
		if utf8.RuneCountInString(remainder) >= minTitleRunes {
			name = remainder
		}
	}
	return extract(name)
}

// FromTorrentNameAggressive applies stronger group stripping for names the
// standard variant could not clean: with two or more bracket groups the
// first is dropped as the release group (the rest are preserved), and a
// first dot segment without CJK characters is dropped as a probable group
// tag before the cascade runs.
func FromTorrentNameAggressive(filename string) string {
	stripped := strings.TrimSpace(stripExtension(filename))
	name := stripped

	if groups := anyBracketRe.FindAllStringIndex(name, -1); len(groups) >= 2 && groups[0][0] == 0 {
		name = strings.TrimPrefix(strings.TrimSpace(name[groups[0][1]:]), ".")
	} else if m := torrentGroupRe.FindStringIndex(name); m != nil {
		name = strings.TrimSpace(name[m[1]:])
	}

	if idx := strings.Index(name, "."); idx > 0 && !cjkRunRe.MatchString(name[:idx]) {
		remainder := strings.TrimSpace(name[idx+1:])
		if utf8.RuneCountInString(remainder) >= minTitleRunes {
			name = remainder
		}
	}

	if utf8.RuneCountInString(name) < minTitleRunes {
		name = stripped
	}
	return extract(name)
}

// Rough reports whether an extracted title still carries release-name
// artifacts (bracket groups or dot/underscore separators), which indicates
// the cascade fell back without cleaning it.
func Rough(title string) bool {
	return anyBracketRe.MatchString(title) || strings.ContainsAny(title, "._")
}

func extract(name string) string {
	original := strings.TrimSpace(name)
	cleaned := preClean(name)

	for _, rule := range cascade {
		if title, ok := rule(cleaned); ok && utf8.RuneCountInString(title) >= minTitleRunes {
			return title
		}
	}
	return fallbackTitle(cleaned, original)
}

func preClean(name string) string {
	for _, re := range releaseTagPatterns {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(name, " "))
}

// underscoreTitle handles names whose words are joined by underscores, such
// as Movie_Title_1080p_BluRay. The leading segments up to the first release
// token form the title. Bracketed names are left to bracketTitle.
func underscoreTitle(name string) (string, bool) {
	if !strings.Contains(name, "_") || anyBracketRe.MatchString(name) {
		return "", false
	}
	var kept []string
	for _, segment := range strings.Split(name, "_") {
		segment = strings.TrimSpace(segment)
		if segment == "" || releaseTokenRe.MatchString(segment) {
			break
		}
		kept = append(kept, segment)
	}
	if len(kept) == 0 {
		return "", false
	}
	title := strings.ReplaceAll(strings.Join(kept, " "), ".", " ")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(title, " ")), true
}

// bracketTitle extracts from a leading [bracket] group. CJK bracket content
// is split further: the portion before a 第N季 season marker wins, then the
// first space/dot segment when it is itself CJK.
func bracketTitle(name string) (string, bool) {
	if !strings.HasPrefix(name, "[") {
		return "", false
	}
	m := leadingBracketRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	content := strings.TrimSpace(m[1])
	if content == "" {
		return "", false
	}
	if cjkRunRe.MatchString(content) {
		if cjkSeasonRe.MatchString(content) {
			if before := strings.TrimSpace(firstSplit(content, "第")); before != "" {
				return before, true
			}
		}
		if strings.ContainsAny(content, " .") {
			first := strings.TrimSpace(spaceOrDotRe.Split(content, 2)[0])
			if first != "" && cjkRunRe.MatchString(first) {
				return first, true
			}
		}
	}
	return content, true
}

// cjkTitle concatenates the CJK runs appearing before the first dot. The
// portion before a 之 connector or a 第N季 season marker takes priority.
func cjkTitle(name string) (string, bool) {
	idx := strings.Index(name, ".")
	if idx <= 0 {
		return "", false
	}
	runs := cjkRunRe.FindAllString(name[:idx], -1)
	if len(runs) == 0 {
		return "", false
	}
	text := strings.Join(runs, "")
	if strings.Contains(text, "之") {
		if before := strings.TrimSpace(firstSplit(text, "之")); before != "" {
			return before, true
		}
	}
	if cjkSeasonRe.MatchString(text) {
		if before := strings.TrimSpace(firstSplit(text, "第")); before != "" {
			return before, true
		}
	}
	return text, true
}

// tokenBoundedTitle cuts the name at a season token (.S01 or " S01") or a
// year token (.2021 or " 2021"), whichever occurs first when both are
// present. Dot-separated prefixes are converted to spaces.
func tokenBoundedTitle(name string) (string, bool) {
	seasonIdx := tokenIndex(name, seasonDotRe, seasonSpaceRe)
	yearIdx := tokenIndex(name, yearDotRe, yearSpaceRe)

	switch {
	case seasonIdx >= 0 && yearIdx >= 0:
		if yearIdx < seasonIdx {
			return dottedToSpaced(name[:yearIdx]), true
		}
		return dottedToSpaced(name[:seasonIdx]), true
	case seasonIdx >= 0:
		return dottedToSpaced(name[:seasonIdx]), true
	case yearIdx >= 0:
		return dottedToSpaced(name[:yearIdx]), true
	}
	return "", false
}

// fallbackTitle strips bare year tokens and collapses separator runs. When
// even that yields under two characters the original name stands.
func fallbackTitle(name, original string) string {
	name = bareYearRe.ReplaceAllString(name, "")
	name = separatorRunRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(spaceRunRe.ReplaceAllString(name, " "))
	if utf8.RuneCountInString(name) < minTitleRunes {
		name = original
	}
	if name == "" {
		name = "unknown"
	}
	return name
}

// tokenIndex prefers the dot-delimited token form over the space form when
// both appear.
func tokenIndex(name string, dotRe, spaceRe *regexp.Regexp) int {
	if loc := dotRe.FindStringIndex(name); loc != nil {
		return loc[0]
	}
	if loc := spaceRe.FindStringIndex(name); loc != nil {
		return loc[0]
	}
	return -1
}

func dottedToSpaced(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(strings.ReplaceAll(s, ".", " "), " "))
}

func firstSplit(s, sep string) string {
	return strings.SplitN(s, sep, 2)[0]
}

func stripExtension(name string) string {
	trimmed := strings.TrimSuffix(name, filepath.Ext(name))
	if trimmed == "" {
		return name
	}
	return trimmed
}
